package repository

import (
	"context"

	"github.com/verticalstudies/coaching-api/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
	FindByEmailAndRole(ctx context.Context, email, role string) (*model.User, error)
	FindStudentByMobileAndBatch(ctx context.Context, mobile, batchCode string) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepository) FindByEmailAndRole(ctx context.Context, email, role string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ? AND role = ?", email, role).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindStudentByMobileAndBatch(ctx context.Context, mobile, batchCode string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("mobile = ? AND batch_code = ? AND role = ?", mobile, batchCode, model.RoleStudent).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
