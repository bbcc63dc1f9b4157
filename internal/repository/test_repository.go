package repository

import (
	"context"

	"github.com/verticalstudies/coaching-api/internal/model"
	"gorm.io/gorm"
)

type TestFilter struct {
	SubjectID string
	ChapterID string
}

type TestRepository interface {
	Create(ctx context.Context, test *model.Test) error
	FindByID(ctx context.Context, id string) (*model.Test, error)
	FindByIDWithQuestions(ctx context.Context, id string) (*model.Test, error)
	FindAll(ctx context.Context, filter TestFilter) ([]model.Test, error)
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	// GORM creates test.Questions in the same transaction.
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) FindByID(ctx context.Context, id string) (*model.Test, error) {
	var test model.Test
	if err := r.db.WithContext(ctx).First(&test, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(ctx context.Context, id string) (*model.Test, error) {
	var test model.Test
	err := r.db.WithContext(ctx).Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order_in_test ASC")
	}).First(&test, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindAll(ctx context.Context, filter TestFilter) ([]model.Test, error) {
	var tests []model.Test
	query := r.db.WithContext(ctx)
	if filter.SubjectID != "" {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.ChapterID != "" {
		query = query.Where("chapter_id = ?", filter.ChapterID)
	}
	if err := query.Order("created_at DESC").Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}
