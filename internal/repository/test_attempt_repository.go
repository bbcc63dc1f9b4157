package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/verticalstudies/coaching-api/internal/model"
	"gorm.io/gorm"
)

// TestAttemptRepository is the submission record store.
type TestAttemptRepository interface {
	Create(ctx context.Context, attempt *model.TestAttempt) error
	FindByID(ctx context.Context, id string) (*model.TestAttempt, error)
	ListByTest(ctx context.Context, testID string) ([]model.TestAttempt, error)
	ListByTestAndStudent(ctx context.Context, testID, studentID string) ([]model.TestAttempt, error)
	UpdateRank(ctx context.Context, attemptID string, rank int) error
	UpdateRanks(ctx context.Context, ranks map[string]int) error
}

type testAttemptRepository struct {
	db *gorm.DB
}

func NewTestAttemptRepository(db *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: db}
}

func (r *testAttemptRepository) Create(ctx context.Context, attempt *model.TestAttempt) error {
	// Answers are inserted with the attempt; either both exist or neither does.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(attempt).Error
	})
}

func (r *testAttemptRepository) FindByID(ctx context.Context, id string) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	if err := r.db.WithContext(ctx).Preload("Answers").First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListByTest returns attempts in insertion order without their answers.
func (r *testAttemptRepository) ListByTest(ctx context.Context, testID string) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("completed_at ASC").Order("id ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) ListByTestAndStudent(ctx context.Context, testID, studentID string) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		Order("completed_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) UpdateRank(ctx context.Context, attemptID string, rank int) error {
	res := r.db.WithContext(ctx).Model(&model.TestAttempt{}).Where("id = ?", attemptID).Update("rank", rank)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("attempt %s: %w", attemptID, gorm.ErrRecordNotFound)
	}
	return nil
}

// UpdateRanks writes every rank in one transaction, in attempt id order.
func (r *testAttemptRepository) UpdateRanks(ctx context.Context, ranks map[string]int) error {
	if len(ranks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(ranks))
	for id := range ranks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := tx.Model(&model.TestAttempt{}).Where("id = ?", id).Update("rank", ranks[id]).Error; err != nil {
				return fmt.Errorf("update rank of attempt %s: %w", id, err)
			}
		}
		return nil
	})
}
