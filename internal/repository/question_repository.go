package repository

import (
	"context"

	"github.com/verticalstudies/coaching-api/internal/model"
	"gorm.io/gorm"
)

// QuestionRepository is the answer-key store. Questions are written together with their test.
type QuestionRepository interface {
	ListByTest(ctx context.Context, testID string) ([]model.Question, error)
	CountByTest(ctx context.Context, testIDs []string) (map[string]int, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) ListByTest(ctx context.Context, testID string) ([]model.Question, error) {
	var questions []model.Question
	if err := r.db.WithContext(ctx).Where("test_id = ?", testID).Order("order_in_test ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) CountByTest(ctx context.Context, testIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(testIDs))
	if len(testIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		TestID string
		Count  int
	}
	err := r.db.WithContext(ctx).Model(&model.Question{}).
		Select("test_id, COUNT(*) AS count").
		Where("test_id IN ?", testIDs).
		Group("test_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TestID] = row.Count
	}
	return counts, nil
}
