package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/repository"
)

type UserTestService interface {
	GetAllTests(ctx context.Context, filter dto.TestListFilter) ([]dto.TestSummaryDTO, error)
	GetTestDetails(ctx context.Context, testID string, includeAnswerKey bool) (*dto.TestResponseDTO, error)
}

type userTestService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
}

func NewUserTestService(testRepo repository.TestRepository, questionRepo repository.QuestionRepository) UserTestService {
	return &userTestService{testRepo: testRepo, questionRepo: questionRepo}
}

func (s *userTestService) GetAllTests(ctx context.Context, filter dto.TestListFilter) ([]dto.TestSummaryDTO, error) {
	tests, err := s.testRepo.FindAll(ctx, repository.TestFilter{SubjectID: filter.SubjectID, ChapterID: filter.ChapterID})
	if err != nil {
		log.Error().Err(err).Msg("Failed to get all tests from repository")
		return nil, storageError("list tests", err)
	}

	ids := make([]string, len(tests))
	for i, t := range tests {
		ids[i] = t.ID
	}
	counts, err := s.questionRepo.CountByTest(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count questions per test")
		return nil, storageError("count questions", err)
	}

	dtos := make([]dto.TestSummaryDTO, 0, len(tests))
	for _, t := range tests {
		dtos = append(dtos, dto.TestSummaryDTO{
			ID:            t.ID,
			SubjectID:     t.SubjectID,
			ChapterID:     t.ChapterID,
			TestType:      t.TestType,
			Title:         t.Title,
			Description:   t.Description,
			DurationMins:  t.DurationMins,
			TotalMarks:    t.TotalMarks,
			QuestionCount: counts[t.ID],
			CreatedAt:     t.CreatedAt,
		})
	}
	return dtos, nil
}

// GetTestDetails returns a test with its questions. Students get the paper without the answer key.
func (s *userTestService) GetTestDetails(ctx context.Context, testID string, includeAnswerKey bool) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		log.Warn().Err(err).Str("testID", testID).Msg("Failed to get test details from repository")
		return nil, storageError(fmt.Sprintf("load test %s", testID), err)
	}
	return toTestResponse(test, includeAnswerKey)
}
