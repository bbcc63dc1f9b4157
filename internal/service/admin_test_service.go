package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/repository"
)

// AdminTestService is the authoring side used by teachers and admins.
type AdminTestService interface {
	CreateTest(ctx context.Context, creator *model.User, req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
	GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsDTO) (*dto.GeneratedQuestionsDTO, error)
}

type adminTestService struct {
	testRepo repository.TestRepository
	llm      GeminiLLMService
	now      func() time.Time
}

func NewAdminTestService(testRepo repository.TestRepository, llm GeminiLLMService) AdminTestService {
	return &adminTestService{testRepo: testRepo, llm: llm, now: time.Now}
}

// CreateTest stores a test with its answer key. Total marks are the sum of question marks.
func (s *adminTestService) CreateTest(ctx context.Context, creator *model.User, req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	if !creator.HasRole(model.RoleTeacher, model.RoleAdmin) {
		return nil, fmt.Errorf("role %s cannot author tests: %w", creator.Role, ErrForbidden)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, validationError("title is required")
	}
	if req.TestType != model.TestTypeChapter && req.TestType != model.TestTypeFull {
		return nil, validationError("test_type must be %q or %q, got %q", model.TestTypeChapter, model.TestTypeFull, req.TestType)
	}
	if req.DurationMins <= 0 {
		return nil, validationError("duration_mins must be positive, got %d", req.DurationMins)
	}
	if len(req.Questions) == 0 {
		return nil, validationError("a test needs at least one question")
	}

	testID := newID("test")
	questions := make([]model.Question, 0, len(req.Questions))
	total := 0
	for i, qDto := range req.Questions {
		if strings.TrimSpace(qDto.QuestionText) == "" {
			return nil, validationError("question %d has no text", i+1)
		}
		if !model.ValidOption(qDto.CorrectAnswer) {
			return nil, validationError("question %d: correct_answer must be between %d and %d, got %d", i+1, model.MinOption, model.MaxOption, qDto.CorrectAnswer)
		}
		if qDto.Marks <= 0 {
			return nil, validationError("question %d: marks must be positive, got %d", i+1, qDto.Marks)
		}

		var q model.Question
		if err := copier.Copy(&q, &qDto); err != nil {
			return nil, fmt.Errorf("error preparing question %d: %w", i+1, err)
		}
		q.ID = newID("q")
		q.TestID = testID
		q.OrderInTest = i + 1
		total += q.Marks
		questions = append(questions, q)
	}

	if req.PassingMarks < 0 || req.PassingMarks > total {
		return nil, validationError("passing_marks must be between 0 and total marks %d, got %d", total, req.PassingMarks)
	}

	test := model.Test{
		ID:           testID,
		SubjectID:    req.SubjectID,
		ChapterID:    req.ChapterID,
		TestType:     req.TestType,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		DurationMins: req.DurationMins,
		TotalMarks:   total,
		PassingMarks: req.PassingMarks,
		CreatedBy:    creator.ID,
		Questions:    questions,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.testRepo.Create(ctx, &test); err != nil {
		log.Error().Err(err).Str("creatorID", creator.ID).Msg("Failed to create test in database")
		return nil, storageError("create test", err)
	}
	log.Info().Str("testID", test.ID).Str("creatorID", creator.ID).Int("questions", len(questions)).Int("totalMarks", total).Msg("Test created")

	return toTestResponse(&test, true)
}

func (s *adminTestService) GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsDTO) (*dto.GeneratedQuestionsDTO, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, validationError("topic is required")
	}
	questions, err := s.llm.GenerateQuestions(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.GeneratedQuestionsDTO{Topic: req.Topic, Questions: questions}, nil
}

// toTestResponse maps a test to its response. The answer key is included only when withKey is set.
func toTestResponse(test *model.Test, withKey bool) (*dto.TestResponseDTO, error) {
	var resp dto.TestResponseDTO
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Msg("Failed to copy Test model to TestResponseDTO")
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	resp.Questions = make([]dto.QuestionResponseDTO, len(test.Questions))
	for i, q := range test.Questions {
		qr := dto.QuestionResponseDTO{
			ID:           q.ID,
			TestID:       q.TestID,
			QuestionText: q.QuestionText,
			OptionA:      q.OptionA,
			OptionB:      q.OptionB,
			OptionC:      q.OptionC,
			OptionD:      q.OptionD,
			Marks:        q.Marks,
			OrderInTest:  q.OrderInTest,
		}
		if withKey {
			correct := q.CorrectAnswer
			qr.CorrectAnswer = &correct
			qr.SolutionText = q.SolutionText
		}
		resp.Questions[i] = qr
	}
	return &resp, nil
}
