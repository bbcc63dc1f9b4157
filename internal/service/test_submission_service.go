package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/event"
	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/repository"
)

// TestSubmissionService scores, stores and ranks test attempts.
type TestSubmissionService interface {
	SubmitTest(ctx context.Context, testID, studentID string, req dto.TestAttemptSubmitDTO) (*dto.SubmitResultDTO, error)
	GetTestAttemptDetails(ctx context.Context, attemptID string, caller *model.User) (*dto.TestAttemptDetailDTO, error)
	GetUserAttemptsForTest(ctx context.Context, testID, studentID string) ([]dto.TestAttemptSummaryDTO, error)
}

type testSubmissionService struct {
	testRepo        repository.TestRepository
	questionRepo    repository.QuestionRepository
	testAttemptRepo repository.TestAttemptRepository
	scoreConverter  ScoreConverterService
	locker          RankLocker
	publisher       event.Publisher
	now             func() time.Time
}

// NewTestSubmissionService creates a new instance of TestSubmissionService.
func NewTestSubmissionService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	testAttemptRepo repository.TestAttemptRepository,
	scoreConverter ScoreConverterService,
	locker RankLocker,
	publisher event.Publisher,
) TestSubmissionService {
	return &testSubmissionService{
		testRepo:        testRepo,
		questionRepo:    questionRepo,
		testAttemptRepo: testAttemptRepo,
		scoreConverter:  scoreConverter,
		locker:          locker,
		publisher:       publisher,
		now:             time.Now,
	}
}

// SubmitTest handles one student's submission for an entire test.
//
// The attempt is stored before ranking. If ranking fails afterwards the attempt
// keeps its placeholder rank and the result is returned with RankPending set;
// the next submission to the same test repairs every rank.
func (s *testSubmissionService) SubmitTest(ctx context.Context, testID, studentID string, req dto.TestAttemptSubmitDTO) (*dto.SubmitResultDTO, error) {
	if req.TimeTaken < 0 {
		submissionsTotal.WithLabelValues("validation_error").Inc()
		return nil, validationError("time_taken must not be negative, got %d", req.TimeTaken)
	}
	if err := validateAnswers(req.Answers); err != nil {
		submissionsTotal.WithLabelValues("validation_error").Inc()
		return nil, err
	}

	// 1. Load test and answer key
	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		log.Warn().Err(err).Str("testID", testID).Msg("SubmitTest: Test lookup failed")
		err = storageError(fmt.Sprintf("load test %s", testID), err)
		submissionsTotal.WithLabelValues(statusLabel(err)).Inc()
		return nil, err
	}
	questions, err := s.questionRepo.ListByTest(ctx, testID)
	if err != nil {
		log.Error().Err(err).Str("testID", testID).Msg("SubmitTest: Failed to load questions")
		submissionsTotal.WithLabelValues("storage_error").Inc()
		return nil, storageError(fmt.Sprintf("load questions of test %s", testID), err)
	}

	// 2. Score
	score := ScoreAnswers(req.Answers, questions)

	// 3. Persist the attempt with a placeholder rank
	attempt := model.TestAttempt{
		ID:          newID("attempt"),
		TestID:      testID,
		StudentID:   studentID,
		Answers:     answerRows(req.Answers, questions, testID),
		Score:       score,
		Rank:        0,
		TimeTaken:   req.TimeTaken,
		CompletedAt: s.now().UTC(),
	}
	for i := range attempt.Answers {
		attempt.Answers[i].TestAttemptID = attempt.ID
	}

	if err := s.testAttemptRepo.Create(ctx, &attempt); err != nil {
		log.Error().Err(err).Str("testID", testID).Str("studentID", studentID).Msg("SubmitTest: Failed to create test attempt record")
		submissionsTotal.WithLabelValues("storage_error").Inc()
		return nil, storageError("create test attempt", err)
	}

	// 4. Recompute ranks for the whole test
	resp := &dto.SubmitResultDTO{
		AttemptID:  attempt.ID,
		Score:      score,
		TotalMarks: test.TotalMarks,
	}
	rank, err := s.recomputeRanks(ctx, testID, attempt.ID)
	if err != nil {
		log.Error().Err(err).Str("attemptID", attempt.ID).Str("testID", testID).Msg("SubmitTest: Rank recomputation failed, attempt keeps placeholder rank")
		resp.RankPending = true
	} else {
		resp.Rank = rank
		attempt.Rank = rank
	}

	if result, errEval := s.scoreConverter.Evaluate(score, test.TotalMarks, test.PassingMarks); errEval != nil {
		log.Warn().Err(errEval).Int("score", score).Str("testID", testID).Msg("SubmitTest: Failed to evaluate score against marking scheme")
	} else {
		resp.Percentage = result.Percentage
		resp.Passed = result.Passed
	}

	// 5. Notify
	payload := event.AttemptSubmittedPayload{
		AttemptID:   attempt.ID,
		TestID:      testID,
		StudentID:   studentID,
		Score:       score,
		Rank:        attempt.Rank,
		TimeTaken:   attempt.TimeTaken,
		CompletedAt: attempt.CompletedAt,
	}
	if errPub := s.publisher.Publish(ctx, event.AttemptSubmitted, payload); errPub != nil {
		log.Warn().Err(errPub).Str("attemptID", attempt.ID).Msg("SubmitTest: Failed to publish attempt event")
	}

	submissionsTotal.WithLabelValues("success").Inc()
	log.Info().Str("attemptID", attempt.ID).Str("testID", testID).Str("studentID", studentID).
		Int("score", score).Int("rank", resp.Rank).Msg("Test attempt submitted")
	return resp, nil
}

// recomputeRanks reranks every attempt of testID under the per-test lock and
// returns the rank of attemptID.
func (s *testSubmissionService) recomputeRanks(ctx context.Context, testID, attemptID string) (rank int, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		rankRecomputeDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	lease, unlock, err := s.locker.Lock(ctx, testID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer unlock()

	attempts, err := s.testAttemptRepo.ListByTest(lease, testID)
	if err != nil {
		return 0, storageError("list attempts", err)
	}
	ranks := RankAll(attempts)
	rankedAttempts.Observe(float64(len(attempts)))

	// A lost lease means another holder may already be writing newer ranks.
	if lease.Err() != nil {
		return 0, fmt.Errorf("%w: rank lock released before writing ranks: %v", ErrStorage, context.Cause(lease))
	}
	if err := s.testAttemptRepo.UpdateRanks(lease, changedRanks(attempts, ranks)); err != nil {
		return 0, storageError("update ranks", err)
	}
	return ranks[attemptID], nil
}

// answerRows keeps the answers that belong to the test, in question order.
func answerRows(answers map[string]int, questions []model.Question, testID string) []model.Answer {
	rows := make([]model.Answer, 0, len(answers))
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
		if selected, ok := answers[q.ID]; ok {
			rows = append(rows, model.Answer{QuestionID: q.ID, SelectedOption: selected})
		}
	}
	for qid := range answers {
		if !known[qid] {
			log.Warn().Str("questionID", qid).Str("testID", testID).Msg("SubmitTest: Submitted answer for a question not part of this test, skipping.")
		}
	}
	return rows
}

// GetTestAttemptDetails retrieves a graded attempt. Students may only read their own.
func (s *testSubmissionService) GetTestAttemptDetails(ctx context.Context, attemptID string, caller *model.User) (*dto.TestAttemptDetailDTO, error) {
	attempt, err := s.testAttemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		log.Warn().Err(err).Str("attemptID", attemptID).Msg("GetTestAttemptDetails: Failed to find test attempt by ID.")
		return nil, storageError(fmt.Sprintf("load attempt %s", attemptID), err)
	}
	if caller.Role == model.RoleStudent && attempt.StudentID != caller.ID {
		return nil, fmt.Errorf("attempt %s belongs to another student: %w", attemptID, ErrForbidden)
	}

	test, err := s.testRepo.FindByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		log.Error().Err(err).Str("testID", attempt.TestID).Msg("GetTestAttemptDetails: Failed to load test for attempt.")
		return nil, storageError(fmt.Sprintf("load test %s", attempt.TestID), err)
	}

	resp := dto.TestAttemptDetailDTO{
		ID:          attempt.ID,
		TestID:      attempt.TestID,
		TestTitle:   test.Title,
		StudentID:   attempt.StudentID,
		Score:       attempt.Score,
		Rank:        attempt.Rank,
		TotalMarks:  test.TotalMarks,
		TimeTaken:   attempt.TimeTaken,
		CompletedAt: attempt.CompletedAt,
	}

	if result, errEval := s.scoreConverter.Evaluate(attempt.Score, test.TotalMarks, test.PassingMarks); errEval == nil {
		resp.Percentage = result.Percentage
		resp.Passed = result.Passed
	}

	graded := GradeAnswers(attempt.AnswerMap(), test.Questions)
	resp.Answers = make([]dto.AnswerResponseDTO, len(graded))
	for i, g := range graded {
		answer := dto.AnswerResponseDTO{
			QuestionID:     g.Question.ID,
			QuestionText:   g.Question.QuestionText,
			SelectedOption: g.Selected,
			CorrectAnswer:  g.Question.CorrectAnswer,
			IsCorrect:      g.Correct,
			Marks:          g.Question.Marks,
			MarksAwarded:   g.MarksAwarded,
			SolutionText:   g.Question.SolutionText,
		}
		answer.CorrectText, _ = g.Question.OptionText(g.Question.CorrectAnswer)
		if g.Selected != nil {
			if text, ok := g.Question.OptionText(*g.Selected); ok {
				answer.SelectedText = &text
			}
		}
		resp.Answers[i] = answer
	}
	return &resp, nil
}

// GetUserAttemptsForTest lists a student's attempts for a test, newest first.
func (s *testSubmissionService) GetUserAttemptsForTest(ctx context.Context, testID, studentID string) ([]dto.TestAttemptSummaryDTO, error) {
	attempts, err := s.testAttemptRepo.ListByTestAndStudent(ctx, testID, studentID)
	if err != nil {
		log.Error().Err(err).Str("testID", testID).Str("studentID", studentID).Msg("GetUserAttemptsForTest: Failed to find attempts from repository.")
		return nil, storageError(fmt.Sprintf("list attempts for test %s", testID), err)
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt.After(attempts[j].CompletedAt)
	})

	dtos := make([]dto.TestAttemptSummaryDTO, 0, len(attempts))
	if err := copier.Copy(&dtos, &attempts); err != nil {
		log.Error().Err(err).Msg("GetUserAttemptsForTest: Error copying attempts to summary DTOs")
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	return dtos, nil
}
