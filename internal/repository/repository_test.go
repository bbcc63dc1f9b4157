package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verticalstudies/coaching-api/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var base = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Session{}, &model.Test{}, &model.Question{}, &model.TestAttempt{}, &model.Answer{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedTest(t *testing.T, db *gorm.DB, id string, createdAt time.Time) *model.Test {
	t.Helper()
	test := &model.Test{
		ID:           id,
		TestType:     model.TestTypeChapter,
		Title:        "Test " + id,
		DurationMins: 30,
		TotalMarks:   8,
		CreatedBy:    "teacher_1",
		CreatedAt:    createdAt,
		Questions: []model.Question{
			{ID: id + "_q2", TestID: id, QuestionText: "two", CorrectAnswer: 1, Marks: 4, OrderInTest: 2},
			{ID: id + "_q1", TestID: id, QuestionText: "one", CorrectAnswer: 0, Marks: 4, OrderInTest: 1},
		},
	}
	require.NoError(t, NewTestRepository(db).Create(context.Background(), test))
	return test
}

func TestTestRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewTestRepository(db)
	ctx := context.Background()

	seedTest(t, db, "test_a", base)
	b := seedTest(t, db, "test_b", base.Add(time.Hour))
	subject := "physics"
	require.NoError(t, db.Model(b).Update("subject_id", subject).Error)

	got, err := repo.FindByIDWithQuestions(ctx, "test_a")
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "test_a_q1", got.Questions[0].ID, "questions are ordered by order_in_test")

	plain, err := repo.FindByID(ctx, "test_a")
	require.NoError(t, err)
	assert.Empty(t, plain.Questions)

	_, err = repo.FindByID(ctx, "test_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	all, err := repo.FindAll(ctx, TestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "test_b", all[0].ID)

	filtered, err := repo.FindAll(ctx, TestFilter{SubjectID: subject})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "test_b", filtered[0].ID)
}

func TestQuestionRepository(t *testing.T) {
	db := newTestDB(t)
	seedTest(t, db, "test_a", base)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	qs, err := repo.ListByTest(ctx, "test_a")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, 1, qs[0].OrderInTest)

	counts, err := repo.CountByTest(ctx, []string{"test_a", "test_none"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"test_a": 2}, counts)

	empty, err := repo.CountByTest(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTestAttemptRepository(t *testing.T) {
	db := newTestDB(t)
	seedTest(t, db, "test_a", base)
	repo := NewTestAttemptRepository(db)
	ctx := context.Background()

	attempts := []model.TestAttempt{
		{ID: "attempt_2", TestID: "test_a", StudentID: "S1", Score: 4, TimeTaken: 90, CompletedAt: base.Add(2 * time.Minute)},
		{ID: "attempt_1", TestID: "test_a", StudentID: "S1", Score: 8, TimeTaken: 120, CompletedAt: base.Add(time.Minute),
			Answers: []model.Answer{{TestAttemptID: "attempt_1", QuestionID: "test_a_q1", SelectedOption: 0}, {TestAttemptID: "attempt_1", QuestionID: "test_a_q2", SelectedOption: 1}}},
		{ID: "attempt_3", TestID: "test_a", StudentID: "S2", Score: 0, TimeTaken: 10, CompletedAt: base.Add(3 * time.Minute)},
	}
	for i := range attempts {
		require.NoError(t, repo.Create(ctx, &attempts[i]))
	}

	found, err := repo.FindByID(ctx, "attempt_1")
	require.NoError(t, err)
	assert.Equal(t, 0, found.Rank)
	assert.Equal(t, map[string]int{"test_a_q1": 0, "test_a_q2": 1}, found.AnswerMap())

	listed, err := repo.ListByTest(ctx, "test_a")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "attempt_1", listed[0].ID)
	assert.Equal(t, "attempt_3", listed[2].ID)

	mine, err := repo.ListByTestAndStudent(ctx, "test_a", "S1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "attempt_2", mine[0].ID, "newest first")

	require.NoError(t, repo.UpdateRanks(ctx, map[string]int{"attempt_1": 1, "attempt_2": 2, "attempt_3": 3}))
	require.NoError(t, repo.UpdateRanks(ctx, nil))
	require.NoError(t, repo.UpdateRank(ctx, "attempt_3", 3))
	assert.ErrorIs(t, repo.UpdateRank(ctx, "attempt_missing", 1), gorm.ErrRecordNotFound)

	listed, err = repo.ListByTest(ctx, "test_a")
	require.NoError(t, err)
	for _, a := range listed {
		assert.NotZero(t, a.Rank, a.ID)
	}
	again, err := repo.FindByID(ctx, "attempt_2")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Rank)
	assert.Equal(t, 4, again.Score, "score is untouched by rank updates")

	_, err = repo.FindByID(ctx, "attempt_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserAndSessionRepositories(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	mobile, batch, email := "9876543210", "JEE-26", "rao@vs.in"
	require.NoError(t, users.Create(ctx, &model.User{ID: "student_1", Name: "Asha", Role: model.RoleStudent, Mobile: &mobile, BatchCode: &batch, CreatedAt: base}))
	require.NoError(t, users.Create(ctx, &model.User{ID: "teacher_1", Name: "Mr. Rao", Role: model.RoleTeacher, Email: &email, CreatedAt: base}))

	s, err := users.FindStudentByMobileAndBatch(ctx, mobile, batch)
	require.NoError(t, err)
	assert.Equal(t, "student_1", s.ID)
	_, err = users.FindStudentByMobileAndBatch(ctx, mobile, "OTHER")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	tch, err := users.FindByEmailAndRole(ctx, email, model.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, "teacher_1", tch.ID)
	_, err = users.FindByEmailAndRole(ctx, email, model.RoleAdmin)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	many, err := users.FindByIDs(ctx, []string{"student_1", "teacher_1", "ghost"})
	require.NoError(t, err)
	assert.Len(t, many, 2)
	none, err := users.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, sessions.Create(ctx, &model.Session{Token: "session_abc", UserID: "student_1", ExpiresAt: base.Add(time.Hour), CreatedAt: base}))
	got, err := sessions.FindByToken(ctx, "session_abc")
	require.NoError(t, err)
	assert.Equal(t, "student_1", got.UserID)
	require.NoError(t, sessions.Delete(ctx, "session_abc"))
	_, err = sessions.FindByToken(ctx, "session_abc")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
