package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/model"
)

func TestGetAllTests(t *testing.T) {
	physics := sampleTest()
	physics.SubjectID = strPtr("physics")
	chem := model.Test{ID: "test_c", Title: "Moles", TestType: model.TestTypeFull, SubjectID: strPtr("chemistry"), CreatedAt: base.Add(time.Hour)}

	tests := newFakeTestRepo(physics, chem)
	svc := NewUserTestService(tests, &fakeQuestionRepo{tests: tests})

	all, err := svc.GetAllTests(context.Background(), dto.TestListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "test_c", all[0].ID)
	assert.Equal(t, 0, all[0].QuestionCount)
	assert.Equal(t, 2, all[1].QuestionCount)

	filtered, err := svc.GetAllTests(context.Background(), dto.TestListFilter{SubjectID: "physics"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "test_t", filtered[0].ID)
}

func TestGetTestDetails_HidesAnswerKeyFromStudents(t *testing.T) {
	tests := newFakeTestRepo(sampleTest())
	svc := NewUserTestService(tests, &fakeQuestionRepo{tests: tests})

	paper, err := svc.GetTestDetails(context.Background(), "test_t", false)
	require.NoError(t, err)
	require.Len(t, paper.Questions, 2)
	for _, q := range paper.Questions {
		assert.Nil(t, q.CorrectAnswer)
		assert.Nil(t, q.SolutionText)
	}

	keyed, err := svc.GetTestDetails(context.Background(), "test_t", true)
	require.NoError(t, err)
	require.NotNil(t, keyed.Questions[1].CorrectAnswer)
	assert.Equal(t, 1, *keyed.Questions[1].CorrectAnswer)

	_, err = svc.GetTestDetails(context.Background(), "test_missing", false)
	assert.ErrorIs(t, err, ErrNotFound)
}
