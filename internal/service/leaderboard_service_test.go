package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verticalstudies/coaching-api/internal/model"
)

func TestGetLeaderboard(t *testing.T) {
	a := attempt("attempt_a", 4, 100, 0)
	a.StudentID, a.Rank = "S1", 2
	b := attempt("attempt_b", 8, 120, time.Second)
	b.StudentID, b.Rank = "S2", 1
	c := attempt("attempt_c", 4, 90, 2*time.Second)
	c.StudentID = "S3" // not ranked yet

	repo := newFakeAttemptRepo(a, b, c)
	svc := NewLeaderboardService(repo, staticNames{"S1": "Asha", "S2": "Bilal"})

	board, err := svc.GetLeaderboard(context.Background(), "test_1")
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, "attempt_b", board[0].AttemptID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "Bilal", board[0].StudentName)

	assert.Equal(t, "attempt_c", board[1].AttemptID)
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, unknownStudentName, board[1].StudentName)

	assert.Equal(t, "attempt_a", board[2].AttemptID)
	assert.Equal(t, 3, board[2].Rank, "stale stored rank is replaced by the position")
	assert.Equal(t, 100, board[2].TimeTaken)
}

func TestGetLeaderboard_SettledRanks(t *testing.T) {
	a := attempt("attempt_a", 8, 100, 0)
	a.Rank = 1
	b := attempt("attempt_b", 4, 100, time.Second)
	b.Rank = 2

	board, err := NewLeaderboardService(newFakeAttemptRepo(b, a), staticNames{}).GetLeaderboard(context.Background(), "test_1")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, []int{1, 2}, []int{board[0].Rank, board[1].Rank})
	assert.True(t, storedRanksSettled([]model.TestAttempt{a, b}))
	assert.False(t, storedRanksSettled([]model.TestAttempt{a, attempt("attempt_c", 4, 90, 0)}))
}

func TestGetLeaderboard_DenseWhileRankPending(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.SubmitTest(ctx, "test_t", "S1", submitWith(map[string]int{"q1": 0}, 60))
	require.NoError(t, err)
	require.Equal(t, 1, first.Rank)

	f.attempts.failUpdateRanks = true
	second, err := f.svc.SubmitTest(ctx, "test_t", "S2", submitAllCorrect())
	require.NoError(t, err)
	require.True(t, second.RankPending)

	board, err := NewLeaderboardService(f.attempts, staticNames{}).GetLeaderboard(ctx, "test_t")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, second.AttemptID, board[0].AttemptID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, first.AttemptID, board[1].AttemptID)
	assert.Equal(t, 2, board[1].Rank)
}

func TestGetLeaderboard_Empty(t *testing.T) {
	svc := NewLeaderboardService(newFakeAttemptRepo(), staticNames{})
	board, err := svc.GetLeaderboard(context.Background(), "test_none")
	require.NoError(t, err)
	assert.NotNil(t, board)
	assert.Empty(t, board)
}

func TestGetLeaderboard_StorageError(t *testing.T) {
	repo := newFakeAttemptRepo()
	repo.failList = true
	_, err := NewLeaderboardService(repo, staticNames{}).GetLeaderboard(context.Background(), "test_1")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestGetLeaderboard_MatchesRankAllAfterSubmissions(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	ctx := context.Background()
	for i, answers := range []map[string]int{{"q1": 0}, {"q1": 0, "q2": 1}, {}, {"q2": 1}} {
		_, err := f.svc.SubmitTest(ctx, "test_t", "S"+string(rune('A'+i)), submitWith(answers, 30))
		require.NoError(t, err)
	}

	board, err := NewLeaderboardService(f.attempts, staticNames{}).GetLeaderboard(ctx, "test_t")
	require.NoError(t, err)
	for i, e := range board {
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, board[i-1].Score, e.Score)
		}
	}
}
