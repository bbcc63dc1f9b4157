package service

import (
	"sort"

	"github.com/verticalstudies/coaching-api/internal/model"
)

// rankedBefore orders attempts for the leaderboard:
// higher score, then faster time, then earlier completion, then attempt id.
func rankedBefore(a, b *model.TestAttempt) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TimeTaken != b.TimeTaken {
		return a.TimeTaken < b.TimeTaken
	}
	if !a.CompletedAt.Equal(b.CompletedAt) {
		return a.CompletedAt.Before(b.CompletedAt)
	}
	return a.ID < b.ID
}

// sortAttempts sorts attempts in place by rankedBefore.
func sortAttempts(attempts []model.TestAttempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		return rankedBefore(&attempts[i], &attempts[j])
	})
}

// RankAll assigns dense 1-based ranks to every attempt of one test.
// It recomputes from scratch and does not modify its input.
func RankAll(attempts []model.TestAttempt) map[string]int {
	ordered := make([]model.TestAttempt, len(attempts))
	copy(ordered, attempts)
	sortAttempts(ordered)

	ranks := make(map[string]int, len(ordered))
	for i := range ordered {
		ranks[ordered[i].ID] = i + 1
	}
	return ranks
}

// changedRanks keeps only the ranks that differ from what is stored.
func changedRanks(attempts []model.TestAttempt, ranks map[string]int) map[string]int {
	changed := make(map[string]int)
	for _, a := range attempts {
		if r, ok := ranks[a.ID]; ok && r != a.Rank {
			changed[a.ID] = r
		}
	}
	return changed
}
