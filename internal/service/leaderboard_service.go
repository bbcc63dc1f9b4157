package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/repository"
)

const unknownStudentName = "Unknown"

// DisplayNameResolver maps user ids to display names. Unknown ids are omitted.
type DisplayNameResolver interface {
	GetDisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, testID string) ([]dto.LeaderboardEntryDTO, error)
}

type leaderboardService struct {
	testAttemptRepo repository.TestAttemptRepository
	names           DisplayNameResolver
}

func NewLeaderboardService(testAttemptRepo repository.TestAttemptRepository, names DisplayNameResolver) LeaderboardService {
	return &leaderboardService{testAttemptRepo: testAttemptRepo, names: names}
}

// GetLeaderboard is read-only. It orders attempts like RankAll and reports the
// stored ranks when they match that order. If any attempt is still pending or
// the stored ranks are stale, every row reports its computed position instead.
// A test without attempts, or an unknown test, yields an empty board.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, testID string) ([]dto.LeaderboardEntryDTO, error) {
	attempts, err := s.testAttemptRepo.ListByTest(ctx, testID)
	if err != nil {
		log.Error().Err(err).Str("testID", testID).Msg("GetLeaderboard: Failed to list attempts")
		return nil, storageError(fmt.Sprintf("list attempts for test %s", testID), err)
	}
	entries := make([]dto.LeaderboardEntryDTO, 0, len(attempts))
	if len(attempts) == 0 {
		return entries, nil
	}

	sortAttempts(attempts)

	seen := make(map[string]bool, len(attempts))
	studentIDs := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if !seen[a.StudentID] {
			seen[a.StudentID] = true
			studentIDs = append(studentIDs, a.StudentID)
		}
	}
	names, err := s.names.GetDisplayNames(ctx, studentIDs)
	if err != nil {
		log.Warn().Err(err).Str("testID", testID).Msg("GetLeaderboard: Failed to resolve student names")
		names = map[string]string{}
	}

	if !storedRanksSettled(attempts) {
		log.Warn().Str("testID", testID).Msg("GetLeaderboard: Stored ranks are pending or stale, reporting computed positions")
	}

	for i, a := range attempts {
		name, ok := names[a.StudentID]
		if !ok {
			name = unknownStudentName
		}
		entries = append(entries, dto.LeaderboardEntryDTO{
			Rank:        i + 1,
			AttemptID:   a.ID,
			StudentID:   a.StudentID,
			StudentName: name,
			Score:       a.Score,
			TimeTaken:   a.TimeTaken,
			CompletedAt: a.CompletedAt,
		})
	}
	return entries, nil
}

// storedRanksSettled reports whether the persisted ranks of sorted attempts are
// exactly 1..N in order.
func storedRanksSettled(sorted []model.TestAttempt) bool {
	for i, a := range sorted {
		if a.Rank != i+1 {
			return false
		}
	}
	return true
}
