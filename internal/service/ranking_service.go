package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/mocktest/internal/dto"
	"github.com/lshigami/mocktest/internal/ranking"
	"github.com/lshigami/mocktest/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// RankingService maintains rank and percentile of finalized attempts after the fact.
type RankingService interface {
	// Recompute reassigns rank and percentile of every finalized attempt of a test.
	Recompute(ctx context.Context, creatorID, testID uint) (*dto.RecomputeResultDTO, error)
	// AttachMissingPercentiles resolves a percentile for finalized attempts that have none.
	// Attempts that already carry a percentile are left as they are.
	AttachMissingPercentiles(ctx context.Context, testID uint) (int, error)
	Leaderboard(ctx context.Context, testID uint, limit int) ([]dto.LeaderboardEntryDTO, error)
}

type rankingService struct {
	testRepo       repository.TestRepository
	attemptRepo    repository.TestAttemptRepository
	percentileRepo repository.PercentileRepository
	leaderboard    repository.LeaderboardIndex
}

func NewRankingService(
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	percentileRepo repository.PercentileRepository,
	leaderboard repository.LeaderboardIndex,
) RankingService {
	return &rankingService{testRepo: testRepo, attemptRepo: attemptRepo, percentileRepo: percentileRepo, leaderboard: leaderboard}
}

func (s *rankingService) Recompute(ctx context.Context, creatorID, testID uint) (*dto.RecomputeResultDTO, error) {
	if _, err := ownedTest(ctx, s.testRepo, creatorID, testID); err != nil {
		return nil, err
	}
	rows, err := s.attemptRepo.FindFinalizedByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load finalized attempts of test %d: %w", testID, err)
	}
	mappingRows, err := s.percentileRepo.FindByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load percentile mapping of test %d: %w", testID, err)
	}
	mapping := repository.Thresholds(mappingRows)

	totals := make([]float64, 0, len(rows))
	entries := make([]repository.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		if row.TotalMarks == nil {
			continue
		}
		totals = append(totals, *row.TotalMarks)
		entries = append(entries, repository.LeaderboardEntry{AttemptID: row.ID, UserID: row.UserID, TotalMarks: *row.TotalMarks})
	}

	updated := 0
	for _, row := range rows {
		if row.TotalMarks == nil {
			continue
		}
		// The attempt's own total is never strictly higher than itself.
		rank := ranking.Rank(*row.TotalMarks, totals)
		var percentile *float64
		if p, ok := ranking.Percentile(mapping, *row.TotalMarks); ok {
			percentile = &p
		}
		if err := s.attemptRepo.UpdateStanding(ctx, row.ID, &rank, percentile); err != nil {
			log.Error().Err(err).Uint("attemptID", row.ID).Msg("Failed to update attempt standing")
			return nil, fmt.Errorf("update standing of attempt %d: %w", row.ID, err)
		}
		updated++
	}

	if err := s.leaderboard.Rebuild(ctx, testID, entries); err != nil && !errors.Is(err, repository.ErrLeaderboardDisabled) {
		log.Warn().Err(err).Uint("testID", testID).Msg("Failed to rebuild leaderboard cache")
	}
	log.Info().Uint("testID", testID).Int("attempts", updated).Msg("Rankings recomputed")
	return &dto.RecomputeResultDTO{TestID: testID, Attempts: updated}, nil
}

func (s *rankingService) AttachMissingPercentiles(ctx context.Context, testID uint) (int, error) {
	mappingRows, err := s.percentileRepo.FindByTestID(ctx, testID)
	if err != nil {
		return 0, fmt.Errorf("load percentile mapping of test %d: %w", testID, err)
	}
	mapping := repository.Thresholds(mappingRows)
	if len(mapping) == 0 {
		return 0, nil
	}
	rows, err := s.attemptRepo.FindFinalizedByTest(ctx, testID)
	if err != nil {
		return 0, fmt.Errorf("load finalized attempts of test %d: %w", testID, err)
	}
	attached := 0
	for _, row := range rows {
		if row.Percentile != nil || row.TotalMarks == nil {
			continue
		}
		p, ok := ranking.Percentile(mapping, *row.TotalMarks)
		if !ok {
			continue
		}
		if err := s.attemptRepo.UpdateStanding(ctx, row.ID, row.Rank, &p); err != nil {
			return attached, fmt.Errorf("attach percentile to attempt %d: %w", row.ID, err)
		}
		attached++
	}
	return attached, nil
}

func (s *rankingService) Leaderboard(ctx context.Context, testID uint, limit int) ([]dto.LeaderboardEntryDTO, error) {
	if _, err := s.testRepo.FindByID(ctx, testID); err != nil {
		return nil, notFound(err, "test", testID)
	}
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	entries, err := s.leaderboard.Top(ctx, testID, limit)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to load leaderboard")
		return nil, fmt.Errorf("load leaderboard of test %d: %w", testID, err)
	}
	out := make([]dto.LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = dto.LeaderboardEntryDTO{Rank: e.Rank, AttemptID: e.AttemptID, UserID: e.UserID, TotalMarks: e.TotalMarks}
	}
	return out, nil
}
