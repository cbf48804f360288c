package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/lshigami/mocktest/internal/model"
	"github.com/lshigami/mocktest/internal/scoring"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrLeaderboardDisabled = errors.New("leaderboard cache disabled")

type LeaderboardEntry struct {
	Rank       int
	AttemptID  uint
	UserID     uint
	TotalMarks float64
}

// LeaderboardIndex keeps finalized totals per test ordered by score.
type LeaderboardIndex interface {
	Record(ctx context.Context, testID uint, entry LeaderboardEntry) error
	// Rebuild replaces the cached index of a test with entries.
	Rebuild(ctx context.Context, testID uint, entries []LeaderboardEntry) error
	Top(ctx context.Context, testID uint, limit int) ([]LeaderboardEntry, error)
}

// leaderboardRepository serves the top of a test from a redis sorted set keyed by attempt id
// and falls back to SQL when redis is not configured or fails.
type leaderboardRepository struct {
	rdb      *redis.Client
	attempts TestAttemptRepository
}

func NewLeaderboardRepository(rdb *redis.Client, db *gorm.DB) LeaderboardIndex {
	return &leaderboardRepository{rdb: rdb, attempts: NewTestAttemptRepository(db)}
}

func leaderboardKey(testID uint) string {
	return fmt.Sprintf("mocktest:leaderboard:%d", testID)
}

func (r *leaderboardRepository) Record(ctx context.Context, testID uint, entry LeaderboardEntry) error {
	if r.rdb == nil {
		return ErrLeaderboardDisabled
	}
	key := leaderboardKey(testID)
	err := r.rdb.ZAdd(ctx, key, redis.Z{
		Score:  entry.TotalMarks,
		Member: strconv.FormatUint(uint64(entry.AttemptID), 10),
	}).Err()
	if err != nil {
		// A set missing this attempt must not be served; the next Top rebuilds it.
		if delErr := r.rdb.Del(ctx, key).Err(); delErr != nil {
			log.Warn().Err(delErr).Uint("testID", testID).Msg("Failed to drop leaderboard cache after write error")
		}
		return err
	}
	return nil
}

func (r *leaderboardRepository) Rebuild(ctx context.Context, testID uint, entries []LeaderboardEntry) error {
	if r.rdb == nil {
		return ErrLeaderboardDisabled
	}
	key := leaderboardKey(testID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(entries) == 0 {
			return nil
		}
		members := make([]redis.Z, len(entries))
		for i, e := range entries {
			members[i] = redis.Z{Score: e.TotalMarks, Member: strconv.FormatUint(uint64(e.AttemptID), 10)}
		}
		pipe.ZAdd(ctx, key, members...)
		return nil
	})
	return err
}

// Top serves from redis only while the cached set holds every finalized attempt of the test.
// A missing or partial set is rebuilt from the database and this call is answered from SQL.
func (r *leaderboardRepository) Top(ctx context.Context, testID uint, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return []LeaderboardEntry{}, nil
	}
	if r.rdb == nil {
		return r.topFromDB(ctx, testID, limit)
	}

	finalized, err := r.attempts.CountFinalizedByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("count finalized attempts of test %d: %w", testID, err)
	}
	cached, err := r.rdb.ZCard(ctx, leaderboardKey(testID)).Result()
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("Leaderboard cache read failed, using database")
		return r.topFromDB(ctx, testID, limit)
	}
	if cached == finalized && finalized > 0 {
		entries, err := r.topFromRedis(ctx, testID, limit)
		if err == nil {
			return entries, nil
		}
		log.Warn().Err(err).Uint("testID", testID).Msg("Leaderboard cache read failed, using database")
		return r.topFromDB(ctx, testID, limit)
	}

	if finalized > 0 {
		if err := r.refill(ctx, testID); err != nil {
			log.Warn().Err(err).Uint("testID", testID).Int64("cached", cached).Int64("finalized", finalized).
				Msg("Failed to rebuild leaderboard cache")
		}
	}
	return r.topFromDB(ctx, testID, limit)
}

func (r *leaderboardRepository) refill(ctx context.Context, testID uint) error {
	rows, err := r.attempts.FindFinalizedByTest(ctx, testID)
	if err != nil {
		return err
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryOf(row))
	}
	log.Info().Uint("testID", testID).Int("entries", len(entries)).Msg("Rebuilding leaderboard cache")
	return r.Rebuild(ctx, testID, entries)
}

func (r *leaderboardRepository) topFromRedis(ctx context.Context, testID uint, limit int) ([]LeaderboardEntry, error) {
	zs, err := r.rdb.ZRevRangeWithScores(ctx, leaderboardKey(testID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad leaderboard member %v: %w", z.Member, err)
		}
		ids = append(ids, uint(id))
	}
	rows, err := r.attempts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	users := make(map[uint]uint, len(rows))
	for _, row := range rows {
		users[row.ID] = row.UserID
	}
	entries := make([]LeaderboardEntry, len(zs))
	for i, z := range zs {
		entries[i] = LeaderboardEntry{AttemptID: ids[i], UserID: users[ids[i]], TotalMarks: z.Score}
	}
	assignRanks(entries)
	return entries, nil
}

func (r *leaderboardRepository) topFromDB(ctx context.Context, testID uint, limit int) ([]LeaderboardEntry, error) {
	rows, err := r.attempts.FindTopFinalized(ctx, testID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryOf(row))
	}
	assignRanks(entries)
	return entries, nil
}

func entryOf(row model.TestAttempt) LeaderboardEntry {
	e := LeaderboardEntry{AttemptID: row.ID, UserID: row.UserID}
	if row.TotalMarks != nil {
		e.TotalMarks = *row.TotalMarks
	}
	return e
}

// assignRanks gives entries sorted by descending total their competition rank: ties share a
// rank and the next distinct total skips past them.
func assignRanks(entries []LeaderboardEntry) {
	for i := range entries {
		if i > 0 && scoring.Hundredths(entries[i].TotalMarks) == scoring.Hundredths(entries[i-1].TotalMarks) {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
