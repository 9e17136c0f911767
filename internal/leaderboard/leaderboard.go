// Package leaderboard ranks vote algorithms by accuracy in a Redis sorted set,
// one set per module experiment.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/nvandessel/voteanalysis/internal/config"
	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

// Board handles the accuracy ZSET of each experiment.
type Board interface {
	Record(ctx context.Context, module, experiment string, reports []vote.Report) error
	Top(ctx context.Context, module, experiment string, limit int) ([]Entry, error)
	Rank(ctx context.Context, module, experiment, algorithm string) (int64, error)
}

// Entry is one algorithm's position on a leaderboard.
type Entry struct {
	Algorithm string  `json:"algorithm"`
	Accuracy  float64 `json:"accuracy"`
	Rank      int     `json:"rank"`
}

// zsetClient is the subset of *redis.Client the board uses.
type zsetClient interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZRevRank(ctx context.Context, key, member string) *redis.IntCmd
}

type board struct {
	client zsetClient
}

// New creates a leaderboard on client, usually a *redis.Client.
func New(client zsetClient) Board {
	return &board{client: client}
}

// Connect opens a Redis client from cfg and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := strings.TrimPrefix(cfg.Addr, "redis://")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Key returns the sorted set key of one module experiment.
func Key(module, experiment string) string {
	return fmt.Sprintf("%s%s:%s", constants.LeaderboardKeyPrefix, module, experiment)
}

// Record stores each report's accuracy, replacing earlier scores of the same
// algorithm.
func (b *board) Record(ctx context.Context, module, experiment string, reports []vote.Report) error {
	if len(reports) == 0 {
		return nil
	}
	members := make([]redis.Z, len(reports))
	for i, r := range reports {
		members[i] = redis.Z{Score: r.Accuracy, Member: r.Algorithm}
	}
	if err := b.client.ZAdd(ctx, Key(module, experiment), members...).Err(); err != nil {
		return fmt.Errorf("failed to record leaderboard %s/%s: %w", module, experiment, err)
	}
	return nil
}

// Top returns the limit most accurate algorithms, best first.
func (b *board) Top(ctx context.Context, module, experiment string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	results, err := b.client.ZRevRangeWithScores(ctx, Key(module, experiment), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard %s/%s: %w", module, experiment, err)
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		name, _ := z.Member.(string)
		entries[i] = Entry{Algorithm: name, Accuracy: z.Score, Rank: i + 1}
	}
	return entries, nil
}

// Rank returns the 1-indexed rank of algorithm, or -1 when it has no score.
func (b *board) Rank(ctx context.Context, module, experiment, algorithm string) (int64, error) {
	rank, err := b.client.ZRevRank(ctx, Key(module, experiment), algorithm).Result()
	if errors.Is(err, redis.Nil) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read rank of %s: %w", algorithm, err)
	}
	return rank + 1, nil
}
