package claim

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/erazemk/factorclaim/internal/store"
)

const (
	redisKeyPrefix = "factorclaim:claimseq:"
	redisKeyTTL    = 48 * time.Hour
)

// counter is the subset of the Redis client the sequencer needs.
type counter interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisSequencer mints ids from an atomic per-day counter. The counter is
// seeded from the store the first time a day's key is created, so ids
// continue after claims minted without Redis.
type RedisSequencer struct {
	client counter
	db     *sql.DB
}

func NewRedisSequencer(client *redis.Client, db *sql.DB) *RedisSequencer {
	return &RedisSequencer{client: client, db: db}
}

func (s *RedisSequencer) Next(ctx context.Context, now time.Time) (string, error) {
	prefix := Prefix(now)
	key := redisKeyPrefix + now.UTC().Format("20060102")

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("checking claim sequence key: %w", err)
	}
	if exists == 0 {
		latest, err := store.LatestClaimID(ctx, s.db, prefix)
		if err != nil {
			return "", err
		}
		seed := nextSequence(latest) - 1
		if err := s.client.SetNX(ctx, key, seed, redisKeyTTL).Err(); err != nil {
			return "", fmt.Errorf("seeding claim sequence: %w", err)
		}
	}

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("incrementing claim sequence: %w", err)
	}
	return FormatClaimID(prefix, uint64(n)), nil
}
