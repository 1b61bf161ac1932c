package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// velocityRetention bounds how far back the index can answer. The guard's
// widest window is "since local midnight", so two days is enough.
const velocityRetention = 48 * time.Hour

// RedisVelocityIndex is a sorted-set-per-user sliding index of exchange
// timestamps. It serves the guard's window counts without touching the
// primary database; the ledger itself stays the source of truth.
type RedisVelocityIndex struct {
	client *redis.Client
}

func NewRedisVelocityIndex(client *redis.Client) *RedisVelocityIndex {
	return &RedisVelocityIndex{client: client}
}

func velocityKey(userID string) string {
	return "wallet:exchanges:" + userID
}

// RecordExchange adds one exchange timestamp to the user's index and prunes
// entries past retention.
func (s *RedisVelocityIndex) RecordExchange(ctx context.Context, userID string, at time.Time) error {
	key := velocityKey(userID)
	member := strconv.FormatInt(at.UnixNano(), 10)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixNano()), Member: member})
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(at.Add(-velocityRetention).UnixNano(), 10))
	pipe.Expire(ctx, key, velocityRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record exchange velocity: %w", err)
	}
	return nil
}

// CountExchangesSince satisfies the guard's ExchangeCounter port.
func (s *RedisVelocityIndex) CountExchangesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	count, err := s.client.ZCount(ctx, velocityKey(userID),
		strconv.FormatInt(since.UnixNano(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count exchange velocity: %w", err)
	}
	return int(count), nil
}
