package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/csv-ingestor/internal/domain/model"
)

const (
	processedKeyPrefix  = "csv-ingestor:processed:"
	defaultProcessedTTL = 24 * time.Hour
)

// ProcessedCacheRepo caches "already in the ledger" markers in Redis. A marker is only ever
// written after the ledger row committed, and ledger rows are never deleted, so a hit is
// always correct. A miss says nothing.
type ProcessedCacheRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewProcessedCacheRepo creates a ProcessedCacheRepo. ttl <= 0 uses 24h.
func NewProcessedCacheRepo(client redis.UniversalClient, ttl time.Duration) *ProcessedCacheRepo {
	if ttl <= 0 {
		ttl = defaultProcessedTTL
	}
	return &ProcessedCacheRepo{client: client, ttl: ttl}
}

// ProcessedKey returns the Redis key for ref. Bucket names cannot contain ':'.
func ProcessedKey(ref model.ObjectRef) string {
	return processedKeyPrefix + ref.Bucket + ":" + ref.Key
}

// IsProcessed reports whether a marker exists for ref.
func (r *ProcessedCacheRepo) IsProcessed(ctx context.Context, ref model.ObjectRef) (bool, error) {
	if ref.Bucket == "" || ref.Key == "" {
		return false, errors.New("bucket and key are required")
	}
	n, err := r.client.Exists(ctx, ProcessedKey(ref)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed stores a marker for ref, refreshing its TTL.
func (r *ProcessedCacheRepo) MarkProcessed(ctx context.Context, ref model.ObjectRef) error {
	if ref.Bucket == "" || ref.Key == "" {
		return errors.New("bucket and key are required")
	}
	if err := r.client.Set(ctx, ProcessedKey(ref), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Forget removes the marker for ref. Used by operator tooling after a ledger row is removed by hand.
func (r *ProcessedCacheRepo) Forget(ctx context.Context, ref model.ObjectRef) (bool, error) {
	n, err := r.client.Del(ctx, ProcessedKey(ref)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// Health checks the health of the Redis connection.
func (r *ProcessedCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
