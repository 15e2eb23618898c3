package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oddslens/engine/internal/domain"
)

const snapshotKey = "oddslens:snapshot:latest"

// SnapshotCache implements domain.SnapshotCache on a single JSON-serialized
// key with an explicit TTL. The TTL makes staleness visible: once the key
// expires, readers get domain.ErrNoSnapshot instead of silently old data.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

// Set stores the snapshot with the given TTL, replacing any previous one.
func (sc *SnapshotCache) Set(ctx context.Context, snap domain.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", snap.RunID, err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", snap.RunID, err)
	}
	return nil
}

// Get retrieves the latest snapshot. It returns domain.ErrNoSnapshot when no
// unexpired snapshot exists.
func (sc *SnapshotCache) Get(ctx context.Context) (domain.Snapshot, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, domain.ErrNoSnapshot
		}
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
