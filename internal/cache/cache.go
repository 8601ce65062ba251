package cache

import (
	"context"

	"archiveapi/internal/model"
)

// Cache is a short-TTL read-through cache of archive metadata keyed by
// file_id. It is a pure performance optimization: absence or failure never
// changes correctness, only latency. Entries expire on their own; there is no
// invalidation path because records are immutable.
type Cache interface {
	// Get returns the cached record for key, or (nil, nil) on a miss.
	Get(ctx context.Context, key string) (*model.ArchiveRecord, error)
	// Set stores a sanitized record copy under key with the cache's fixed TTL.
	Set(ctx context.Context, key string, rec *model.ArchiveRecord) error
}
