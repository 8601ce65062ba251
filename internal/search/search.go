package search

import (
	"context"
	"time"

	"archiveapi/internal/model"
)

// Package search contains the search-index abstraction. The index is a
// derived, best-effort mirror of the metadata store: writes that fail are
// recorded in the failed-index ledger and reconciled externally, never
// retried synchronously.

// Query describes one owner-scoped search. OwnerID is mandatory; everything
// else is optional and narrows the result set.
type Query struct {
	OwnerID string
	// Text is matched fuzzily over filename, content type and tags.
	Text string
	// Tags filters to records carrying at least one of the given tags.
	Tags []string
	// From/To bound archived_at (inclusive).
	From *time.Time
	To   *time.Time
	// Size caps the number of hits returned; 0 uses the backend default.
	Size int
}

// Result is a page of search hits sorted by archive date descending.
type Result struct {
	Total int64                 `json:"total"`
	Items []model.ArchiveRecord `json:"items"`
}

// Stats aggregates one owner's archive totals.
type Stats struct {
	TotalItems int64      `json:"total_items"`
	TotalBytes int64      `json:"total_bytes"`
	LastUpload *time.Time `json:"last_upload,omitempty"`
}

// Index is the queryable copy of archive metadata, eventually consistent with
// the metadata store.
type Index interface {
	// EnsureSchema creates the index with its mapping if it does not exist.
	EnsureSchema(ctx context.Context) error
	// Index writes one record document, keyed by file_id.
	Index(ctx context.Context, rec *model.ArchiveRecord) error
	// Search runs an owner-scoped query.
	Search(ctx context.Context, q Query) (*Result, error)
	// Stats aggregates item count, byte total and most recent upload for one owner.
	Stats(ctx context.Context, ownerID string) (*Stats, error)
}
