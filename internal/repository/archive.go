package repository

import (
	"context"

	"archiveapi/internal/model"
)

// ArchiveRepository defines data access for archive metadata records.
//
// The backing store enforces a uniqueness constraint on file_id; this is the
// only cross-request invariant requiring store-level enforcement. Records are
// immutable after insert, so there is no update path.
type ArchiveRepository interface {
	// Insert stores a new archive record. It fails if file_id already exists.
	Insert(ctx context.Context, rec *model.ArchiveRecord) (*model.ArchiveRecord, error)

	// FindOne returns the record matching both fileID and ownerID.
	// A wrong owner and a wrong id are indistinguishable: both surface as
	// sql.ErrNoRows, so callers cannot leak record existence across owners.
	FindOne(ctx context.Context, fileID, ownerID string) (*model.ArchiveRecord, error)
}

// FailedIndexRepository is the durable ledger of search-index writes that
// failed after metadata persistence succeeded. Append-only; reconciliation is
// an external process.
type FailedIndexRepository interface {
	Append(ctx context.Context, entry model.FailedIndexEntry) error
}
