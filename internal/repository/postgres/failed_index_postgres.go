package postgres

import (
	"context"
	"database/sql"

	"archiveapi/internal/model"
	"archiveapi/internal/repository"
)

// FailedIndexPostgres is a PostgreSQL implementation of the failed-index
// ledger. Rows are append-only; a reconciliation job outside this service
// drains them.
type FailedIndexPostgres struct {
	db *sql.DB
}

// NewFailedIndexPostgres creates a new FailedIndexPostgres repository.
func NewFailedIndexPostgres(db *sql.DB) *FailedIndexPostgres {
	return &FailedIndexPostgres{db: db}
}

var _ repository.FailedIndexRepository = (*FailedIndexPostgres)(nil)

// Append records one indexing failure.
func (r *FailedIndexPostgres) Append(ctx context.Context, entry model.FailedIndexEntry) error {
	const q = `
		INSERT INTO failed_index_entries (file_id, reason, occurred_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, q, entry.FileID, entry.Reason, entry.Timestamp)
	return err
}
