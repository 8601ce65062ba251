package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"archiveapi/internal/model"
	"archiveapi/internal/repository"
)

// ArchivePostgres is a PostgreSQL implementation of repository.ArchiveRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ArchivePostgres struct {
	db *sql.DB
}

// NewArchivePostgres creates a new ArchivePostgres repository.
func NewArchivePostgres(db *sql.DB) *ArchivePostgres {
	return &ArchivePostgres{db: db}
}

var _ repository.ArchiveRepository = (*ArchivePostgres)(nil)

const archiveColumns = `file_id, owner_id, filename, original_filename, content_type,
		original_content_type, was_compressed, size, tags, archive_policy, archived_at, status`

// Insert stores a new archive record. The file_id primary key rejects
// duplicates at the store level.
func (r *ArchivePostgres) Insert(ctx context.Context, rec *model.ArchiveRecord) (*model.ArchiveRecord, error) {
	const q = `
		INSERT INTO archives (` + archiveColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + archiveColumns + `
	`
	row := r.db.QueryRowContext(ctx, q,
		rec.FileID,
		rec.OwnerID,
		rec.Filename,
		rec.OriginalFilename,
		rec.ContentType,
		rec.OriginalContentType,
		rec.WasCompressed,
		rec.Size,
		pq.Array(rec.Tags),
		rec.ArchivePolicy,
		rec.ArchivedAt,
		rec.Status,
	)
	return scanArchive(row)
}

// FindOne fetches a single record scoped by both file id and owner.
func (r *ArchivePostgres) FindOne(ctx context.Context, fileID, ownerID string) (*model.ArchiveRecord, error) {
	const q = `
		SELECT ` + archiveColumns + `
		FROM archives
		WHERE file_id = $1 AND owner_id = $2
	`
	row := r.db.QueryRowContext(ctx, q, fileID, ownerID)
	return scanArchive(row)
}

func scanArchive(row *sql.Row) (*model.ArchiveRecord, error) {
	var rec model.ArchiveRecord
	var tags pq.StringArray
	if err := row.Scan(
		&rec.FileID,
		&rec.OwnerID,
		&rec.Filename,
		&rec.OriginalFilename,
		&rec.ContentType,
		&rec.OriginalContentType,
		&rec.WasCompressed,
		&rec.Size,
		&tags,
		&rec.ArchivePolicy,
		&rec.ArchivedAt,
		&rec.Status,
	); err != nil {
		return nil, err
	}
	rec.Tags = []string(tags)
	return &rec, nil
}

// IsNoRowsError reports whether err is a missing-row lookup result.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (duplicate file_id, duplicate email, ...).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
