package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Every step is idempotent, so the full list runs on each boot.
var steps = []migrationStep{
	{
		Name: "create_table_archives",
		SQL: `CREATE TABLE IF NOT EXISTS archives (
  file_id               TEXT        PRIMARY KEY,
  owner_id              TEXT        NOT NULL,
  filename              TEXT        NOT NULL,
  original_filename     TEXT        NOT NULL,
  content_type          TEXT        NOT NULL,
  original_content_type TEXT        NOT NULL,
  was_compressed        BOOLEAN     NOT NULL DEFAULT FALSE,
  size                  BIGINT      NOT NULL CHECK (size >= 0),
  tags                  TEXT[]      NOT NULL DEFAULT '{}',
  archive_policy        TEXT        NOT NULL DEFAULT 'standard',
  archived_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
  status                TEXT        NOT NULL DEFAULT 'archived'
);`,
	},
	{
		Name: "create_index_archives_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_archives_owner_id ON archives (owner_id);`,
	},
	{
		Name: "create_index_archives_archived_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_archives_archived_at ON archives (archived_at);`,
	},
	{
		Name: "create_table_failed_index_entries",
		SQL: `CREATE TABLE IF NOT EXISTS failed_index_entries (
  id          BIGSERIAL   PRIMARY KEY,
  file_id     TEXT        NOT NULL,
  reason      TEXT        NOT NULL,
  occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            TEXT        PRIMARY KEY,
  email         TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
}

// EnsureMigrated applies the schema. Safe to run on every boot; each step is
// an IF NOT EXISTS statement.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	start := time.Now()
	log.Info().Msg("applying database migrations")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().Err(err).
				Str("migration_step", step.Name).
				Dur("elapsed", time.Since(start)).
				Msg("migration failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Debug().
			Str("migration_step", step.Name).
			Dur("step_elapsed", time.Since(stepStart)).
			Msg("migration step applied")
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("database migrations applied")
	return nil
}
