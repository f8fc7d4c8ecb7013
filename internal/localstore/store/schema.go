package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"bloodbridge/pkg/platform/sentinel"
	"bloodbridge/pkg/platform/tx"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate brings the schema up to the newest embedded migration and returns the
// resulting version. Files are named NNNN_description.sql and applied in order,
// each in its own transaction together with the version bump.
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS localstore_schema (version INT NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema table: %w: %w", sentinel.ErrStorageUnavailable, err)
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return 0, err
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		version, err := migrationVersion(name)
		if err != nil {
			return 0, err
		}
		if version <= current {
			continue
		}
		body, err := migrationFS.ReadFile(name)
		if err != nil {
			return 0, fmt.Errorf("read migration %s: %w", name, err)
		}
		err = tx.Run(ctx, db, func(ctx context.Context) error {
			exec := tx.Exec(ctx, db)
			if _, err := exec.ExecContext(ctx, string(body)); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			if _, err := exec.ExecContext(ctx, `DELETE FROM localstore_schema`); err != nil {
				return fmt.Errorf("reset schema version: %w", err)
			}
			if _, err := exec.ExecContext(ctx, `INSERT INTO localstore_schema (version) VALUES ($1)`, version); err != nil {
				return fmt.Errorf("record schema version: %w", err)
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %w", sentinel.ErrStorageUnavailable, err)
		}
		current = version
	}
	return current, nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM localstore_schema LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w: %w", sentinel.ErrStorageUnavailable, err)
	}
	return version, nil
}

func migrationVersion(name string) (int, error) {
	base := strings.TrimPrefix(name, "migrations/")
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, fmt.Errorf("migration %s: missing version prefix", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("migration %s: %w", name, err)
	}
	return v, nil
}
