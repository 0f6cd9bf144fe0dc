package speaker

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the speakers table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS speakers (
    name       TEXT PRIMARY KEY,
    image_ref  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. The single-row
// upsert gives the per-call atomicity the contract requires.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// speakers table if it does not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("speaker: migrate: %w", err)
	}
	return nil
}

// List implements [Store.List].
func (s *PostgresStore) List(ctx context.Context) ([]Speaker, error) {
	const query = `SELECT name, image_ref FROM speakers ORDER BY name`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("speaker: list: %w", err)
	}
	defer rows.Close()

	var result []Speaker
	for rows.Next() {
		var sp Speaker
		if err := rows.Scan(&sp.Name, &sp.ImageRef); err != nil {
			return nil, fmt.Errorf("speaker: scan: %w", err)
		}
		result = append(result, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("speaker: list rows: %w", err)
	}
	return result, nil
}

// Find implements [Store.Find].
func (s *PostgresStore) Find(ctx context.Context, name string) (Speaker, bool, error) {
	const query = `SELECT name, image_ref FROM speakers WHERE name = $1`

	var sp Speaker
	err := s.db.QueryRow(ctx, query, name).Scan(&sp.Name, &sp.ImageRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Speaker{}, false, nil
		}
		return Speaker{}, false, fmt.Errorf("speaker: find %q: %w", name, err)
	}
	return sp, true, nil
}

// Upsert implements [Store.Upsert].
func (s *PostgresStore) Upsert(ctx context.Context, sp Speaker) error {
	if sp.Name == "" {
		return ErrEmptyName
	}

	const query = `
		INSERT INTO speakers (name, image_ref)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET image_ref = EXCLUDED.image_ref, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, sp.Name, sp.ImageRef); err != nil {
		return fmt.Errorf("speaker: upsert %q: %w", sp.Name, err)
	}
	return nil
}
