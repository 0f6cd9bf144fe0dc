package speaker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data   [][]string
	idx    int
	err    error
	closed bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		p, ok := dest[i].(*string)
		if !ok {
			return fmt.Errorf("scan: unsupported destination type at %d", i)
		}
		*p = v
	}
	return nil
}

// mockDB implements the DB interface with configurable behaviour.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	execCalls []string
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFunc(ctx, sql, args...)
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFunc(ctx, sql, args...)
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execCalls = append(m.execCalls, sql)
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPostgresFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing row maps to absent, not error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(context.Context, string, ...any) pgx.Row {
				return &mockRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
			},
		}
		s := NewPostgresStore(db)
		_, ok, err := s.Find(ctx, "nobody")
		if err != nil {
			t.Fatalf("Find: unexpected error: %v", err)
		}
		if ok {
			t.Fatal("Find: expected absent")
		}
	})

	t.Run("found row is scanned", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
				return &mockRow{scanFunc: func(dest ...any) error {
					*(dest[0].(*string)) = "Bob"
					*(dest[1].(*string)) = "ref-1"
					return nil
				}}
			},
		}
		s := NewPostgresStore(db)
		got, ok, err := s.Find(ctx, "Bob")
		if err != nil || !ok {
			t.Fatalf("Find: got ok=%v err=%v", ok, err)
		}
		if got.ImageRef != "ref-1" {
			t.Fatalf("Find: expected image_ref ref-1, got %q", got.ImageRef)
		}
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("connection reset")
		db := &mockDB{
			queryRowFunc: func(context.Context, string, ...any) pgx.Row {
				return &mockRow{scanFunc: func(...any) error { return dbErr }}
			},
		}
		s := NewPostgresStore(db)
		_, _, err := s.Find(ctx, "Bob")
		if !errors.Is(err, dbErr) {
			t.Fatalf("Find: expected wrapped db error, got %v", err)
		}
	})
}

func TestPostgresUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("issues on-conflict upsert", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{}
		s := NewPostgresStore(db)
		if err := s.Upsert(ctx, Speaker{Name: "Bob", ImageRef: "r"}); err != nil {
			t.Fatalf("Upsert: unexpected error: %v", err)
		}
		if len(db.execCalls) != 1 || !strings.Contains(db.execCalls[0], "ON CONFLICT (name) DO UPDATE") {
			t.Fatalf("Upsert: expected single ON CONFLICT statement, got %v", db.execCalls)
		}
	})

	t.Run("empty name rejected before hitting the database", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{}
		s := NewPostgresStore(db)
		if err := s.Upsert(ctx, Speaker{}); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("Upsert: expected ErrEmptyName, got %v", err)
		}
		if len(db.execCalls) != 0 {
			t.Fatal("Upsert: expected no statements for invalid record")
		}
	})
}

func TestPostgresList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := &mockDB{
		queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &mockRows{data: [][]string{{"Alice", ""}, {"Bob", "ref-1"}}}, nil
		},
	}
	s := NewPostgresStore(db)

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List: expected 2 rows, got %d", len(all))
	}
	if all[1].Name != "Bob" || all[1].ImageRef != "ref-1" {
		t.Fatalf("List: unexpected second row %+v", all[1])
	}
}

func TestPostgresMigrate(t *testing.T) {
	t.Parallel()

	db := &mockDB{}
	s := NewPostgresStore(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: unexpected error: %v", err)
	}
	if len(db.execCalls) != 1 || !strings.Contains(db.execCalls[0], "CREATE TABLE IF NOT EXISTS speakers") {
		t.Fatalf("Migrate: expected schema DDL, got %v", db.execCalls)
	}
}
