// Package views persists named controller snapshots in SQLite.
package views

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/philipparndt/gobim/internal/controller"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no view has the requested name
var ErrNotFound = errors.New("view not found")

// View is a named snapshot
type View struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Snapshot  controller.Snapshot `json:"snapshot"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Store persists views in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite view store and creates its schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save stores snap under name, replacing the snapshot of an existing view
// with the same name while keeping its id.
func (s *Store) Save(ctx context.Context, name string, snap controller.Snapshot) (View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return View{}, fmt.Errorf("view name is required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return View{}, fmt.Errorf("encode snapshot: %w", err)
	}

	now := toMillis(s.now())
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO views (id, name, snapshot, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   snapshot = excluded.snapshot,
		   updated_at = excluded.updated_at`,
		uuid.NewString(), name, string(data), now, now,
	)
	if err != nil {
		return View{}, fmt.Errorf("save view %q: %w", name, err)
	}
	return s.Get(ctx, name)
}

// Get returns the view stored under name.
func (s *Store) Get(ctx context.Context, name string) (View, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, snapshot, created_at, updated_at FROM views WHERE name = ?`,
		strings.TrimSpace(name),
	)
	v, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return View{}, fmt.Errorf("view %q: %w", name, ErrNotFound)
	}
	return v, err
}

// List returns all views ordered by name.
func (s *Store) List(ctx context.Context) ([]View, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, snapshot, created_at, updated_at FROM views ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	return views, nil
}

// Delete removes the view stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM views WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("delete view %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete view %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("view %q: %w", name, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanView(row scanner) (View, error) {
	var (
		v                    View
		id, data             string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &v.Name, &data, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return View{}, err
		}
		return View{}, fmt.Errorf("scan view: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return View{}, fmt.Errorf("view %q: invalid id: %w", v.Name, err)
	}
	if err := json.Unmarshal([]byte(data), &v.Snapshot); err != nil {
		return View{}, fmt.Errorf("view %q: decode snapshot: %w", v.Name, err)
	}
	v.ID = parsed
	v.CreatedAt = fromMillis(createdAt)
	v.UpdatedAt = fromMillis(updatedAt)
	return v, nil
}
