package client

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

//go:embed schema.sql
var schemaFS embed.FS

// Snapshot is the locally persisted session
type Snapshot struct {
	Token     string
	User      entities.SessionUser
	ExpiresAt time.Time
}

// SnapshotStore keeps at most one session snapshot
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
	Clear(ctx context.Context) error
}

// SQLiteSnapshotStore persists the snapshot in a SQLite file
type SQLiteSnapshotStore struct {
	db *sql.DB
}

var _ SnapshotStore = (*SQLiteSnapshotStore)(nil)

// OpenSnapshotStore opens or creates the store at path. ":memory:" keeps it
// in process memory.
func OpenSnapshotStore(path string) (*SQLiteSnapshotStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a second connection would see a different in-memory database
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteSnapshotStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	sqlBytes, err := fs.ReadFile(schemaFS, "schema.sql")
	if err != nil {
		return err
	}
	if _, err := db.Exec(string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to apply snapshot schema: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	userJSON, err := json.Marshal(snap.User)
	if err != nil {
		return err
	}
	var expires int64
	if !snap.ExpiresAt.IsZero() {
		expires = snap.ExpiresAt.Unix()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_snapshot (id, token, user_json, expires_at, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_json = excluded.user_json,
			expires_at = excluded.expires_at,
			saved_at = excluded.saved_at`,
		snap.Token, string(userJSON), expires, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when there is none
func (s *SQLiteSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	var (
		token    string
		userJSON string
		expires  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_json, expires_at FROM session_snapshot WHERE id = 1`,
	).Scan(&token, &userJSON, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	snap := &Snapshot{Token: token}
	if err := json.Unmarshal([]byte(userJSON), &snap.User); err != nil {
		return nil, fmt.Errorf("corrupt session snapshot: %w", err)
	}
	if expires > 0 {
		snap.ExpiresAt = time.Unix(expires, 0).UTC()
	}
	return snap, nil
}

// Clear removes the stored snapshot
func (s *SQLiteSnapshotStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshot`); err != nil {
		return fmt.Errorf("failed to clear session snapshot: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
