package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists every saved snapshot as a row; Load returns the most
// recent one, so earlier library versions remain available for auditing.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS library_snapshots (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        library_hash TEXT NOT NULL,
        saved_at INTEGER NOT NULL,
        document TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the latest snapshot or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM library_snapshots ORDER BY id DESC LIMIT 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Save appends the snapshot as the newest version.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO library_snapshots (library_hash, saved_at, document) VALUES (?, ?, ?)`,
		snap.LibraryHash, time.Now().Unix(), string(b))
	return err
}

// Hashes returns the hash of every stored version, oldest first.
func (s *SQLiteStore) Hashes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT library_hash FROM library_snapshots ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
