package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists run records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS simulation_runs (
        id TEXT PRIMARY KEY,
        ts INTEGER,
        architecture TEXT,
        fingerprint TEXT,
        registry_hash TEXT,
        record TEXT
    );`,
		`CREATE INDEX IF NOT EXISTS simulation_runs_fp ON simulation_runs (fingerprint, registry_hash);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec RunRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO simulation_runs (id, ts, architecture, fingerprint, registry_hash, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UnixNano(), string(rec.Architecture), rec.Fingerprint, rec.RegistryHash, string(b))
	return err
}

// Query returns records matching q ordered by time.
func (s *SQLiteStore) Query(ctx context.Context, q RunQuery) ([]RunRecord, error) {
	var args []any
	query := `SELECT record FROM simulation_runs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Architecture != "" {
		query += ` AND architecture = ?`
		args = append(args, string(q.Architecture))
	}
	if q.Fingerprint != "" {
		query += ` AND fingerprint = ?`
		args = append(args, q.Fingerprint)
	}
	if q.RegistryHash != "" {
		query += ` AND registry_hash = ?`
		args = append(args, q.RegistryHash)
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []RunRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r RunRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
