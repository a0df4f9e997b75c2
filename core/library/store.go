package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by a Store that has never been written.
var ErrNotFound = errors.New("component library not found")

// Store persists library snapshots.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// FileStore keeps the library as a single JSON document on disk. Saves write
// a temporary file and rename it over the target.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the JSON document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the document, returning ErrNotFound when it does not exist.
func (s *FileStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return snap, nil
}

// Save writes the document atomically.
func (s *FileStore) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// MemoryStore keeps the snapshot in memory. It is used by tests and by
// callers that do not want persistence.
type MemoryStore struct {
	mu   sync.Mutex
	snap *Snapshot
	// Saves counts successful Save calls.
	Saves int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load(context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return Snapshot{}, ErrNotFound
	}
	return s.snap.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := snap.Clone()
	s.snap = &c
	s.Saves++
	return nil
}

// OpenStore returns the store for backend "json", "sqlite" or "memory".
// SQLite stores must be closed by the caller.
func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case "", "json":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown library backend %q", backend)
	}
}
