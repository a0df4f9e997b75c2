package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/virtos/core/logger"
)

const maxNoteRunes = 2000

// Registry is the shared, versioned component library. Reads return copies;
// Upsert validates, persists and swaps the record set under a single lock so
// no invalid or partial state is ever visible.
type Registry struct {
	mu    sync.RWMutex
	store Store
	snap  Snapshot
	log   logger.Logger
	now   func() time.Time
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for history entries.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger sets the registry logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// Load opens the registry from store. A store that has never been written is
// seeded with DefaultRecords and persisted.
func Load(ctx context.Context, store Store, opts ...Option) (*Registry, error) {
	r := &Registry{store: store, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		snap, err = DefaultSnapshot()
		if err != nil {
			return nil, fmt.Errorf("seed library: %w", err)
		}
		if err := store.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("persist seeded library: %w", err)
		}
		r.infof("seeded component library with %d default records (hash %s)", len(snap.Records), snap.LibraryHash)
	case err != nil:
		return nil, fmt.Errorf("load library: %w", err)
	}
	if snap.SchemaVersion == "" {
		snap.SchemaVersion = SchemaVersion
	}
	if snap.LibraryHash == "" {
		if snap.LibraryHash, err = snap.ComputeHash(); err != nil {
			return nil, fmt.Errorf("hash library: %w", err)
		}
	}
	r.snap = snap
	return r, nil
}

// Snapshot returns a copy of the current snapshot.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap.Clone()
}

// Hash returns the current library hash.
func (r *Registry) Hash() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap.LibraryHash
}

// Records returns the records of type t, or all records when t is empty.
func (r *Registry) Records(t ComponentType) []ComponentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ComponentRecord
	for _, rec := range r.snap.Records {
		if t == "" || rec.ComponentType == t {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Resolver returns a capability resolver over the current records together
// with the hash of the snapshot it was built from.
func (r *Registry) Resolver() (*Resolver, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NewResolver(r.snap.Records), r.snap.LibraryHash
}

// Upsert replaces the whole record set. Any validation error rejects the
// batch without touching the registry. On success a history entry is
// appended, the hash recomputed and the new snapshot persisted before it
// becomes visible.
func (r *Registry) Upsert(ctx context.Context, records []ComponentRecord, note string) (Snapshot, error) {
	if errs := Validate(records); errs != nil {
		r.warnf("rejected library update: %d validation errors", len(errs))
		return Snapshot{}, errs
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := Snapshot{
		SchemaVersion: r.snap.SchemaVersion,
		Records:       make([]ComponentRecord, len(records)),
		History: append(append([]HistoryEntry(nil), r.snap.History...), HistoryEntry{
			Timestamp: r.now().UTC(),
			PrevHash:  r.snap.LibraryHash,
			Note:      truncateRunes(note, maxNoteRunes),
		}),
	}
	for i, rec := range records {
		next.Records[i] = rec.Clone()
	}
	h, err := next.ComputeHash()
	if err != nil {
		return Snapshot{}, fmt.Errorf("hash library: %w", err)
	}
	next.LibraryHash = h
	if err := r.store.Save(ctx, next); err != nil {
		return Snapshot{}, fmt.Errorf("persist library: %w", err)
	}
	r.infof("library updated %s -> %s (%d records)", r.snap.LibraryHash, h, len(records))
	r.snap = next
	return next.Clone(), nil
}

func (r *Registry) infof(format string, args ...any) {
	if r.log != nil {
		r.log.Infof(format, args...)
	}
}

func (r *Registry) warnf(format string, args ...any) {
	if r.log != nil {
		r.log.Warnf(format, args...)
	}
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
