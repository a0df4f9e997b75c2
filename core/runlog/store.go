// Package runlog persists a summary of every simulation run for auditing.
package runlog

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/virtos/core/model"
)

// RunRecord summarises one simulation run.
type RunRecord struct {
	ID           string             `json:"id"`
	Timestamp    time.Time          `json:"timestamp"`
	Architecture model.Architecture `json:"architecture"`
	SiteName     string             `json:"site_name"`
	Fingerprint  string             `json:"fingerprint"`
	RegistryHash string             `json:"registry_hash"`
	Steps        int                `json:"steps"`
	Metrics      model.Metrics      `json:"metrics"`
	Costs        model.Costs        `json:"costs"`
	Binding      []string           `json:"binding_constraints,omitempty"`
	Cached       bool               `json:"cached"`
}

// NewRecord builds a record for res with a fresh identifier.
func NewRecord(res model.SimulationResult, now time.Time, cached bool) RunRecord {
	return RunRecord{
		ID:           uuid.NewString(),
		Timestamp:    now.UTC(),
		Architecture: res.Architecture,
		SiteName:     res.SiteName,
		Fingerprint:  res.Fingerprint,
		RegistryHash: res.RegistryHash,
		Steps:        res.Steps,
		Metrics:      res.Metrics,
		Costs:        res.Costs,
		Binding:      slices.Clone(res.Binding),
		Cached:       cached,
	}
}

// RunQuery filters stored records. Zero fields match everything.
type RunQuery struct {
	Start        time.Time
	End          time.Time
	Architecture model.Architecture
	Fingerprint  string
	RegistryHash string
}

// Match reports whether r satisfies the query.
func (q RunQuery) Match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Architecture != "" && r.Architecture != q.Architecture {
		return false
	}
	if q.Fingerprint != "" && r.Fingerprint != q.Fingerprint {
		return false
	}
	if q.RegistryHash != "" && r.RegistryHash != q.RegistryHash {
		return false
	}
	return true
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}

// Options selects and configures a store backend.
type Options struct {
	Backend    string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Open returns the store selected by opts. A jsonl backend with a positive
// MaxSizeMB rotates its file.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "jsonl":
		if opts.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(opts.Path, opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays)
		}
		return NewJSONLStore(opts.Path)
	case "sqlite":
		return NewSQLiteStore(opts.Path)
	case "none":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown run log backend %q", opts.Backend)
	}
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error              { return nil }
func (NopStore) Query(context.Context, RunQuery) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
