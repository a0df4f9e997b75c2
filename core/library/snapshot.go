package library

import (
	"slices"
	"time"

	"github.com/kilianp07/virtos/internal/canonical"
)

// SchemaVersion is written into every persisted library document.
const SchemaVersion = "v1.0"

const hashLen = 12

// HistoryEntry records one accepted library update.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	PrevHash  string    `json:"prev_hash"`
	Note      string    `json:"note"`
}

// Snapshot is the persisted component library document.
type Snapshot struct {
	SchemaVersion string            `json:"schema_version"`
	Records       []ComponentRecord `json:"records"`
	History       []HistoryEntry    `json:"history"`
	LibraryHash   string            `json:"library_hash"`
}

// hashedContent is the part of a snapshot covered by the library hash.
type hashedContent struct {
	SchemaVersion string            `json:"schema_version"`
	Records       []ComponentRecord `json:"records"`
	History       []HistoryEntry    `json:"history"`
}

// ComputeHash returns the content hash of the snapshot. The stored
// LibraryHash field is not part of the hashed content.
func (s Snapshot) ComputeHash() (string, error) {
	return canonical.Hash(hashedContent{
		SchemaVersion: s.SchemaVersion,
		Records:       s.Records,
		History:       s.History,
	}, hashLen)
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	recs := make([]ComponentRecord, len(s.Records))
	for i, r := range s.Records {
		recs[i] = r.Clone()
	}
	s.Records = recs
	s.History = slices.Clone(s.History)
	return s
}
