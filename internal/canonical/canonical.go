// Package canonical produces a deterministic JSON encoding of arbitrary
// values. Object keys are sorted at every depth and insignificant whitespace
// is removed, so two values that differ only in field order encode to the
// same bytes.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Marshal returns the canonical JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	return Normalize(raw)
}

// Normalize re-encodes a JSON document with sorted keys. Numbers keep their
// literal representation.
func Normalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical decode: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}
	return out, nil
}

// Hash returns the hex SHA-256 of the canonical encoding of v truncated to
// n characters. n <= 0 returns the full digest.
func Hash(v any, n int) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	h := hex.EncodeToString(sum[:])
	if n > 0 && n < len(h) {
		h = h[:n]
	}
	return h, nil
}
