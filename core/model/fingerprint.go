package model

import "github.com/kilianp07/virtos/internal/canonical"

const fingerprintLen = 16

// Fingerprint returns a field-order independent digest of the normalized
// site. Specs that normalize to the same content share a fingerprint.
func (s SiteSpec) Fingerprint() (string, error) {
	return canonical.Hash(s.Normalized(), fingerprintLen)
}
