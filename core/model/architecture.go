package model

import (
	"errors"
	"fmt"
	"strings"
)

// Architecture selects the electrical topology simulated for a site.
type Architecture string

const (
	// ArchVirtos is the DC-coupled design: segment batteries bypass the shared
	// power conversion and feed the charge array directly.
	ArchVirtos Architecture = "virtos"
	// ArchGridOnly draws everything from the grid through the charger PCS.
	ArchGridOnly Architecture = "grid_only"
	// ArchACCoupled places a behind-the-meter battery on the AC side of the
	// charger PCS.
	ArchACCoupled Architecture = "ac_coupled"
)

// ErrUnknownArchitecture is returned when an architecture tag cannot be resolved.
var ErrUnknownArchitecture = errors.New("unknown architecture")

// Architectures lists every supported architecture in reporting order.
func Architectures() []Architecture {
	return []Architecture{ArchVirtos, ArchGridOnly, ArchACCoupled}
}

// ParseArchitecture resolves a tag or display label to an Architecture.
func ParseArchitecture(s string) (Architecture, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch {
	case key == "virtos" || strings.HasPrefix(key, "virtos_(") || key == "dc_coupled":
		return ArchVirtos, nil
	case key == "grid_only" || key == "grid" || key == "gridonly":
		return ArchGridOnly, nil
	case key == "ac_coupled" || key == "ac" || strings.HasPrefix(key, "ac_coupled_"):
		return ArchACCoupled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownArchitecture, s)
}

// Valid reports whether a is one of the supported architectures.
func (a Architecture) Valid() bool {
	switch a {
	case ArchVirtos, ArchGridOnly, ArchACCoupled:
		return true
	}
	return false
}

// Label returns the display name of the architecture.
func (a Architecture) Label() string {
	switch a {
	case ArchVirtos:
		return "Virtos (DC-coupled)"
	case ArchGridOnly:
		return "Grid-only"
	case ArchACCoupled:
		return "AC-coupled BESS"
	default:
		return "unknown"
	}
}
