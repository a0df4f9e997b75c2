// Package scenarios runs reference sites through the engine and checks the
// results against recorded expectations.
package scenarios

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/virtos/core/model"
)

// DefaultTolerance is the absolute slack applied to numeric expectations.
const DefaultTolerance = 1e-6

// Expected holds the checked outputs of a scenario. Nil fields are not
// checked.
type Expected struct {
	TimeSatisfiedPct   *float64 `yaml:"time_satisfied_pct"`
	PowerSatisfiedPct  *float64 `yaml:"power_satisfied_pct"`
	EnergyNotServedKWh *float64 `yaml:"energy_not_served_kwh"`
	GridEnergyKWh      *float64 `yaml:"grid_energy_kwh"`
	PeakGridKW         *float64 `yaml:"peak_grid_kw"`
	// Binding lists constraint keys such as "grid" or "shared" in
	// saturation order.
	Binding   []string `yaml:"binding"`
	Tolerance float64  `yaml:"tolerance"`
}

// Scenario is one reference site and its expected outcome.
type Scenario struct {
	Name        string
	Description string
	Site        model.SiteSpec
	Expected    Expected
}

type document struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Site        yaml.Node `yaml:"site"`
	Expected    Expected  `yaml:"expected"`
}

// Load reads a scenario file. The site block uses the same field names as
// site files and the HTTP API.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	sc := &Scenario{Name: doc.Name, Description: doc.Description, Expected: doc.Expected}
	if err := decodeSite(&doc.Site, &sc.Site); err != nil {
		return nil, fmt.Errorf("%s: site: %w", path, err)
	}
	if sc.Expected.Tolerance <= 0 {
		sc.Expected.Tolerance = DefaultTolerance
	}
	return sc, nil
}

// decodeSite maps the YAML site block onto the JSON field names of SiteSpec.
func decodeSite(n *yaml.Node, site *model.SiteSpec) error {
	if n.Kind == 0 {
		return fmt.Errorf("missing")
	}
	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, site)
}
