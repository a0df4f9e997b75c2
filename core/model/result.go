package model

import "fmt"

// Constraint identifies a hard cap that can bind during a run.
type Constraint int

const (
	ConstraintArray Constraint = iota
	ConstraintGrid
	ConstraintShared
	ConstraintPCS
	ConstraintBatteryPower
	ConstraintBatteryEnergy
	ConstraintInverter
	numConstraints
)

var constraintLabels = [numConstraints]string{
	"Charge Array cap (DC-DC/cable/dispenser)",
	"Grid connection cap",
	"Shared PCS cap",
	"PCS cap",
	"Battery power cap",
	"Battery energy (SOC) cap",
	"AC inverter cap",
}

var constraintKeys = [numConstraints]string{
	"array", "grid", "shared", "pcs", "battery_power", "battery_energy", "inverter",
}

// Constraints lists every constraint in reporting order.
func Constraints() []Constraint {
	out := make([]Constraint, numConstraints)
	for i := range out {
		out[i] = Constraint(i)
	}
	return out
}

// String returns the human readable label.
func (c Constraint) String() string {
	if c < 0 || c >= numConstraints {
		return "unknown"
	}
	return constraintLabels[c]
}

// Key returns a short identifier suitable for metric labels.
func (c Constraint) Key() string {
	if c < 0 || c >= numConstraints {
		return "unknown"
	}
	return constraintKeys[c]
}

// MarshalText encodes the constraint as its label.
func (c Constraint) MarshalText() ([]byte, error) {
	if c < 0 || c >= numConstraints {
		return nil, fmt.Errorf("invalid constraint %d", int(c))
	}
	return []byte(constraintLabels[c]), nil
}

// UnmarshalText decodes a constraint label.
func (c *Constraint) UnmarshalText(b []byte) error {
	for i, l := range constraintLabels {
		if l == string(b) {
			*c = Constraint(i)
			return nil
		}
	}
	return fmt.Errorf("unknown constraint %q", string(b))
}

// ConstraintCount records how many timesteps saturated a constraint.
type ConstraintCount struct {
	Constraint Constraint `json:"constraint"`
	Steps      int        `json:"steps"`
}

// SegmentCaps is the derived capacity tuple of one segment.
type SegmentCaps struct {
	PCSKW      float64 `json:"pcs_kw"`
	BatteryKW  float64 `json:"battery_kw"`
	BatteryKWh float64 `json:"battery_kwh"`
	ArrayKW    float64 `json:"array_kw"`
	CableKW    float64 `json:"cable_kw"`
	// DispenserKW is nil when the segment has no dispenser stage.
	DispenserKW *float64 `json:"dispenser_kw,omitempty"`
}

// ArrayCapKW returns the module array ceiling, reduced by the dispenser
// rating when one is configured.
func (c SegmentCaps) ArrayCapKW() float64 {
	if c.DispenserKW != nil {
		return min(c.ArrayKW, *c.DispenserKW)
	}
	return c.ArrayKW
}

// ArraySideKW returns the combined array-side ceiling including the cable.
func (c SegmentCaps) ArraySideKW() float64 {
	return min(c.ArrayCapKW(), c.CableKW)
}

// SegmentSeries holds the per-timestep state of one segment. Architectures
// without per-segment allocation report a single aggregate series.
type SegmentSeries struct {
	ID                 string      `json:"id"`
	Caps               SegmentCaps `json:"caps"`
	DemandKW           []float64   `json:"demand_kw"`
	DeliverableKW      []float64   `json:"deliverable_kw"`
	DeliveredKW        []float64   `json:"delivered_kw"`
	RequestKW          []float64   `json:"request_kw"`
	GrantKW            []float64   `json:"grant_kw"`
	BatteryDischargeKW []float64   `json:"battery_discharge_kw"`
	BatteryChargeKW    []float64   `json:"battery_charge_kw"`
	SoCKWh             []float64   `json:"soc_kwh"`
	UnservedKWh        []float64   `json:"unserved_kwh"`
}

// NewSegmentSeries allocates a series of n steps.
func NewSegmentSeries(id string, caps SegmentCaps, n int) SegmentSeries {
	return SegmentSeries{
		ID:                 id,
		Caps:               caps,
		DemandKW:           make([]float64, n),
		DeliverableKW:      make([]float64, n),
		DeliveredKW:        make([]float64, n),
		RequestKW:          make([]float64, n),
		GrantKW:            make([]float64, n),
		BatteryDischargeKW: make([]float64, n),
		BatteryChargeKW:    make([]float64, n),
		SoCKWh:             make([]float64, n),
		UnservedKWh:        make([]float64, n),
	}
}

// Timeseries holds site-level per-timestep series.
type Timeseries struct {
	Hour               []float64 `json:"hour"`
	Utilisation        []float64 `json:"utilisation"`
	DemandKW           []float64 `json:"demand_kw"`
	DeliverableKW      []float64 `json:"deliverable_kw"`
	DeliveredKW        []float64 `json:"delivered_kw"`
	GridImportKW       []float64 `json:"grid_import_kw"`
	SharedDrawKW       []float64 `json:"shared_draw_kw"`
	BatteryDischargeKW []float64 `json:"battery_discharge_kw"`
	BatteryChargeKW    []float64 `json:"battery_charge_kw"`
	SoCKWh             []float64 `json:"soc_kwh"`
	UnservedKWh        []float64 `json:"unserved_kwh"`
}

// NewTimeseries allocates a timeseries of n steps.
func NewTimeseries(n int) Timeseries {
	return Timeseries{
		Hour:               make([]float64, n),
		Utilisation:        make([]float64, n),
		DemandKW:           make([]float64, n),
		DeliverableKW:      make([]float64, n),
		DeliveredKW:        make([]float64, n),
		GridImportKW:       make([]float64, n),
		SharedDrawKW:       make([]float64, n),
		BatteryDischargeKW: make([]float64, n),
		BatteryChargeKW:    make([]float64, n),
		SoCKWh:             make([]float64, n),
		UnservedKWh:        make([]float64, n),
	}
}

// Metrics are the service-level outcomes of a run.
type Metrics struct {
	TimeSatisfiedPct   float64 `json:"time_satisfied_pct"`
	PowerSatisfiedPct  float64 `json:"power_satisfied_pct"`
	EnergyNotServedKWh float64 `json:"energy_not_served_kwh"`
}

// Costs are the time-of-use costs of the grid import series.
type Costs struct {
	EnergyKWh  float64 `json:"energy_kwh"`
	EnergyCost float64 `json:"energy_cost"`
	PeakKW     float64 `json:"peak_kw"`
	DemandCost float64 `json:"demand_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// SimulationResult is produced fresh per run and must not be mutated once
// returned.
type SimulationResult struct {
	Architecture Architecture      `json:"architecture"`
	SiteName     string            `json:"site_name"`
	TimestepH    float64           `json:"timestep_h"`
	Steps        int               `json:"steps"`
	Fingerprint  string            `json:"fingerprint,omitempty"`
	RegistryHash string            `json:"registry_hash,omitempty"`
	Timeseries   Timeseries        `json:"timeseries"`
	Segments     []SegmentSeries   `json:"segments"`
	Metrics      Metrics           `json:"metrics"`
	Costs        Costs             `json:"costs"`
	Binding      []string          `json:"binding_constraints,omitempty"`
	Saturation   []ConstraintCount `json:"saturation,omitempty"`
}
