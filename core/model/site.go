package model

import "math"

const (
	// DefaultTimestepMinutes is used when a demand profile carries a
	// non-positive timestep.
	DefaultTimestepMinutes = 15.0
	// DefaultHorizonHours is the canonical simulated window.
	DefaultHorizonHours = 24.0
	// DefaultVehicleVoltageV normalises cable ratings for comparability.
	DefaultVehicleVoltageV = 800.0
	// DefaultInitialSoCFrac starts every battery full when a site does not
	// say otherwise.
	DefaultInitialSoCFrac = 1.0

	// MinTimestepMinutes and MaxHorizonHours bound the size of one run.
	// Values outside them fall back to the defaults.
	MinTimestepMinutes = 1.0
	MaxHorizonHours    = 168.0
	// MaxSteps caps the step count whatever the profile says.
	MaxSteps = int(MaxHorizonHours * 60 / MinTimestepMinutes)
)

// DemandProfile is the aggregate utilisation envelope applied to nameplate
// cable power. Values are expected in [0,1].
type DemandProfile struct {
	Utilisation     []float64 `json:"utilisation"`
	TimestepMinutes float64   `json:"timestep_minutes"`
	HorizonHours    float64   `json:"horizon_hours,omitempty"`
}

// TimestepHours returns the step length in hours. Timesteps shorter than
// MinTimestepMinutes, or not finite, fall back to DefaultTimestepMinutes.
func (d DemandProfile) TimestepHours() float64 {
	return d.timestepMinutes() / 60
}

func (d DemandProfile) timestepMinutes() float64 {
	m := d.TimestepMinutes
	if m < MinTimestepMinutes || math.IsNaN(m) || math.IsInf(m, 0) {
		return DefaultTimestepMinutes
	}
	return m
}

// Steps returns the number of timesteps the curve is repaired to, between 1
// and MaxSteps. Horizons above MaxHorizonHours fall back to the default.
func (d DemandProfile) Steps() int {
	h := d.HorizonHours
	if h <= 0 || h > MaxHorizonHours || math.IsNaN(h) {
		h = DefaultHorizonHours
	}
	n := int(math.Round(h / d.TimestepHours()))
	return min(max(n, 1), MaxSteps)
}

// RepairCurve returns exactly n utilisation values: the input is truncated or
// zero padded, never resampled, and each value is clipped to [0,1] with NaN
// read as 0.
func RepairCurve(u []float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(u); i++ {
		v := u[i]
		switch {
		case math.IsNaN(v) || v < 0:
			v = 0
		case v > 1:
			v = 1
		}
		out[i] = v
	}
	return out
}

// IndexRange is an inclusive range of timestep indices.
type IndexRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether i lies within the range.
func (r IndexRange) Contains(i int) bool { return i >= r.Start && i <= r.End }

// Tariff is a time-of-use schedule with a single demand charge ratchet.
type Tariff struct {
	// ID optionally names a tariff template in the component library whose
	// rates replace the inline ones.
	ID                     string      `json:"tariff_id,omitempty"`
	OffpeakPerKWh          float64     `json:"offpeak_per_kwh"`
	ShoulderPerKWh         float64     `json:"shoulder_per_kwh"`
	PeakPerKWh             float64     `json:"peak_per_kwh"`
	DemandChargePerKWMonth float64     `json:"demand_charge_per_kw_month"`
	Peak                   *IndexRange `json:"peak,omitempty"`
	ShoulderIndices        []int       `json:"shoulder_indices,omitempty"`
}

// SegmentSpec configures one logical charging segment (super-string).
type SegmentSpec struct {
	ID              string  `json:"id,omitempty"`
	PCSSKU          string  `json:"pcs_sku"`
	BatterySKU      string  `json:"battery_sku,omitempty"`
	ModuleSKU       string  `json:"module_sku,omitempty"`
	ModuleCount     int     `json:"module_count"`
	CableSKU        string  `json:"cable_sku"`
	DispenserSKU    string  `json:"dispenser_sku,omitempty"`
	VehicleVoltageV float64 `json:"vehicle_voltage_v,omitempty"`
}

// GridChargePolicy controls recharging of Virtos segment batteries from spare
// shared capacity.
type GridChargePolicy struct {
	Enabled      bool    `json:"enabled"`
	TargetSoCPct float64 `json:"target_soc_pct"`
	MaxPowerKW   float64 `json:"max_power_kw"`
}

// ACBatterySpec describes the behind-the-meter battery of the AC-coupled
// comparator.
type ACBatterySpec struct {
	BatterySKU string  `json:"battery_sku"`
	InverterKW float64 `json:"inverter_kw"`
}

// SiteSpec is the immutable input of one simulation run.
type SiteSpec struct {
	Name             string        `json:"name"`
	Architecture     Architecture  `json:"architecture"`
	Demand           DemandProfile `json:"demand"`
	Tariff           Tariff        `json:"tariff"`
	GridConnectionKW float64       `json:"grid_connection_kw"`
	SharedUpstreamKW float64       `json:"shared_upstream_kw"`
	// InitialSoCFrac is the starting state of charge of every battery.
	// Nil means DefaultInitialSoCFrac.
	InitialSoCFrac *float64         `json:"initial_soc_frac,omitempty"`
	Segments       []SegmentSpec    `json:"segments"`
	GridCharging   GridChargePolicy `json:"grid_charging"`
	ACBattery      ACBatterySpec    `json:"ac_battery"`
}

// InitialSoC returns the starting state of charge clamped to [0,1]. A
// missing or NaN value yields DefaultInitialSoCFrac.
func (s SiteSpec) InitialSoC() float64 {
	if s.InitialSoCFrac == nil || math.IsNaN(*s.InitialSoCFrac) {
		return DefaultInitialSoCFrac
	}
	return min(max(*s.InitialSoCFrac, 0), 1)
}

// WithArchitecture returns a copy of the site targeting arch.
func (s SiteSpec) WithArchitecture(arch Architecture) SiteSpec {
	s.Architecture = arch
	return s
}
