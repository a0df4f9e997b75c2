package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArchitecture(t *testing.T) {
	cases := map[string]Architecture{
		"virtos":              ArchVirtos,
		"Virtos (DC-coupled)": ArchVirtos,
		"DC-coupled":          ArchVirtos,
		"grid_only":           ArchGridOnly,
		"Grid-only":           ArchGridOnly,
		"grid":                ArchGridOnly,
		"ac_coupled":          ArchACCoupled,
		"AC-coupled BESS":     ArchACCoupled,
		" ac ":                ArchACCoupled,
	}
	for in, want := range cases {
		got, err := ParseArchitecture(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, a := range Architectures() {
		got, err := ParseArchitecture(a.Label())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	_, err := ParseArchitecture("hydrogen")
	assert.True(t, errors.Is(err, ErrUnknownArchitecture))
	assert.False(t, Architecture("hydrogen").Valid())
}

func TestDemandProfileSteps(t *testing.T) {
	assert.Equal(t, 96, DemandProfile{TimestepMinutes: 15}.Steps())
	assert.Equal(t, 96, DemandProfile{}.Steps(), "defaults to 15 min over 24 h")
	assert.Equal(t, 24, DemandProfile{TimestepMinutes: 60}.Steps())
	assert.Equal(t, 8, DemandProfile{TimestepMinutes: 30, HorizonHours: 4}.Steps())
	assert.Equal(t, 1, DemandProfile{TimestepMinutes: 600, HorizonHours: 1}.Steps())
	assert.InDelta(t, 0.25, DemandProfile{TimestepMinutes: math.NaN()}.TimestepHours(), 1e-12)
}

func TestDemandProfileStepsBounded(t *testing.T) {
	assert.Equal(t, 96, DemandProfile{TimestepMinutes: 0.001, HorizonHours: 100000}.Steps())
	assert.Equal(t, 96, DemandProfile{TimestepMinutes: 15, HorizonHours: math.Inf(1)}.Steps())
	assert.Equal(t, 672, DemandProfile{TimestepMinutes: 15, HorizonHours: MaxHorizonHours}.Steps())
	assert.Equal(t, MaxSteps, DemandProfile{TimestepMinutes: MinTimestepMinutes, HorizonHours: MaxHorizonHours}.Steps())
	assert.Equal(t, 4, DemandProfile{TimestepMinutes: math.Inf(1), HorizonHours: 1}.Steps())
}

func TestNormalizedIsStable(t *testing.T) {
	for _, m := range []float64{1, 7, 13, 15} {
		site := SiteSpec{Demand: DemandProfile{TimestepMinutes: m, HorizonHours: MaxHorizonHours}}
		once := site.Normalized()
		assert.Equal(t, site.Demand.Steps(), once.Demand.Steps(), m)
		assert.Equal(t, once, once.Normalized(), m)
	}
}

func TestRepairCurve(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0, 1, 0, 1}, RepairCurve([]float64{0.5, -2, 7, math.NaN(), math.Inf(1)}, 5))
	assert.Equal(t, []float64{0.2, 0, 0}, RepairCurve([]float64{0.2}, 3))
	assert.Equal(t, []float64{0.1}, RepairCurve([]float64{0.1, 0.9}, 1))
	assert.Len(t, RepairCurve(nil, 96), 96)
}

func TestInitialSoC(t *testing.T) {
	frac := func(v float64) *float64 { return &v }
	assert.Equal(t, DefaultInitialSoCFrac, SiteSpec{}.InitialSoC())
	assert.Equal(t, DefaultInitialSoCFrac, SiteSpec{InitialSoCFrac: frac(math.NaN())}.InitialSoC())
	assert.Equal(t, 0.0, SiteSpec{InitialSoCFrac: frac(-3)}.InitialSoC())
	assert.Equal(t, 1.0, SiteSpec{InitialSoCFrac: frac(math.Inf(1))}.InitialSoC())
	assert.Equal(t, 0.4, SiteSpec{InitialSoCFrac: frac(0.4)}.InitialSoC())

	var site SiteSpec
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x"}`), &site))
	assert.Nil(t, site.InitialSoCFrac)
	require.NoError(t, json.Unmarshal([]byte(`{"initial_soc_frac":0}`), &site))
	assert.Equal(t, 0.0, site.InitialSoC())
}

func TestNormalizedReplacesMalformedNumbers(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	peak := &IndexRange{Start: 1, End: 2}
	site := SiteSpec{
		Demand:           DemandProfile{Utilisation: []float64{nan, 1}, TimestepMinutes: nan, HorizonHours: 1},
		GridConnectionKW: inf,
		SharedUpstreamKW: -5,
		InitialSoCFrac:   &nan,
		Segments:         []SegmentSpec{{PCSSKU: "PCS_500", VehicleVoltageV: inf}},
		GridCharging:     GridChargePolicy{Enabled: true, TargetSoCPct: 250, MaxPowerKW: nan},
		ACBattery:        ACBatterySpec{InverterKW: math.Inf(-1)},
		Tariff:           Tariff{OffpeakPerKWh: nan, PeakPerKWh: -0.1, DemandChargePerKWMonth: inf, Peak: peak},
	}
	n := site.Normalized()

	assert.Equal(t, []float64{0, 1, 0, 0}, n.Demand.Utilisation)
	assert.Equal(t, DefaultTimestepMinutes, n.Demand.TimestepMinutes)
	assert.Equal(t, 4, n.Demand.Steps())
	assert.Zero(t, n.GridConnectionKW)
	assert.Zero(t, n.SharedUpstreamKW)
	require.NotNil(t, n.InitialSoCFrac)
	assert.Equal(t, DefaultInitialSoCFrac, *n.InitialSoCFrac)
	assert.Equal(t, DefaultVehicleVoltageV, n.Segments[0].VehicleVoltageV)
	assert.Equal(t, 100.0, n.GridCharging.TargetSoCPct)
	assert.Zero(t, n.GridCharging.MaxPowerKW)
	assert.Zero(t, n.ACBattery.InverterKW)
	assert.Zero(t, n.Tariff.OffpeakPerKWh)
	assert.Equal(t, -0.1, n.Tariff.PeakPerKWh)
	assert.Zero(t, n.Tariff.DemandChargePerKWMonth)

	n.Segments[0].PCSSKU = "changed"
	n.Tariff.Peak.End = 9
	assert.Equal(t, "PCS_500", site.Segments[0].PCSSKU)
	assert.Equal(t, 2, peak.End)

	fp, err := site.Fingerprint()
	require.NoError(t, err)
	again, err := n.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp, again)
}

func TestConstraintText(t *testing.T) {
	b, err := json.Marshal([]Constraint{ConstraintShared, ConstraintBatteryEnergy})
	require.NoError(t, err)
	assert.JSONEq(t, `["Shared PCS cap","Battery energy (SOC) cap"]`, string(b))

	var back []Constraint
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []Constraint{ConstraintShared, ConstraintBatteryEnergy}, back)

	var c Constraint
	assert.Error(t, c.UnmarshalText([]byte("bogus")))
	assert.Equal(t, "unknown", Constraint(99).String())
	assert.Equal(t, "battery_energy", ConstraintBatteryEnergy.Key())
	assert.Equal(t, "unknown", Constraint(-1).Key())
}

func TestSegmentCapsArraySide(t *testing.T) {
	caps := SegmentCaps{ArrayKW: 400, CableKW: 480}
	assert.Equal(t, 400.0, caps.ArraySideKW())

	d := 350.0
	caps.DispenserKW = &d
	assert.Equal(t, 350.0, caps.ArraySideKW())

	caps.CableKW = 300
	assert.Equal(t, 300.0, caps.ArraySideKW())
}

func TestFingerprint(t *testing.T) {
	site := SiteSpec{
		Name:             "depot",
		Architecture:     ArchVirtos,
		Demand:           DemandProfile{Utilisation: []float64{0.5, 1}, TimestepMinutes: 15},
		GridConnectionKW: 1000,
		SharedUpstreamKW: 1000,
		Segments:         []SegmentSpec{{PCSSKU: "PCS_500", CableSKU: "CABLE_600A", ModuleCount: 4}},
	}
	a, err := site.Fingerprint()
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := site.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := site.WithArchitecture(ArchGridOnly).Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
	assert.Equal(t, ArchVirtos, site.Architecture, "WithArchitecture must not mutate the receiver")
}

func TestSegmentCapsArrayCap(t *testing.T) {
	caps := SegmentCaps{ArrayKW: 400, CableKW: 200}
	assert.Equal(t, 400.0, caps.ArrayCapKW())
	d := 150.0
	caps.DispenserKW = &d
	assert.Equal(t, 150.0, caps.ArrayCapKW())
	assert.Equal(t, 150.0, caps.ArraySideKW())
}
