package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/virtos/core/model"
)

func result(grid ...float64) model.SimulationResult {
	ts := model.NewTimeseries(len(grid))
	copy(ts.GridImportKW, grid)
	for i := range grid {
		ts.Hour[i] = float64(i) * 0.25
		ts.DemandKW[i] = grid[i] + 10
		ts.DeliveredKW[i] = grid[i]
	}
	return model.SimulationResult{Timeseries: ts}
}

func TestLedgerAndPeak(t *testing.T) {
	rows := Ledger(result(100, 300, 300, 50))
	require.Len(t, rows, 4)
	assert.Equal(t, 0.5, rows[2].Hour)
	assert.Equal(t, 310.0, rows[1].DemandKW)

	p, ok := Peak(rows)
	require.True(t, ok)
	assert.Equal(t, 1, p.Step)
	assert.Equal(t, 300.0, p.GridImportKW)
	assert.Equal(t, "Peak grid import occurs at timestep 1 with 300.0 kW. This timestep is driving demand charges.", Hint(rows))

	_, ok = Peak(nil)
	assert.False(t, ok)
	assert.Equal(t, "No data", Hint(nil))
}

func TestBindingConstraint(t *testing.T) {
	res := model.SimulationResult{Saturation: []model.ConstraintCount{
		{Constraint: model.ConstraintGrid, Steps: 3},
		{Constraint: model.ConstraintShared, Steps: 7},
		{Constraint: model.ConstraintArray, Steps: 7},
	}}
	c, ok := BindingConstraint(res)
	require.True(t, ok)
	assert.Equal(t, model.ConstraintArray, c.Constraint)
	assert.Equal(t, 7, c.Steps)

	_, ok = BindingConstraint(model.SimulationResult{})
	assert.False(t, ok)
}

func TestCompare(t *testing.T) {
	a := model.SimulationResult{
		Architecture: model.ArchVirtos,
		Costs:        model.Costs{TotalCost: 100, DemandCost: 40, EnergyCost: 60, PeakKW: 200},
		Metrics:      model.Metrics{PowerSatisfiedPct: 99, TimeSatisfiedPct: 90},
	}
	b := model.SimulationResult{
		Architecture: model.ArchGridOnly,
		Costs:        model.Costs{TotalCost: 150, DemandCost: 80, EnergyCost: 70, PeakKW: 300},
		Metrics:      model.Metrics{PowerSatisfiedPct: 93.75, TimeSatisfiedPct: 50, EnergyNotServedKWh: 20},
	}
	d := Compare(a, b)
	assert.Equal(t, -50.0, d.TotalCost)
	assert.Equal(t, -40.0, d.DemandCost)
	assert.Equal(t, -100.0, d.PeakKW)
	assert.Equal(t, 5.25, d.PowerSatisfiedPct)
	assert.Equal(t, -20.0, d.EnergyNotServedKWh)
	assert.Equal(t, model.ArchGridOnly, d.B)
}

func TestTopologyAndStack(t *testing.T) {
	assert.Contains(t, Topology(model.ArchVirtos), "Battery (DC-coupled)")
	assert.Contains(t, Topology(model.ArchACCoupled), "AC BESS (behind meter)")
	assert.Equal(t, "Unknown architecture", Topology("x"))

	site := model.SiteSpec{
		GridConnectionKW: 1000,
		SharedUpstreamKW: 600,
		GridCharging:     model.GridChargePolicy{Enabled: true, MaxPowerKW: 200, TargetSoCPct: 80},
		Segments:         []model.SegmentSpec{{ID: "s1", PCSSKU: "PCS_500", BatterySKU: "BATT_500_1000", ModuleCount: 4, CableSKU: "CABLE_600A"}},
	}
	lines := ConstraintStack(site, model.ArchVirtos)
	assert.Contains(t, lines, "s1: cable cap CABLE_600A @ 800 V")
	assert.Contains(t, lines, "s1: array cap 4 x default module")
	assert.Contains(t, lines, "Shared PCS cap: 600 kW (site, hard cap)")
	assert.Contains(t, lines, "Grid charging enabled up to 200 kW (target 80% SoC)")

	ac := ConstraintStack(site, model.ArchACCoupled)
	assert.Contains(t, ac, "AC BESS: none")
	assert.NotContains(t, ac, "s1: battery BATT_500_1000 (DC-coupled)")
}
