package scenarios

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/kilianp07/virtos/core/model"
)

// Simulator runs one site. app.Service satisfies it.
type Simulator interface {
	Simulate(ctx context.Context, site model.SiteSpec) (model.SimulationResult, error)
}

// SimulatorFunc adapts a function to Simulator.
type SimulatorFunc func(ctx context.Context, site model.SiteSpec) (model.SimulationResult, error)

func (f SimulatorFunc) Simulate(ctx context.Context, site model.SiteSpec) (model.SimulationResult, error) {
	return f(ctx, site)
}

// Report is the outcome of one scenario. An empty Failures list means the
// scenario passed.
type Report struct {
	Name     string                 `json:"name"`
	Result   model.SimulationResult `json:"-"`
	Failures []string               `json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r Report) Passed() bool { return len(r.Failures) == 0 }

// Run simulates sc and checks its expectations.
func Run(ctx context.Context, sim Simulator, sc *Scenario) (Report, error) {
	res, err := sim.Simulate(ctx, sc.Site)
	if err != nil {
		return Report{Name: sc.Name}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return Report{Name: sc.Name, Result: res, Failures: Check(sc.Expected, res)}, nil
}

// Check compares res against exp and describes every mismatch.
func Check(exp Expected, res model.SimulationResult) []string {
	tol := exp.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	var out []string
	num := func(name string, want *float64, got float64) {
		if want != nil && math.Abs(*want-got) > tol {
			out = append(out, fmt.Sprintf("%s: want %.6g, got %.6g", name, *want, got))
		}
	}
	num("time_satisfied_pct", exp.TimeSatisfiedPct, res.Metrics.TimeSatisfiedPct)
	num("power_satisfied_pct", exp.PowerSatisfiedPct, res.Metrics.PowerSatisfiedPct)
	num("energy_not_served_kwh", exp.EnergyNotServedKWh, res.Metrics.EnergyNotServedKWh)
	num("grid_energy_kwh", exp.GridEnergyKWh, res.Costs.EnergyKWh)
	num("peak_grid_kw", exp.PeakGridKW, res.Costs.PeakKW)

	if exp.Binding != nil {
		got := make([]string, 0, len(res.Saturation))
		for _, c := range res.Saturation {
			got = append(got, c.Constraint.Key())
		}
		if !slices.Equal(exp.Binding, got) {
			out = append(out, fmt.Sprintf("binding: want %v, got %v", exp.Binding, got))
		}
	}
	return out
}
