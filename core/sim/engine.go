// Package sim steps a site through its demand curve under one architecture
// and produces the power flows, metrics and costs of the run.
package sim

import (
	"fmt"
	"math"

	"github.com/kilianp07/virtos/core/costing"
	"github.com/kilianp07/virtos/core/kpi"
	"github.com/kilianp07/virtos/core/logger"
	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/core/segment"
)

// Capabilities resolves component ratings and tariff templates.
type Capabilities interface {
	segment.Capabilities
	Tariff(id string) (model.Tariff, bool)
}

// Engine runs deterministic simulations. It holds no per-run state and may be
// shared between goroutines.
type Engine struct {
	caps Capabilities
	log  logger.Logger
}

// NewEngine returns an engine resolving components through caps.
func NewEngine(caps Capabilities, log logger.Logger) *Engine {
	return &Engine{caps: caps, log: log}
}

// run is the isolated state of one simulation.
type run struct {
	site     model.SiteSpec
	dt       float64
	n        int
	util     []float64
	gridKW   float64
	sharedKW float64
	caps     []model.SegmentCaps
	lookup   Capabilities
	res      *model.SimulationResult
	sat      saturation
}

type strategy func(r *run)

func strategyFor(a model.Architecture) strategy {
	switch a {
	case model.ArchGridOnly:
		return runGridOnly
	case model.ArchACCoupled:
		return runACCoupled
	default:
		return runVirtos
	}
}

// ResolveArchitecture maps a site's architecture tag to a supported value.
// An empty tag selects Virtos.
func ResolveArchitecture(a model.Architecture) (model.Architecture, error) {
	if a == "" {
		return model.ArchVirtos, nil
	}
	if a.Valid() {
		return a, nil
	}
	return model.ParseArchitecture(string(a))
}

// Run simulates site. The only error is an unknown architecture; malformed
// numeric inputs fall back to safe defaults.
func (e *Engine) Run(site model.SiteSpec) (model.SimulationResult, error) {
	arch, err := ResolveArchitecture(site.Architecture)
	if err != nil {
		return model.SimulationResult{}, err
	}
	site.Architecture = arch
	site = site.Normalized()
	fp, err := site.Fingerprint()
	if err != nil {
		return model.SimulationResult{}, fmt.Errorf("fingerprint site: %w", err)
	}

	n := site.Demand.Steps()
	dt := site.Demand.TimestepHours()
	res := model.SimulationResult{
		Architecture: arch,
		SiteName:     site.Name,
		TimestepH:    dt,
		Steps:        n,
		Fingerprint:  fp,
		Timeseries:   model.NewTimeseries(n),
	}
	r := &run{
		site:     site,
		dt:       dt,
		n:        n,
		util:     site.Demand.Utilisation,
		gridKW:   site.GridConnectionKW,
		sharedKW: site.SharedUpstreamKW,
		caps:     segment.DeriveAll(site.Segments, e.caps),
		lookup:   e.caps,
		res:      &res,
	}
	for t := range n {
		res.Timeseries.Hour[t] = float64(t) * dt
		res.Timeseries.Utilisation[t] = r.util[t]
	}

	strategyFor(arch)(r)

	res.Binding = r.sat.labels()
	res.Saturation = r.sat.counts()
	res.Metrics = kpi.Compute(res.Segments)
	res.Costs = costing.Compute(res.Timeseries.GridImportKW, dt, e.tariff(site.Tariff, n, dt))

	if e.log != nil {
		e.log.Debugw("simulation complete", map[string]any{
			"architecture":       string(arch),
			"site":               site.Name,
			"steps":              n,
			"segments":           len(site.Segments),
			"power_satisfied":    res.Metrics.PowerSatisfiedPct,
			"energy_not_served":  res.Metrics.EnergyNotServedKWh,
			"total_cost":         res.Costs.TotalCost,
			"binding":            res.Binding,
			"fingerprint":        fp,
			"grid_charging":      site.GridCharging.Enabled,
			"initial_soc_frac":   site.InitialSoC(),
			"effective_upstream": min(r.sharedKW, r.gridKW),
		})
	}
	return res, nil
}

// tariff applies the rates of a referenced tariff template. A tariff without
// a band layout is priced with the standard daily bands.
func (e *Engine) tariff(t model.Tariff, n int, dt float64) model.Tariff {
	if t.ID != "" {
		if tpl, ok := e.caps.Tariff(t.ID); ok {
			t = costing.MergeRates(t, tpl)
		} else if e.log != nil {
			e.log.Warnf("tariff template %q not found, using inline rates", t.ID)
		}
	}
	if t.Peak == nil && len(t.ShoulderIndices) == 0 {
		t = costing.WithDefaultBands(t, n, dt)
	}
	return t
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
