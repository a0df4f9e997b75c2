// Package kpi aggregates service-level metrics from a run.
package kpi

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/virtos/core/model"
)

// satisfiedEps absorbs float noise when delivered power equals demand.
const satisfiedEps = 1e-9

// Compute aggregates the metrics of the given segment series. Power
// satisfaction is 0 when the run has no demand at all.
func Compute(segments []model.SegmentSeries) model.Metrics {
	var pairs, satisfied int
	var demand, delivered, unserved float64
	for _, s := range segments {
		for i, d := range s.DemandKW {
			pairs++
			if i < len(s.DeliveredKW) && s.DeliveredKW[i]+satisfiedEps >= d {
				satisfied++
			}
		}
		demand += floats.Sum(s.DemandKW)
		delivered += floats.Sum(s.DeliveredKW)
		unserved += floats.Sum(s.UnservedKWh)
	}
	var m model.Metrics
	if pairs > 0 {
		m.TimeSatisfiedPct = 100 * float64(satisfied) / float64(pairs)
	}
	if demand > 0 {
		m.PowerSatisfiedPct = min(max(100*delivered/demand, 0), 100)
	}
	m.EnergyNotServedKWh = unserved
	return m
}
