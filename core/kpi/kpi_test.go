package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/virtos/core/model"
)

func series(demand, delivered []float64, dt float64) model.SegmentSeries {
	s := model.NewSegmentSeries("s", model.SegmentCaps{}, len(demand))
	copy(s.DemandKW, demand)
	copy(s.DeliveredKW, delivered)
	for i := range demand {
		s.UnservedKWh[i] = max(demand[i]-delivered[i], 0) * dt
	}
	return s
}

func TestCompute_ScenarioA(t *testing.T) {
	m := Compute([]model.SegmentSeries{series(
		[]float64{320, 320, 320, 320},
		[]float64{300, 300, 300, 300},
		0.25,
	)})
	assert.InDelta(t, 93.75, m.PowerSatisfiedPct, 1e-9)
	assert.InDelta(t, 20, m.EnergyNotServedKWh, 1e-9)
	assert.Zero(t, m.TimeSatisfiedPct)
}

func TestCompute_TimeSatisfiedAcrossSegments(t *testing.T) {
	m := Compute([]model.SegmentSeries{
		series([]float64{10, 10}, []float64{10, 5}, 1),
		series([]float64{0, 10}, []float64{0, 10}, 1),
	})
	assert.InDelta(t, 75, m.TimeSatisfiedPct, 1e-9)
	assert.InDelta(t, 35.0/40*100, m.PowerSatisfiedPct, 1e-9)
	assert.InDelta(t, 5, m.EnergyNotServedKWh, 1e-9)
}

func TestCompute_ZeroDemand(t *testing.T) {
	m := Compute([]model.SegmentSeries{series([]float64{0, 0}, []float64{0, 0}, 1)})
	assert.Equal(t, 100.0, m.TimeSatisfiedPct)
	assert.Zero(t, m.PowerSatisfiedPct)
	assert.Zero(t, m.EnergyNotServedKWh)
}

func TestCompute_FullyServed(t *testing.T) {
	m := Compute([]model.SegmentSeries{series([]float64{1, 2, 3}, []float64{1, 2, 3}, 1)})
	assert.Equal(t, 100.0, m.PowerSatisfiedPct)
	assert.Equal(t, 100.0, m.TimeSatisfiedPct)
}
