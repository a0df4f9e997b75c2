// Package costing prices a grid import series under a time-of-use tariff.
package costing

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/virtos/core/model"
)

// Band is a time-of-use price regime.
type Band int

const (
	OffPeak Band = iota
	Shoulder
	Peak
)

func (b Band) String() string {
	switch b {
	case Shoulder:
		return "shoulder"
	case Peak:
		return "peak"
	default:
		return "offpeak"
	}
}

// Bands assigns a band to each of n timesteps. The inclusive peak range takes
// precedence over shoulder membership; everything else is off-peak.
func Bands(n int, t model.Tariff) []Band {
	out := make([]Band, n)
	for _, i := range t.ShoulderIndices {
		if i >= 0 && i < n {
			out[i] = Shoulder
		}
	}
	if t.Peak != nil {
		for i := max(t.Peak.Start, 0); i <= t.Peak.End && i < n; i++ {
			out[i] = Peak
		}
	}
	return out
}

// Prices returns the energy price of each of n timesteps.
func Prices(n int, t model.Tariff) []float64 {
	rates := [...]float64{
		OffPeak:  rate(t.OffpeakPerKWh),
		Shoulder: rate(t.ShoulderPerKWh),
		Peak:     rate(t.PeakPerKWh),
	}
	out := make([]float64, n)
	for i, b := range Bands(n, t) {
		out[i] = rates[b]
	}
	return out
}

// Compute converts a grid import series into energy and demand charges. The
// demand charge applies once to the highest import of the whole run.
func Compute(gridImportKW []float64, dtH float64, t model.Tariff) model.Costs {
	n := len(gridImportKW)
	if n == 0 {
		return model.Costs{}
	}
	energyCost := floats.Dot(gridImportKW, Prices(n, t)) * dtH
	peak := math.Max(floats.Max(gridImportKW), 0)
	demandCost := peak * rate(t.DemandChargePerKWMonth)
	return model.Costs{
		EnergyKWh:  floats.Sum(gridImportKW) * dtH,
		EnergyCost: energyCost,
		PeakKW:     peak,
		DemandCost: demandCost,
		TotalCost:  energyCost + demandCost,
	}
}

// WithDefaultBands returns t with the standard daily bands for n steps of dtH
// hours: off-peak before 07:00, peak from 16:00 to 21:00 and shoulder
// otherwise, including any steps past 24 h.
func WithDefaultBands(t model.Tariff, n int, dtH float64) model.Tariff {
	t.Peak = nil
	t.ShoulderIndices = nil
	if dtH <= 0 {
		return t
	}
	start, end := -1, -1
	for i := 0; i < n; i++ {
		h := float64(i) * dtH
		switch {
		case h >= 16 && h < 21:
			if start < 0 {
				start = i
			}
			end = i
		case h >= 7:
			t.ShoulderIndices = append(t.ShoulderIndices, i)
		}
	}
	if start >= 0 {
		t.Peak = &model.IndexRange{Start: start, End: end}
	}
	return t
}

// MergeRates copies the rates of a tariff template onto t, keeping the band
// layout of t.
func MergeRates(t, template model.Tariff) model.Tariff {
	t.OffpeakPerKWh = template.OffpeakPerKWh
	t.ShoulderPerKWh = template.ShoulderPerKWh
	t.PeakPerKWh = template.PeakPerKWh
	t.DemandChargePerKWMonth = template.DemandChargePerKWMonth
	t.ShoulderIndices = slices.Clone(t.ShoulderIndices)
	return t
}

func rate(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
