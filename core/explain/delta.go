package explain

import "github.com/kilianp07/virtos/core/model"

// Delta is the difference A minus B between two results. Negative cost
// deltas mean A is cheaper.
type Delta struct {
	A                  model.Architecture `json:"a"`
	B                  model.Architecture `json:"b"`
	TotalCost          float64            `json:"delta_total_cost"`
	EnergyCost         float64            `json:"delta_energy_cost"`
	DemandCost         float64            `json:"delta_demand_cost"`
	PeakKW             float64            `json:"delta_peak_kw"`
	EnergyKWh          float64            `json:"delta_energy_kwh"`
	PowerSatisfiedPct  float64            `json:"delta_power_satisfied_pct"`
	TimeSatisfiedPct   float64            `json:"delta_time_satisfied_pct"`
	EnergyNotServedKWh float64            `json:"delta_energy_not_served_kwh"`
}

// Compare computes the value-proposition delta of a against b.
func Compare(a, b model.SimulationResult) Delta {
	return Delta{
		A:                  a.Architecture,
		B:                  b.Architecture,
		TotalCost:          a.Costs.TotalCost - b.Costs.TotalCost,
		EnergyCost:         a.Costs.EnergyCost - b.Costs.EnergyCost,
		DemandCost:         a.Costs.DemandCost - b.Costs.DemandCost,
		PeakKW:             a.Costs.PeakKW - b.Costs.PeakKW,
		EnergyKWh:          a.Costs.EnergyKWh - b.Costs.EnergyKWh,
		PowerSatisfiedPct:  a.Metrics.PowerSatisfiedPct - b.Metrics.PowerSatisfiedPct,
		TimeSatisfiedPct:   a.Metrics.TimeSatisfiedPct - b.Metrics.TimeSatisfiedPct,
		EnergyNotServedKWh: a.Metrics.EnergyNotServedKWh - b.Metrics.EnergyNotServedKWh,
	}
}
