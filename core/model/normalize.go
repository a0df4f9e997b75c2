package model

import (
	"math"
	"slices"
)

// Normalized returns a copy of the site with every malformed number replaced
// by its safe default: the curve is repaired to Steps values, caps and rates
// that are NaN, infinite or negative become 0, and the battery start state is
// made explicit. The architecture tag is left untouched.
func (s SiteSpec) Normalized() SiteSpec {
	n := s.Demand.Steps()
	dt := s.Demand.TimestepHours()
	s.Demand = DemandProfile{
		Utilisation:     RepairCurve(s.Demand.Utilisation, n),
		TimestepMinutes: s.Demand.timestepMinutes(),
		HorizonHours:    min(float64(n)*dt, MaxHorizonHours),
	}
	s.GridConnectionKW = finiteNonNegative(s.GridConnectionKW)
	s.SharedUpstreamKW = finiteNonNegative(s.SharedUpstreamKW)
	soc := s.InitialSoC()
	s.InitialSoCFrac = &soc

	s.Segments = slices.Clone(s.Segments)
	for i := range s.Segments {
		v := s.Segments[i].VehicleVoltageV
		if !(v > 0) || math.IsInf(v, 0) {
			s.Segments[i].VehicleVoltageV = DefaultVehicleVoltageV
		}
	}

	s.GridCharging.TargetSoCPct = min(finiteNonNegative(s.GridCharging.TargetSoCPct), 100)
	s.GridCharging.MaxPowerKW = finiteNonNegative(s.GridCharging.MaxPowerKW)
	s.ACBattery.InverterKW = finiteNonNegative(s.ACBattery.InverterKW)

	t := &s.Tariff
	t.OffpeakPerKWh = finite(t.OffpeakPerKWh)
	t.ShoulderPerKWh = finite(t.ShoulderPerKWh)
	t.PeakPerKWh = finite(t.PeakPerKWh)
	t.DemandChargePerKWMonth = finite(t.DemandChargePerKWMonth)
	t.ShoulderIndices = slices.Clone(t.ShoulderIndices)
	if t.Peak != nil {
		p := *t.Peak
		t.Peak = &p
	}
	return s
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func finiteNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return finite(v)
}
