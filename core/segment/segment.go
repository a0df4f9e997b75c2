// Package segment derives the numeric capacity tuple of a charging segment
// from the component identifiers in its configuration.
package segment

import (
	"math"

	"github.com/kilianp07/virtos/core/model"
)

// Capabilities resolves component identifiers to ratings. A false ok means
// the identifier is unknown and the rating is treated as zero.
type Capabilities interface {
	PCSKW(id string) (float64, bool)
	Battery(id string) (powerKW, energyKWh float64, ok bool)
	CableImaxA(id string) (float64, bool)
	ModuleKW(id string) (float64, bool)
	DispenserKW(id string) (float64, bool)
}

// CableKW converts a cable current rating into power at the given voltage.
func CableKW(voltageV, imaxA float64) float64 {
	return nonNegative(voltageV * imaxA / 1000)
}

// Derive computes the capacity tuple of one segment. Missing identifiers
// yield zero caps, never unlimited ones.
func Derive(spec model.SegmentSpec, caps Capabilities) model.SegmentCaps {
	voltage := spec.VehicleVoltageV
	if voltage <= 0 || math.IsNaN(voltage) || math.IsInf(voltage, 0) {
		voltage = model.DefaultVehicleVoltageV
	}
	pcs, _ := caps.PCSKW(spec.PCSSKU)
	var battKW, battKWh float64
	if spec.BatterySKU != "" {
		battKW, battKWh, _ = caps.Battery(spec.BatterySKU)
	}
	imax, _ := caps.CableImaxA(spec.CableSKU)
	moduleKW, _ := caps.ModuleKW(spec.ModuleSKU)
	count := max(spec.ModuleCount, 0)

	out := model.SegmentCaps{
		PCSKW:      nonNegative(pcs),
		BatteryKW:  nonNegative(battKW),
		BatteryKWh: nonNegative(battKWh),
		ArrayKW:    nonNegative(float64(count) * moduleKW),
		CableKW:    CableKW(voltage, imax),
	}
	if spec.DispenserSKU != "" {
		d, _ := caps.DispenserKW(spec.DispenserSKU)
		d = nonNegative(d)
		out.DispenserKW = &d
	}
	return out
}

// DeriveAll derives every segment of a site in order.
func DeriveAll(specs []model.SegmentSpec, caps Capabilities) []model.SegmentCaps {
	out := make([]model.SegmentCaps, len(specs))
	for i, s := range specs {
		out[i] = Derive(s, caps)
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
