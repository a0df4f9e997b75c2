package library

import "github.com/kilianp07/virtos/core/model"

// Resolver maps component identifiers to numeric capabilities. Unknown
// identifiers, identifiers of the wrong type and records missing required
// parameters resolve to zero with ok=false; callers treat zero as a zero cap.
type Resolver struct {
	byID map[string]ComponentRecord
}

// NewResolver indexes the records by identifier.
func NewResolver(records []ComponentRecord) *Resolver {
	m := make(map[string]ComponentRecord, len(records))
	for _, r := range records {
		m[r.ComponentID] = r
	}
	return &Resolver{byID: m}
}

func (r *Resolver) params(id string, t ComponentType) (Params, bool) {
	rec, ok := r.byID[id]
	if !ok || rec.ComponentType != t {
		return nil, false
	}
	p, err := rec.Params()
	if err != nil {
		return nil, false
	}
	return p, true
}

// PCSKW returns the rated power of a power-conversion unit.
func (r *Resolver) PCSKW(id string) (float64, bool) {
	p, ok := r.params(id, TypePCS)
	if !ok {
		return 0, false
	}
	return p.(PCSParams).PowerKW, true
}

// Battery returns the power and energy ratings of a battery.
func (r *Resolver) Battery(id string) (powerKW, energyKWh float64, ok bool) {
	p, ok := r.params(id, TypeBattery)
	if !ok {
		return 0, 0, false
	}
	b := p.(BatteryParams)
	return b.PowerKW, b.EnergyKWh, true
}

// CableImaxA returns the continuous current rating of a cable.
func (r *Resolver) CableImaxA(id string) (float64, bool) {
	p, ok := r.params(id, TypeCable)
	if !ok {
		return 0, false
	}
	return p.(CableParams).ImaxA, true
}

// ModuleKW returns the per-module power of an array module.
func (r *Resolver) ModuleKW(id string) (float64, bool) {
	if id == "" {
		id = DefaultModuleID
	}
	p, ok := r.params(id, TypeArrayModule)
	if !ok {
		return 0, false
	}
	return p.(ArrayModuleParams).CapKW, true
}

// DispenserKW returns the maximum power of a dispenser.
func (r *Resolver) DispenserKW(id string) (float64, bool) {
	p, ok := r.params(id, TypeDispenser)
	if !ok {
		return 0, false
	}
	return p.(DispenserParams).MaxKW, true
}

// Tariff returns the rates of a tariff template. Band indices are not part of
// a template and are left empty.
func (r *Resolver) Tariff(id string) (model.Tariff, bool) {
	p, ok := r.params(id, TypeTariff)
	if !ok {
		return model.Tariff{}, false
	}
	t := p.(TariffParams)
	return model.Tariff{
		ID:                     id,
		OffpeakPerKWh:          t.OffpeakPerKWh,
		ShoulderPerKWh:         t.ShoulderPerKWh,
		PeakPerKWh:             t.PeakPerKWh,
		DemandChargePerKWMonth: t.DemandChargePerKWMonth,
	}, true
}
