package library

import (
	"fmt"
	"maps"
	"slices"
)

// ComponentType classifies a component record.
type ComponentType string

const (
	TypePCS         ComponentType = "pcs"
	TypeBattery     ComponentType = "battery"
	TypeCable       ComponentType = "cable"
	TypeArrayModule ComponentType = "dcdc"
	TypeDispenser   ComponentType = "dispenser"
	TypeTariff      ComponentType = "tariff"
)

// ComponentTypes lists the closed set of component types.
func ComponentTypes() []ComponentType {
	return []ComponentType{TypePCS, TypeBattery, TypeCable, TypeArrayModule, TypeDispenser, TypeTariff}
}

func (t ComponentType) valid() bool { return slices.Contains(ComponentTypes(), t) }

// Parameter keys.
const (
	ParamPowerKW        = "power_kw"
	ParamEnergyKWh      = "energy_kwh"
	ParamImaxA          = "imax_a"
	ParamCapKW          = "cap_kw"
	ParamMaxKW          = "max_kw"
	ParamOffpeakPerKWh  = "offpeak_per_kwh"
	ParamShoulderPerKWh = "shoulder_per_kwh"
	ParamPeakPerKWh     = "peak_per_kwh"
	ParamDemandChargeKW = "demand_charge_per_kw_month"
	CostCapexAUD        = "capex_aud"
	CostOpexAUDPerYear  = "opex_aud_per_year"
)

// requiredParams lists the parameter keys each component type must carry.
var requiredParams = map[ComponentType][]string{
	TypePCS:         {ParamPowerKW},
	TypeBattery:     {ParamPowerKW, ParamEnergyKWh},
	TypeCable:       {ParamImaxA},
	TypeArrayModule: {ParamCapKW},
	TypeDispenser:   {ParamMaxKW},
	TypeTariff:      {ParamOffpeakPerKWh, ParamShoulderPerKWh, ParamPeakPerKWh, ParamDemandChargeKW},
}

// RequiredParams returns the required parameter keys for t.
func RequiredParams(t ComponentType) []string {
	return slices.Clone(requiredParams[t])
}

// ComponentRecord is one versioned entry of the component library.
type ComponentRecord struct {
	ComponentID               string             `json:"component_id"`
	ComponentType             ComponentType      `json:"component_type"`
	Name                      string             `json:"name"`
	ArchitectureCompatibility []string           `json:"architecture_compatibility"`
	Parameters                map[string]float64 `json:"parameters"`
	Costs                     map[string]float64 `json:"costs"`
	Source                    string             `json:"source"`
	Version                   int                `json:"version"`
	EffectiveDate             string             `json:"effective_date"`
	Notes                     string             `json:"notes"`
}

// Clone returns a deep copy of the record.
func (r ComponentRecord) Clone() ComponentRecord {
	r.ArchitectureCompatibility = slices.Clone(r.ArchitectureCompatibility)
	r.Parameters = maps.Clone(r.Parameters)
	r.Costs = maps.Clone(r.Costs)
	return r
}

// CapexAUD returns the capital cost entry, 0 when absent.
func (r ComponentRecord) CapexAUD() float64 { return r.Costs[CostCapexAUD] }

// Params is the typed view of a record's parameter map. Exactly one concrete
// type exists per ComponentType.
type Params interface {
	Type() ComponentType
}

type PCSParams struct{ PowerKW float64 }

type BatteryParams struct {
	PowerKW   float64
	EnergyKWh float64
}

type CableParams struct{ ImaxA float64 }

type ArrayModuleParams struct{ CapKW float64 }

type DispenserParams struct{ MaxKW float64 }

type TariffParams struct {
	OffpeakPerKWh          float64
	ShoulderPerKWh         float64
	PeakPerKWh             float64
	DemandChargePerKWMonth float64
}

func (PCSParams) Type() ComponentType         { return TypePCS }
func (BatteryParams) Type() ComponentType     { return TypeBattery }
func (CableParams) Type() ComponentType       { return TypeCable }
func (ArrayModuleParams) Type() ComponentType { return TypeArrayModule }
func (DispenserParams) Type() ComponentType   { return TypeDispenser }
func (TariffParams) Type() ComponentType      { return TypeTariff }

// Params decodes the parameter map into the typed variant of the record's
// component type. A missing required key is an error.
func (r ComponentRecord) Params() (Params, error) {
	req, ok := requiredParams[r.ComponentType]
	if !ok {
		return nil, fmt.Errorf("component %s: invalid component_type %q", r.ComponentID, r.ComponentType)
	}
	for _, k := range req {
		if _, ok := r.Parameters[k]; !ok {
			return nil, fmt.Errorf("component %s: %s requires parameters.%s", r.ComponentID, r.ComponentType, k)
		}
	}
	p := r.Parameters
	switch r.ComponentType {
	case TypePCS:
		return PCSParams{PowerKW: p[ParamPowerKW]}, nil
	case TypeBattery:
		return BatteryParams{PowerKW: p[ParamPowerKW], EnergyKWh: p[ParamEnergyKWh]}, nil
	case TypeCable:
		return CableParams{ImaxA: p[ParamImaxA]}, nil
	case TypeArrayModule:
		return ArrayModuleParams{CapKW: p[ParamCapKW]}, nil
	case TypeDispenser:
		return DispenserParams{MaxKW: p[ParamMaxKW]}, nil
	default:
		return TariffParams{
			OffpeakPerKWh:          p[ParamOffpeakPerKWh],
			ShoulderPerKWh:         p[ParamShoulderPerKWh],
			PeakPerKWh:             p[ParamPeakPerKWh],
			DemandChargePerKWMonth: p[ParamDemandChargeKW],
		}, nil
	}
}
