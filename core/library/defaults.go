package library

// DefaultModuleID is the array module used when a segment names none.
const DefaultModuleID = "DCDC_100KW"

const defaultsDate = "2026-01-07"

var allArchitectures = []string{"virtos", "grid_only", "ac_coupled"}

// DefaultRecords returns the seed records written on first use.
func DefaultRecords() []ComponentRecord {
	rec := func(id string, t ComponentType, name string, arch []string, params, costs map[string]float64, source, notes string) ComponentRecord {
		return ComponentRecord{
			ComponentID:               id,
			ComponentType:             t,
			Name:                      name,
			ArchitectureCompatibility: append([]string(nil), arch...),
			Parameters:                params,
			Costs:                     costs,
			Source:                    source,
			Version:                   1,
			EffectiveDate:             defaultsDate,
			Notes:                     notes,
		}
	}
	return []ComponentRecord{
		rec("PCS_500", TypePCS, "PCS 500 kW", allArchitectures,
			map[string]float64{ParamPowerKW: 500}, map[string]float64{CostCapexAUD: 150000},
			"user_input", "Default placeholder PCS size."),
		rec("PCS_1000", TypePCS, "PCS 1000 kW", allArchitectures,
			map[string]float64{ParamPowerKW: 1000}, map[string]float64{CostCapexAUD: 250000},
			"user_input", "Default placeholder PCS size."),
		rec("BATT_500_1000", TypeBattery, "Battery 500 kW / 1000 kWh", []string{"virtos", "ac_coupled"},
			map[string]float64{ParamPowerKW: 500, ParamEnergyKWh: 1000}, map[string]float64{CostCapexAUD: 400000},
			"user_input", "Default placeholder battery."),
		rec("BATT_1000_2000", TypeBattery, "Battery 1000 kW / 2000 kWh", []string{"virtos", "ac_coupled"},
			map[string]float64{ParamPowerKW: 1000, ParamEnergyKWh: 2000}, map[string]float64{CostCapexAUD: 0},
			"user_input", "Default placeholder battery."),
		rec("CABLE_375A", TypeCable, "Cable 375A (CCS Fleet)", allArchitectures,
			map[string]float64{ParamImaxA: 375}, map[string]float64{CostCapexAUD: 0},
			"Virtos Pilot System Datasheet (PDF)", "CCS Fleet: 375A continuous."),
		rec("CABLE_600A", TypeCable, "Cable 600A (CCS Ultra)", allArchitectures,
			map[string]float64{ParamImaxA: 600}, map[string]float64{CostCapexAUD: 0},
			"Virtos Pilot System Datasheet (PDF)", "CCS Ultra: 600A continuous; boost excluded."),
		rec("CABLE_1500A", TypeCable, "Cable 1500A (MCS)", allArchitectures,
			map[string]float64{ParamImaxA: 1500}, map[string]float64{CostCapexAUD: 0},
			"Virtos Pilot System Datasheet (PDF)", "MCS: 1500A continuous."),
		rec(DefaultModuleID, TypeArrayModule, "DC-DC Module 100 kW", []string{"virtos"},
			map[string]float64{ParamCapKW: 100}, map[string]float64{CostCapexAUD: 12000},
			"Locked decision", "Cap locked at 100 kW per module."),
		rec("HPC_350", TypeDispenser, "HPC dispenser 350 kW", allArchitectures,
			map[string]float64{ParamMaxKW: 350}, map[string]float64{CostCapexAUD: 80000},
			"user_input", "Independent dispenser ceiling."),
		rec("TARIFF_DEFAULT", TypeTariff, "Default TOU tariff", allArchitectures,
			map[string]float64{ParamOffpeakPerKWh: 0.12, ParamShoulderPerKWh: 0.20, ParamPeakPerKWh: 0.35, ParamDemandChargeKW: 0},
			map[string]float64{}, "user_input", "Placeholder rates."),
	}
}

// DefaultSnapshot returns a hashed snapshot built from DefaultRecords.
func DefaultSnapshot() (Snapshot, error) {
	s := Snapshot{SchemaVersion: SchemaVersion, Records: DefaultRecords(), History: []HistoryEntry{}}
	h, err := s.ComputeHash()
	if err != nil {
		return Snapshot{}, err
	}
	s.LibraryHash = h
	return s, nil
}
