// Package explain derives audit views from a finished simulation: a power
// flow ledger, the peak driving demand charges, the binding constraint and
// deltas between architectures.
package explain

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/virtos/core/model"
)

// LedgerRow is the site-level power balance of one timestep.
type LedgerRow struct {
	Step               int     `json:"step"`
	Hour               float64 `json:"hour"`
	DemandKW           float64 `json:"demand_kw"`
	DeliveredKW        float64 `json:"delivered_kw"`
	GridImportKW       float64 `json:"grid_import_kw"`
	SharedDrawKW       float64 `json:"shared_draw_kw"`
	BatteryDischargeKW float64 `json:"battery_discharge_kw"`
	BatteryChargeKW    float64 `json:"battery_charge_kw"`
	SoCKWh             float64 `json:"soc_kwh"`
	UnservedKWh        float64 `json:"unserved_kwh"`
}

// Ledger reconstructs the per-timestep ledger of a result.
func Ledger(res model.SimulationResult) []LedgerRow {
	ts := res.Timeseries
	rows := make([]LedgerRow, len(ts.GridImportKW))
	for i := range rows {
		rows[i] = LedgerRow{
			Step:               i,
			Hour:               at(ts.Hour, i),
			DemandKW:           at(ts.DemandKW, i),
			DeliveredKW:        at(ts.DeliveredKW, i),
			GridImportKW:       ts.GridImportKW[i],
			SharedDrawKW:       at(ts.SharedDrawKW, i),
			BatteryDischargeKW: at(ts.BatteryDischargeKW, i),
			BatteryChargeKW:    at(ts.BatteryChargeKW, i),
			SoCKWh:             at(ts.SoCKWh, i),
			UnservedKWh:        at(ts.UnservedKWh, i),
		}
	}
	return rows
}

// PeakDriver describes the timestep with the highest grid import, which sets
// the demand charge.
type PeakDriver struct {
	Step         int     `json:"step"`
	Hour         float64 `json:"hour"`
	GridImportKW float64 `json:"peak_grid_import_kw"`
	DemandKW     float64 `json:"demand_kw"`
	DeliveredKW  float64 `json:"delivered_kw"`
	SoCKWh       float64 `json:"soc_kwh"`
}

// Peak returns the peak-driving row. The earliest step wins a tie. ok is
// false for an empty ledger.
func Peak(rows []LedgerRow) (PeakDriver, bool) {
	if len(rows) == 0 {
		return PeakDriver{}, false
	}
	grid := make([]float64, len(rows))
	for i, r := range rows {
		grid[i] = r.GridImportKW
	}
	r := rows[floats.MaxIdx(grid)]
	return PeakDriver{
		Step:         r.Step,
		Hour:         r.Hour,
		GridImportKW: r.GridImportKW,
		DemandKW:     r.DemandKW,
		DeliveredKW:  r.DeliveredKW,
		SoCKWh:       r.SoCKWh,
	}, true
}

// Hint phrases the peak driver for reports.
func Hint(rows []LedgerRow) string {
	p, ok := Peak(rows)
	if !ok {
		return "No data"
	}
	return fmt.Sprintf("Peak grid import occurs at timestep %d with %.1f kW. This timestep is driving demand charges.",
		p.Step, p.GridImportKW)
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
