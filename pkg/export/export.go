// Package export writes the per-timestep power-flow ledger of a run.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/virtos/core/explain"
)

var header = []string{
	"step", "hour", "demand_kw", "delivered_kw", "grid_import_kw", "shared_draw_kw",
	"battery_discharge_kw", "battery_charge_kw", "soc_kwh", "unserved_kwh",
}

// WriteJSON writes the ledger rows to w as a JSON array.
func WriteJSON(w io.Writer, rows []explain.LedgerRow) error {
	if rows == nil {
		rows = []explain.LedgerRow{}
	}
	return json.NewEncoder(w).Encode(rows)
}

// WriteCSV writes the ledger rows to w with a header line.
func WriteCSV(w io.Writer, rows []explain.LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Step),
			num(r.Hour),
			num(r.DemandKW),
			num(r.DeliveredKW),
			num(r.GridImportKW),
			num(r.SharedDrawKW),
			num(r.BatteryDischargeKW),
			num(r.BatteryChargeKW),
			num(r.SoCKWh),
			num(r.UnservedKWh),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
