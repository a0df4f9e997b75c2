package sim

import "github.com/kilianp07/virtos/core/model"

// siteSeriesID names the single aggregate series reported by architectures
// without per-segment allocation.
const siteSeriesID = "site"

// siteCaps sums the segment caps into one charger-side envelope.
func siteCaps(caps []model.SegmentCaps) (cableKW, arrayKW, pcsKW float64) {
	for _, c := range caps {
		cableKW += c.CableKW
		arrayKW += c.ArrayCapKW()
		pcsKW += c.PCSKW
	}
	return cableKW, arrayKW, pcsKW
}

// chargerSide computes the demand and charger-side deliverable power of one
// aggregate step and flags the caps that limited it.
func chargerSide(u, cableKW, arrayKW, pcsKW float64, flags *stepFlags) (demand, deliverable float64) {
	demand = u * cableKW
	deliverable = min(demand, arrayKW, pcsKW)
	if demand > Tolerance {
		if demand > arrayKW+Tolerance {
			flags.set(model.ConstraintArray)
		}
		if min(demand, arrayKW) > Tolerance && reached(deliverable, pcsKW) {
			flags.set(model.ConstraintPCS)
		}
	}
	return demand, deliverable
}

// runGridOnly serves the site straight from the grid through the charger
// PCS. Steps are independent.
func runGridOnly(r *run) {
	cableKW, arrayKW, pcsKW := siteCaps(r.caps)
	s := model.NewSegmentSeries(siteSeriesID, model.SegmentCaps{
		PCSKW:   pcsKW,
		ArrayKW: arrayKW,
		CableKW: cableKW,
	}, r.n)
	ts := &r.res.Timeseries
	for t := range r.n {
		var flags stepFlags
		demand, deliverable := chargerSide(r.util[t], cableKW, arrayKW, pcsKW, &flags)
		grid := min(deliverable, r.gridKW)
		if deliverable > Tolerance && reached(grid, r.gridKW) {
			flags.set(model.ConstraintGrid)
		}
		s.DemandKW[t] = demand
		s.DeliverableKW[t] = deliverable
		s.RequestKW[t] = deliverable
		s.GrantKW[t] = grid
		s.DeliveredKW[t] = grid
		s.UnservedKWh[t] = max(demand-grid, 0) * r.dt

		ts.DemandKW[t] = demand
		ts.DeliverableKW[t] = deliverable
		ts.DeliveredKW[t] = grid
		ts.GridImportKW[t] = grid
		ts.SharedDrawKW[t] = grid
		ts.UnservedKWh[t] = s.UnservedKWh[t]
		r.sat.add(flags)
	}
	r.res.Segments = []model.SegmentSeries{s}
}

// runACCoupled adds a behind-the-meter battery on the AC side of the charger
// PCS. The battery shares the charger-side ceiling with the grid and never
// recharges within a run.
func runACCoupled(r *run) {
	cableKW, arrayKW, pcsKW := siteCaps(r.caps)
	var battKW, battKWh float64
	if sku := r.site.ACBattery.BatterySKU; sku != "" {
		battKW, battKWh, _ = r.lookup.Battery(sku)
	}
	battKW, battKWh = nonNegative(battKW), nonNegative(battKWh)
	inverterKW := nonNegative(r.site.ACBattery.InverterKW)
	s := model.NewSegmentSeries(siteSeriesID, model.SegmentCaps{
		PCSKW:      pcsKW,
		BatteryKW:  battKW,
		BatteryKWh: battKWh,
		ArrayKW:    arrayKW,
		CableKW:    cableKW,
	}, r.n)
	soc := r.site.InitialSoC() * battKWh

	ts := &r.res.Timeseries
	for t := range r.n {
		var flags stepFlags
		demand, deliverable := chargerSide(r.util[t], cableKW, arrayKW, pcsKW, &flags)
		limit := 0.0
		if soc > 0 {
			limit = soc / r.dt
		}
		bess := max(min(deliverable, battKW, inverterKW, limit), 0)
		soc = min(max(soc-bess*r.dt, 0), battKWh)
		remaining := deliverable - bess
		grid := min(remaining, r.gridKW)
		delivered := bess + grid

		if battKWh > 0 && deliverable > Tolerance {
			switch {
			case reached(bess, battKW) && battKW <= inverterKW:
				flags.set(model.ConstraintBatteryPower)
			case reached(bess, inverterKW):
				flags.set(model.ConstraintInverter)
			case limit < min(deliverable, battKW, inverterKW)-Tolerance:
				flags.set(model.ConstraintBatteryEnergy)
			}
		}
		if remaining > Tolerance && reached(grid, r.gridKW) {
			flags.set(model.ConstraintGrid)
		}

		s.DemandKW[t] = demand
		s.DeliverableKW[t] = deliverable
		s.RequestKW[t] = remaining
		s.GrantKW[t] = grid
		s.BatteryDischargeKW[t] = bess
		s.DeliveredKW[t] = delivered
		s.SoCKWh[t] = soc
		s.UnservedKWh[t] = max(demand-delivered, 0) * r.dt

		ts.DemandKW[t] = demand
		ts.DeliverableKW[t] = deliverable
		ts.DeliveredKW[t] = delivered
		ts.GridImportKW[t] = grid
		ts.SharedDrawKW[t] = delivered
		ts.BatteryDischargeKW[t] = bess
		ts.SoCKWh[t] = soc
		ts.UnservedKWh[t] = s.UnservedKWh[t]
		r.sat.add(flags)
	}
	r.res.Segments = []model.SegmentSeries{s}
}
