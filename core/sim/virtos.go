package sim

import (
	"strconv"

	"github.com/kilianp07/virtos/core/model"
)

// nearZero guards the proportional share against division by a vanishing
// total request.
const nearZero = 1e-12

// runVirtos allocates each step in two phases: every segment first serves
// what it can from its own battery, then the remaining requests contend for
// the shared upstream cap and are scaled proportionally when they exceed it.
func runVirtos(r *run) {
	segs := make([]model.SegmentSeries, len(r.caps))
	soc := make([]float64, len(r.caps))
	frac := r.site.InitialSoC()
	for i, c := range r.caps {
		id := r.site.Segments[i].ID
		if id == "" {
			id = "segment-" + strconv.Itoa(i+1)
		}
		segs[i] = model.NewSegmentSeries(id, c, r.n)
		soc[i] = frac * c.BatteryKWh
	}
	effCap := min(r.sharedKW, r.gridKW)
	upstream := model.ConstraintShared
	if r.gridKW < r.sharedKW {
		upstream = model.ConstraintGrid
	}
	policy := r.site.GridCharging
	targetFrac := min(max(nonNegative(policy.TargetSoCPct), 0), 100) / 100
	maxCharge := nonNegative(policy.MaxPowerKW)

	ts := &r.res.Timeseries
	requests := make([]float64, len(r.caps))
	needs := make([]float64, len(r.caps))
	for t := range r.n {
		var flags stepFlags
		u := r.util[t]

		var totalRequest float64
		for i, c := range r.caps {
			s := &segs[i]
			demand := u * c.CableKW
			deliverable := min(demand, c.ArraySideKW())
			limit := 0.0
			if soc[i] > 0 {
				limit = soc[i] / r.dt
			}
			batt := max(min(deliverable, c.BatteryKW, limit), 0)
			soc[i] = max(soc[i]-batt*r.dt, 0)
			request := min(deliverable-batt, c.PCSKW)

			s.DemandKW[t] = demand
			s.DeliverableKW[t] = deliverable
			s.BatteryDischargeKW[t] = batt
			s.RequestKW[t] = request
			requests[i] = request
			totalRequest += request

			if demand > Tolerance {
				if demand > c.ArrayCapKW()+Tolerance {
					flags.set(model.ConstraintArray)
				}
				if c.BatteryKWh > 0 && deliverable > Tolerance {
					if reached(batt, c.BatteryKW) {
						flags.set(model.ConstraintBatteryPower)
					} else if limit < min(deliverable, c.BatteryKW)-Tolerance {
						flags.set(model.ConstraintBatteryEnergy)
					}
				}
				if deliverable-batt > Tolerance && reached(request, c.PCSKW) {
					flags.set(model.ConstraintPCS)
				}
			}
		}

		scale := 1.0
		switch {
		case totalRequest <= effCap:
		case totalRequest < nearZero:
			scale = 0
		default:
			scale = effCap / totalRequest
		}
		var used float64
		for i := range r.caps {
			s := &segs[i]
			grant := requests[i]
			if scale != 1 {
				grant = requests[i] * scale
			}
			s.GrantKW[t] = grant
			used += grant
			delivered := s.BatteryDischargeKW[t] + grant
			s.DeliveredKW[t] = delivered
			s.UnservedKWh[t] = max(s.DemandKW[t]-delivered, 0) * r.dt
		}
		if totalRequest > Tolerance && reached(totalRequest, effCap) {
			flags.set(upstream)
		}

		var charging float64
		if policy.Enabled {
			spare := min(effCap-used, maxCharge)
			var totalNeed float64
			for i, c := range r.caps {
				needs[i] = max(targetFrac*c.BatteryKWh-soc[i], 0)
				totalNeed += needs[i]
			}
			if totalNeed > 0 && spare > 0 {
				for i, c := range r.caps {
					if needs[i] <= 0 {
						continue
					}
					charge := min(spare*needs[i]/totalNeed, c.BatteryKW, needs[i]/r.dt)
					soc[i] = min(soc[i]+charge*r.dt, c.BatteryKWh)
					segs[i].BatteryChargeKW[t] = charge
					charging += charge
				}
			}
		}

		for i := range r.caps {
			s := &segs[i]
			s.SoCKWh[t] = soc[i]
			ts.DemandKW[t] += s.DemandKW[t]
			ts.DeliverableKW[t] += s.DeliverableKW[t]
			ts.DeliveredKW[t] += s.DeliveredKW[t]
			ts.BatteryDischargeKW[t] += s.BatteryDischargeKW[t]
			ts.BatteryChargeKW[t] += s.BatteryChargeKW[t]
			ts.SoCKWh[t] += soc[i]
			ts.UnservedKWh[t] += s.UnservedKWh[t]
		}
		ts.SharedDrawKW[t] = used + charging
		ts.GridImportKW[t] = used + charging
		r.sat.add(flags)
	}
	r.res.Segments = segs
}
