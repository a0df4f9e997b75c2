package sim

import "github.com/kilianp07/virtos/core/model"

// Tolerance is the slack used when deciding whether a flow reached its cap.
const Tolerance = 1e-6

// saturation counts, per constraint, the timesteps in which it was reached.
type saturation struct {
	steps [len(constraintOrder)]int
}

var constraintOrder = [...]model.Constraint{
	model.ConstraintArray,
	model.ConstraintGrid,
	model.ConstraintShared,
	model.ConstraintPCS,
	model.ConstraintBatteryPower,
	model.ConstraintBatteryEnergy,
	model.ConstraintInverter,
}

// stepFlags collects the constraints reached in one timestep so that a cap
// hit by several segments counts once.
type stepFlags [len(constraintOrder)]bool

func (f *stepFlags) set(c model.Constraint) { f[c] = true }

func (s *saturation) add(f stepFlags) {
	for i, hit := range f {
		if hit {
			s.steps[i]++
		}
	}
}

func (s *saturation) labels() []string {
	var out []string
	for i, c := range constraintOrder {
		if s.steps[i] > 0 {
			out = append(out, c.String())
		}
	}
	return out
}

func (s *saturation) counts() []model.ConstraintCount {
	var out []model.ConstraintCount
	for i, c := range constraintOrder {
		if s.steps[i] > 0 {
			out = append(out, model.ConstraintCount{Constraint: c, Steps: s.steps[i]})
		}
	}
	return out
}

// reached reports whether flow is at cap within Tolerance.
func reached(flow, cap float64) bool { return flow >= cap-Tolerance }
