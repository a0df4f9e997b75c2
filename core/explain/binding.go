package explain

import "github.com/kilianp07/virtos/core/model"

// BindingConstraint returns the constraint saturated in the most timesteps.
// Ties go to the constraint listed first in model.Constraints. ok is false
// when nothing saturated.
func BindingConstraint(res model.SimulationResult) (model.ConstraintCount, bool) {
	var best model.ConstraintCount
	found := false
	for _, c := range res.Saturation {
		if c.Steps <= 0 {
			continue
		}
		if !found || c.Steps > best.Steps || (c.Steps == best.Steps && c.Constraint < best.Constraint) {
			best = c
			found = true
		}
	}
	return best, found
}
