package library

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/kilianp07/virtos/core/model"
)

// ValidationErrors collects every problem found in a candidate record set.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	return "library validation failed:\n" + strings.Join(e, "\n")
}

// Validate checks the full candidate record set and returns all problems
// found, or nil when the set is valid.
func Validate(records []ComponentRecord) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		id := strings.TrimSpace(r.ComponentID)
		if id == "" {
			errs = append(errs, fmt.Sprintf("[row %d] component_id is required", i))
			continue
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Sprintf("[row %d] duplicate component_id: %s", i, id))
		}
		seen[id] = struct{}{}
		errs = append(errs, validateRecord(id, r)...)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateRecord(id string, r ComponentRecord) []string {
	var errs []string
	if !r.ComponentType.valid() {
		errs = append(errs, fmt.Sprintf("[%s] invalid component_type: %s", id, r.ComponentType))
	}
	for _, a := range r.ArchitectureCompatibility {
		if !model.Architecture(a).Valid() {
			errs = append(errs, fmt.Sprintf("[%s] architecture_compatibility must be a subset of %v", id, allowedArchitectures()))
			break
		}
	}
	for _, k := range requiredParams[r.ComponentType] {
		if _, ok := r.Parameters[k]; !ok {
			errs = append(errs, fmt.Sprintf("[%s] %s requires parameters.%s", id, r.ComponentType, k))
		}
	}
	errs = append(errs, checkNonNegative(id, "parameters", r.Parameters)...)
	errs = append(errs, checkNonNegative(id, "costs", r.Costs)...)
	for _, f := range []struct{ name, val string }{
		{"name", r.Name},
		{"source", r.Source},
		{"effective_date", r.EffectiveDate},
	} {
		if strings.TrimSpace(f.val) == "" {
			errs = append(errs, fmt.Sprintf("[%s] %s is required", id, f.name))
		}
	}
	if r.Version < 1 {
		errs = append(errs, fmt.Sprintf("[%s] version must be int >= 1", id))
	}
	return errs
}

func checkNonNegative(id, field string, m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var errs []string
	for _, k := range keys {
		v := m[k]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Sprintf("[%s] %s.%s must be >= 0", id, field, k))
		}
	}
	return errs
}

func allowedArchitectures() []string {
	out := make([]string, 0, 3)
	for _, a := range model.Architectures() {
		out = append(out, string(a))
	}
	slices.Sort(out)
	return out
}
