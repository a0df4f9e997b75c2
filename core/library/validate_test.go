package library

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPCS(id string) ComponentRecord {
	return ComponentRecord{
		ComponentID:               id,
		ComponentType:             TypePCS,
		Name:                      "PCS " + id,
		ArchitectureCompatibility: []string{"virtos", "grid_only"},
		Parameters:                map[string]float64{ParamPowerKW: 500},
		Costs:                     map[string]float64{CostCapexAUD: 1},
		Source:                    "user_input",
		Version:                   1,
		EffectiveDate:             "2026-01-07",
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.Nil(t, Validate(DefaultRecords()))
}

func TestValidate_DuplicateIdentifier(t *testing.T) {
	errs := Validate([]ComponentRecord{validPCS("PCS_A"), validPCS("PCS_A")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "duplicate component_id: PCS_A")
	assert.Contains(t, errs[0], "[row 1]")
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	bad := ComponentRecord{
		ComponentID:               "BATT_X",
		ComponentType:             TypeBattery,
		ArchitectureCompatibility: []string{"virtos", "hydrogen"},
		Parameters:                map[string]float64{ParamPowerKW: -5},
		Costs:                     map[string]float64{CostCapexAUD: math.NaN()},
		Version:                   0,
	}
	unknown := validPCS("WIDGET")
	unknown.ComponentType = "widget"
	missingID := validPCS("  ")

	errs := Validate([]ComponentRecord{bad, unknown, missingID})
	joined := strings.Join(errs, "\n")
	for _, want := range []string{
		"[BATT_X] architecture_compatibility must be a subset of [ac_coupled grid_only virtos]",
		"[BATT_X] battery requires parameters.energy_kwh",
		"[BATT_X] parameters.power_kw must be >= 0",
		"[BATT_X] costs.capex_aud must be >= 0",
		"[BATT_X] name is required",
		"[BATT_X] source is required",
		"[BATT_X] effective_date is required",
		"[BATT_X] version must be int >= 1",
		"[WIDGET] invalid component_type: widget",
		"[row 2] component_id is required",
	} {
		assert.Contains(t, joined, want)
	}
	assert.Len(t, errs, 10)
	assert.Contains(t, errs.Error(), "library validation failed")
}

func TestParams_TypedVariants(t *testing.T) {
	for _, rec := range DefaultRecords() {
		p, err := rec.Params()
		require.NoError(t, err, rec.ComponentID)
		assert.Equal(t, rec.ComponentType, p.Type())
	}

	rec := validPCS("P")
	rec.Parameters = map[string]float64{}
	_, err := rec.Params()
	assert.ErrorContains(t, err, "pcs requires parameters.power_kw")

	assert.Equal(t, []string{ParamPowerKW, ParamEnergyKWh}, RequiredParams(TypeBattery))
}
