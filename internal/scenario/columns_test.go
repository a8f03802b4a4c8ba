package scenario

import (
	"testing"

	"github.com/leapstack-labs/leapsurvey/internal/testutil"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanColumns(t *testing.T) {
	sys := testutil.HouseholdSystem()
	columns := []string{"idmen", "quimen", "salary", "income_tax", "rent", "hobby"}

	tests := []struct {
		name        string
		inputs      []string
		wantKept    []string
		wantDropped []string
		wantReasons map[string]Reason
	}{
		{
			name:        "no declared inputs",
			wantKept:    []string{"idmen", "quimen", "salary", "rent"},
			wantDropped: []string{"income_tax", "hobby"},
			wantReasons: map[string]Reason{
				"idmen":      ReasonLinkage,
				"salary":     ReasonInput,
				"income_tax": ReasonComputed,
				"hobby":      ReasonUnknown,
			},
		},
		{
			name:        "computed column declared as input",
			inputs:      []string{"income_tax", "hobby"},
			wantKept:    []string{"idmen", "quimen", "salary", "income_tax", "rent"},
			wantDropped: []string{"hobby"},
			wantReasons: map[string]Reason{
				"income_tax": ReasonAllowlisted,
				"hobby":      ReasonUnknown,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanColumns(columns, sys, tt.inputs)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKept, plan.Kept())
			assert.Equal(t, tt.wantDropped, plan.Dropped())
			for col, reason := range tt.wantReasons {
				d, ok := plan.Decision(col)
				require.True(t, ok)
				assert.Equal(t, reason, d.Reason, col)
			}
		})
	}
}

func TestPlanColumns_DecisionCarriesVariable(t *testing.T) {
	plan, err := PlanColumns([]string{"idmen", "quimen", "rent"}, testutil.HouseholdSystem(), nil)
	require.NoError(t, err)

	d, ok := plan.Decision("rent")
	require.True(t, ok)
	assert.Equal(t, "menage", d.Entity)
	assert.Equal(t, core.DTypeFloat32, d.DType)

	_, ok = plan.Decision("missing")
	assert.False(t, ok)
}

func TestPlanColumns_LinkColumns(t *testing.T) {
	_, err := PlanColumns([]string{"quimen", "salary"}, testutil.HouseholdSystem(), nil)
	assert.ErrorIs(t, err, ErrMissingLinkColumn)
	assert.Contains(t, err.Error(), "idmen")

	_, err = PlanColumns(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNilRuleSystem)
}

func TestCheckLinkColumns_IndexBeforeRole(t *testing.T) {
	err := CheckLinkColumns(nil, testutil.HouseholdEntities())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idmen")
}
