package commands

import (
	"testing"

	"github.com/leapstack-labs/leapsurvey/internal/cli/config"
	"github.com/leapstack-labs/leapsurvey/internal/cli/testutil"
	"github.com/leapstack-labs/leapsurvey/internal/rules"
	"github.com/leapstack-labs/leapsurvey/internal/scenario"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSystem(t *testing.T) *rules.System {
	t.Helper()
	sys, err := rules.NewSystem("households",
		[]core.EntityDef{
			{Key: "individu", IsPersons: true},
			{Key: "menage", IndexColumn: "idmen", RoleColumn: "quimen"},
		},
		core.Variable{Name: "idmen", Entity: "individu", DType: core.DTypeInt32},
		core.Variable{Name: "quimen", Entity: "individu", DType: core.DTypeInt16},
		core.Variable{Name: "salary", Entity: "individu", DType: core.DTypeFloat32},
		core.Variable{Name: "wprm", Entity: "menage", DType: core.DTypeFloat32},
	)
	require.NoError(t, err)
	return sys
}

func findCheck(out *DoctorOutput, name string) HealthCheck {
	for _, c := range out.Checks {
		if c.Name == name {
			return c
		}
	}
	return HealthCheck{}
}

func TestCheckRuleSystem(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.Config
		check      string
		wantStatus string
	}{
		{name: "clean config", cfg: config.Config{}, check: "inflators", wantStatus: StatusPass},
		{
			name:       "unknown input variable",
			cfg:        config.Config{InputVariables: []string{"bonus"}},
			check:      "input variables",
			wantStatus: StatusWarn,
		},
		{
			name:       "input variable without formula",
			cfg:        config.Config{InputVariables: []string{"salary"}},
			check:      "input variables",
			wantStatus: StatusWarn,
		},
		{
			name:       "unknown inflator",
			cfg:        config.Config{Inflators: []scenario.Inflator{{Variable: "bonus", Factor: 2}}},
			check:      "inflators",
			wantStatus: StatusError,
		},
		{
			name:       "valid weights",
			cfg:        config.Config{Weights: map[string]string{"menage": "wprm"}},
			check:      "weights",
			wantStatus: StatusPass,
		},
		{
			name:       "weight of wrong entity",
			cfg:        config.Config{Weights: map[string]string{"individu": "wprm"}},
			check:      "weights",
			wantStatus: StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &DoctorOutput{}
			checkRuleSystem(out, testSystem(t), &tt.cfg)

			assert.Equal(t, StatusPass, findCheck(out, "rule system").Status)
			assert.Equal(t, tt.wantStatus, findCheck(out, tt.check).Status)
		})
	}
}

func TestRenderDoctorText(t *testing.T) {
	out := &DoctorOutput{}
	out.add(HealthCheck{Name: "rule system", Group: "rules", Status: StatusPass, Details: []string{"households"}})
	out.add(HealthCheck{Name: "weights", Group: "configuration", Status: StatusError, Details: []string{"bad weight"}})
	out.add(HealthCheck{Name: "year", Group: "project", Status: StatusWarn})
	assert.Equal(t, 1, out.Errors)
	assert.Equal(t, 1, out.Warnings)

	tr := testutil.NewTestRenderer("text", false)
	renderDoctorText(tr.Renderer, out)

	s := tr.Output()
	assert.Contains(t, s, "Rules")
	assert.Contains(t, s, "Configuration")
	assert.Contains(t, s, "xx weights")
	assert.Contains(t, s, "- bad weight")
	assert.Contains(t, s, "1 error(s), 1 warning(s)")
	testutil.AssertNoANSI(t, s)
}
