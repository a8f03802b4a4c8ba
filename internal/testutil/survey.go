package testutil

import (
	"github.com/leapstack-labs/leapsurvey/internal/frame"
	"github.com/leapstack-labs/leapsurvey/internal/rules"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// Entity keys and linkage columns of the household survey fixture.
const (
	PersonsKey    = "individu"
	HouseholdKey  = "menage"
	HouseholdID   = "idmen"
	HouseholdRole = "quimen"
)

// HouseholdEntities returns a persons entity and a household entity.
func HouseholdEntities() []core.EntityDef {
	return []core.EntityDef{
		{Key: PersonsKey, Plural: "individus", IsPersons: true},
		{Key: HouseholdKey, Plural: "menages", IndexColumn: HouseholdID, RoleColumn: HouseholdRole},
	}
}

// HouseholdSystem returns a rule system with linkage variables, two inputs
// (salary, rent), a computed person variable (income_tax) and a household
// weight.
func HouseholdSystem() *rules.System {
	return rules.MustNewSystem("households", HouseholdEntities(),
		core.Variable{Name: HouseholdID, Entity: PersonsKey, DType: core.DTypeInt32},
		core.Variable{Name: HouseholdRole, Entity: PersonsKey, DType: core.DTypeInt16},
		core.Variable{Name: "salary", Entity: PersonsKey, DType: core.DTypeFloat32},
		core.Variable{Name: "income_tax", Entity: PersonsKey, DType: core.DTypeFloat32, Formula: "taxes.star:1"},
		core.Variable{Name: "rent", Entity: HouseholdKey, DType: core.DTypeFloat32},
		core.Variable{Name: "wprm", Entity: HouseholdKey, DType: core.DTypeFloat32},
	)
}

// HouseholdDataset returns four persons in two households. Household values
// (rent) are only meaningful on role-0 rows.
func HouseholdDataset() *frame.Dataset {
	return frame.New().
		MustAddColumn(HouseholdID, core.NewIntArray(core.DTypeInt64, []int64{1, 1, 2, 2})).
		MustAddColumn(HouseholdRole, core.NewIntArray(core.DTypeInt64, []int64{0, 1, 0, 1})).
		MustAddColumn("salary", core.NewArray(core.DTypeFloat64, []float64{10, 20, 30, 40})).
		MustAddColumn("rent", core.NewArray(core.DTypeFloat64, []float64{500, -1, 600, -1}))
}
