package scenario

import (
	"fmt"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// Reason explains a column decision.
type Reason string

// Column decision reasons.
const (
	ReasonLinkage     Reason = "linkage"     // kept: group index or role column
	ReasonInput       Reason = "input"       // kept: variable without formula
	ReasonAllowlisted Reason = "allowlisted" // kept: computed but declared as input
	ReasonUnknown     Reason = "unknown"     // dropped: not a variable of the rule system
	ReasonComputed    Reason = "computed"    // dropped: the rule system derives it
)

// ColumnDecision is the fate of one dataset column.
type ColumnDecision struct {
	Column string     `json:"column" yaml:"column"`
	Keep   bool       `json:"keep" yaml:"keep"`
	Reason Reason     `json:"reason" yaml:"reason"`
	Entity string     `json:"entity,omitempty" yaml:"entity,omitempty"`
	DType  core.DType `json:"dtype,omitempty" yaml:"dtype,omitempty"`
}

// ColumnPlan lists a decision per column, in dataset column order.
type ColumnPlan struct {
	Decisions []ColumnDecision `json:"decisions" yaml:"decisions"`
}

// Kept returns the retained column names in order.
func (p ColumnPlan) Kept() []string {
	return p.filter(true)
}

// Dropped returns the discarded column names in order.
func (p ColumnPlan) Dropped() []string {
	return p.filter(false)
}

func (p ColumnPlan) filter(keep bool) []string {
	var out []string
	for _, d := range p.Decisions {
		if d.Keep == keep {
			out = append(out, d.Column)
		}
	}
	return out
}

// Decision returns the decision for a column.
func (p ColumnPlan) Decision(column string) (ColumnDecision, bool) {
	for _, d := range p.Decisions {
		if d.Column == column {
			return d, true
		}
	}
	return ColumnDecision{}, false
}

// CheckLinkColumns verifies that every grouping entity's index and role
// columns are present. Index columns are checked before role columns.
func CheckLinkColumns(columns []string, entities []core.EntityDef) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var ids, roles []string
	for _, e := range entities {
		if e.IsPersons {
			continue
		}
		ids = append(ids, e.IndexColumn)
		roles = append(roles, e.RoleColumn)
	}
	for _, name := range append(ids, roles...) {
		if !present[name] {
			return fmt.Errorf("%w: variable %s is not present in input dataset", ErrMissingLinkColumn, name)
		}
	}
	return nil
}

// PlanColumns decides which dataset columns become simulation inputs.
//
// Columns unknown to sys are dropped. Columns whose variable has a formula
// are dropped unless they are linkage columns or listed in inputVariables.
// The link check runs first so that a plan is never produced for a dataset
// that cannot be built.
func PlanColumns(columns []string, sys core.RuleSystem, inputVariables []string) (ColumnPlan, error) {
	if sys == nil {
		return ColumnPlan{}, ErrNilRuleSystem
	}
	entities := sys.Entities()
	if err := CheckLinkColumns(columns, entities); err != nil {
		return ColumnPlan{}, err
	}

	linkage := make(map[string]bool)
	for _, name := range core.LinkColumns(sys) {
		linkage[name] = true
	}
	allowed := make(map[string]bool, len(inputVariables))
	for _, name := range inputVariables {
		allowed[name] = true
	}

	plan := ColumnPlan{Decisions: make([]ColumnDecision, 0, len(columns))}
	for _, column := range columns {
		d := ColumnDecision{Column: column}
		v, known := sys.Variable(column)
		switch {
		case !known:
			d.Reason = ReasonUnknown
		case linkage[column]:
			d.Keep, d.Reason = true, ReasonLinkage
		case v.IsComputed() && allowed[column]:
			d.Keep, d.Reason = true, ReasonAllowlisted
		case v.IsComputed():
			d.Reason = ReasonComputed
		default:
			d.Keep, d.Reason = true, ReasonInput
		}
		if known {
			d.Entity, d.DType = v.Entity, v.DType
		}
		plan.Decisions = append(plan.Decisions, d)
	}
	return plan, nil
}
