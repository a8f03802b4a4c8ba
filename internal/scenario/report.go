package scenario

import "github.com/leapstack-labs/leapsurvey/pkg/core"

// Report summarizes a NewSimulation call and later inflations.
type Report struct {
	RuleSystem  string           `json:"rule_system" yaml:"rule_system"`
	Period      core.Period      `json:"period" yaml:"period"`
	Rows        int              `json:"rows" yaml:"rows"`
	Entities    []EntityReport   `json:"entities" yaml:"entities"`
	Columns     []ColumnDecision `json:"columns" yaml:"columns"`
	Conversions []Conversion     `json:"conversions,omitempty" yaml:"conversions,omitempty"`
	Inflations  []Inflator       `json:"inflations,omitempty" yaml:"inflations,omitempty"`
}

// EntityReport is the sizing of one entity kind.
type EntityReport struct {
	Key        string `json:"key" yaml:"key"`
	Count      int    `json:"count" yaml:"count"`
	RolesCount int    `json:"roles_count" yaml:"roles_count"`
}

// Conversion records a column cast to its variable dtype.
type Conversion struct {
	Column string     `json:"column" yaml:"column"`
	From   core.DType `json:"from" yaml:"from"`
	To     core.DType `json:"to" yaml:"to"`
}

// Injected returns the names of the columns set as inputs.
func (r *Report) Injected() []string {
	return ColumnPlan{Decisions: r.Columns}.Kept()
}
