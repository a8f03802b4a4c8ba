package core

// =============================================================================
// Rule systems
// =============================================================================

// EntityDef describes an entity kind of a rule system.
//
// Exactly one entity of a rule system is the persons entity: one dataset row
// is one instance. Every other entity groups persons; IndexColumn holds the
// group id of each person row and RoleColumn its role in the group, where
// role 0 marks the group's reference member.
type EntityDef struct {
	Key         string `json:"key" yaml:"key" koanf:"key"`
	Plural      string `json:"plural,omitempty" yaml:"plural,omitempty" koanf:"plural"`
	IsPersons   bool   `json:"is_persons" yaml:"is_persons" koanf:"is_persons"`
	IndexColumn string `json:"index_column,omitempty" yaml:"index_column,omitempty" koanf:"index_column"`
	RoleColumn  string `json:"role_column,omitempty" yaml:"role_column,omitempty" koanf:"role_column"`
}

// Variable is a named quantity known to a rule system.
type Variable struct {
	Name   string `json:"name" yaml:"name"`
	Entity string `json:"entity" yaml:"entity"`
	DType  DType  `json:"dtype" yaml:"dtype"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
	// Formula locates the derivation function; empty for pure inputs.
	Formula string `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// IsComputed reports whether the rule system can derive the variable.
func (v Variable) IsComputed() bool {
	return v.Formula != ""
}

// RuleSystem is the catalog of entities and variables a simulation runs on.
type RuleSystem interface {
	// Name identifies the rule system in logs and reports.
	Name() string

	// Entities returns the entity kinds, persons entity first.
	Entities() []EntityDef

	// Variable looks up a variable by name.
	Variable(name string) (Variable, bool)

	// Variables returns every variable in declaration order.
	Variables() []Variable

	// Reference returns the baseline rule system this one derives from,
	// or nil when there is none.
	Reference() RuleSystem
}

// ResolveReference follows Reference links from sys until none remains.
func ResolveReference(sys RuleSystem) RuleSystem {
	for sys != nil {
		ref := sys.Reference()
		if ref == nil {
			return sys
		}
		sys = ref
	}
	return nil
}

// LinkColumns returns the index and role column names of every grouping
// entity, in entity order.
func LinkColumns(sys RuleSystem) []string {
	var cols []string
	for _, e := range sys.Entities() {
		if e.IsPersons {
			continue
		}
		cols = append(cols, e.IndexColumn, e.RoleColumn)
	}
	return cols
}
