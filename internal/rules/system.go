// Package rules provides rule-system catalogs: the entities and variables a
// survey scenario is checked against. Catalogs are built in code or loaded
// from a directory; formulas are only located, never evaluated.
package rules

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// ErrInvalidSystem is returned when a catalog is inconsistent.
var ErrInvalidSystem = errors.New("invalid rule system")

// System is an immutable rule-system catalog implementing core.RuleSystem.
type System struct {
	name      string
	entities  []core.EntityDef
	variables map[string]core.Variable
	order     []string
	reference *System
}

// NewSystem validates and builds a catalog. The persons entity is moved to
// the front; the order of grouping entities and variables is kept.
func NewSystem(name string, entities []core.EntityDef, variables ...core.Variable) (*System, error) {
	s := &System{
		name:      name,
		variables: make(map[string]core.Variable, len(variables)),
	}
	if err := s.setEntities(entities); err != nil {
		return nil, err
	}
	for _, v := range variables {
		if err := s.put(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNewSystem is NewSystem for fixtures; it panics on error.
func MustNewSystem(name string, entities []core.EntityDef, variables ...core.Variable) *System {
	s, err := NewSystem(name, entities, variables...)
	if err != nil {
		panic(err)
	}
	return s
}

// NewReform derives a catalog from base. Overrides replace base variables of
// the same name or add new ones. The reform's Reference is base.
func NewReform(name string, base *System, overrides ...core.Variable) (*System, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: reform %q has no base", ErrInvalidSystem, name)
	}
	s := base.clone(name)
	s.reference = base
	for _, v := range overrides {
		if err := s.put(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *System) setEntities(entities []core.EntityDef) error {
	seen := make(map[string]bool, len(entities))
	var persons []core.EntityDef
	var groups []core.EntityDef
	for _, e := range entities {
		if e.Key == "" {
			return fmt.Errorf("%w: entity without key", ErrInvalidSystem)
		}
		if seen[e.Key] {
			return fmt.Errorf("%w: duplicate entity %q", ErrInvalidSystem, e.Key)
		}
		seen[e.Key] = true
		if e.IsPersons {
			persons = append(persons, e)
			continue
		}
		if e.IndexColumn == "" || e.RoleColumn == "" {
			return fmt.Errorf("%w: entity %q needs index_column and role_column", ErrInvalidSystem, e.Key)
		}
		groups = append(groups, e)
	}
	if len(persons) != 1 {
		return fmt.Errorf("%w: expected exactly one persons entity, got %d", ErrInvalidSystem, len(persons))
	}
	s.entities = append(persons, groups...)
	return nil
}

func (s *System) put(v core.Variable) error {
	if v.Name == "" {
		return fmt.Errorf("%w: variable without name", ErrInvalidSystem)
	}
	if !s.hasEntity(v.Entity) {
		return fmt.Errorf("%w: variable %q references unknown entity %q", ErrInvalidSystem, v.Name, v.Entity)
	}
	if !v.DType.Valid() {
		return fmt.Errorf("%w: variable %q has unsupported dtype %q", ErrInvalidSystem, v.Name, v.DType)
	}
	if _, exists := s.variables[v.Name]; !exists {
		s.order = append(s.order, v.Name)
	}
	s.variables[v.Name] = v
	return nil
}

func (s *System) hasEntity(key string) bool {
	for _, e := range s.entities {
		if e.Key == key {
			return true
		}
	}
	return false
}

func (s *System) clone(name string) *System {
	c := &System{
		name:      name,
		entities:  append([]core.EntityDef(nil), s.entities...),
		variables: make(map[string]core.Variable, len(s.variables)),
		order:     append([]string(nil), s.order...),
		reference: s.reference,
	}
	for k, v := range s.variables {
		c.variables[k] = v
	}
	return c
}

// setFormula marks a variable as computed.
func (s *System) setFormula(name, location string) error {
	v, ok := s.variables[name]
	if !ok {
		return fmt.Errorf("%w: formula %s defines unknown variable %q", ErrInvalidSystem, location, name)
	}
	v.Formula = location
	s.variables[name] = v
	return nil
}

// Name returns the catalog name.
func (s *System) Name() string {
	return s.name
}

// Entities returns a copy of the entity kinds, persons entity first.
func (s *System) Entities() []core.EntityDef {
	return append([]core.EntityDef(nil), s.entities...)
}

// Variable looks up a variable by name.
func (s *System) Variable(name string) (core.Variable, bool) {
	v, ok := s.variables[name]
	return v, ok
}

// Variables returns the variables in declaration order.
func (s *System) Variables() []core.Variable {
	out := make([]core.Variable, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.variables[name])
	}
	return out
}

// Reference returns the base catalog, or nil.
func (s *System) Reference() core.RuleSystem {
	if s.reference == nil {
		return nil
	}
	return s.reference
}

// PersonsEntity returns the persons entity.
func (s *System) PersonsEntity() core.EntityDef {
	return s.entities[0]
}

var _ core.RuleSystem = (*System)(nil)
