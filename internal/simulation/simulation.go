// Package simulation provides the in-memory simulation state scenarios are
// injected into. It stores entity sizing and per-variable holders for one
// period; it does not evaluate formulas.
package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// Errors returned by holders and simulations.
var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrWrongPeriod     = errors.New("period does not match simulation")
	ErrWrongLength     = errors.New("array length does not match entity count")
)

// Simulation implements core.Simulation.
type Simulation struct {
	system   core.RuleSystem
	period   core.Period
	opts     core.SimulationOptions
	entities []*core.EntityState
	holders  map[string]*Holder
	logger   *slog.Logger
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulation) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty simulation. Entity counts start at zero.
func New(sys core.RuleSystem, period core.Period, opts core.SimulationOptions, options ...Option) (*Simulation, error) {
	if sys == nil {
		return nil, fmt.Errorf("rule system is required")
	}
	if period.IsZero() {
		return nil, fmt.Errorf("period is required")
	}

	s := &Simulation{
		system:  sys,
		period:  period,
		opts:    opts,
		holders: make(map[string]*Holder),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range options {
		o(s)
	}
	for _, e := range sys.Entities() {
		s.entities = append(s.entities, &core.EntityState{EntityDef: e})
	}

	if opts.Debug || opts.DebugAll || opts.Trace {
		s.logger.Debug("simulation created",
			slog.String("rule_system", sys.Name()),
			slog.String("period", period.String()),
			slog.Bool("debug", opts.Debug),
			slog.Bool("debug_all", opts.DebugAll),
			slog.Bool("trace", opts.Trace),
		)
	}
	return s, nil
}

// Factory adapts New to core.NewSimulationFunc.
func Factory(options ...Option) core.NewSimulationFunc {
	return func(sys core.RuleSystem, period core.Period, opts core.SimulationOptions) (core.Simulation, error) {
		return New(sys, period, opts, options...)
	}
}

// RuleSystem returns the rule system the simulation runs on.
func (s *Simulation) RuleSystem() core.RuleSystem {
	return s.system
}

// Period returns the simulation period.
func (s *Simulation) Period() core.Period {
	return s.period
}

// Options returns the debug and trace switches.
func (s *Simulation) Options() core.SimulationOptions {
	return s.opts
}

// Entities returns the mutable entity states.
func (s *Simulation) Entities() []*core.EntityState {
	return s.entities
}

// Entity returns the state of an entity by key.
func (s *Simulation) Entity(key string) (*core.EntityState, bool) {
	for _, e := range s.entities {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

// GetOrNewHolder returns the holder of a variable, creating it if needed.
func (s *Simulation) GetOrNewHolder(name string) (core.Holder, error) {
	if h, ok := s.holders[name]; ok {
		return h, nil
	}
	v, ok := s.system.Variable(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	entity, ok := s.Entity(v.Entity)
	if !ok {
		return nil, fmt.Errorf("variable %s belongs to unknown entity %s", name, v.Entity)
	}
	h := &Holder{
		variable: v,
		entity:   entity,
		period:   s.period,
		values:   make(map[core.Period]core.Array),
	}
	s.holders[name] = h
	if s.opts.Trace {
		s.logger.Debug("holder created", slog.String("variable", name), slog.String("entity", entity.Key))
	}
	return h, nil
}

// Holder returns an existing holder.
func (s *Simulation) Holder(name string) (core.Holder, bool) {
	h, ok := s.holders[name]
	if !ok {
		return nil, false
	}
	return h, true
}

// Holders returns the names of the created holders, sorted.
func (s *Simulation) Holders() []string {
	names := make([]string, 0, len(s.holders))
	for name := range s.holders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ core.Simulation = (*Simulation)(nil)
