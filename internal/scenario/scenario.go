// Package scenario adapts a survey dataset into the input state of a
// simulation run.
//
// A Scenario moves through three states: it is created empty, bound to a
// dataset by InitFromDataFrame, and simulated by NewSimulation. Inflate
// rescales computed columns of the simulated state any number of times.
// A Scenario is not safe for concurrent use.
package scenario

import (
	"log/slog"

	"github.com/leapstack-labs/leapsurvey/internal/frame"
	"github.com/leapstack-labs/leapsurvey/internal/simulation"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// Hook runs after a simulation has been built and stored on the scenario.
type Hook func(s *Scenario) error

// Hooks are optional initialization steps run by NewSimulation, in field
// order. Nil hooks are skipped.
type Hooks struct {
	InitializeWeights Hook
	CustomInitialize  Hook
}

// Config holds scenario dependencies.
type Config struct {
	// Logger receives column drop and conversion messages (optional, uses discard if nil)
	Logger *slog.Logger
	// NewSimulation constructs the empty simulation (optional, defaults to the in-memory simulation)
	NewSimulation core.NewSimulationFunc
	// Hooks run after the inputs have been injected
	Hooks Hooks
}

// Options are the switches of a NewSimulation call.
type Options struct {
	Debug    bool
	DebugAll bool
	// UseReference builds on the root of the rule system's reference chain.
	UseReference bool
	Trace        bool
}

func (o Options) simulationOptions() core.SimulationOptions {
	return core.SimulationOptions{Debug: o.Debug, DebugAll: o.DebugAll, Trace: o.Trace}
}

// Scenario builds a simulation from a survey dataset.
type Scenario struct {
	logger        *slog.Logger
	newSimulation core.NewSimulationFunc
	hooks         Hooks

	dataset        *frame.Dataset
	system         core.RuleSystem
	inputVariables []string
	year           int

	simulation core.Simulation
	inflators  []Inflator
	report     *Report
}

// New creates an empty scenario.
func New(cfg Config) *Scenario {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	newSim := cfg.NewSimulation
	if newSim == nil {
		newSim = simulation.Factory(simulation.WithLogger(logger))
	}
	return &Scenario{
		logger:        logger,
		newSimulation: newSim,
		hooks:         cfg.Hooks,
	}
}

// InitFromDataFrame binds the scenario to a dataset, a rule system, the
// computed variables to treat as inputs, and the simulated year. A nil
// inputVariables means no computed column is kept.
func (s *Scenario) InitFromDataFrame(dataset *frame.Dataset, sys core.RuleSystem, inputVariables []string, year int) (*Scenario, error) {
	if dataset == nil {
		return nil, ErrNilDataset
	}
	if sys == nil {
		return nil, ErrNilRuleSystem
	}
	if year == 0 {
		return nil, ErrMissingYear
	}

	s.dataset = dataset
	s.system = sys
	s.inputVariables = append([]string{}, inputVariables...)
	s.year = year
	return s, nil
}

// Dataset returns the bound dataset.
func (s *Scenario) Dataset() *frame.Dataset {
	return s.dataset
}

// RuleSystem returns the bound rule system.
func (s *Scenario) RuleSystem() core.RuleSystem {
	return s.system
}

// InputVariables returns the computed variables kept as inputs.
func (s *Scenario) InputVariables() []string {
	return append([]string{}, s.inputVariables...)
}

// Year returns the simulated year.
func (s *Scenario) Year() int {
	return s.year
}

// Period returns the simulated period.
func (s *Scenario) Period() core.Period {
	return core.PeriodFromYear(s.year)
}

// Simulation returns the built simulation, or nil.
func (s *Scenario) Simulation() core.Simulation {
	return s.simulation
}

// Inflators returns the stored inflators.
func (s *Scenario) Inflators() []Inflator {
	return append([]Inflator(nil), s.inflators...)
}

// Report returns the report of the last build, or nil.
func (s *Scenario) Report() *Report {
	return s.report
}

// Logger returns the scenario logger, for hooks.
func (s *Scenario) Logger() *slog.Logger {
	return s.logger
}
