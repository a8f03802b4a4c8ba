package scenario

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// NewSimulation builds the simulation state from the bound dataset.
//
// Linkage columns are checked before any holder exists. Unknown columns and
// computed columns that are not declared inputs are dropped and logged.
// Entities are sized from the dataset: persons by row count, groups by the
// number of role-0 rows. Each remaining column is cast to its variable's
// dtype, reduced to role-0 rows for group variables, and set as input for
// the scenario period.
func (s *Scenario) NewSimulation(opts Options) (core.Simulation, error) {
	if s.dataset == nil || s.system == nil {
		return nil, ErrNotInitialized
	}

	sys := s.system
	if opts.UseReference {
		sys = core.ResolveReference(sys)
	}
	period := s.Period()

	sim, err := s.newSimulation(sys, period, opts.simulationOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation: %w", err)
	}

	entities := make([]core.EntityDef, 0, len(sim.Entities()))
	for _, e := range sim.Entities() {
		entities = append(entities, e.EntityDef)
	}
	if err := CheckLinkColumns(s.dataset.Columns(), entities); err != nil {
		return nil, err
	}

	plan, err := PlanColumns(s.dataset.Columns(), sys, s.inputVariables)
	if err != nil {
		return nil, err
	}
	s.logPlan(plan)
	input := s.dataset.Drop(plan.Dropped()...)

	report := &Report{
		RuleSystem: sys.Name(),
		Period:     period,
		Rows:       input.Len(),
		Columns:    plan.Decisions,
	}

	// Roles are read from the bound dataset so that sizing does not depend
	// on whether the linkage columns are themselves variables.
	roleMasks := make(map[string][]bool)
	for _, e := range sim.Entities() {
		if e.IsPersons {
			e.Count = input.Len()
			e.StepSize = e.Count
		} else {
			roles, _ := s.dataset.Column(e.RoleColumn)
			e.Count = roles.CountEqual(0)
			e.StepSize = e.Count
			// NaN roles belong to no group and are ignored.
			e.RolesCount = 0
			if maxRole, ok := roles.Max(); ok {
				e.RolesCount = int(maxRole) + 1
			}
			roleMasks[e.Key] = roles.Equal(0)
		}
		report.Entities = append(report.Entities, EntityReport{
			Key:        e.Key,
			Count:      e.Count,
			RolesCount: e.RolesCount,
		})
	}

	for _, name := range input.Columns() {
		column, _ := input.Column(name)
		holder, err := sim.GetOrNewHolder(name)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		entity := holder.Entity()
		dtype := holder.DType()

		if column.DType() != dtype {
			s.logger.Info("converting column",
				slog.String("column", name),
				slog.String("from", column.DType().String()),
				slog.String("to", dtype.String()),
			)
			report.Conversions = append(report.Conversions, Conversion{Column: name, From: column.DType(), To: dtype})
		}

		if !entity.IsPersons {
			column, err = column.Mask(roleMasks[entity.Key])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
		}
		array, err := column.Cast(dtype)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		if array.Len() != entity.Count {
			return nil, &SizeError{Column: name, Entity: entity.Key, Got: array.Len(), Want: entity.Count}
		}
		if err := holder.SetInput(period, array); err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
	}

	s.simulation = sim
	s.report = report

	for _, hook := range []struct {
		name string
		fn   Hook
	}{
		{"initialize_weights", s.hooks.InitializeWeights},
		{"custom_initialize", s.hooks.CustomInitialize},
	} {
		if hook.fn == nil {
			continue
		}
		if err := hook.fn(s); err != nil {
			s.simulation = nil
			s.report = nil
			return nil, fmt.Errorf("%s hook: %w", hook.name, err)
		}
	}

	s.logger.Debug("simulation built",
		slog.String("rule_system", sys.Name()),
		slog.String("period", period.String()),
		slog.Int("rows", input.Len()),
		slog.Int("columns", input.Width()),
	)
	return sim, nil
}

func (s *Scenario) logPlan(plan ColumnPlan) {
	for _, d := range plan.Decisions {
		switch d.Reason {
		case ReasonUnknown:
			s.logger.Info("unknown column in survey, dropped from input table", slog.String("column", d.Column))
		case ReasonComputed:
			s.logger.Info("column in survey set to be calculated, dropped from input table", slog.String("column", d.Column))
		case ReasonAllowlisted:
			s.logger.Info("column not dropped because declared as input variable", slog.String("column", d.Column))
		}
	}
}
