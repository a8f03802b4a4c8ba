package scenario

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// WeightsHook returns an InitializeWeights hook. weights maps an entity key
// to its weight variable. A weight variable that received no survey input
// is filled with ones so that every instance counts once.
func WeightsHook(weights map[string]string) Hook {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return func(s *Scenario) error {
		sim := s.Simulation()
		if sim == nil {
			return ErrNoSimulation
		}
		if err := CheckWeights(sim.RuleSystem(), weights); err != nil {
			return err
		}
		for _, entityKey := range keys {
			name := weights[entityKey]
			holder, err := sim.GetOrNewHolder(name)
			if err != nil {
				return err
			}
			if _, ok := holder.Array(); ok {
				continue
			}
			s.Logger().Info("weight variable not in survey, using uniform weights",
				slog.String("entity", entityKey),
				slog.String("variable", name),
			)
			ones := core.Filled(holder.DType(), holder.Entity().Count, 1)
			if err := holder.SetInput(sim.Period(), ones); err != nil {
				return err
			}
		}
		return nil
	}
}

// CheckWeights verifies that each weight variable exists in sys and belongs
// to the entity it weights.
func CheckWeights(sys core.RuleSystem, weights map[string]string) error {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, entityKey := range keys {
		name := weights[entityKey]
		v, ok := sys.Variable(name)
		if !ok {
			return fmt.Errorf("%w: weight %s of %s", ErrUnknownVariable, name, entityKey)
		}
		if v.Entity != entityKey {
			return fmt.Errorf("weight %s belongs to %s, not %s", name, v.Entity, entityKey)
		}
	}
	return nil
}
