package scenario

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// Inflator multiplies every value of a variable by Factor.
type Inflator struct {
	Variable string  `json:"variable" yaml:"variable" koanf:"variable"`
	Factor   float64 `json:"factor" yaml:"factor" koanf:"factor"`
}

// Inflate rescales simulated variables in place, in sequence order.
//
// A non-nil inflators replaces the stored set; nil reuses it. Every
// variable is checked before any holder is modified, so a failed call
// leaves the simulation untouched. Results are cast back to the variable
// dtype: integer holders truncate toward zero, so salary 15 inflated by 1.1
// stays 16, and saturate at the dtype bounds.
func (s *Scenario) Inflate(inflators []Inflator) error {
	if inflators != nil {
		s.inflators = append([]Inflator{}, inflators...)
	}
	if s.inflators == nil {
		return ErrNoInflators
	}
	if s.simulation == nil {
		return ErrNoSimulation
	}

	if err := CheckInflators(s.system, s.inflators); err != nil {
		return err
	}
	holders := make([]core.Holder, len(s.inflators))
	for i, inf := range s.inflators {
		h, ok := s.simulation.Holder(inf.Variable)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoHolderData, inf.Variable)
		}
		if _, ok := h.Array(); !ok {
			return fmt.Errorf("%w: %s", ErrNoHolderData, inf.Variable)
		}
		holders[i] = h
	}

	for i, inf := range s.inflators {
		array, _ := holders[i].Array()
		if err := holders[i].SetArray(array.Scale(inf.Factor)); err != nil {
			return fmt.Errorf("inflating %s: %w", inf.Variable, err)
		}
		s.logger.Debug("inflated variable", slog.String("variable", inf.Variable), slog.Float64("factor", inf.Factor))
		if s.report != nil {
			s.report.Inflations = append(s.report.Inflations, inf)
		}
	}
	return nil
}

// CheckInflators verifies that every inflator names a variable of sys.
func CheckInflators(sys core.RuleSystem, inflators []Inflator) error {
	for _, inf := range inflators {
		if _, ok := sys.Variable(inf.Variable); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, inf.Variable)
		}
	}
	return nil
}
