package simulation

import (
	"fmt"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// Holder stores the values of one variable, keyed by period.
type Holder struct {
	variable core.Variable
	entity   *core.EntityState
	period   core.Period
	values   map[core.Period]core.Array
}

// Name returns the variable name.
func (h *Holder) Name() string {
	return h.variable.Name
}

// Variable returns the variable definition.
func (h *Holder) Variable() core.Variable {
	return h.variable
}

// Entity returns the owning entity state.
func (h *Holder) Entity() *core.EntityState {
	return h.entity
}

// DType returns the declared storage type.
func (h *Holder) DType() core.DType {
	return h.variable.DType
}

// SetInput stores array for period, cast to the holder dtype.
func (h *Holder) SetInput(period core.Period, array core.Array) error {
	if period != h.period {
		return fmt.Errorf("%w: %s input for %s, simulation runs %s", ErrWrongPeriod, h.Name(), period, h.period)
	}
	return h.store(period, array)
}

// Array returns the value for the simulation period.
func (h *Holder) Array() (core.Array, bool) {
	a, ok := h.values[h.period]
	return a, ok
}

// SetArray replaces the value for the simulation period.
func (h *Holder) SetArray(array core.Array) error {
	return h.store(h.period, array)
}

func (h *Holder) store(period core.Period, array core.Array) error {
	if array.Len() != h.entity.Count {
		return fmt.Errorf("%w: %s has %d values, entity %s has %d",
			ErrWrongLength, h.Name(), array.Len(), h.entity.Key, h.entity.Count)
	}
	if array.DType() != h.variable.DType {
		cast, err := array.Cast(h.variable.DType)
		if err != nil {
			return fmt.Errorf("%s: %w", h.Name(), err)
		}
		array = cast
	}
	h.values[period] = array
	return nil
}
