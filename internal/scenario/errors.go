package scenario

import (
	"errors"
	"fmt"
)

// Precondition failures. Every operation checks its preconditions before
// touching the simulation and aborts with one of these, possibly wrapped.
var (
	ErrNilDataset        = errors.New("input dataset is required")
	ErrNilRuleSystem     = errors.New("rule system is required")
	ErrMissingYear       = errors.New("year is required")
	ErrNotInitialized    = errors.New("scenario has no data: call InitFromDataFrame first")
	ErrMissingLinkColumn = errors.New("linkage column missing from input dataset")
	ErrSizeMismatch      = errors.New("bad size")
	ErrNoSimulation      = errors.New("no simulation: call NewSimulation first")
	ErrNoInflators       = errors.New("no inflators")
	ErrUnknownVariable   = errors.New("unknown variable")
	ErrNoHolderData      = errors.New("variable has no values in simulation")
)

// SizeError reports an extracted column whose length differs from the
// instance count of its entity.
type SizeError struct {
	Column string
	Entity string
	Got    int
	Want   int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("bad size for %s: %d instead of %d (%s)", e.Column, e.Got, e.Want, e.Entity)
}

func (e *SizeError) Unwrap() error {
	return ErrSizeMismatch
}
