package core

import (
	"fmt"
	"strconv"
)

// =============================================================================
// Period
// =============================================================================

// PeriodUnit is the granularity of a period.
type PeriodUnit string

// PeriodYear is the only unit survey scenarios are built for.
const PeriodYear PeriodUnit = "year"

// Period identifies the time span a holder value applies to.
type Period struct {
	Unit  PeriodUnit `json:"unit" yaml:"unit"`
	Start int        `json:"start" yaml:"start"`
	Size  int        `json:"size" yaml:"size"`
}

// PeriodFromYear returns the one-year period starting at year.
func PeriodFromYear(year int) Period {
	return Period{Unit: PeriodYear, Start: year, Size: 1}
}

// IsZero reports whether p is the zero period.
func (p Period) IsZero() bool {
	return p == Period{}
}

// String returns "2015" for a single year and "year:2015:3" otherwise.
func (p Period) String() string {
	if p.Unit == PeriodYear && p.Size == 1 {
		return strconv.Itoa(p.Start)
	}
	return fmt.Sprintf("%s:%d:%d", p.Unit, p.Start, p.Size)
}
