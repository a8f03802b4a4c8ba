package core

import (
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// DType
// =============================================================================

// DType is the declared storage type of a column or variable.
type DType string

// Supported storage types.
const (
	DTypeBool    DType = "bool"
	DTypeInt16   DType = "int16"
	DTypeInt32   DType = "int32"
	DTypeInt64   DType = "int64"
	DTypeFloat32 DType = "float32"
	DTypeFloat64 DType = "float64"
)

// AllDTypes lists the supported storage types in a stable order.
var AllDTypes = []DType{DTypeBool, DTypeInt16, DTypeInt32, DTypeInt64, DTypeFloat32, DTypeFloat64}

// String returns the dtype name.
func (d DType) String() string {
	return string(d)
}

// Valid reports whether d is a supported storage type.
func (d DType) Valid() bool {
	for _, known := range AllDTypes {
		if d == known {
			return true
		}
	}
	return false
}

// IsInteger reports whether d stores whole numbers.
func (d DType) IsInteger() bool {
	return d == DTypeInt16 || d == DTypeInt32 || d == DTypeInt64
}

// ParseDType converts a string to a DType. Common aliases such as "int",
// "float" and "boolean" are accepted.
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return DTypeBool, nil
	case "int16":
		return DTypeInt16, nil
	case "int32", "int":
		return DTypeInt32, nil
	case "int64":
		return DTypeInt64, nil
	case "float32":
		return DTypeFloat32, nil
	case "float64", "float", "double":
		return DTypeFloat64, nil
	default:
		return "", fmt.Errorf("unknown dtype %q", s)
	}
}

// convert maps a single value to the representation of a bool or float
// dtype.
func (d DType) convert(v float64) float64 {
	switch d {
	case DTypeBool:
		if v != 0 && !math.IsNaN(v) {
			return 1
		}
		return 0
	case DTypeFloat32:
		return float64(float32(v))
	default:
		return v
	}
}

// bounds returns the smallest and largest value of an integer dtype.
func (d DType) bounds() (lo, hi int64) {
	switch d {
	case DTypeInt16:
		return math.MinInt16, math.MaxInt16
	case DTypeInt32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// clamp limits v to the bounds of d and reports whether v was inside them.
func (d DType) clamp(v int64) (int64, bool) {
	lo, hi := d.bounds()
	switch {
	case v < lo:
		return lo, false
	case v > hi:
		return hi, false
	}
	return v, true
}

// toInt truncates v toward zero and clamps it to the bounds of d. It reports
// false when v is NaN, infinite or outside the bounds; NaN maps to 0.
func (d DType) toInt(v float64) (int64, bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	lo, hi := d.bounds()
	t := math.Trunc(v)
	// -lo is a power of two and exact as a float64, unlike hi for int64.
	switch {
	case t < float64(lo):
		return lo, false
	case t >= -float64(lo):
		return hi, false
	}
	return int64(t), true
}
