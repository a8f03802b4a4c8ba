package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned by Cast when a value cannot be represented in
// the target integer dtype.
var ErrOutOfRange = errors.New("value out of range")

// =============================================================================
// Array
// =============================================================================

// Array is a one-dimensional typed vector. Integer dtypes hold their values
// as int64, bool and float dtypes as float64, so an int64 column keeps every
// value exactly.
type Array struct {
	dtype  DType
	floats []float64
	ints   []int64
}

// NewArray builds an array of the given dtype. Values are converted to the
// dtype representation; the input slice is not retained. For integer dtypes
// fractions truncate toward zero, values beyond the dtype bounds saturate
// and NaN becomes 0.
func NewArray(dtype DType, values []float64) Array {
	a := Array{dtype: dtype}
	if dtype.IsInteger() {
		a.ints = make([]int64, len(values))
		for i, v := range values {
			a.ints[i], _ = dtype.toInt(v)
		}
		return a
	}
	a.floats = make([]float64, len(values))
	for i, v := range values {
		a.floats[i] = dtype.convert(v)
	}
	return a
}

// NewIntArray builds an array from int64 values. Integer dtypes keep the
// values exactly, saturating at the dtype bounds.
func NewIntArray(dtype DType, values []int64) Array {
	a := Array{dtype: dtype}
	if dtype.IsInteger() {
		a.ints = make([]int64, len(values))
		for i, v := range values {
			a.ints[i], _ = dtype.clamp(v)
		}
		return a
	}
	a.floats = make([]float64, len(values))
	for i, v := range values {
		a.floats[i] = dtype.convert(float64(v))
	}
	return a
}

// Filled builds an array of length n where every element is v.
func Filled(dtype DType, n int, v float64) Array {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return NewArray(dtype, values)
}

// DType returns the storage type of the array.
func (a Array) DType() DType {
	return a.dtype
}

// Len returns the number of elements.
func (a Array) Len() int {
	if a.dtype.IsInteger() {
		return len(a.ints)
	}
	return len(a.floats)
}

// Values returns a copy of the elements as float64. Integers beyond 2^53
// lose precision here; the array itself keeps them exactly.
func (a Array) Values() []float64 {
	if a.dtype.IsInteger() {
		out := make([]float64, len(a.ints))
		for i, v := range a.ints {
			out[i] = float64(v)
		}
		return out
	}
	out := make([]float64, len(a.floats))
	copy(out, a.floats)
	return out
}

// Cast converts the array to another dtype. Integer targets truncate
// fractions toward zero and fail with ErrOutOfRange on NaN, infinities or
// values outside the dtype bounds. Bool maps non-zero to 1 and float32
// rounds through float32.
func (a Array) Cast(dtype DType) (Array, error) {
	out := Array{dtype: dtype}
	switch {
	case dtype.IsInteger() && a.dtype.IsInteger():
		out.ints = make([]int64, len(a.ints))
		for i, v := range a.ints {
			x, ok := dtype.clamp(v)
			if !ok {
				return Array{}, fmt.Errorf("%w: %d at index %d does not fit %s", ErrOutOfRange, v, i, dtype)
			}
			out.ints[i] = x
		}
	case dtype.IsInteger():
		out.ints = make([]int64, len(a.floats))
		for i, v := range a.floats {
			x, ok := dtype.toInt(v)
			if !ok {
				return Array{}, fmt.Errorf("%w: %v at index %d does not fit %s", ErrOutOfRange, v, i, dtype)
			}
			out.ints[i] = x
		}
	case a.dtype.IsInteger():
		out.floats = make([]float64, len(a.ints))
		for i, v := range a.ints {
			out.floats[i] = dtype.convert(float64(v))
		}
	default:
		out.floats = make([]float64, len(a.floats))
		for i, v := range a.floats {
			out.floats[i] = dtype.convert(v)
		}
	}
	return out, nil
}

// Mask returns the elements whose keep flag is set.
func (a Array) Mask(keep []bool) (Array, error) {
	if len(keep) != a.Len() {
		return Array{}, fmt.Errorf("mask length %d does not match array length %d", len(keep), a.Len())
	}
	out := Array{dtype: a.dtype}
	if a.dtype.IsInteger() {
		out.ints = make([]int64, 0, len(a.ints))
		for i, v := range a.ints {
			if keep[i] {
				out.ints = append(out.ints, v)
			}
		}
		return out, nil
	}
	out.floats = make([]float64, 0, len(a.floats))
	for i, v := range a.floats {
		if keep[i] {
			out.floats = append(out.floats, v)
		}
	}
	return out, nil
}

// Equal returns a mask flagging the elements equal to v. NaN elements are
// never equal.
func (a Array) Equal(v float64) []bool {
	values := a.Values()
	out := make([]bool, len(values))
	for i, x := range values {
		out[i] = x == v
	}
	return out
}

// Scale multiplies every element by factor and converts the result back to
// the array dtype. Integer results truncate toward zero and saturate at the
// dtype bounds.
func (a Array) Scale(factor float64) Array {
	return NewArray(a.dtype, scaled(a.Values(), factor))
}

func scaled(values []float64, factor float64) []float64 {
	for i := range values {
		values[i] *= factor
	}
	return values
}

// Max returns the largest non-NaN element and false when there is none.
func (a Array) Max() (float64, bool) {
	m, found := math.Inf(-1), false
	for _, v := range a.Values() {
		if math.IsNaN(v) {
			continue
		}
		if !found || v > m {
			m, found = v, true
		}
	}
	if !found {
		return 0, false
	}
	return m, true
}

// CountEqual returns how many elements equal v. NaN elements are never
// counted.
func (a Array) CountEqual(v float64) int {
	n := 0
	for _, x := range a.Values() {
		if x == v {
			n++
		}
	}
	return n
}
