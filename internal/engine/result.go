package engine

import (
	"math"

	"go.ngs.io/oceans-api/internal/domain"
)

// Array is an N-D row-major array with a mask. Masked elements hold NaN.
type Array struct {
	Shape  []int
	Values []float64
	Mask   []bool
}

func newArray(shape []int) Array {
	n := size(shape)
	a := Array{Shape: shape, Values: make([]float64, n), Mask: make([]bool, n)}
	for i := range a.Values {
		a.Values[i] = math.NaN()
		a.Mask[i] = true
	}
	return a
}

// fromValues wraps values, masking NaN.
func fromValues(shape []int, values []float64) Array {
	a := Array{Shape: shape, Values: values, Mask: make([]bool, len(values))}
	for i, v := range values {
		a.Mask[i] = math.IsNaN(v)
	}
	return a
}

// Len returns the number of elements.
func (a Array) Len() int { return len(a.Values) }

// At returns element i and whether it is valid.
func (a Array) At(i int) (float64, bool) {
	if a.Mask[i] {
		return math.NaN(), false
	}
	return a.Values[i], true
}

// Masked reports whether every element is masked.
func (a Array) Masked() bool {
	for _, m := range a.Mask {
		if !m {
			return false
		}
	}
	return true
}

// squeeze drops length-1 axes, keeping at least one.
func (a Array) squeeze() Array {
	var shape []int
	for _, n := range a.Shape {
		if n != 1 {
			shape = append(shape, n)
		}
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	a.Shape = shape
	return a
}

func (a *Array) round() {
	for i, v := range a.Values {
		if !a.Mask[i] {
			a.Values[i] = math.Round(v)
		}
	}
}

// Variable is the output of one variable. Err is set when the variable
// could not be computed; its values are then fully masked.
type Variable struct {
	Array
	Err error
}

// Result holds the outputs of a query.
type Result struct {
	// Dims and Coords describe the output axes before squeezing.
	Dims   []domain.Dim
	Coords map[domain.Dim][]float64
	// Names lists the variables in request order.
	Names []string
	Vars  map[string]*Variable

	// SubsetCells counts the source cells read per variable.
	SubsetCells int
}
