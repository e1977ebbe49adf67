package interp

import (
	"fmt"
	"math"
	"sort"

	gonuminterp "gonum.org/v1/gonum/interp"
)

// Linear is a 1-D piecewise linear interpolant over scattered samples.
// Unlike gonum's PiecewiseLinear it returns NaN outside the sample range.
type Linear struct {
	pl     gonuminterp.PiecewiseLinear
	lo, hi float64
	single *float64
}

// NewLinear fits samples (xs[i], ys[i]). The samples need not be sorted but
// must have distinct xs.
func NewLinear(xs, ys []float64) (*Linear, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("length mismatch: %d xs, %d ys", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("no samples")
	}

	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })
	sx := make([]float64, len(xs))
	sy := make([]float64, len(ys))
	for i, k := range order {
		sx[i], sy[i] = xs[k], ys[k]
	}
	for i := 1; i < len(sx); i++ {
		if sx[i] == sx[i-1] {
			return nil, fmt.Errorf("duplicate sample at x=%v", sx[i])
		}
	}

	l := &Linear{lo: sx[0], hi: sx[len(sx)-1]}
	if len(sx) == 1 {
		y := sy[0]
		l.single = &y
		return l, nil
	}
	if err := l.pl.Fit(sx, sy); err != nil {
		return nil, fmt.Errorf("failed to fit linear interpolant: %w", err)
	}
	return l, nil
}

// At evaluates the interpolant, NaN outside [min(xs), max(xs)].
func (l *Linear) At(x float64) float64 {
	if math.IsNaN(x) || x < l.lo || x > l.hi {
		return math.NaN()
	}
	if l.single != nil {
		return *l.single
	}
	return l.pl.Predict(x)
}

// Bracket locates x on the increasing axis xs. It returns i and w such that
// x = (1-w)·xs[i] + w·xs[i+1], with w == 0 when x falls on xs[i]. ok is false
// when x lies outside the axis.
func Bracket(xs []float64, x float64) (i int, w float64, ok bool) {
	n := len(xs)
	if n == 0 || math.IsNaN(x) || x < xs[0] || x > xs[n-1] {
		return 0, 0, false
	}
	i = sort.SearchFloat64s(xs, x)
	if i < n && xs[i] == x {
		return i, 0, true
	}
	i--
	return i, (x - xs[i]) / (xs[i+1] - xs[i]), true
}

// Blend combines the bracketing values found by Bracket. A NaN neighbour
// with zero weight is ignored.
func Blend(a, b, w float64) float64 {
	if w == 0 {
		return a
	}
	return (1-w)*a + w*b
}
