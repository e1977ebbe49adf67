package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"go.ngs.io/oceans-api/internal/domain"
)

// Window is a contiguous run of logical grid positions along one dimension.
// On cyclic dimensions the logical coordinates may extend past the stored
// range; Index maps each position back to its stored index.
type Window struct {
	Coords []float64
	Index  []int
}

// Len returns the number of positions in the window.
func (w Window) Len() int { return len(w.Coords) }

// bounds returns the finite range spanned by values.
func bounds(dim domain.Dim, values []float64) (lo, hi float64, err error) {
	if len(values) == 0 {
		return 0, 0, domain.Usagef("no %s coordinates requested", dim)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, &domain.RangeError{Dim: dim, Value: v, Reason: "not a finite number"}
		}
	}
	return floats.Min(values), floats.Max(values), nil
}

// Crop returns the smallest window of the increasing coords enclosing
// [lo, hi]: from the last coordinate <= lo to the first coordinate >= hi,
// clamped to the array bounds.
func Crop(dim domain.Dim, coords []float64, lo, hi float64) (Window, error) {
	if err := checkRange(dim, lo, hi); err != nil {
		return Window{}, err
	}
	n := len(coords)
	if n == 0 {
		return Window{}, domain.Configf("%s has no coordinates", dim)
	}
	low, high := search(n, func(i int) float64 { return coords[i] }, lo, hi)
	idx := make([]int, high-low+1)
	for i := range idx {
		idx[i] = low + i
	}
	return Window{Coords: coords[low : high+1], Index: idx}, nil
}

// CropCyclic crops a dimension of the given period. The stored coords are
// viewed as extended by whole periods on both sides (at least one, more
// when the request reaches further) without copying them.
func CropCyclic(dim domain.Dim, coords []float64, lo, hi, period float64) (Window, error) {
	if err := checkRange(dim, lo, hi); err != nil {
		return Window{}, err
	}
	n := len(coords)
	if n == 0 {
		return Window{}, domain.Configf("%s has no coordinates", dim)
	}
	if coords[n-1]-coords[0] >= period {
		return Window{}, domain.Configf("%s spans %v, more than its period %v", dim, coords[n-1]-coords[0], period)
	}

	kmin := min(-1, int(math.Floor((lo-coords[0])/period))-1)
	kmax := max(1, int(math.Ceil((hi-coords[n-1])/period))+1)
	at := func(e int) float64 {
		return coords[e%n] + float64(kmin+e/n)*period
	}
	low, high := search(n*(kmax-kmin+1), at, lo, hi)

	w := Window{Coords: make([]float64, high-low+1), Index: make([]int, high-low+1)}
	for i := range w.Coords {
		w.Coords[i] = at(low + i)
		w.Index[i] = (low + i) % n
	}
	return w, nil
}

// CropTime crops the time axis. A single record is always selected whole;
// several records are treated as cyclic over a year.
func CropTime(coords []float64, lo, hi float64) (Window, error) {
	if err := checkRange(domain.DimTime, lo, hi); err != nil {
		return Window{}, err
	}
	if len(coords) == 1 {
		return Window{Coords: coords[:1], Index: []int{0}}, nil
	}
	return CropCyclic(domain.DimTime, coords, lo, hi, domain.YearPeriod)
}

func checkRange(dim domain.Dim, lo, hi float64) error {
	for _, v := range []float64{lo, hi} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &domain.RangeError{Dim: dim, Value: v, Reason: "not a finite number"}
		}
	}
	if lo > hi {
		return &domain.RangeError{Dim: dim, Value: lo, Reason: "minimum above maximum"}
	}
	return nil
}

// search locates the enclosing index pair on an increasing axis of n points.
func search(n int, at func(int) float64, lo, hi float64) (low, high int) {
	low = sort.Search(n, func(i int) bool { return at(i) > lo }) - 1
	high = sort.Search(n, func(i int) bool { return at(i) >= hi })
	low = max(low, 0)
	high = min(high, n-1)
	if high < low {
		high = low
	}
	return low, high
}
