package engine

import "sort"

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func strides(shape []int) []int {
	st := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = s
		s *= shape[i]
	}
	return st
}

// forEach calls fn for every multi-index of shape in row-major order. The
// idx slice is reused between calls and must not be modified.
func forEach(shape []int, fn func(idx []int)) {
	n := size(shape)
	idx := make([]int, len(shape))
	for k := 0; k < n; k++ {
		fn(idx)
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
	}
}

// run is a maximal stretch of consecutive stored indices.
type run struct {
	pos   int // first logical position
	start int // first stored index
	count int
}

func runs(index []int) []run {
	var out []run
	for i, p := range index {
		if n := len(out); n > 0 && out[n-1].start+out[n-1].count == p {
			out[n-1].count++
			continue
		}
		out = append(out, run{pos: i, start: p, count: 1})
	}
	return out
}

// uniqueSorted returns the distinct values of v in increasing order.
func uniqueSorted(v []float64) []float64 {
	out := append([]float64(nil), v...)
	sort.Float64s(out)
	k := 0
	for i, x := range out {
		if i == 0 || x != out[k-1] {
			out[k] = x
			k++
		}
	}
	return out[:k]
}

// indexOf returns the first index of x in v, or -1.
func indexOf(v []float64, x float64) int {
	for i, y := range v {
		if y == x {
			return i
		}
	}
	return -1
}
