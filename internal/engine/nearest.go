package engine

import (
	"math"

	"go.ngs.io/oceans-api/internal/domain"
)

// nearestIndex returns the index of the coordinate closest to x. Ties go to
// the lower index.
func nearestIndex(coords []float64, x float64) int {
	best := 0
	for i, c := range coords {
		if math.Abs(c-x) < math.Abs(coords[best]-x) {
			best = i
		}
	}
	return best
}

// Nearest picks, along each dimension independently, the subset coordinate
// closest to each requested value. An invalid picked cell yields a masked
// output; no other cell is tried.
func Nearest(s *Subset, out map[domain.Dim][]float64, vars []domain.VariableSpec) map[string]*Variable {
	pick := make([][]int, len(s.Dims))
	for j, d := range s.Dims {
		pick[j] = make([]int, len(out[d]))
		for i, x := range out[d] {
			pick[j][i] = nearestIndex(s.Coords[d], x)
		}
	}
	return gather(s, pick, vars)
}

// gather builds outputs by indexing the subset with one index list per dimension.
func gather(s *Subset, pick [][]int, vars []domain.VariableSpec) map[string]*Variable {
	shape := make([]int, len(pick))
	for j := range pick {
		shape[j] = len(pick[j])
	}
	res := make(map[string]*Variable, len(vars))
	for _, v := range vars {
		f := s.Fields[v.Name]
		fst := strides(f.Shape)
		a := newArray(shape)
		k := 0
		forEach(shape, func(idx []int) {
			off := 0
			for j, i := range idx {
				off += pick[j][i] * fst[j]
			}
			if f.Valid[off] {
				a.Values[k] = f.Values[off]
				a.Mask[k] = false
			}
			k++
		})
		res[v.Name] = &Variable{Array: a}
	}
	return res
}
