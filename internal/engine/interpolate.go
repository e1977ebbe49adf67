package engine

import (
	"math"

	"go.ngs.io/oceans-api/internal/adapter/interp"
	"go.ngs.io/oceans-api/internal/domain"
)

// exactPick maps every requested coordinate onto its subset index. It
// fails when any coordinate is absent from the subset.
func exactPick(s *Subset, out map[domain.Dim][]float64) ([][]int, bool) {
	pick := make([][]int, len(s.Dims))
	for j, d := range s.Dims {
		pick[j] = make([]int, len(out[d]))
		for i, x := range out[d] {
			k := indexOf(s.Coords[d], x)
			if k < 0 {
				return nil, false
			}
			pick[j][i] = k
		}
	}
	return pick, true
}

// Interpolate evaluates each variable at the Cartesian product of out by
// linear interpolation over its valid samples, using only the dimensions
// along which the samples vary.
func Interpolate(s *Subset, out map[domain.Dim][]float64, vars []domain.VariableSpec) map[string]*Variable {
	if pick, ok := exactPick(s, out); ok {
		return gather(s, pick, vars)
	}
	res := make(map[string]*Variable, len(vars))
	for _, v := range vars {
		r := interpolateScattered(v.Name, s, s.Fields[v.Name], out)
		if v.Integer {
			r.round()
		}
		res[v.Name] = r
	}
	return res
}

func interpolateScattered(name string, s *Subset, f *Field, out map[domain.Dim][]float64) *Variable {
	shape := make([]int, len(s.Dims))
	for j, d := range s.Dims {
		shape[j] = len(out[d])
	}
	fst := strides(f.Shape)

	// Valid samples and the distinct values they take per dimension.
	var samples []int
	for i, ok := range f.Valid {
		if ok {
			samples = append(samples, i)
		}
	}
	if len(samples) == 0 {
		return &Variable{Array: newArray(shape)}
	}
	fixed := make([]int, len(s.Dims)) // subset index of a non-varying dimension
	var varying []int
	coordOf := func(sample, j int) float64 {
		return s.Coords[s.Dims[j]][(sample/fst[j])%f.Shape[j]]
	}
	for j := range s.Dims {
		first := (samples[0] / fst[j]) % f.Shape[j]
		fixed[j] = first
		for _, sm := range samples[1:] {
			if (sm/fst[j])%f.Shape[j] != first {
				varying = append(varying, j)
				fixed[j] = -1
				break
			}
		}
	}
	if len(varying) == 0 {
		return &Variable{Array: newArray(shape), Err: &domain.DegenerateInterpolationError{Var: name}}
	}

	// Output points projected on the varying dimensions. Points off the
	// single value of a non-varying dimension have no result.
	n := size(shape)
	points := make([][]float64, 0, n)
	inside := make([]bool, n)
	k := 0
	forEach(shape, func(idx []int) {
		ok := true
		p := make([]float64, len(varying))
		for j, d := range s.Dims {
			x := out[d][idx[j]]
			if fixed[j] >= 0 && x != s.Coords[d][fixed[j]] {
				ok = false
			}
		}
		for vj, j := range varying {
			p[vj] = out[s.Dims[j]][idx[j]]
		}
		inside[k] = ok
		points = append(points, p)
		k++
	})

	values := make([]float64, n)
	for i := range values {
		values[i] = math.NaN()
	}
	switch len(varying) {
	case 1:
		j := varying[0]
		xs := make([]float64, len(samples))
		ys := make([]float64, len(samples))
		for i, sm := range samples {
			xs[i], ys[i] = coordOf(sm, j), f.Values[sm]
		}
		line, err := interp.NewLinear(xs, ys)
		if err != nil {
			return &Variable{Array: newArray(shape), Err: err}
		}
		for i, p := range points {
			if inside[i] {
				values[i] = line.At(p[0])
			}
		}
	case 2:
		jy, jx := varying[0], varying[1]
		xs := make([]float64, len(samples))
		ys := make([]float64, len(samples))
		vs := make([]float64, len(samples))
		for i, sm := range samples {
			xs[i], ys[i], vs[i] = coordOf(sm, jx), coordOf(sm, jy), f.Values[sm]
		}
		var outX, outY []float64
		var at []int
		for i, p := range points {
			if inside[i] {
				outX = append(outX, p[1])
				outY = append(outY, p[0])
				at = append(at, i)
			}
		}
		for i, v := range interp.Scattered2D(xs, ys, vs, outX, outY) {
			values[at[i]] = v
		}
	default:
		lat, err := lattice(s, f, varying, fixed)
		if err != nil {
			return &Variable{Array: newArray(shape), Err: err}
		}
		for i, p := range points {
			if inside[i] {
				values[i] = lat.At(p)
			}
		}
	}
	return &Variable{Array: fromValues(shape, values)}
}

// lattice extracts the varying dimensions of f as a rectilinear lattice,
// holding the other dimensions at their fixed index.
func lattice(s *Subset, f *Field, varying, fixed []int) (*interp.Lattice, error) {
	axes := make([][]float64, len(varying))
	lshape := make([]int, len(varying))
	for vj, j := range varying {
		axes[vj] = s.Coords[s.Dims[j]]
		lshape[vj] = len(axes[vj])
	}
	fst := strides(f.Shape)
	base := 0
	for j, i := range fixed {
		if i >= 0 {
			base += i * fst[j]
		}
	}
	values := make([]float64, 0, size(lshape))
	forEach(lshape, func(idx []int) {
		off := base
		for vj, j := range varying {
			off += idx[vj] * fst[j]
		}
		values = append(values, f.Values[off])
	})
	return interp.NewLattice(axes, values)
}
