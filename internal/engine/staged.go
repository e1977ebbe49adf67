package engine

import (
	"math"

	"go.ngs.io/oceans-api/internal/adapter/interp"
	"go.ngs.io/oceans-api/internal/domain"
)

// InterpolateStaged interpolates separably: linearly in time, then over
// latitude/longitude per time and depth level, then linearly in depth.
// Missing cells propagate as NaN through the linear stages and are left out
// of the horizontal one; outputs that cannot be computed are masked.
func InterpolateStaged(s *Subset, out map[domain.Dim][]float64, vars []domain.VariableSpec) map[string]*Variable {
	if pick, ok := exactPick(s, out); ok {
		return gather(s, pick, vars)
	}
	if len(s.Dims) != 4 || s.Dims[0] != domain.DimTime || s.Dims[1] != domain.DimDepth {
		return Interpolate(s, out, vars)
	}

	res := make(map[string]*Variable, len(vars))
	for _, v := range vars {
		f := s.Fields[v.Name]
		vals, shape := f.Values, f.Shape
		vals, shape = resampleAxis(vals, shape, 0, s.Coords[domain.DimTime], out[domain.DimTime])
		vals, shape = resampleHorizontal(vals, shape,
			s.Coords[domain.DimLat], s.Coords[domain.DimLon], out[domain.DimLat], out[domain.DimLon])
		vals, shape = resampleAxis(vals, shape, 1, s.Coords[domain.DimDepth], out[domain.DimDepth])

		a := fromValues(shape, vals)
		if v.Integer {
			a.round()
		}
		res[v.Name] = &Variable{Array: a}
	}
	return res
}

// resampleAxis linearly interpolates vals along one axis from the
// increasing coordinates from to the requested coordinates to. Requests
// outside the axis become NaN.
func resampleAxis(vals []float64, shape []int, axis int, from, to []float64) ([]float64, []int) {
	type tap struct {
		i  int
		w  float64
		ok bool
	}
	taps := make([]tap, len(to))
	same := len(from) == len(to)
	for k, x := range to {
		i, w, ok := interp.Bracket(from, x)
		taps[k] = tap{i, w, ok}
		same = same && ok && w == 0 && i == k
	}
	if same {
		return vals, shape
	}

	outShape := append([]int(nil), shape...)
	outShape[axis] = len(to)
	outer := size(shape[:axis])
	inner := size(shape[axis+1:])
	res := make([]float64, size(outShape))
	for o := 0; o < outer; o++ {
		for k, t := range taps {
			dst := (o*len(to) + k) * inner
			if !t.ok {
				for r := 0; r < inner; r++ {
					res[dst+r] = math.NaN()
				}
				continue
			}
			lo := (o*shape[axis] + t.i) * inner
			hi := lo + inner
			for r := 0; r < inner; r++ {
				var b float64
				if t.w != 0 {
					b = vals[hi+r]
				}
				res[dst+r] = interp.Blend(vals[lo+r], b, t.w)
			}
		}
	}
	return res, outShape
}

// resampleHorizontal interpolates the trailing (lat, lon) plane of each
// leading index. Coordinates all present on the grid are selected
// directly; otherwise the plane is interpolated as scattered samples.
func resampleHorizontal(vals []float64, shape []int, lat, lon, outLat, outLon []float64) ([]float64, []int) {
	ny, nx := shape[len(shape)-2], shape[len(shape)-1]
	lead := size(shape[:len(shape)-2])
	outShape := append(append([]int(nil), shape[:len(shape)-2]...), len(outLat), len(outLon))
	res := make([]float64, size(outShape))
	plane := len(outLat) * len(outLon)

	pickY, okY := pickAll(lat, outLat)
	pickX, okX := pickAll(lon, outLon)
	if okY && okX {
		for l := 0; l < lead; l++ {
			for i, y := range pickY {
				for j, x := range pickX {
					res[l*plane+i*len(outLon)+j] = vals[(l*ny+y)*nx+x]
				}
			}
		}
		return res, outShape
	}

	outX := make([]float64, 0, plane)
	outY := make([]float64, 0, plane)
	for _, y := range outLat {
		for _, x := range outLon {
			outX = append(outX, x)
			outY = append(outY, y)
		}
	}
	xs := make([]float64, 0, ny*nx)
	ys := make([]float64, 0, ny*nx)
	vs := make([]float64, 0, ny*nx)
	for l := 0; l < lead; l++ {
		src := vals[l*ny*nx : (l+1)*ny*nx]
		dst := res[l*plane : (l+1)*plane]

		// Only the valid cells of the plane take part.
		xs, ys, vs = xs[:0], ys[:0], vs[:0]
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				if v := src[y*nx+x]; !math.IsNaN(v) {
					xs = append(xs, lon[x])
					ys = append(ys, lat[y])
					vs = append(vs, v)
				}
			}
		}
		if len(vs) == 0 {
			for i := range dst {
				dst[i] = math.NaN()
			}
			continue
		}
		copy(dst, interp.Scattered2D(xs, ys, vs, outX, outY))
	}
	return res, outShape
}

func pickAll(coords, want []float64) ([]int, bool) {
	pick := make([]int, len(want))
	for i, x := range want {
		k := indexOf(coords, x)
		if k < 0 {
			return nil, false
		}
		pick[i] = k
	}
	return pick, true
}
