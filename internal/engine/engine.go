// Package engine crops gridded climatologies around a query and resolves
// values at the requested coordinates, by nearest lookup or interpolation.
package engine

import (
	"go.ngs.io/oceans-api/internal/domain"
)

// Extract answers q over the Cartesian product of its coordinates.
func (g *Grid) Extract(q Query) (*Result, error) {
	vars, coords, err := g.resolve(q)
	if err != nil {
		return nil, err
	}
	return g.extract(vars, coords, q.Mode)
}

// Nearest is Extract in nearest mode.
func (g *Grid) Nearest(q Query) (*Result, error) {
	q.Mode = ModeNearest
	return g.Extract(q)
}

func (g *Grid) extract(vars []domain.VariableSpec, coords map[domain.Dim][]float64, mode Mode) (*Result, error) {
	s, err := g.Subset(vars, coords)
	if err != nil {
		return nil, err
	}

	var out map[string]*Variable
	switch {
	case mode == ModeNearest:
		out = Nearest(s, coords, vars)
	case g.Spec.Strategy == domain.StrategyStaged:
		out = InterpolateStaged(s, coords, vars)
	default:
		out = Interpolate(s, coords, vars)
	}

	res := &Result{
		Dims:        s.Dims,
		Coords:      coords,
		Vars:        make(map[string]*Variable, len(vars)),
		SubsetCells: size(s.Shape()),
	}
	for _, v := range vars {
		r := out[v.Name]
		r.Array = r.squeeze()
		res.Names = append(res.Names, v.Name)
		res.Vars[v.Name] = r
	}
	return res, nil
}

// Track answers q pairwise along a track: point i is (time[i], lat[i],
// lon[i]) with the full requested depth profile. A single time value is
// shared by every point.
func (g *Grid) Track(q Query) (*Result, error) {
	vars, coords, err := g.resolve(q)
	if err != nil {
		return nil, err
	}
	lat, lon := coords[domain.DimLat], coords[domain.DimLon]
	if len(lat) != len(lon) {
		return nil, domain.Usagef("track needs as many lat as lon values (got %d and %d)", len(lat), len(lon))
	}
	n := len(lat)
	times := coords[domain.DimTime]
	if g.timeAxis() && len(times) != 1 && len(times) != n {
		return nil, domain.Usagef("track needs 1 or %d time values, got %d", n, len(times))
	}
	depth := coords[domain.DimDepth]
	profile := max(len(depth), 1)

	res := &Result{
		Dims:   []domain.Dim{domain.DimLat},
		Coords: coords,
		Vars:   make(map[string]*Variable, len(vars)),
	}
	if g.Spec.HasDim(domain.DimDepth) {
		res.Dims = append(res.Dims, domain.DimDepth)
	}
	for _, v := range vars {
		res.Names = append(res.Names, v.Name)
		a := newArray([]int{n, profile})
		res.Vars[v.Name] = &Variable{Array: a}
	}

	for i := 0; i < n; i++ {
		pc := map[domain.Dim][]float64{
			domain.DimLat: lat[i : i+1],
			domain.DimLon: lon[i : i+1],
		}
		if depth != nil {
			pc[domain.DimDepth] = depth
		}
		if g.timeAxis() {
			t := times[0]
			if len(times) == n {
				t = times[i]
			}
			pc[domain.DimTime] = []float64{t}
		}
		point, err := g.extract(vars, pc, q.Mode)
		if err != nil {
			return nil, err
		}
		res.SubsetCells += point.SubsetCells
		for _, v := range vars {
			dst, src := res.Vars[v.Name], point.Vars[v.Name]
			copy(dst.Values[i*profile:(i+1)*profile], src.Values)
			copy(dst.Mask[i*profile:(i+1)*profile], src.Mask)
			if dst.Err == nil {
				dst.Err = src.Err
			}
		}
	}
	for _, v := range vars {
		r := res.Vars[v.Name]
		r.Array = r.squeeze()
	}
	return res, nil
}
