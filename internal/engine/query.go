package engine

import (
	"math"
	"strings"

	"go.ngs.io/oceans-api/internal/domain"
)

// Mode selects how output values are produced.
type Mode int

const (
	ModeInterpolate Mode = iota
	ModeNearest
)

func (m Mode) String() string {
	if m == ModeNearest {
		return "nearest"
	}
	return "interpolate"
}

// ParseMode parses a mode name. The empty string selects interpolation.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "interpolate", "interp", "linear":
		return ModeInterpolate, nil
	case "nearest":
		return ModeNearest, nil
	}
	return 0, domain.Usagef("unknown mode %q (expected nearest or interpolate)", s)
}

// Query requests values at the Cartesian product of its coordinates.
type Query struct {
	// Vars lists variables by name or alias; empty means all.
	Vars []string
	// Coords holds the requested values per dimension. Time is a day of
	// year; depth defaults to the native depth grid.
	Coords map[domain.Dim][]float64
	Mode   Mode
}

// resolve validates q against the grid and returns the variables and the
// complete coordinate set of the output.
func (g *Grid) resolve(q Query) ([]domain.VariableSpec, map[domain.Dim][]float64, error) {
	names := q.Vars
	if len(names) == 0 {
		names = g.Spec.VariableNames()
	}
	vars := make([]domain.VariableSpec, 0, len(names))
	seen := make(map[string]bool)
	for _, n := range names {
		v, err := g.Spec.Resolve(n)
		if err != nil {
			return nil, nil, err
		}
		if !seen[v.Name] {
			seen[v.Name] = true
			vars = append(vars, v)
		}
	}

	coords := make(map[domain.Dim][]float64)
	for d, c := range q.Coords {
		if !g.Spec.HasDim(d) {
			return nil, nil, domain.Usagef("%s has no %s dimension", g.Spec.Name(), d)
		}
		coords[d] = c
	}
	if _, ok := coords[domain.DimDepth]; !ok && g.Spec.HasDim(domain.DimDepth) {
		coords[domain.DimDepth] = g.Depth
	}
	for _, d := range g.dims() {
		c, ok := coords[d]
		if !ok || len(c) == 0 {
			return nil, nil, domain.Usagef("%s coordinate is required for %s", d, g.Spec.Name())
		}
		for _, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, &domain.RangeError{Dim: d, Value: v, Reason: "not a finite number"}
			}
			switch {
			case d == domain.DimLat && (v < -90 || v > 90):
				return nil, nil, &domain.RangeError{Dim: d, Value: v, Reason: "latitude outside [-90, 90]"}
			case d == domain.DimDepth && v < 0:
				return nil, nil, &domain.RangeError{Dim: d, Value: v, Reason: "negative depth"}
			}
		}
	}
	return vars, coords, nil
}
