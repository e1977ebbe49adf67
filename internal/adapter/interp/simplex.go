package interp

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// simplexEps tolerates barycentric weights a rounding error below zero.
const simplexEps = 1e-10

// Lattice is an N-D rectilinear lattice of samples, interpolated linearly
// over the Kuhn (Freudenthal) simplex decomposition of each cell. NaN
// values mark missing nodes.
type Lattice struct {
	axes    [][]float64
	values  []float64
	strides []int
}

// NewLattice builds a lattice from strictly increasing axes and row-major
// values.
func NewLattice(axes [][]float64, values []float64) (*Lattice, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("lattice needs at least one axis")
	}
	n := 1
	for d, a := range axes {
		if len(a) < 2 {
			return nil, fmt.Errorf("axis %d has %d nodes, need at least 2", d, len(a))
		}
		for i := 1; i < len(a); i++ {
			if !(a[i] > a[i-1]) {
				return nil, fmt.Errorf("axis %d is not strictly increasing at %d", d, i)
			}
		}
		n *= len(a)
	}
	if len(values) != n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(values))
	}
	strides := make([]int, len(axes))
	s := 1
	for d := len(axes) - 1; d >= 0; d-- {
		strides[d] = s
		s *= len(axes[d])
	}
	return &Lattice{axes: axes, values: values, strides: strides}, nil
}

// At evaluates the lattice at p. The result is NaN outside the lattice.
// When the Kuhn simplex holding p has a missing vertex, p is interpolated
// over a simplex of valid corners of its cell instead, and is NaN when no
// such simplex contains it.
func (l *Lattice) At(p []float64) float64 {
	dims := len(l.axes)
	if len(p) != dims {
		return math.NaN()
	}

	base := 0
	frac := make([]float64, dims)
	for d, a := range l.axes {
		i, w, ok := Bracket(a, p[d])
		if !ok {
			return math.NaN()
		}
		if i == len(a)-1 {
			i, w = i-1, 1
		}
		base += i * l.strides[d]
		frac[d] = w
	}

	order := make([]int, dims)
	for d := range order {
		order[d] = d
	}
	sort.SliceStable(order, func(a, b int) bool { return frac[order[a]] > frac[order[b]] })

	// Walk the simplex vertices v0 = base, v_k = v_{k-1} + e_order[k-1].
	vertex := base
	weight := 1 - frac[order[0]]
	sum := 0.0
	for k := 0; k <= dims; k++ {
		if weight > 0 {
			v := l.values[vertex]
			if math.IsNaN(v) {
				return l.validCorners(base, frac)
			}
			sum += weight * v
		}
		if k == dims {
			break
		}
		vertex += l.strides[order[k]]
		if k+1 < dims {
			weight = frac[order[k]] - frac[order[k+1]]
		} else {
			weight = frac[order[k]]
		}
	}
	return sum
}

// validCorners interpolates the point at fractional position frac of the
// cell at base linearly over the first simplex of valid cell corners that
// contains it.
func (l *Lattice) validCorners(base int, frac []float64) float64 {
	dims := len(frac)
	type corner struct {
		pos []float64
		v   float64
	}
	var corners []corner
	for bits := 0; bits < 1<<dims; bits++ {
		off := base
		pos := make([]float64, dims)
		for d := 0; d < dims; d++ {
			if bits&(1<<d) != 0 {
				pos[d] = 1
				off += l.strides[d]
			}
		}
		if v := l.values[off]; !math.IsNaN(v) {
			corners = append(corners, corner{pos, v})
		}
	}
	if len(corners) < dims+1 {
		return math.NaN()
	}

	edges := mat.NewDense(dims, dims, nil)
	rhs := mat.NewVecDense(dims, nil)
	var w mat.VecDense
	pick := make([]int, dims+1)

	// eval returns the blend over the picked corners when they span a
	// simplex containing frac.
	eval := func() (float64, bool) {
		c0 := corners[pick[0]]
		for r := 0; r < dims; r++ {
			for c := 0; c < dims; c++ {
				edges.Set(r, c, corners[pick[c+1]].pos[r]-c0.pos[r])
			}
			rhs.SetVec(r, frac[r]-c0.pos[r])
		}
		// Corner offsets are 0/1 vectors, so a spanning set has |det| >= 1.
		if math.Abs(mat.Det(edges)) < 0.5 {
			return 0, false
		}
		if err := w.SolveVec(edges, rhs); err != nil {
			return 0, false
		}
		w0, sum := 1.0, 0.0
		for c := 0; c < dims; c++ {
			wc := w.AtVec(c)
			if wc < -simplexEps {
				return 0, false
			}
			w0 -= wc
			if wc > simplexEps {
				sum += wc * corners[pick[c+1]].v
			}
		}
		if w0 < -simplexEps {
			return 0, false
		}
		if w0 > simplexEps {
			sum += w0 * c0.v
		}
		return sum, true
	}

	var choose func(k, from int) (float64, bool)
	choose = func(k, from int) (float64, bool) {
		if k == len(pick) {
			return eval()
		}
		for i := from; i <= len(corners)-(len(pick)-k); i++ {
			pick[k] = i
			if v, ok := choose(k+1, i+1); ok {
				return v, true
			}
		}
		return 0, false
	}
	if v, ok := choose(0, 0); ok {
		return v
	}
	return math.NaN()
}
