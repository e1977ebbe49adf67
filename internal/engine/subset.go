package engine

import (
	"fmt"
	"math"

	"go.ngs.io/oceans-api/internal/domain"
)

// MaxSubsetCells bounds the number of cells one request may crop, summed
// over the requested variables.
const MaxSubsetCells = 1 << 24

// Field is a block of values over the subset dimensions, row-major. Invalid
// cells hold NaN and are false in Valid.
type Field struct {
	Shape  []int
	Values []float64
	Valid  []bool
}

func newField(shape []int) *Field {
	n := size(shape)
	f := &Field{Shape: shape, Values: make([]float64, n), Valid: make([]bool, n)}
	for i := range f.Values {
		f.Values[i] = math.NaN()
	}
	return f
}

func (f *Field) set(i int, v float64) {
	f.Values[i] = v
	f.Valid[i] = !math.IsNaN(v)
}

// Subset is the cropped part of a grid enclosing a query.
type Subset struct {
	Dims   []domain.Dim
	Coords map[domain.Dim][]float64
	Fields map[string]*Field
}

// Shape returns the subset lengths in Dims order.
func (s *Subset) Shape() []int {
	shape := make([]int, len(s.Dims))
	for i, d := range s.Dims {
		shape[i] = len(s.Coords[d])
	}
	return shape
}

// layout is the index plan of a subset: stored indices along the spatial
// dimensions and the record behind each time position.
type layout struct {
	dims   []domain.Dim
	coords map[domain.Dim][]float64
	index  map[domain.Dim][]int
	times  []record
}

func (l *layout) pos(d domain.Dim) int {
	for i, x := range l.dims {
		if x == d {
			return i
		}
	}
	return -1
}

func (l *layout) shape() []int {
	shape := make([]int, len(l.dims))
	for i, d := range l.dims {
		shape[i] = len(l.coords[d])
	}
	return shape
}

// spatial returns the layout restricted to its non-time dimensions.
func (l *layout) spatial() *layout {
	s := &layout{coords: l.coords, index: l.index}
	for _, d := range l.dims {
		if d != domain.DimTime {
			s.dims = append(s.dims, d)
		}
	}
	return s
}

// withIndex returns a copy of l with new stored indices along d.
func (l *layout) withIndex(d domain.Dim, idx []int) *layout {
	c := &layout{dims: l.dims, times: l.times,
		coords: make(map[domain.Dim][]float64), index: make(map[domain.Dim][]int)}
	for k, v := range l.coords {
		c.coords[k] = v
	}
	for k, v := range l.index {
		c.index[k] = v
	}
	c.index[d] = idx
	c.coords[d] = l.coords[d][:len(idx)]
	return c
}

func (g *Grid) layout(coords map[domain.Dim][]float64) (*layout, error) {
	l := &layout{
		dims:   g.dims(),
		coords: make(map[domain.Dim][]float64),
		index:  make(map[domain.Dim][]int),
	}
	for _, d := range l.dims {
		lo, hi, err := bounds(d, coords[d])
		if err != nil {
			return nil, err
		}
		var w Window
		switch d {
		case domain.DimTime:
			if len(g.Time) > 1 {
				w, err = CropTime(g.Time, lo, hi)
				if err != nil {
					return nil, err
				}
				l.coords[d] = w.Coords
				for _, i := range w.Index {
					l.times = append(l.times, g.records[i])
				}
				continue
			}
			// A single record, or a reconstructed annual cycle, is
			// presented at the requested days.
			l.coords[d] = uniqueSorted(coords[d])
			for range l.coords[d] {
				l.times = append(l.times, g.records[0])
			}
			continue
		case domain.DimDepth:
			w, err = Crop(d, g.Depth, lo, hi)
		case domain.DimLat:
			w, err = Crop(d, g.Lat, lo, hi)
		case domain.DimLon:
			w, err = CropCyclic(d, g.Lon, lo, hi, domain.LonPeriod)
		}
		if err != nil {
			return nil, err
		}
		l.coords[d] = w.Coords
		l.index[d] = w.Index
	}
	return l, nil
}

// Subset crops the grid around coords and reads the variables.
func (g *Grid) Subset(vars []domain.VariableSpec, coords map[domain.Dim][]float64) (*Subset, error) {
	l, err := g.layout(coords)
	if err != nil {
		return nil, err
	}
	if cells := size(l.shape()) * len(vars); cells > MaxSubsetCells {
		widest := l.dims[0]
		for _, d := range l.dims {
			if len(l.coords[d]) > len(l.coords[widest]) {
				widest = d
			}
		}
		_, hi, _ := bounds(widest, coords[widest])
		return nil, &domain.RangeError{Dim: widest, Value: hi,
			Reason: fmt.Sprintf("subset of %d cells exceeds the limit of %d", cells, MaxSubsetCells)}
	}

	s := &Subset{Dims: l.dims, Coords: l.coords, Fields: make(map[string]*Field, len(vars))}
	for _, v := range vars {
		var f *Field
		if v.Harmonic && g.Spec.Harmonics != nil {
			f, err = g.readHarmonic(l)
		} else {
			f, err = g.readField(l, v.FileVar)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", v.Name, err)
		}
		s.Fields[v.Name] = f
	}
	return s, nil
}

// block is a dense read of one variable. pos maps each stored axis to its
// layout position, or -1 for axes held at a single index.
type block struct {
	values []float64
	shape  []int
	pos    []int
	timed  bool
}

func (g *Grid) readField(l *layout, name string) (*Field, error) {
	f := newField(l.shape())
	tpos := l.pos(domain.DimTime)
	if tpos < 0 {
		b, err := readBlock(g.records[0], name, l)
		if err != nil {
			return nil, err
		}
		place(f, b, -1, -1)
		return f, nil
	}

	cache := make(map[record]*block)
	for ti, rec := range l.times {
		b, ok := cache[rec]
		if !ok {
			var err error
			if b, err = readBlock(rec, name, l); err != nil {
				return nil, err
			}
			cache[rec] = b
		}
		if !b.timed {
			place(f, b, tpos, -1)
			break
		}
		place(f, b, tpos, ti)
	}
	return f, nil
}

// readBlock reads the hyperslab of a variable covering the layout. Stored
// indices along a dimension may wrap; each run of consecutive indices is
// read separately and written at its logical position.
func readBlock(rec record, name string, l *layout) (*block, error) {
	info, err := rec.src.Var(name)
	if err != nil {
		return nil, err
	}
	if len(info.Shape) != len(info.Dims) {
		return nil, domain.Configf("%s: variable %s has %d dimensions but shape %v",
			rec.src.Path(), name, len(info.Dims), info.Shape)
	}

	b := &block{shape: make([]int, len(info.Dims)), pos: make([]int, len(info.Dims))}
	axes := make([][]int, len(info.Dims))
	for k, dimName := range info.Dims {
		d, known := domain.CanonicalDim(dimName)
		p := -1
		if known {
			p = l.pos(d)
		}
		switch {
		case known && d == domain.DimTime:
			b.timed = true
			i := rec.index
			if i < 0 {
				if info.Shape[k] != 1 {
					return nil, domain.Configf("%s: variable %s has %d time records but the dataset is not time indexed",
						rec.src.Path(), name, info.Shape[k])
				}
				i = 0
			}
			axes[k] = []int{i}
			b.pos[k] = -1
		case p >= 0:
			axes[k] = l.index[d]
			b.pos[k] = p
		case info.Shape[k] == 1:
			axes[k] = []int{0}
			b.pos[k] = -1
		default:
			return nil, domain.Configf("%s: variable %s has unsupported dimension %s",
				rec.src.Path(), name, dimName)
		}
		for _, i := range axes[k] {
			if i >= info.Shape[k] {
				return nil, domain.Configf("%s: variable %s: index %d outside %s of length %d",
					rec.src.Path(), name, i, dimName, info.Shape[k])
			}
		}
		b.shape[k] = len(axes[k])
	}

	b.values = make([]float64, size(b.shape))
	bst := strides(b.shape)
	axisRuns := make([][]run, len(axes))
	choice := make([]int, len(axes))
	for k, a := range axes {
		axisRuns[k] = runs(a)
		choice[k] = len(axisRuns[k])
	}

	start := make([]int, len(axes))
	count := make([]int, len(axes))
	var readErr error
	forEach(choice, func(c []int) {
		if readErr != nil {
			return
		}
		for k := range c {
			r := axisRuns[k][c[k]]
			start[k], count[k] = r.start, r.count
		}
		buf, err := rec.src.Read(name, start, count)
		if err != nil {
			readErr = err
			return
		}
		if len(buf) != size(count) {
			readErr = fmt.Errorf("%s: variable %s: read %d values, expected %d",
				rec.src.Path(), name, len(buf), size(count))
			return
		}
		cst := strides(count)
		forEach(count, func(m []int) {
			in, out := 0, 0
			for k := range m {
				in += m[k] * cst[k]
				out += (axisRuns[k][c[k]].pos + m[k]) * bst[k]
			}
			raw := buf[in]
			if math.IsNaN(raw) || info.IsMissing(raw) {
				b.values[out] = math.NaN()
				return
			}
			b.values[out] = info.Unpack(raw)
		})
	})
	if readErr != nil {
		return nil, readErr
	}
	return b, nil
}

// place copies a block into f. With ti >= 0 only time position ti is
// written; otherwise the block is broadcast along every dimension it lacks.
func place(f *Field, b *block, tpos, ti int) {
	sub := append([]int(nil), f.Shape...)
	if ti >= 0 {
		sub[tpos] = 1
	}
	fst := strides(f.Shape)
	bst := strides(b.shape)
	forEach(sub, func(idx []int) {
		fo := 0
		for j := range idx {
			fo += idx[j] * fst[j]
		}
		if ti >= 0 {
			fo += ti * fst[tpos]
		}
		bo := 0
		for k, p := range b.pos {
			if p >= 0 {
				bo += idx[p] * bst[k]
			}
		}
		f.set(fo, b.values[bo])
	})
}
