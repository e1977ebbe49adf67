package engine

import (
	"go.ngs.io/oceans-api/internal/domain"
)

// readHarmonic reconstructs a Fourier-derived variable at every time
// position of the layout. Coefficients are read once and evaluated per
// requested day.
func (g *Grid) readHarmonic(l *layout) (*Field, error) {
	h := g.Spec.Harmonics
	tpos, zpos := l.pos(domain.DimTime), l.pos(domain.DimDepth)
	if tpos != 0 || zpos != 1 {
		return nil, domain.Configf("%s: harmonic variables need time and depth dimensions", g.Spec.Name())
	}
	rec := g.records[0]
	sp := l.spatial()

	mean, err := readSpatial(rec, h.Mean, sp)
	if err != nil {
		return nil, err
	}
	annCos, annSin, err := readTerms(rec, h.AnnualCos, h.AnnualSin, h.AnnualLevels, sp)
	if err != nil {
		return nil, err
	}
	semiCos, semiSin, err := readTerms(rec, h.SemiAnnualCos, h.SemiAnnualSin, h.SemiAnnualLevels, sp)
	if err != nil {
		return nil, err
	}

	out := newField(l.shape())
	nz := len(sp.index[domain.DimDepth])
	cols := size(mean.Shape) / max(nz, 1)
	column := func(f *Field, col int) []float64 {
		if f == nil {
			return nil
		}
		levels := f.Shape[0]
		c := make([]float64, levels)
		for z := 0; z < levels; z++ {
			c[z] = f.Values[z*cols+col]
		}
		return c
	}

	doys := l.coords[domain.DimTime]
	for col := 0; col < cols; col++ {
		hc := domain.Harmonics{
			Mean:          column(mean, col),
			AnnualCos:     column(annCos, col),
			AnnualSin:     column(annSin, col),
			SemiAnnualCos: column(semiCos, col),
			SemiAnnualSin: column(semiSin, col),
		}
		for ti, doy := range doys {
			for z, v := range hc.Reconstruct(doy) {
				out.set((ti*nz+z)*cols+col, v)
			}
		}
	}
	return out, nil
}

func readSpatial(rec record, name string, l *layout) (*Field, error) {
	b, err := readBlock(rec, name, l)
	if err != nil {
		return nil, err
	}
	f := newField(l.shape())
	place(f, b, -1, -1)
	return f, nil
}

// readTerms reads a cos/sin coefficient pair limited to the depth levels
// below the cutoff. Both are nil when no requested level carries the term.
func readTerms(rec record, cosName, sinName string, cutoff int, l *layout) (*Field, *Field, error) {
	info, err := rec.src.Var(cosName)
	if err != nil {
		return nil, nil, err
	}
	stored := cutoff
	for k, name := range info.Dims {
		if d, ok := domain.CanonicalDim(name); ok && d == domain.DimDepth && k < len(info.Shape) {
			stored = min(stored, info.Shape[k])
		}
	}

	depth := l.index[domain.DimDepth]
	m := 0
	for m < len(depth) && depth[m] < stored {
		m++
	}
	if m == 0 {
		return nil, nil, nil
	}
	cut := l.withIndex(domain.DimDepth, depth[:m])
	c, err := readSpatial(rec, cosName, cut)
	if err != nil {
		return nil, nil, err
	}
	s, err := readSpatial(rec, sinName, cut)
	if err != nil {
		return nil, nil, err
	}
	return c, s, nil
}
