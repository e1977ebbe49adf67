package engine

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"go.ngs.io/oceans-api/internal/domain"
)

// record is one time slice: a source and the index along its time axis,
// or -1 when the source has no time axis.
type record struct {
	src   domain.Source
	index int
}

// Grid is a dataset loaded from one or more sources that share their
// spatial coordinates.
type Grid struct {
	Spec domain.DatasetSpec

	// Time holds the day of year of each record, increasing. It is empty
	// for datasets without stored time records.
	Time  []float64
	Depth []float64
	Lat   []float64
	Lon   []float64

	records []record
}

// Load checks that sources agree on their coordinates and assembles them
// into a grid. Sources of a time-indexed dataset may hold one or several
// records each; they are ordered by day of year.
func Load(spec domain.DatasetSpec, sources []domain.Source) (*Grid, error) {
	if len(sources) == 0 {
		return nil, domain.Configf("%s: no sources", spec.Name())
	}
	g := &Grid{Spec: spec}

	spatial := []struct {
		dim domain.Dim
		dst *[]float64
	}{
		{domain.DimDepth, &g.Depth},
		{domain.DimLat, &g.Lat},
		{domain.DimLon, &g.Lon},
	}
	for _, s := range spatial {
		if !spec.HasDim(s.dim) {
			continue
		}
		ref, err := sources[0].Coords(s.dim)
		if err != nil {
			return nil, domain.Configf("%s: %v", spec.Name(), err)
		}
		if err := checkIncreasing(s.dim, ref); err != nil {
			return nil, domain.Configf("%s: %s: %v", spec.Name(), sources[0].Path(), err)
		}
		for _, src := range sources[1:] {
			c, err := src.Coords(s.dim)
			if err != nil {
				return nil, domain.Configf("%s: %v", spec.Name(), err)
			}
			if !floats.Equal(ref, c) {
				return nil, domain.Configf("%s: %s coordinates of %s differ from %s",
					spec.Name(), s.dim, src.Path(), sources[0].Path())
			}
		}
		*s.dst = ref
	}

	if spec.TimeScale == 0 || !spec.HasDim(domain.DimTime) {
		g.records = []record{{src: sources[0], index: -1}}
		return g, nil
	}

	type stamped struct {
		record
		doy float64
	}
	var all []stamped
	for _, src := range sources {
		times, err := src.Coords(domain.DimTime)
		if err != nil {
			return nil, domain.Configf("%s: %v", spec.Name(), err)
		}
		for i, t := range times {
			all = append(all, stamped{record{src, i}, t * spec.TimeScale})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].doy < all[j].doy })
	for i, r := range all {
		if i > 0 && r.doy == all[i-1].doy {
			return nil, domain.Configf("%s: duplicate time record at day %v (%s)", spec.Name(), r.doy, r.src.Path())
		}
		g.records = append(g.records, r.record)
		g.Time = append(g.Time, r.doy)
	}
	if len(g.Time) > 1 && g.Time[len(g.Time)-1]-g.Time[0] >= domain.YearPeriod {
		return nil, domain.Configf("%s: time records span more than a year", spec.Name())
	}
	return g, nil
}

func checkIncreasing(dim domain.Dim, c []float64) error {
	if len(c) == 0 {
		return fmt.Errorf("%s has no coordinates", dim)
	}
	for i := 1; i < len(c); i++ {
		if !(c[i] > c[i-1]) {
			return fmt.Errorf("%s is not strictly increasing at index %d (%v after %v)", dim, i, c[i], c[i-1])
		}
	}
	return nil
}

// Records returns the number of stored time records.
func (g *Grid) Records() int { return len(g.records) }

// Sources lists the distinct sources of the grid.
func (g *Grid) Sources() []domain.Source {
	seen := make(map[domain.Source]bool)
	var out []domain.Source
	for _, r := range g.records {
		if !seen[r.src] {
			seen[r.src] = true
			out = append(out, r.src)
		}
	}
	return out
}

// timeAxis reports whether the subset carries a time dimension: either
// stored records or harmonic reconstruction.
func (g *Grid) timeAxis() bool {
	return g.Spec.HasDim(domain.DimTime)
}

// dims lists the grid dimensions in storage order.
func (g *Grid) dims() []domain.Dim {
	var out []domain.Dim
	for _, d := range domain.AllDims {
		if g.Spec.HasDim(d) {
			out = append(out, d)
		}
	}
	return out
}
