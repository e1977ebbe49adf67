package engine

import (
	"math"
	"testing"

	"go.ngs.io/oceans-api/internal/adapter/store/memory"
	"go.ngs.io/oceans-api/internal/domain"
)

const fill = -99.0

func seq(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

var (
	fixtureLat   = seq(-2.5, 5, 6)  // -2.5 .. 22.5
	fixtureLon   = seq(2.5, 5, 72)  // 2.5 .. 357.5
	fixtureDepth = []float64{0, 10, 20, 50, 100, 500, 1000, 5500}
	woaMonths    = []float64{1.5, 4.5, 7.5, 10.5}
)

// woaValue is the synthetic temperature of record r.
func woaValue(r int, z, lat, lon float64) float64 {
	return 25 + float64(r) - z/500 + lat/10 + math.Sin(lon*math.Pi/180)
}

// land marks the cells with lat -2.5 and lon in [10, 30] as missing.
func land(lat, lon float64) bool {
	return lat == -2.5 && lon >= 10 && lon <= 30
}

func ptr(v float64) *float64 { return &v }

// woaGrid builds a WOA temperature grid of four seasonal files.
func woaGrid(t *testing.T) *Grid {
	t.Helper()
	spec, _ := domain.Lookup(domain.FamilyWOA, domain.KindTemperature)
	var sources []domain.Source
	for r, month := range woaMonths {
		src := memory.New("woa_" + string(rune('a'+r))).
			SetCoords("time", []float64{month}).
			SetCoords("depth", fixtureDepth).
			SetCoords("lat", fixtureLat).
			SetCoords("lon", fixtureLon)
		var mn, dd []float64
		for _, z := range fixtureDepth {
			for _, la := range fixtureLat {
				for _, lo := range fixtureLon {
					if land(la, lo) {
						mn = append(mn, fill)
						dd = append(dd, fill)
						continue
					}
					mn = append(mn, woaValue(r, z, la, lo))
					dd = append(dd, float64(r+1))
				}
			}
		}
		dims := []string{"time", "depth", "lat", "lon"}
		if err := src.SetVar("t_mn", dims, mn, ptr(fill)); err != nil {
			t.Fatal(err)
		}
		if err := src.SetVar("t_dd", dims, dd, ptr(fill)); err != nil {
			t.Fatal(err)
		}
		src.MarkInteger("t_dd")
		sources = append(sources, src)
	}
	spec = keepVars(spec, "mn", "dd")
	g, err := Load(spec, sources)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return g
}

func keepVars(spec domain.DatasetSpec, names ...string) domain.DatasetSpec {
	return spec.Filter(func(v domain.VariableSpec) bool {
		for _, n := range names {
			if v.Name == n {
				return true
			}
		}
		return false
	})
}

var (
	carsDepth = []float64{0, 10, 20, 50, 100}
	carsLat   = seq(-10, 0.5, 41) // -10 .. 10
	carsLon   = seq(0, 0.5, 720)  // 0 .. 359.5
)

func carsMean(z, lat, lon float64) float64 { return 10 + 0.1*lat + 0.01*lon - 0.01*z }

// carsGrid builds a CARS grid whose annual terms cover three levels and
// semi-annual terms two.
func carsGrid(t *testing.T) *Grid {
	t.Helper()
	return carsGridMasked(t, nil)
}

// carsGridMasked is carsGrid with the mean missing where masked is true.
func carsGridMasked(t *testing.T, masked func(z, lat, lon float64) bool) *Grid {
	t.Helper()
	spec, _ := domain.Lookup(domain.FamilyCARS, domain.KindTemperature)
	src := memory.New("cars").
		SetCoords("depth", carsDepth).
		SetCoords("depth_ann", carsDepth[:3]).
		SetCoords("depth_semiann", carsDepth[:2]).
		SetCoords("lat", carsLat).
		SetCoords("lon", carsLon)

	var mean, sd []float64
	for _, z := range carsDepth {
		for _, la := range carsLat {
			for _, lo := range carsLon {
				if masked != nil && masked(z, la, lo) {
					mean = append(mean, fill)
				} else {
					mean = append(mean, carsMean(z, la, lo))
				}
				sd = append(sd, 0.5+z/100)
			}
		}
	}
	constant := func(levels int, v float64) []float64 {
		out := make([]float64, levels*len(carsLat)*len(carsLon))
		for i := range out {
			out[i] = v
		}
		return out
	}
	spatial := []string{"depth", "lat", "lon"}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(src.SetVar("mean", spatial, mean, ptr(fill)))
	must(src.SetVar("std_dev", spatial, sd, ptr(fill)))
	must(src.SetVar("an_cos", []string{"depth_ann", "lat", "lon"}, constant(3, 2), ptr(fill)))
	must(src.SetVar("an_sin", []string{"depth_ann", "lat", "lon"}, constant(3, 1), ptr(fill)))
	must(src.SetVar("sa_cos", []string{"depth_semiann", "lat", "lon"}, constant(2, 0.5), ptr(fill)))
	must(src.SetVar("sa_sin", []string{"depth_semiann", "lat", "lon"}, constant(2, 0.25), ptr(fill)))

	g, err := Load(keepVars(spec, "mn", "std_dev"), []domain.Source{src})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return g
}

// carsExpected reconstructs the fixture analytically at a stored level.
func carsExpected(doy float64, level int, lat, lon float64) float64 {
	tt := 2 * math.Pi * math.Mod(doy, 366) / 366
	v := carsMean(carsDepth[level], lat, lon)
	if level < 3 {
		v += 2*math.Cos(tt) + math.Sin(tt)
	}
	if level < 2 {
		v += 0.5*math.Cos(2*tt) + 0.25*math.Sin(2*tt)
	}
	return v
}

var (
	etopoLat = seq(-30, 1, 61)
	etopoLon = seq(-180, 1, 360)
)

func etopoHeight(lat, lon float64) float64 { return 100*lat - 3*lon + 7 }

// etopoGrid builds a topography grid with a missing cell at (0, 0).
func etopoGrid(t *testing.T) *Grid {
	t.Helper()
	spec, _ := domain.Lookup(domain.FamilyETOPO, domain.KindTopography)
	src := memory.New("etopo").SetCoords("lat", etopoLat).SetCoords("lon", etopoLon)
	var z []float64
	for _, la := range etopoLat {
		for _, lo := range etopoLon {
			if la == 0 && lo == 0 {
				z = append(z, fill)
				continue
			}
			z = append(z, etopoHeight(la, lo))
		}
	}
	if err := src.SetVar("z", []string{"lat", "lon"}, z, ptr(fill)); err != nil {
		t.Fatal(err)
	}
	g, err := Load(spec, []domain.Source{src})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return g
}

func near(a, b float64) bool { return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b)) }
