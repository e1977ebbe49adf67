package store

import (
	"errors"
	"fmt"
	"testing"

	"go.ngs.io/oceans-api/internal/adapter/store/memory"
	"go.ngs.io/oceans-api/internal/config"
	"go.ngs.io/oceans-api/internal/domain"
	"go.ngs.io/oceans-api/internal/engine"
)

// closingSource records Close calls.
type closingSource struct {
	*memory.Source
	closed *int
}

func (s closingSource) Close() error {
	*s.closed++
	return nil
}

type fakeOpener struct {
	sources map[string]*memory.Source
	closed  int
}

func (o *fakeOpener) Open(path string) (domain.Source, error) {
	src, ok := o.sources[path]
	if !ok {
		return nil, fmt.Errorf("%s: no such file", path)
	}
	return closingSource{Source: src, closed: &o.closed}, nil
}

var (
	testLat = []float64{-5, 0, 5}
	testLon = []float64{0, 120, 240}
)

// grid stores ramp variables of n values laid out over dims.
func grid(src *memory.Source, dims []string, n int, names ...string) *memory.Source {
	for _, name := range names {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i)
		}
		if err := src.SetVar(name, dims, values, nil); err != nil {
			panic(err)
		}
	}
	return src
}

func woaFile(path string, month float64, lat []float64) *memory.Source {
	src := memory.New(path).
		SetCoords("time", []float64{month}).
		SetCoords("depth", []float64{0, 10}).
		SetCoords("lat", lat).
		SetCoords("lon", testLon)
	return grid(src, []string{"time", "depth", "lat", "lon"}, 2*len(lat)*len(testLon), "t_mn", "t_sd")
}

func carsFile(path string) *memory.Source {
	src := memory.New(path).
		SetCoords("depth", []float64{0, 10}).
		SetCoords("depth_ann", []float64{0}).
		SetCoords("depth_semiann", []float64{0}).
		SetCoords("lat", testLat).
		SetCoords("lon", testLon)
	grid(src, []string{"depth", "lat", "lon"}, 18, "mean", "std_dev", "nq", "radius_q")
	grid(src, []string{"depth_ann", "lat", "lon"}, 9, "an_cos", "an_sin")
	grid(src, []string{"depth_semiann", "lat", "lon"}, 9, "sa_cos", "sa_sin")
	grid(src, []string{"lat", "lon"}, 9, "map_error")
	return src
}

func catalog(datasets ...config.DatasetConfig) *config.Catalog {
	return &config.Catalog{DataDir: "/data", Datasets: datasets}
}

func TestRegistry_Open(t *testing.T) {
	opener := &fakeOpener{sources: map[string]*memory.Source{
		"/data/t13.nc":   woaFile("/data/t13.nc", 1.5, testLat),
		"/data/t14.nc":   woaFile("/data/t14.nc", 4.5, testLat),
		"/data/cars.nc":  carsFile("/data/cars.nc"),
	}}
	r := NewRegistry(catalog(
		config.DatasetConfig{Family: "WOA", Kind: "temperature", Files: []string{"t14.nc", "t13.nc"}},
		config.DatasetConfig{Family: "CARS", Kind: "temperature", Files: []string{"cars.nc"}},
		config.DatasetConfig{Family: "WOA", Kind: "salinity", Files: []string{"s13.nc"}},
	), opener)
	if err := r.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	g, err := r.Grid(domain.FamilyWOA, domain.KindTemperature)
	if err != nil {
		t.Fatalf("Grid(WOA): %v", err)
	}
	if g.Records() != 2 || g.Time[0] != 1.5*g.Spec.TimeScale {
		t.Errorf("records = %d, time = %v", g.Records(), g.Time)
	}
	if got := g.Spec.VariableNames(); len(got) != 2 || got[0] != "mn" || got[1] != "sd" {
		t.Errorf("WOA variables = %v, want [mn sd]", got)
	}

	cars, err := r.Grid(domain.FamilyCARS, domain.KindTemperature)
	if err != nil {
		t.Fatalf("Grid(CARS): %v", err)
	}
	want := []string{"mn", "std_dev", "nq", "radius_q"}
	got := cars.Spec.VariableNames()
	if len(got) != len(want) {
		t.Fatalf("CARS variables = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CARS variable %d = %s, want %s", i, got[i], want[i])
		}
	}

	_, err = r.Grid(domain.FamilyWOA, domain.KindSalinity)
	if !errors.Is(err, domain.ErrSourceUnavailable) || errors.Is(err, ErrNotConfigured) {
		t.Errorf("Grid(WOA salinity) error = %v, want unavailable", err)
	}
	_, err = r.Grid(domain.FamilyETOPO, domain.KindTopography)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Grid(ETOPO) error = %v, want not configured", err)
	}

	infos := r.Datasets()
	if len(infos) != 3 {
		t.Fatalf("Datasets = %d, want 3", len(infos))
	}
	if infos[0].Name != "WOA/temperature" || !infos[0].Available {
		t.Errorf("first dataset = %+v", infos[0])
	}
	if infos[1].Name != "WOA/salinity" || infos[1].Available || infos[1].Error == "" {
		t.Errorf("second dataset = %+v", infos[1])
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if opener.closed != 3 {
		t.Errorf("closed %d sources, want 3", opener.closed)
	}
}

func TestRegistry_OpenInconsistent(t *testing.T) {
	opener := &fakeOpener{sources: map[string]*memory.Source{
		"/data/a.nc": woaFile("/data/a.nc", 1.5, testLat),
		"/data/b.nc": woaFile("/data/b.nc", 4.5, []float64{-6, 0, 6}),
	}}
	r := NewRegistry(catalog(
		config.DatasetConfig{Family: "WOA", Kind: "temperature", Files: []string{"a.nc", "b.nc"}},
	), opener)
	err := r.Open()
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("Open error = %v, want configuration error", err)
	}
	if opener.closed != 2 {
		t.Errorf("closed %d sources after failure, want 2", opener.closed)
	}
}

func TestRegistry_NoKnownVariables(t *testing.T) {
	src := memory.New("/data/etopo.nc").SetCoords("lat", testLat).SetCoords("lon", testLon)
	grid(src, []string{"lat", "lon"}, 9, "elev")
	r := NewRegistry(catalog(
		config.DatasetConfig{Family: "ETOPO", Kind: "topography", Files: []string{"etopo.nc"}},
	), &fakeOpener{sources: map[string]*memory.Source{"/data/etopo.nc": src}})
	if err := r.Open(); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("Open error = %v, want configuration error", err)
	}
}

func TestRegistry_Extract(t *testing.T) {
	src := memory.New("/data/etopo.nc").SetCoords("lat", testLat).SetCoords("lon", testLon)
	grid(src, []string{"lat", "lon"}, 9, "z")
	r := NewRegistry(catalog(
		config.DatasetConfig{Family: "ETOPO", Kind: "topography", Files: []string{"etopo.nc"}},
	), &fakeOpener{sources: map[string]*memory.Source{"/data/etopo.nc": src}})
	if err := r.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	var p GridProvider = r
	g, err := p.Grid(domain.FamilyETOPO, domain.KindTopography)
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	res, err := g.Extract(engine.Query{Coords: map[domain.Dim][]float64{
		domain.DimLat: {0}, domain.DimLon: {-120},
	}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// lat index 1, lon 240 (index 2) in a 3×3 row-major ramp.
	if v, ok := res.Vars["height"].At(0); !ok || v != 5 {
		t.Errorf("height = %v (valid %v), want 5", v, ok)
	}
}
