package usecase

import (
	"errors"
	"testing"

	"go.ngs.io/oceans-api/internal/adapter/store"
	"go.ngs.io/oceans-api/internal/adapter/store/memory"
	"go.ngs.io/oceans-api/internal/domain"
	"go.ngs.io/oceans-api/internal/engine"
)

type fakeGrids map[domain.Key]*engine.Grid

func (f fakeGrids) Grid(fam domain.Family, k domain.Kind) (*engine.Grid, error) {
	key := domain.Key{Family: fam, Kind: k}
	if g, ok := f[key]; ok {
		return g, nil
	}
	return nil, &domain.SourceUnavailableError{Dataset: key.String(), Err: store.ErrNotConfigured}
}

func (f fakeGrids) Datasets() []store.DatasetInfo {
	var out []store.DatasetInfo
	for k, g := range f {
		out = append(out, store.DatasetInfo{Name: k.String(), Family: k.Family, Kind: k.Kind, Available: true, Variables: g.Spec.VariableNames()})
	}
	return out
}

var (
	topoLat = []float64{-10, 0, 10}
	topoLon = []float64{0, 90, 180, 270}
)

func topoHeight(lat, lon float64) float64 { return 10*lat + lon }

// topoGrid has land missing at (10, 270).
func topoGrid(t *testing.T) *engine.Grid {
	t.Helper()
	const fill = -9999
	src := memory.New("etopo").SetCoords("lat", topoLat).SetCoords("lon", topoLon)
	var z []float64
	for _, la := range topoLat {
		for _, lo := range topoLon {
			if la == 10 && lo == 270 {
				z = append(z, fill)
				continue
			}
			z = append(z, topoHeight(la, lo))
		}
	}
	missing := float64(fill)
	if err := src.SetVar("z", []string{"lat", "lon"}, z, &missing); err != nil {
		t.Fatal(err)
	}
	spec, _ := domain.Lookup(domain.FamilyETOPO, domain.KindTopography)
	g, err := engine.Load(spec, []domain.Source{src})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return g
}

func newUseCase(t *testing.T) *ExtractionUseCase {
	return NewExtractionUseCase(fakeGrids{
		{Family: domain.FamilyETOPO, Kind: domain.KindTopography}: topoGrid(t),
	})
}

func TestExecute_Grid(t *testing.T) {
	uc := newUseCase(t)
	resp, err := uc.Execute(ExtractionRequest{
		Family: domain.FamilyETOPO, Kind: domain.KindTopography,
		Lat: []float64{0, 10}, Lon: []float64{-90, 90},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Dataset != "ETOPO/topography" || resp.Mode != "interpolate" {
		t.Errorf("dataset/mode = %s/%s", resp.Dataset, resp.Mode)
	}
	h, ok := resp.Variables["height"]
	if !ok {
		t.Fatalf("missing height in %v", resp.Order)
	}
	if len(h.Shape) != 2 || h.Shape[0] != 2 || h.Shape[1] != 2 {
		t.Fatalf("shape = %v, want [2 2]", h.Shape)
	}
	want := []*float64{ptr(topoHeight(0, 270)), ptr(topoHeight(0, 90)), nil, ptr(topoHeight(10, 90))}
	for i, w := range want {
		switch {
		case w == nil && h.Values[i] != nil:
			t.Errorf("value %d = %v, want masked", i, *h.Values[i])
		case w != nil && (h.Values[i] == nil || *h.Values[i] != *w):
			t.Errorf("value %d = %v, want %v", i, h.Values[i], *w)
		}
	}
	if lon := resp.Coordinates["lon"]; len(lon) != 2 || lon[0] != -90 {
		t.Errorf("lon coordinates = %v", lon)
	}
}

func TestExecute_TrackAndNearest(t *testing.T) {
	uc := newUseCase(t)
	resp, err := uc.Execute(ExtractionRequest{
		Family: domain.FamilyETOPO, Kind: domain.KindTopography,
		Vars: []string{"elevation"},
		Lat:  []float64{1, 9}, Lon: []float64{89, 181},
		Mode: "nearest", Track: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	h := resp.Variables["height"]
	if len(h.Shape) != 1 || h.Shape[0] != 2 {
		t.Fatalf("shape = %v, want [2]", h.Shape)
	}
	if *h.Values[0] != topoHeight(0, 90) || *h.Values[1] != topoHeight(10, 180) {
		t.Errorf("values = %v, %v", *h.Values[0], *h.Values[1])
	}
	if !resp.Track || resp.Mode != "nearest" {
		t.Errorf("track/mode = %v/%s", resp.Track, resp.Mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  ExtractionRequest
		want error
	}{
		{"ok", ExtractionRequest{Lat: []float64{0}, Lon: []float64{0}}, nil},
		{"doy and date", ExtractionRequest{DOY: []float64{1}, Dates: []string{"2024-01-01"}}, domain.ErrUsage},
		{"bad mode", ExtractionRequest{Mode: "cubic"}, domain.ErrUsage},
		{"latitude", ExtractionRequest{Lat: []float64{91}}, domain.ErrRange},
		{"negative depth", ExtractionRequest{Depth: []float64{-1}}, domain.ErrRange},
		{"track lengths", ExtractionRequest{Track: true, Lat: []float64{0, 1}, Lon: []float64{0}}, domain.ErrUsage},
		{"track times", ExtractionRequest{Track: true, DOY: []float64{1, 2, 3}, Lat: []float64{0, 1}, Lon: []float64{0, 1}}, domain.ErrUsage},
		{"track shared time", ExtractionRequest{Track: true, DOY: []float64{1}, Lat: []float64{0, 1}, Lon: []float64{0, 1}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExecute_Errors(t *testing.T) {
	uc := newUseCase(t)
	_, err := uc.Execute(ExtractionRequest{Family: domain.FamilyWOA, Kind: domain.KindTemperature, Lat: []float64{0}, Lon: []float64{0}})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("unconfigured dataset error = %v", err)
	}
	_, err = uc.Execute(ExtractionRequest{Family: domain.FamilyETOPO, Kind: domain.KindTopography, DOY: []float64{10}, Lat: []float64{0}, Lon: []float64{0}})
	if !errors.Is(err, domain.ErrUsage) {
		t.Errorf("time on static dataset error = %v, want usage error", err)
	}
	_, err = uc.Execute(ExtractionRequest{Family: domain.FamilyETOPO, Kind: domain.KindTopography, Dates: []string{"not a date"}, Lat: []float64{0}, Lon: []float64{0}})
	if !errors.Is(err, domain.ErrUsage) {
		t.Errorf("bad date error = %v, want usage error", err)
	}
}

func TestTimes(t *testing.T) {
	req := ExtractionRequest{Dates: []string{"2024-12-31", "2023-02-01"}}
	got, err := req.times()
	if err != nil {
		t.Fatalf("times: %v", err)
	}
	if got[0] != 366 || got[1] != 32 {
		t.Errorf("times = %v, want [366 32]", got)
	}
}

func ptr(v float64) *float64 { return &v }
