package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"go.ngs.io/oceans-api/internal/adapter/store"
	"go.ngs.io/oceans-api/internal/adapter/store/memory"
	"go.ngs.io/oceans-api/internal/domain"
	"go.ngs.io/oceans-api/internal/engine"
	"go.ngs.io/oceans-api/internal/usecase"
)

type fakeGrids struct {
	grids map[domain.Key]*engine.Grid
	down  map[domain.Key]bool
}

func (f fakeGrids) Grid(fam domain.Family, k domain.Kind) (*engine.Grid, error) {
	key := domain.Key{Family: fam, Kind: k}
	if g, ok := f.grids[key]; ok {
		return g, nil
	}
	if f.down[key] {
		return nil, &domain.SourceUnavailableError{Dataset: key.String()}
	}
	return nil, &domain.SourceUnavailableError{Dataset: key.String(), Err: store.ErrNotConfigured}
}

func (f fakeGrids) Datasets() []store.DatasetInfo {
	var out []store.DatasetInfo
	for k, g := range f.grids {
		out = append(out, store.DatasetInfo{
			Name: k.String(), Family: k.Family, Kind: k.Kind,
			Dims: g.Spec.Dims, Variables: g.Spec.VariableNames(), Available: true,
		})
	}
	return out
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	src := memory.New("etopo").
		SetCoords("lat", []float64{-1, 0, 1}).
		SetCoords("lon", []float64{0, 120, 240})
	z := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if err := src.SetVar("z", []string{"lat", "lon"}, z, nil); err != nil {
		t.Fatal(err)
	}
	spec, _ := domain.Lookup(domain.FamilyETOPO, domain.KindTopography)
	g, err := engine.Load(spec, []domain.Source{src})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	grids := fakeGrids{
		grids: map[domain.Key]*engine.Grid{{Family: domain.FamilyETOPO, Kind: domain.KindTopography}: g},
		down:  map[domain.Key]bool{{Family: domain.FamilyCARS, Kind: domain.KindSalinity}: true},
	}
	return SetupRouter(usecase.NewExtractionUseCase(grids))
}

func get(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetExtract(t *testing.T) {
	router := setupRouter(t)
	w := get(t, router, "/v1/etopo/topography/extract?lat=0&lon=-120,120&var=z")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var resp usecase.ExtractionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	h := resp.Variables["height"]
	if len(h.Values) != 2 || *h.Values[0] != 6 || *h.Values[1] != 5 {
		t.Errorf("height = %+v", h)
	}
}

func TestGetTrack(t *testing.T) {
	router := setupRouter(t)
	w := get(t, router, "/v1/ETOPO/elevation/track?lat=-1&lat=1&lon=0&lon=240&mode=nearest")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp usecase.ExtractionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	h := resp.Variables["height"]
	if len(h.Values) != 2 || *h.Values[0] != 1 || *h.Values[1] != 9 {
		t.Errorf("height = %+v", h)
	}
}

func TestGetExtract_Errors(t *testing.T) {
	router := setupRouter(t)
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"unknown key", "/v1/etopo/topography/extract?lat=0&lon=0&x=1", http.StatusBadRequest},
		{"bad number", "/v1/etopo/topography/extract?lat=north&lon=0", http.StatusBadRequest},
		{"latitude range", "/v1/etopo/topography/extract?lat=95&lon=0", http.StatusBadRequest},
		{"unknown family", "/v1/hycom/temperature/extract?lat=0&lon=0", http.StatusBadRequest},
		{"unknown variable", "/v1/etopo/topography/extract?lat=0&lon=0&var=t_mn", http.StatusBadRequest},
		{"not configured", "/v1/woa/temperature/extract?lat=0&lon=0&doy=1", http.StatusNotFound},
		{"unavailable", "/v1/cars/salinity/extract?lat=0&lon=0&doy=1", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, tt.url)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), "error") {
				t.Errorf("body %s has no error", w.Body.String())
			}
		})
	}
}

func TestGetDatasets(t *testing.T) {
	router := setupRouter(t)
	w := get(t, router, "/v1/datasets")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Datasets []DatasetResponse `json:"datasets"`
		Count    int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Datasets[0].Name != "ETOPO/topography" || body.Datasets[0].Variables[0] != "height" {
		t.Errorf("datasets = %+v", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupRouter(t)
	if w := get(t, router, "/health"); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
	get(t, router, "/v1/etopo/topography/extract?lat=0&lon=0")
	w := get(t, router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "oceans_extraction_total") {
		t.Error("metrics do not expose extraction counter")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	router := setupRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}
