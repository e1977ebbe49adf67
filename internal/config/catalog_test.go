package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.ngs.io/oceans-api/internal/domain"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default("")
	if c.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", c.DataDir, DefaultDataDir)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(c.Datasets) != 5 {
		t.Fatalf("datasets = %d, want 5", len(c.Datasets))
	}
	woa := c.Datasets[0]
	if len(woa.Files) != 4 || woa.Files[0] != "woa13_decav_t13_5dv2.nc" || woa.Files[3] != "woa13_decav_t16_5dv2.nc" {
		t.Errorf("WOA files = %v", woa.Files)
	}
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `
data_dir: /srv/oceans
datasets:
  - family: cars
    kind: TEMP
    files: [temperature_cars2009a.nc]
    annual_levels: 10
    semiannual_levels: 5
  - family: WOA
    kind: salinity
    files: [a.nc, /abs/b.nc]
    time_scale: 1
`)
	c, err := Load(path, "/ignored")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DataDir != "/srv/oceans" {
		t.Errorf("DataDir = %q", c.DataDir)
	}

	spec, err := c.Datasets[0].Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.Family != domain.FamilyCARS || spec.Kind != domain.KindTemperature {
		t.Errorf("key = %v", spec.Key())
	}
	if spec.Harmonics.AnnualLevels != 10 || spec.Harmonics.SemiAnnualLevels != 5 {
		t.Errorf("levels = %d/%d, want 10/5", spec.Harmonics.AnnualLevels, spec.Harmonics.SemiAnnualLevels)
	}
	// Overrides must not leak into the built-in description.
	builtin, _ := domain.Lookup(domain.FamilyCARS, domain.KindTemperature)
	if builtin.Harmonics.AnnualLevels != 64 {
		t.Errorf("built-in annual levels changed to %d", builtin.Harmonics.AnnualLevels)
	}

	woa, _ := c.Datasets[1].Spec()
	if woa.TimeScale != 1 {
		t.Errorf("TimeScale = %v, want 1", woa.TimeScale)
	}
	paths := c.Paths(c.Datasets[1])
	if paths[0] != filepath.Join("/srv/oceans", "a.nc") || paths[1] != "/abs/b.nc" {
		t.Errorf("Paths = %v", paths)
	}
}

func TestLoad_DataDirFallback(t *testing.T) {
	path := writeCatalog(t, "datasets:\n  - {family: ETOPO, kind: topography, files: [etopo5.nc]}\n")
	c, err := Load(path, "/data")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DataDir != "/data" {
		t.Errorf("DataDir = %q, want /data", c.DataDir)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "datasets: [\n"},
		{"unknown family", "datasets:\n  - {family: HYCOM, kind: temperature, files: [a.nc]}\n"},
		{"unsupported pair", "datasets:\n  - {family: ETOPO, kind: salinity, files: [a.nc]}\n"},
		{"no files", "datasets:\n  - {family: WOA, kind: temperature}\n"},
		{"duplicate", "datasets:\n  - {family: WOA, kind: temperature, files: [a.nc]}\n  - {family: woa, kind: TEMP, files: [b.nc]}\n"},
		{"negative override", "datasets:\n  - {family: WOA, kind: temperature, files: [a.nc], time_scale: -1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, tt.body), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrConfig) && !errors.Is(err, domain.ErrUsage) {
				t.Errorf("error %v is neither a configuration nor a usage error", err)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/.config/oceansdb"); got != filepath.Join(home, ".config/oceansdb") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs/~x"); got != "/abs/~x" {
		t.Errorf("ExpandHome(abs) = %q", got)
	}
}
