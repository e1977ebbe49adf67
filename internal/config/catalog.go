// Package config describes which climatology files make up each dataset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"go.ngs.io/oceans-api/internal/domain"
)

// DefaultDataDir is where dataset files are looked up when no directory is
// configured.
const DefaultDataDir = "~/.config/oceansdb"

// Catalog lists the configured datasets.
type Catalog struct {
	DataDir  string          `yaml:"data_dir"`
	Datasets []DatasetConfig `yaml:"datasets"`
}

// DatasetConfig configures one family/kind dataset.
type DatasetConfig struct {
	Family string `yaml:"family"`
	Kind   string `yaml:"kind"`
	// Files are opened in order; relative paths are resolved against the
	// catalog data directory. WOA datasets have one file per season.
	Files []string `yaml:"files"`

	// Overrides of the built-in description.
	AnnualLevels     int     `yaml:"annual_levels,omitempty"`
	SemiAnnualLevels int     `yaml:"semiannual_levels,omitempty"`
	TimeScale        float64 `yaml:"time_scale,omitempty"`
}

// Default returns the built-in catalog: WOA13 seasonal 5° files, CARS2009
// and ETOPO5.
func Default(dataDir string) *Catalog {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	woa := func(v string) []string {
		files := make([]string, 0, 4)
		for season := 13; season <= 16; season++ {
			files = append(files, fmt.Sprintf("woa13_decav_%s%02d_5dv2.nc", v, season))
		}
		return files
	}
	return &Catalog{
		DataDir: dataDir,
		Datasets: []DatasetConfig{
			{Family: "WOA", Kind: "temperature", Files: woa("t")},
			{Family: "WOA", Kind: "salinity", Files: woa("s")},
			{Family: "CARS", Kind: "temperature", Files: []string{"temperature_cars2009a.nc"}},
			{Family: "CARS", Kind: "salinity", Files: []string{"salinity_cars2009a.nc"}},
			{Family: "ETOPO", Kind: "topography", Files: []string{"etopo5.nc"}},
		},
	}
}

// Load reads a YAML catalog. An empty data_dir falls back to dataDir.
func Load(path, dataDir string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, domain.Configf("failed to parse catalog %s: %v", path, err)
	}
	if c.DataDir == "" {
		c.DataDir = dataDir
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every dataset entry and rejects duplicates.
func (c *Catalog) Validate() error {
	seen := make(map[domain.Key]bool)
	for i, d := range c.Datasets {
		spec, err := d.Spec()
		if err != nil {
			return domain.Configf("dataset %d: %v", i, err)
		}
		if seen[spec.Key()] {
			return domain.Configf("dataset %s configured twice", spec.Name())
		}
		seen[spec.Key()] = true
		if len(d.Files) == 0 {
			return domain.Configf("dataset %s has no files", spec.Name())
		}
	}
	return nil
}

// Spec returns the built-in description of the dataset with the
// configured overrides applied.
func (d DatasetConfig) Spec() (domain.DatasetSpec, error) {
	f, err := domain.ParseFamily(d.Family)
	if err != nil {
		return domain.DatasetSpec{}, err
	}
	k, err := domain.ParseKind(d.Kind)
	if err != nil {
		return domain.DatasetSpec{}, err
	}
	spec, ok := domain.Lookup(f, k)
	if !ok {
		return domain.DatasetSpec{}, domain.Configf("unsupported dataset %s/%s", f, k)
	}
	if d.TimeScale < 0 || d.AnnualLevels < 0 || d.SemiAnnualLevels < 0 {
		return domain.DatasetSpec{}, domain.Configf("%s: overrides must not be negative", spec.Name())
	}
	if d.TimeScale > 0 {
		spec.TimeScale = d.TimeScale
	}
	if spec.Harmonics != nil {
		if d.AnnualLevels > 0 {
			spec.Harmonics.AnnualLevels = d.AnnualLevels
		}
		if d.SemiAnnualLevels > 0 {
			spec.Harmonics.SemiAnnualLevels = d.SemiAnnualLevels
		}
	}
	return spec, nil
}

// Paths resolves the files of d against the data directory.
func (c *Catalog) Paths(d DatasetConfig) []string {
	dir := ExpandHome(c.DataDir)
	out := make([]string, len(d.Files))
	for i, f := range d.Files {
		f = ExpandHome(f)
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}
		out[i] = f
	}
	return out
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
