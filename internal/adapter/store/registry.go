// Package store opens the configured climatology datasets.
package store

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"go.ngs.io/oceans-api/internal/config"
	"go.ngs.io/oceans-api/internal/domain"
	"go.ngs.io/oceans-api/internal/engine"
)

// ErrNotConfigured is wrapped by the SourceUnavailableError returned for
// datasets missing from the catalog.
var ErrNotConfigured = errors.New("dataset not configured")

// GridProvider resolves a dataset to its loaded grid.
type GridProvider interface {
	Grid(f domain.Family, k domain.Kind) (*engine.Grid, error)
	Datasets() []DatasetInfo
}

// DatasetInfo summarises one configured dataset.
type DatasetInfo struct {
	Name      string
	Family    domain.Family
	Kind      domain.Kind
	Dims      []domain.Dim
	Variables []string
	Files     []string
	Available bool
	Error     string
}

// Registry owns the sources of every configured dataset. Open loads them
// all once; Close releases them.
type Registry struct {
	catalog *config.Catalog
	opener  domain.Opener

	mu       sync.RWMutex
	grids    map[domain.Key]*engine.Grid
	failures map[domain.Key]error
	infos    map[domain.Key]DatasetInfo
}

// NewRegistry creates a registry for the catalog. Nothing is opened until
// Open is called.
func NewRegistry(catalog *config.Catalog, opener domain.Opener) *Registry {
	return &Registry{
		catalog:  catalog,
		opener:   opener,
		grids:    make(map[domain.Key]*engine.Grid),
		failures: make(map[domain.Key]error),
		infos:    make(map[domain.Key]DatasetInfo),
	}
}

// Open opens every dataset of the catalog. Datasets whose files cannot be
// opened are skipped with a warning and reported as unavailable on use;
// a catalog entry that is invalid or whose files disagree fails Open.
func (r *Registry) Open() error {
	if err := r.catalog.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.catalog.Datasets {
		spec, err := d.Spec()
		if err != nil {
			return err
		}
		key := spec.Key()
		paths := r.catalog.Paths(d)
		info := DatasetInfo{
			Name:   spec.Name(),
			Family: spec.Family,
			Kind:   spec.Kind,
			Dims:   spec.Dims,
			Files:  paths,
		}

		g, err := r.load(spec, paths)
		switch {
		case errors.Is(err, domain.ErrConfig):
			return err
		case err != nil:
			log.Printf("Warning: dataset %s unavailable: %v", spec.Name(), err)
			r.failures[key] = err
			info.Error = err.Error()
		default:
			r.grids[key] = g
			info.Available = true
			info.Variables = g.Spec.VariableNames()
			log.Printf("Loaded %s: %d record(s), variables %v", spec.Name(), g.Records(), info.Variables)
		}
		r.infos[key] = info
	}
	return nil
}

func (r *Registry) load(spec domain.DatasetSpec, paths []string) (*engine.Grid, error) {
	sources := make([]domain.Source, 0, len(paths))
	closeAll := func() {
		for _, s := range sources {
			_ = s.Close()
		}
	}
	for _, p := range paths {
		src, err := r.opener.Open(p)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open %s: %w", p, err)
		}
		sources = append(sources, src)
	}

	spec = availableVariables(spec, sources[0])
	if len(spec.Variables) == 0 {
		closeAll()
		return nil, domain.Configf("%s: %s holds none of the dataset variables", spec.Name(), sources[0].Path())
	}
	g, err := engine.Load(spec, sources)
	if err != nil {
		closeAll()
		return nil, err
	}
	return g, nil
}

// availableVariables drops variables missing from src and, for harmonic
// datasets, adds every other (depth, lat, lon) variable of the file.
func availableVariables(spec domain.DatasetSpec, src domain.Source) domain.DatasetSpec {
	has := func(name string) bool {
		_, err := src.Var(name)
		return err == nil
	}
	h := spec.Harmonics
	spec = spec.Filter(func(v domain.VariableSpec) bool {
		ok := has(v.FileVar)
		if v.Harmonic && h != nil {
			ok = ok && has(h.AnnualCos) && has(h.AnnualSin) && has(h.SemiAnnualCos) && has(h.SemiAnnualSin)
		}
		if !ok {
			log.Printf("Warning: %s: variable %s not found in %s", spec.Name(), v.FileVar, src.Path())
		}
		return ok
	})
	if h == nil {
		return spec
	}

	coefficients := map[string]bool{
		h.Mean: true, h.AnnualCos: true, h.AnnualSin: true, h.SemiAnnualCos: true, h.SemiAnnualSin: true,
	}
	var extra []domain.VariableSpec
	for _, name := range src.Vars() {
		if coefficients[name] {
			continue
		}
		info, err := src.Var(name)
		if err != nil || !spatial(info.Dims) {
			continue
		}
		extra = append(extra, domain.VariableSpec{Name: name, FileVar: name, Integer: info.Integer})
	}
	return spec.WithVariables(extra...)
}

func spatial(dims []string) bool {
	want := []domain.Dim{domain.DimDepth, domain.DimLat, domain.DimLon}
	if len(dims) != len(want) {
		return false
	}
	for i, d := range dims {
		if c, ok := domain.CanonicalDim(d); !ok || c != want[i] {
			return false
		}
	}
	return true
}

// Grid implements GridProvider.
func (r *Registry) Grid(f domain.Family, k domain.Kind) (*engine.Grid, error) {
	key := domain.Key{Family: f, Kind: k}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.grids[key]; ok {
		return g, nil
	}
	if err, ok := r.failures[key]; ok {
		return nil, &domain.SourceUnavailableError{Dataset: key.String(), Err: err}
	}
	return nil, &domain.SourceUnavailableError{Dataset: key.String(), Err: ErrNotConfigured}
}

// Datasets implements GridProvider, in family/kind order.
func (r *Registry) Datasets() []DatasetInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DatasetInfo, 0, len(r.infos))
	for _, info := range r.infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Close releases every open source.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for key, g := range r.grids {
		for _, s := range g.Sources() {
			if err := s.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close %s: %w", s.Path(), err))
			}
		}
		delete(r.grids, key)
	}
	return errors.Join(errs...)
}
