// Package memory provides an in-memory grid source.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"go.ngs.io/oceans-api/internal/domain"
)

type variable struct {
	info   domain.VarInfo
	values []float64
}

// Source is a domain.Source backed by slices. It is safe for concurrent use.
type Source struct {
	path string

	mu     sync.RWMutex
	coords map[string][]float64
	vars   map[string]*variable
}

// New creates an empty source.
func New(path string) *Source {
	return &Source{
		path:   path,
		coords: make(map[string][]float64),
		vars:   make(map[string]*variable),
	}
}

// SetCoords stores a coordinate array under a storage dimension name.
func (s *Source) SetCoords(name string, values []float64) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coords[name] = append([]float64(nil), values...)
	return s
}

// SetVar stores a variable laid out row-major over dims. Every dimension
// must already have coordinates.
func (s *Source) SetVar(name string, dims []string, values []float64, missing *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shape := make([]int, len(dims))
	n := 1
	for i, d := range dims {
		c, ok := s.coords[d]
		if !ok {
			return fmt.Errorf("variable %s: dimension %s has no coordinates", name, d)
		}
		shape[i] = len(c)
		n *= len(c)
	}
	if len(values) != n {
		return fmt.Errorf("variable %s: expected %d values, got %d", name, n, len(values))
	}
	s.vars[name] = &variable{
		info: domain.VarInfo{
			Name:    name,
			Dims:    append([]string(nil), dims...),
			Shape:   shape,
			Missing: missing,
			Scale:   1,
		},
		values: append([]float64(nil), values...),
	}
	return nil
}

// MarkInteger flags a stored variable as integer typed.
func (s *Source) MarkInteger(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vars[name]; ok {
		v.info.Integer = true
	}
}

// Path implements domain.Source.
func (s *Source) Path() string { return s.path }

// Coords implements domain.Source.
func (s *Source) Coords(dim domain.Dim) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range domain.DimNames(dim) {
		if c, ok := s.coords[name]; ok {
			return append([]float64(nil), c...), nil
		}
	}
	return nil, fmt.Errorf("%s: no coordinates for %s", s.path, dim)
}

// Vars implements domain.Source.
func (s *Source) Vars() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Var implements domain.Source.
func (s *Source) Var(name string) (domain.VarInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	if !ok {
		return domain.VarInfo{}, fmt.Errorf("%s: variable %s not found", s.path, name)
	}
	return v.info, nil
}

// Read implements domain.Source.
func (s *Source) Read(name string, start, count []int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	if !ok {
		return nil, fmt.Errorf("%s: variable %s not found", s.path, name)
	}
	shape := v.info.Shape
	if len(start) != len(shape) || len(count) != len(shape) {
		return nil, fmt.Errorf("variable %s: expected %d dimensions, got start %d count %d",
			name, len(shape), len(start), len(count))
	}
	n := 1
	for i := range shape {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > shape[i] {
			return nil, fmt.Errorf("variable %s: hyperslab [%d, +%d) out of bounds on dim %d (len %d)",
				name, start[i], count[i], i, shape[i])
		}
		n *= count[i]
	}

	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	out := make([]float64, 0, n)
	idx := make([]int, len(shape))
	for k := 0; k < n; k++ {
		off := 0
		for i := range idx {
			off += (start[i] + idx[i]) * strides[i]
		}
		out = append(out, v.values[off])
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < count[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out, nil
}

// Close implements domain.Source.
func (s *Source) Close() error { return nil }

var _ domain.Source = (*Source)(nil)
