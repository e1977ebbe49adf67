// Package netcdf reads climatology grids from NetCDF files through the
// netCDF-C library.
package netcdf

import (
	"fmt"
	"sync"

	cdf "github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/oceans-api/internal/domain"
)

// Source is a domain.Source over one NetCDF file. The C library is not
// thread-safe, so every call holds the source mutex.
type Source struct {
	path string

	mu   sync.Mutex
	ds   cdf.Dataset
	vars map[string]domain.VarInfo
	// coordinate variables, keyed by name
	coords map[string]bool
	names  []string
}

// Open opens path read-only and indexes its variables.
func Open(path string) (*Source, error) {
	ds, err := cdf.OpenFile(path, cdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	s := &Source{
		path:   path,
		ds:     ds,
		vars:   make(map[string]domain.VarInfo),
		coords: make(map[string]bool),
	}
	if err := s.index(); err != nil {
		_ = ds.Close()
		return nil, err
	}
	return s, nil
}

// Opener opens NetCDF sources for the store registry.
var Opener = domain.OpenerFunc(func(path string) (domain.Source, error) {
	return Open(path)
})

func (s *Source) index() error {
	n, err := s.ds.NVars()
	if err != nil {
		return fmt.Errorf("failed to count variables in %s: %w", s.path, err)
	}
	for i := 0; i < n; i++ {
		v := s.ds.VarN(i)
		info, err := describe(v)
		if err != nil {
			return fmt.Errorf("%s: %w", s.path, err)
		}
		s.vars[info.Name] = info
		if len(info.Dims) == 1 && info.Dims[0] == info.Name {
			s.coords[info.Name] = true
			continue
		}
		s.names = append(s.names, info.Name)
	}
	return nil
}

func describe(v cdf.Var) (domain.VarInfo, error) {
	name, err := v.Name()
	if err != nil {
		return domain.VarInfo{}, fmt.Errorf("failed to get variable name: %w", err)
	}
	info := domain.VarInfo{Name: name, Scale: 1}

	dims, err := v.Dims()
	if err != nil {
		return info, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	for _, d := range dims {
		dn, err := d.Name()
		if err != nil {
			return info, fmt.Errorf("failed to get dimension name of %s: %w", name, err)
		}
		length, err := d.Len()
		if err != nil {
			return info, fmt.Errorf("failed to get dimension length of %s: %w", name, err)
		}
		info.Dims = append(info.Dims, dn)
		info.Shape = append(info.Shape, int(length)) //nolint:gosec // G115: NetCDF dimension lengths fit in int.
	}

	t, err := v.Type()
	if err != nil {
		return info, fmt.Errorf("failed to get type of %s: %w", name, err)
	}
	switch t {
	case cdf.INT, cdf.SHORT:
		info.Integer = true
	}

	if fv, ok := getFillValue(v); ok {
		info.Missing = &fv
	}
	if sf, ok := readScalarAttr(v, "scale_factor"); ok && sf != 0 {
		info.Scale = sf
	}
	if off, ok := readScalarAttr(v, "add_offset"); ok {
		info.Offset = off
	}
	return info, nil
}

// Path implements domain.Source.
func (s *Source) Path() string { return s.path }

// Coords implements domain.Source. Coordinates are unpacked with their
// scale_factor and add_offset.
func (s *Source) Coords(dim domain.Dim) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range domain.DimNames(dim) {
		info, ok := s.vars[name]
		if !ok || len(info.Shape) != 1 {
			continue
		}
		raw, err := s.read(name, []int{0}, info.Shape)
		if err != nil {
			return nil, err
		}
		for i, r := range raw {
			raw[i] = info.Unpack(r)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%s: %s coordinate variable not found (tried: %v)", s.path, dim, domain.DimNames(dim))
}

// Vars implements domain.Source.
func (s *Source) Vars() []string {
	return append([]string(nil), s.names...)
}

// Var implements domain.Source.
func (s *Source) Var(name string) (domain.VarInfo, error) {
	info, ok := s.vars[name]
	if !ok {
		return domain.VarInfo{}, fmt.Errorf("%s: variable %s not found", s.path, name)
	}
	return info, nil
}

// Read implements domain.Source with a hyperslab read.
func (s *Source) Read(name string, start, count []int) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(name, start, count)
}

func (s *Source) read(name string, start, count []int) ([]float64, error) {
	v, err := s.ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %s not found: %w", s.path, name, err)
	}
	if len(start) != len(count) {
		return nil, fmt.Errorf("%s: start and count differ in rank", name)
	}
	st := make([]uint64, len(start))
	ct := make([]uint64, len(count))
	total := 1
	for i := range start {
		st[i] = uint64(start[i]) //nolint:gosec // G115: Safe int to uint64 conversion for NetCDF indices.
		ct[i] = uint64(count[i]) //nolint:gosec // G115: Safe int to uint64 conversion for NetCDF dimensions.
		total *= count[i]
	}
	if total == 0 {
		return nil, nil
	}

	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}
	out := make([]float64, total)
	switch varType {
	case cdf.DOUBLE:
		if err := v.ReadFloat64Slice(out, st, ct); err != nil {
			return nil, fmt.Errorf("failed to read float64 subset of %s: %w", name, err)
		}
	case cdf.FLOAT:
		buf := make([]float32, total)
		if err := v.ReadFloat32Slice(buf, st, ct); err != nil {
			return nil, fmt.Errorf("failed to read float32 subset of %s: %w", name, err)
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	case cdf.INT:
		buf := make([]int32, total)
		if err := v.ReadInt32Slice(buf, st, ct); err != nil {
			return nil, fmt.Errorf("failed to read int32 subset of %s: %w", name, err)
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	case cdf.SHORT:
		buf := make([]int16, total)
		if err := v.ReadInt16Slice(buf, st, ct); err != nil {
			return nil, fmt.Errorf("failed to read int16 subset of %s: %w", name, err)
		}
		for i, val := range buf {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported data type of %s: %v (expected DOUBLE, FLOAT, INT, or SHORT)", name, varType)
	}
	return out, nil
}

// Close implements domain.Source.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds.Close()
}

// getFillValue returns the _FillValue or missing_value attribute if present.
func getFillValue(v cdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		if fv, ok := readScalarAttr(v, name); ok {
			return fv, true
		}
	}
	return 0, false
}

// readScalarAttr reads the first element of a numeric attribute.
func readScalarAttr(v cdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, n)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, n)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, n)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	bufs := make([]int16, n)
	if err := a.ReadInt16s(bufs); err == nil {
		return float64(bufs[0]), true
	}
	return 0, false
}

var _ domain.Source = (*Source)(nil)
