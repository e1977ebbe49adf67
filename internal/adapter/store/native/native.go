// Package native reads climatology grids with a pure-Go NetCDF decoder, for
// deployments built without the netCDF-C library.
//
// The decoder slices the leading dimension only. A read decodes every
// trailing cell of the requested leading range before the hyperslab is cut
// out: a crop of one WOA 5-degree record holds 102x36x72 float32 values
// (about 1 MB) in memory, and a crop of a CARS 0.5-degree variable decodes
// whole 331x720 lat/lon planes per depth level (about 1.9 MB each as
// float64). Use the cgo driver where the netCDF-C library is available.
package native

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"go.ngs.io/oceans-api/internal/domain"
)

// Source is a domain.Source over one NetCDF file.
type Source struct {
	path string

	mu      sync.Mutex
	nc      api.Group
	getters map[string]api.VarGetter
	vars    map[string]domain.VarInfo
	names   []string
}

// Open opens path and indexes its variables.
func Open(path string) (*Source, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	s := &Source{
		path:    path,
		nc:      nc,
		getters: make(map[string]api.VarGetter),
		vars:    make(map[string]domain.VarInfo),
	}
	if err := s.index(); err != nil {
		nc.Close()
		return nil, err
	}
	return s, nil
}

// Opener opens pure-Go sources for the store registry.
var Opener = domain.OpenerFunc(func(path string) (domain.Source, error) {
	return Open(path)
})

func (s *Source) index() error {
	for _, name := range s.nc.ListVariables() {
		vg, err := s.nc.GetVarGetter(name)
		if err != nil {
			return fmt.Errorf("%s: variable %s: %w", s.path, name, err)
		}
		info := domain.VarInfo{Name: name, Scale: 1, Dims: vg.Dimensions()}
		for _, d := range info.Dims {
			n, ok := s.nc.GetDimension(d)
			if !ok {
				return fmt.Errorf("%s: dimension %s of %s not found", s.path, d, name)
			}
			info.Shape = append(info.Shape, int(n)) //nolint:gosec // G115: NetCDF dimension lengths fit in int.
		}
		switch vg.GoType() {
		case "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64":
			info.Integer = true
		}
		attrs := vg.Attributes()
		for _, key := range []string{"_FillValue", "missing_value"} {
			if fv, ok := scalarAttr(attrs, key); ok {
				info.Missing = &fv
				break
			}
		}
		if sf, ok := scalarAttr(attrs, "scale_factor"); ok && sf != 0 {
			info.Scale = sf
		}
		if off, ok := scalarAttr(attrs, "add_offset"); ok {
			info.Offset = off
		}

		s.getters[name] = vg
		s.vars[name] = info
		if len(info.Dims) == 1 && info.Dims[0] == name {
			continue
		}
		s.names = append(s.names, name)
	}
	return nil
}

// scalarAttr reads the first element of a numeric attribute, which the
// decoder returns either as a scalar or as a slice.
func scalarAttr(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	v := reflect.ValueOf(raw)
	if v.Kind() == reflect.Slice {
		if v.Len() == 0 {
			return 0, false
		}
		v = v.Index(0)
	}
	return number(v)
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	}
	return 0, false
}

// Path implements domain.Source.
func (s *Source) Path() string { return s.path }

// Coords implements domain.Source.
func (s *Source) Coords(dim domain.Dim) ([]float64, error) {
	for _, name := range domain.DimNames(dim) {
		info, ok := s.vars[name]
		if !ok || len(info.Shape) != 1 {
			continue
		}
		raw, err := s.Read(name, []int{0}, info.Shape)
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

// Read implements domain.Source. The decoder slices along the leading
// dimension only; the remaining dimensions are cut from the decoded block.
func (s *Source) Read(name string, start, count []int) ([]float64, error) {
	info, ok := s.vars[name]
	if !ok {
		return nil, fmt.Errorf("%s: variable %s not found", s.path, name)
	}
	if len(start) != len(info.Shape) || len(count) != len(info.Shape) {
		return nil, fmt.Errorf("%s: %s has rank %d, got start %v count %v", s.path, name, len(info.Shape), start, count)
	}
	total := 1
	for i := range start {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > info.Shape[i] {
			return nil, fmt.Errorf("%s: %s hyperslab start %v count %v outside shape %v", s.path, name, start, count, info.Shape)
		}
		total *= count[i]
	}
	if total == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var block any
	var err error
	if len(start) == 0 {
		block, err = s.getters[name].Values()
	} else {
		block, err = s.getters[name].GetSlice(int64(start[0]), int64(start[0]+count[0]))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", name, s.path, err)
	}

	out := make([]float64, 0, total)
	var walk func(v reflect.Value, depth int) error
	walk = func(v reflect.Value, depth int) error {
		if depth == len(start) {
			f, ok := number(v)
			if !ok {
				return fmt.Errorf("%s: unsupported element type %s", name, v.Type())
			}
			out = append(out, f)
			return nil
		}
		if v.Kind() != reflect.Slice {
			return fmt.Errorf("%s: expected rank %d, got %s", name, len(start), v.Type())
		}
		lo := start[depth]
		if depth == 0 {
			lo = 0
		}
		for i := lo; i < lo+count[depth]; i++ {
			if err := walk(v.Index(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(reflect.ValueOf(block), 0); err != nil {
		return nil, err
	}
	return out, nil
}

// Close implements domain.Source.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nc.Close()
	return nil
}
