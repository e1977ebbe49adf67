package domain

// VarInfo describes a variable stored in a Source.
type VarInfo struct {
	Name string
	// Dims are the storage dimension names, outermost first.
	Dims  []string
	Shape []int
	// Missing is the declared fill marker in raw (packed) units.
	Missing *float64
	// Scale and Offset unpack raw values: v = raw*Scale + Offset.
	Scale   float64
	Offset  float64
	Integer bool
}

// Unpack converts a raw value to physical units.
func (v VarInfo) Unpack(raw float64) float64 {
	scale := v.Scale
	if scale == 0 {
		scale = 1
	}
	return raw*scale + v.Offset
}

// IsMissing reports whether a raw value is the declared fill marker.
func (v VarInfo) IsMissing(raw float64) bool {
	return v.Missing != nil && raw == *v.Missing
}

// Source is one physical grid file.
type Source interface {
	// Path identifies the source in logs and errors.
	Path() string

	// Coords returns the 1-D coordinate array of a dimension.
	Coords(dim Dim) ([]float64, error)

	// Vars lists the data variables (coordinate variables excluded).
	Vars() []string

	// Var describes one variable.
	Var(name string) (VarInfo, error)

	// Read returns the raw hyperslab start[i]..start[i]+count[i] of a
	// variable, flattened row-major in storage dimension order.
	Read(name string, start, count []int) ([]float64, error)

	// Close releases the underlying file.
	Close() error
}

// Opener opens a Source from a path.
type Opener interface {
	Open(path string) (Source, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Source, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Source, error) { return f(path) }
