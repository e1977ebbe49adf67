package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Family identifies a climatology product.
type Family int

const (
	FamilyWOA Family = iota
	FamilyCARS
	FamilyETOPO
)

var familyNames = map[Family]string{
	FamilyWOA:   "WOA",
	FamilyCARS:  "CARS",
	FamilyETOPO: "ETOPO",
}

func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// ParseFamily parses a family name, case-insensitively.
func ParseFamily(s string) (Family, error) {
	for f, name := range familyNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return 0, Usagef("unknown dataset family %q", s)
}

// Kind identifies the physical quantity of a dataset.
type Kind int

const (
	KindTemperature Kind = iota
	KindSalinity
	KindTopography
)

var kindNames = map[Kind][]string{
	KindTemperature: {"temperature", "sea_water_temperature", "TEMP"},
	KindSalinity:    {"salinity", "sea_water_salinity", "PSAL"},
	KindTopography:  {"topography", "elevation", "bathymetry"},
}

func (k Kind) String() string {
	if names, ok := kindNames[k]; ok {
		return names[0]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses a kind name or one of its aliases.
func ParseKind(s string) (Kind, error) {
	for k, names := range kindNames {
		for _, n := range names {
			if strings.EqualFold(s, n) {
				return k, nil
			}
		}
	}
	return 0, Usagef("unknown dataset kind %q", s)
}

// Strategy selects the interpolation pipeline of a dataset.
type Strategy int

const (
	// StrategyScattered interpolates all varying dimensions jointly.
	StrategyScattered Strategy = iota
	// StrategyStaged interpolates time, then lat/lon, then depth.
	StrategyStaged
)

// VariableSpec describes one canonical variable of a dataset.
type VariableSpec struct {
	Name    string
	FileVar string
	Aliases []string
	Integer bool
	// Harmonic variables are reconstructed from Fourier coefficients.
	Harmonic bool
}

// HarmonicSpec names the Fourier coefficient variables of a dataset.
type HarmonicSpec struct {
	Mean          string
	AnnualCos     string
	AnnualSin     string
	SemiAnnualCos string
	SemiAnnualSin string

	AnnualLevels     int
	SemiAnnualLevels int
}

// DatasetSpec describes a dataset family/kind pair.
type DatasetSpec struct {
	Family Family
	Kind   Kind
	Dims   []Dim

	Variables []VariableSpec
	Strategy  Strategy

	// TimeScale converts a file time value to day of year. Zero means the
	// files carry no time axis.
	TimeScale float64

	Harmonics *HarmonicSpec

	aliases map[string]int
}

// Key is the family/kind pair of a dataset.
type Key struct {
	Family Family
	Kind   Kind
}

func (k Key) String() string { return k.Family.String() + "/" + k.Kind.String() }

// Key returns the dataset key.
func (s DatasetSpec) Key() Key { return Key{Family: s.Family, Kind: s.Kind} }

// Name renders the dataset as family/kind.
func (s DatasetSpec) Name() string { return s.Key().String() }

// HasDim reports whether the dataset is indexed by d.
func (s DatasetSpec) HasDim(d Dim) bool {
	for _, x := range s.Dims {
		if x == d {
			return true
		}
	}
	return false
}

// VariableNames returns the canonical variable names in declaration order.
func (s DatasetSpec) VariableNames() []string {
	names := make([]string, len(s.Variables))
	for i, v := range s.Variables {
		names[i] = v.Name
	}
	return names
}

// Resolve finds a variable by canonical name or alias.
func (s DatasetSpec) Resolve(name string) (VariableSpec, error) {
	if i, ok := s.aliases[name]; ok {
		return s.Variables[i], nil
	}
	return VariableSpec{}, Usagef("%s has no variable %q (have %s)",
		s.Name(), name, strings.Join(s.VariableNames(), ", "))
}

// WithVariables returns a copy of s extended by extra variables, skipping
// names already known.
func (s DatasetSpec) WithVariables(extra ...VariableSpec) DatasetSpec {
	out := s
	out.Variables = append([]VariableSpec(nil), s.Variables...)
	for _, v := range extra {
		if _, ok := s.aliases[v.Name]; ok {
			continue
		}
		out.Variables = append(out.Variables, v)
	}
	out.index()
	return out
}

// Filter returns a copy of s keeping the variables for which keep is true.
func (s DatasetSpec) Filter(keep func(VariableSpec) bool) DatasetSpec {
	out := s
	out.Variables = nil
	for _, v := range s.Variables {
		if keep(v) {
			out.Variables = append(out.Variables, v)
		}
	}
	out.index()
	return out
}

func (s *DatasetSpec) index() {
	s.aliases = make(map[string]int)
	for i, v := range s.Variables {
		s.aliases[v.Name] = i
	}
	for i, v := range s.Variables {
		for _, a := range append([]string{v.FileVar}, v.Aliases...) {
			if _, taken := s.aliases[a]; !taken && a != "" {
				s.aliases[a] = i
			}
		}
	}
}

func woaVariables(prefix string) []VariableSpec {
	return []VariableSpec{
		{Name: "mn", FileVar: prefix + "_mn", Aliases: []string{prefix + "_mn", "mean"}},
		{Name: "an", FileVar: prefix + "_an", Aliases: []string{prefix + "_an"}},
		{Name: "sd", FileVar: prefix + "_sd", Aliases: []string{prefix + "_sd", "std_dev"}},
		{Name: "se", FileVar: prefix + "_se", Aliases: []string{prefix + "_se"}},
		{Name: "dd", FileVar: prefix + "_dd", Aliases: []string{prefix + "_dd", "nq"}, Integer: true},
	}
}

func carsVariables(prefix string) []VariableSpec {
	return []VariableSpec{
		{Name: "mn", FileVar: "mean", Aliases: []string{prefix + "_mn", "mean"}, Harmonic: true},
		{Name: "std_dev", FileVar: "std_dev", Aliases: []string{prefix + "_sd", "sd"}},
		{Name: "nq", FileVar: "nq", Aliases: []string{prefix + "_dd", "dd"}, Integer: true},
	}
}

func carsHarmonics() *HarmonicSpec {
	return &HarmonicSpec{
		Mean:             "mean",
		AnnualCos:        "an_cos",
		AnnualSin:        "an_sin",
		SemiAnnualCos:    "sa_cos",
		SemiAnnualSin:    "sa_sin",
		AnnualLevels:     64,
		SemiAnnualLevels: 55,
	}
}

func builtin() map[Key]DatasetSpec {
	specs := []DatasetSpec{
		{
			Family: FamilyWOA, Kind: KindTemperature,
			Dims:      []Dim{DimTime, DimDepth, DimLat, DimLon},
			Variables: woaVariables("t"),
			Strategy:  StrategyStaged,
			TimeScale: 365.0 / 12.0,
		},
		{
			Family: FamilyWOA, Kind: KindSalinity,
			Dims:      []Dim{DimTime, DimDepth, DimLat, DimLon},
			Variables: woaVariables("s"),
			Strategy:  StrategyStaged,
			TimeScale: 365.0 / 12.0,
		},
		{
			Family: FamilyCARS, Kind: KindTemperature,
			Dims:      []Dim{DimTime, DimDepth, DimLat, DimLon},
			Variables: carsVariables("t"),
			Strategy:  StrategyScattered,
			Harmonics: carsHarmonics(),
		},
		{
			Family: FamilyCARS, Kind: KindSalinity,
			Dims:      []Dim{DimTime, DimDepth, DimLat, DimLon},
			Variables: carsVariables("s"),
			Strategy:  StrategyScattered,
			Harmonics: carsHarmonics(),
		},
		{
			Family: FamilyETOPO, Kind: KindTopography,
			Dims: []Dim{DimLat, DimLon},
			Variables: []VariableSpec{
				{Name: "height", FileVar: "z", Aliases: []string{"elevation", "z", "topography"}},
			},
			Strategy: StrategyScattered,
		},
	}
	out := make(map[Key]DatasetSpec, len(specs))
	for _, s := range specs {
		s.index()
		out[s.Key()] = s
	}
	return out
}

var builtinSpecs = builtin()

// Lookup returns the built-in description of a dataset.
func Lookup(f Family, k Kind) (DatasetSpec, bool) {
	s, ok := builtinSpecs[Key{Family: f, Kind: k}]
	if !ok {
		return DatasetSpec{}, false
	}
	if s.Harmonics != nil {
		h := *s.Harmonics
		s.Harmonics = &h
	}
	return s, true
}

// Keys lists the built-in datasets in family/kind order.
func Keys() []Key {
	keys := make([]Key, 0, len(builtinSpecs))
	for k := range builtinSpecs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Family != keys[j].Family {
			return keys[i].Family < keys[j].Family
		}
		return keys[i].Kind < keys[j].Kind
	})
	return keys
}
