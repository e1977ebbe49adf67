package domain

import "math"

// Dim names a grid dimension.
type Dim string

const (
	DimTime  Dim = "time"
	DimDepth Dim = "depth"
	DimLat   Dim = "lat"
	DimLon   Dim = "lon"
)

// Periods of the cyclic dimensions.
const (
	LonPeriod      = 360.0
	YearPeriod     = 365.25
	HarmonicPeriod = 366.0
)

// AllDims lists the dimensions in storage order.
var AllDims = []Dim{DimTime, DimDepth, DimLat, DimLon}

// dimNames holds the storage names each dimension is known by, most common first.
var dimNames = map[Dim][]string{
	DimTime:  {"time", "t"},
	DimDepth: {"depth", "depth_ann", "depth_semiann"},
	DimLat:   {"lat", "latitude", "y"},
	DimLon:   {"lon", "longitude", "x"},
}

// DimNames returns the storage names accepted for d.
func DimNames(d Dim) []string {
	return dimNames[d]
}

// CanonicalDim maps a storage dimension name to its dimension.
func CanonicalDim(name string) (Dim, bool) {
	for _, d := range AllDims {
		for _, n := range dimNames[d] {
			if n == name {
				return d, true
			}
		}
	}
	return "", false
}

// ParseDim parses a query key into a dimension. "doy" is accepted for time.
func ParseDim(s string) (Dim, bool) {
	switch s {
	case "doy", "time":
		return DimTime, true
	case "depth":
		return DimDepth, true
	case "lat", "latitude":
		return DimLat, true
	case "lon", "longitude":
		return DimLon, true
	}
	return "", false
}

// NormalizeLon360 maps lon to [0, 360).
func NormalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, LonPeriod)
	if lon < 0 {
		lon += LonPeriod
	}
	return lon
}
