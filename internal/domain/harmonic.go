package domain

import (
	"math"
	"time"
)

// Harmonics holds the Fourier coefficients of one water column. Mean covers
// every depth level; the annual and semi-annual terms cover only the first
// len(AnnualCos) and len(SemiAnnualCos) levels.
type Harmonics struct {
	Mean          []float64
	AnnualCos     []float64
	AnnualSin     []float64
	SemiAnnualCos []float64
	SemiAnnualSin []float64
}

// Reconstruct evaluates the column at a day of year:
//
//	v(z) = mean(z) + an_cos(z)·cos t + an_sin(z)·sin t
//	             + sa_cos(z)·cos 2t + sa_sin(z)·sin 2t,  t = 2π·doy/366
//
// Days are reduced modulo 366, so doy and doy+366 reconstruct identically.
// NaN coefficients propagate to the level they belong to.
func (h Harmonics) Reconstruct(doy float64) []float64 {
	t := 2 * math.Pi * reduceDOY(doy) / HarmonicPeriod
	cos1, sin1 := math.Cos(t), math.Sin(t)
	cos2, sin2 := math.Cos(2*t), math.Sin(2*t)

	out := make([]float64, len(h.Mean))
	copy(out, h.Mean)

	annual := min(len(h.AnnualCos), len(h.AnnualSin), len(out))
	for z := 0; z < annual; z++ {
		out[z] += h.AnnualCos[z]*cos1 + h.AnnualSin[z]*sin1
	}
	semi := min(len(h.SemiAnnualCos), len(h.SemiAnnualSin), len(out))
	for z := 0; z < semi; z++ {
		out[z] += h.SemiAnnualCos[z]*cos2 + h.SemiAnnualSin[z]*sin2
	}
	return out
}

func reduceDOY(doy float64) float64 {
	d := math.Mod(doy, HarmonicPeriod)
	if d < 0 {
		d += HarmonicPeriod
	}
	return d
}

// DayOfYear converts a calendar date to its day of year (1-366).
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05", "20060102"}

// ParseDate parses a calendar date in one of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Usagef("invalid date %q (expected YYYY-MM-DD)", s)
}
