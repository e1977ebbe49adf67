// Package track reads ship tracks from CSV files.
package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/oceans-api/internal/domain"
)

// Point is one track position. Date is empty when the file gives days of
// year.
type Point struct {
	Date string
	DOY  float64
	Lat  float64
	Lon  float64
}

// Track is an ordered list of positions.
type Track struct {
	// Dated is true for "date,lat,lon" files.
	Dated  bool
	Points []Point
}

// Load reads a track file.
func Load(path string) (*Track, error) {
	//nolint:gosec // G304: Track path is supplied by the operator.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Read(file)
}

// Read parses a track with a "date,lat,lon" or "doy,lat,lon" header.
func Read(r io.Reader) (*Track, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	// Read header.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) != 3 || header[1] != "lat" || header[2] != "lon" {
		return nil, fmt.Errorf("invalid CSV header: expected date|doy,lat,lon, got %v", header)
	}
	t := &Track{}
	switch strings.ToLower(header[0]) {
	case "date":
		t.Dated = true
	case "doy":
	default:
		return nil, fmt.Errorf("invalid CSV header: expected column 0 to be date or doy, got %s", header[0])
	}

	// Read data rows.
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		var p Point
		first := strings.TrimSpace(record[0])
		if t.Dated {
			when, err := domain.ParseDate(first)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			p.Date = first
			p.DOY = float64(domain.DayOfYear(when))
		} else {
			p.DOY, err = strconv.ParseFloat(first, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid doy %q: %w", line, first, err)
			}
		}
		if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(record[1]), 64); err != nil {
			return nil, fmt.Errorf("line %d: invalid lat %q: %w", line, record[1], err)
		}
		if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(record[2]), 64); err != nil {
			return nil, fmt.Errorf("line %d: invalid lon %q: %w", line, record[2], err)
		}
		t.Points = append(t.Points, p)
	}

	if len(t.Points) == 0 {
		return nil, fmt.Errorf("no track points found")
	}
	return t, nil
}

// Columns returns the days of year, latitudes and longitudes of the track.
func (t *Track) Columns() (doy, lat, lon []float64) {
	doy = make([]float64, len(t.Points))
	lat = make([]float64, len(t.Points))
	lon = make([]float64, len(t.Points))
	for i, p := range t.Points {
		doy[i], lat[i], lon[i] = p.DOY, p.Lat, p.Lon
	}
	return doy, lat, lon
}
