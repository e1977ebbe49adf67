// Package main extracts climatology values along a ship track.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/oceans-api/internal/adapter/store"
	"go.ngs.io/oceans-api/internal/adapter/store/native"
	"go.ngs.io/oceans-api/internal/adapter/store/netcdf"
	"go.ngs.io/oceans-api/internal/adapter/track"
	"go.ngs.io/oceans-api/internal/config"
	"go.ngs.io/oceans-api/internal/domain"
	"go.ngs.io/oceans-api/internal/usecase"
)

func main() {
	trackPath := flag.String("track", "", "Track CSV file (date,lat,lon or doy,lat,lon)")
	var known []string
	for _, k := range domain.Keys() {
		known = append(known, k.String())
	}
	dataset := flag.String("dataset", "WOA/temperature", "Dataset as family/kind ("+strings.Join(known, ", ")+")")
	vars := flag.String("var", "", "Comma-separated variables (default: all)")
	depths := flag.String("depth", "0", "Comma-separated depths in metres (empty: native grid; ignored without a depth dimension)")
	mode := flag.String("mode", "interpolate", "interpolate or nearest")
	dataDir := flag.String("data-dir", os.Getenv("OCEANSDB_DIR"), "Climatology data directory")
	catalogPath := flag.String("catalog", os.Getenv("OCEANSDB_CATALOG"), "YAML dataset catalog")
	driver := flag.String("driver", "cgo", "NetCDF reader: cgo or native")
	flag.Parse()

	if *trackPath == "" {
		log.Fatalf("-track is required")
	}
	tr, err := track.Load(*trackPath)
	if err != nil {
		log.Fatalf("Failed to read track: %v", err)
	}

	family, kind, err := parseDataset(*dataset)
	if err != nil {
		log.Fatalf("Invalid dataset: %v", err)
	}
	depth, err := parseFloats(*depths)
	if err != nil {
		log.Fatalf("Invalid depth: %v", err)
	}

	catalog := config.Default(*dataDir)
	if *catalogPath != "" {
		if catalog, err = config.Load(*catalogPath, *dataDir); err != nil {
			log.Fatalf("Failed to load catalog: %v", err)
		}
	}
	var opener domain.Opener = netcdf.Opener
	if *driver == "native" {
		opener = native.Opener
	}
	registry := store.NewRegistry(catalog, opener)
	if err := registry.Open(); err != nil {
		log.Fatalf("Failed to open datasets: %v", err)
	}
	defer func() { _ = registry.Close() }()

	req := trackRequest(family, kind, tr, depth, *vars, *mode)
	resp, err := usecase.NewExtractionUseCase(registry).Execute(req)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}
	if err := writeCSV(os.Stdout, tr, resp); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

func parseDataset(s string) (domain.Family, domain.Kind, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected family/kind, got %q", s)
	}
	f, err := domain.ParseFamily(parts[0])
	if err != nil {
		return 0, 0, err
	}
	k, err := domain.ParseKind(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return f, k, nil
}

// trackRequest builds the extraction for tr. Depth and day of year are only
// sent to datasets that have those dimensions.
func trackRequest(family domain.Family, kind domain.Kind, tr *track.Track, depth []float64, vars, mode string) usecase.ExtractionRequest {
	doy, lat, lon := tr.Columns()
	req := usecase.ExtractionRequest{
		Family: family, Kind: kind,
		Lat: lat, Lon: lon,
		Mode: mode, Track: true,
	}
	if vars != "" {
		req.Vars = strings.Split(vars, ",")
	}
	spec, _ := domain.Lookup(family, kind)
	if spec.HasDim(domain.DimTime) {
		req.DOY = doy
	}
	if spec.HasDim(domain.DimDepth) {
		req.Depth = depth
	}
	return req
}

func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []float64
	for _, item := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(item), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// writeCSV prints one row per track point and depth.
func writeCSV(f *os.File, tr *track.Track, resp *usecase.ExtractionResponse) error {
	w := csv.NewWriter(f)
	first := "doy"
	if tr.Dated {
		first = "date"
	}
	depth := resp.Coordinates["depth"]
	header := []string{first, "lat", "lon"}
	if depth != nil {
		header = append(header, "depth")
	}
	header = append(header, resp.Order...)
	if err := w.Write(header); err != nil {
		return err
	}

	profile := max(len(depth), 1)
	for i, p := range tr.Points {
		for k := 0; k < profile; k++ {
			when := p.Date
			if !tr.Dated {
				when = formatFloat(p.DOY)
			}
			row := []string{when, formatFloat(p.Lat), formatFloat(p.Lon)}
			if depth != nil {
				row = append(row, formatFloat(depth[k]))
			}
			for _, name := range resp.Order {
				v := resp.Variables[name].Values[i*profile+k]
				if v == nil {
					row = append(row, "")
					continue
				}
				row = append(row, formatFloat(*v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
