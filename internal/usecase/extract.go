package usecase

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.ngs.io/oceans-api/internal/adapter/store"
	"go.ngs.io/oceans-api/internal/domain"
	"go.ngs.io/oceans-api/internal/engine"
	"go.ngs.io/oceans-api/internal/metrics"
)

// ExtractionRequest encapsulates a climatology extraction request
type ExtractionRequest struct {
	Family domain.Family
	Kind   domain.Kind

	// Variables by name or alias; empty means every dataset variable
	Vars []string

	// Time of year, either as days of year or as calendar dates
	DOY   []float64
	Dates []string

	// Depth in metres; nil means the native depth grid
	Depth []float64
	Lat   []float64
	Lon   []float64

	Mode string // "interpolate" (default) or "nearest"

	// Track pairs lat[i], lon[i] (and time[i]) instead of crossing them
	Track bool
}

// ExtractionResponse contains the extracted variables
type ExtractionResponse struct {
	Dataset     string                    `json:"dataset"`
	Mode        string                    `json:"mode"`
	Track       bool                      `json:"track"`
	Coordinates map[string][]float64      `json:"coordinates"`
	Variables   map[string]VariableResult `json:"variables"`
	Order       []string                  `json:"order"`
}

// VariableResult is one extracted variable. Masked values are null.
type VariableResult struct {
	Shape  []int      `json:"shape"`
	Values []*float64 `json:"values"`
	Error  string     `json:"error,omitempty"`
}

// ExtractionUseCase orchestrates dataset extraction
type ExtractionUseCase struct {
	grids store.GridProvider
}

// NewExtractionUseCase creates a new extraction use case
func NewExtractionUseCase(grids store.GridProvider) *ExtractionUseCase {
	return &ExtractionUseCase{grids: grids}
}

// Validate checks the parts of the request that do not depend on the dataset
func (r *ExtractionRequest) Validate() error {
	if len(r.DOY) > 0 && len(r.Dates) > 0 {
		return domain.Usagef("doy and date are mutually exclusive")
	}
	if _, err := engine.ParseMode(r.Mode); err != nil {
		return err
	}

	checks := []struct {
		dim    domain.Dim
		values []float64
	}{
		{domain.DimTime, r.DOY},
		{domain.DimDepth, r.Depth},
		{domain.DimLat, r.Lat},
		{domain.DimLon, r.Lon},
	}
	for _, c := range checks {
		for _, v := range c.values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &domain.RangeError{Dim: c.dim, Value: v, Reason: "not a finite number"}
			}
		}
	}
	for _, v := range r.Lat {
		if v < -90 || v > 90 {
			return &domain.RangeError{Dim: domain.DimLat, Value: v, Reason: "latitude must be between -90 and 90"}
		}
	}
	for _, v := range r.Depth {
		if v < 0 {
			return &domain.RangeError{Dim: domain.DimDepth, Value: v, Reason: "depth must not be negative"}
		}
	}

	if r.Track {
		if len(r.Lat) != len(r.Lon) {
			return domain.Usagef("track needs as many lat as lon values (got %d and %d)", len(r.Lat), len(r.Lon))
		}
		n := max(len(r.DOY), len(r.Dates))
		if n > 1 && n != len(r.Lat) {
			return domain.Usagef("track needs 1 or %d time values, got %d", len(r.Lat), n)
		}
	}
	return nil
}

// times returns the requested days of year, converting dates
func (r *ExtractionRequest) times() ([]float64, error) {
	if len(r.Dates) == 0 {
		return r.DOY, nil
	}
	out := make([]float64, len(r.Dates))
	for i, s := range r.Dates {
		t, err := domain.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out[i] = float64(domain.DayOfYear(t))
	}
	return out, nil
}

// Execute performs the extraction
func (uc *ExtractionUseCase) Execute(req ExtractionRequest) (resp *ExtractionResponse, err error) {
	dataset := domain.Key{Family: req.Family, Kind: req.Kind}.String()
	mode, _ := engine.ParseMode(req.Mode)
	start := time.Now()
	defer func() {
		result := metrics.ResultOK
		switch {
		case errors.Is(err, domain.ErrUsage), errors.Is(err, domain.ErrRange):
			result = metrics.ResultRejected
		case err != nil:
			result = metrics.ResultError
		}
		metrics.ObserveExtraction(dataset, mode.String(), result, time.Since(start))
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	g, err := uc.grids.Grid(req.Family, req.Kind)
	if err != nil {
		return nil, err
	}

	times, err := req.times()
	if err != nil {
		return nil, err
	}
	q := engine.Query{Vars: req.Vars, Mode: mode, Coords: make(map[domain.Dim][]float64)}
	for d, v := range map[domain.Dim][]float64{
		domain.DimTime:  times,
		domain.DimDepth: req.Depth,
		domain.DimLat:   req.Lat,
		domain.DimLon:   req.Lon,
	} {
		if v != nil {
			q.Coords[d] = v
		}
	}

	var res *engine.Result
	if req.Track {
		res, err = g.Track(q)
	} else {
		res, err = g.Extract(q)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract from %s: %w", dataset, err)
	}
	metrics.ObserveSubset(dataset, res.SubsetCells)

	resp = &ExtractionResponse{
		Dataset:     dataset,
		Mode:        mode.String(),
		Track:       req.Track,
		Coordinates: make(map[string][]float64, len(res.Coords)),
		Variables:   make(map[string]VariableResult, len(res.Vars)),
		Order:       res.Names,
	}
	for d, c := range res.Coords {
		resp.Coordinates[string(d)] = c
	}
	for _, name := range res.Names {
		v := res.Vars[name]
		out := VariableResult{Shape: v.Shape, Values: make([]*float64, v.Len())}
		for i := range out.Values {
			if val, ok := v.At(i); ok {
				out.Values[i] = &val
			}
		}
		switch {
		case v.Err != nil:
			out.Error = v.Err.Error()
			reason := metrics.ReasonMissing
			if errors.Is(v.Err, domain.ErrDegenerate) {
				reason = metrics.ReasonDegenerate
			}
			metrics.ObserveMasked(dataset, reason)
		case v.Masked():
			metrics.ObserveMasked(dataset, metrics.ReasonMissing)
		}
		resp.Variables[name] = out
	}
	return resp, nil
}

// Datasets lists the configured datasets
func (uc *ExtractionUseCase) Datasets() []store.DatasetInfo {
	return uc.grids.Datasets()
}
