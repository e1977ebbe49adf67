package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/oceans-api/internal/adapter/store"
	"go.ngs.io/oceans-api/internal/domain"
	"go.ngs.io/oceans-api/internal/usecase"
)

// Handler handles HTTP requests for climatology extraction.
type Handler struct {
	extractionUC *usecase.ExtractionUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(extractionUC *usecase.ExtractionUseCase) *Handler {
	return &Handler{
		extractionUC: extractionUC,
	}
}

// GetExtract handles GET /v1/:family/:kind/extract.
func (h *Handler) GetExtract(c *gin.Context) {
	h.extract(c, false)
}

// GetTrack handles GET /v1/:family/:kind/track.
func (h *Handler) GetTrack(c *gin.Context) {
	h.extract(c, true)
}

func (h *Handler) extract(c *gin.Context, track bool) {
	req, err := parseRequest(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	req.Track = track

	response, err := h.extractionUC.Execute(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func parseRequest(c *gin.Context) (usecase.ExtractionRequest, error) {
	var req usecase.ExtractionRequest

	family, err := domain.ParseFamily(c.Param("family"))
	if err != nil {
		return req, err
	}
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		return req, err
	}
	req.Family, req.Kind = family, kind

	query := c.Request.URL.Query()
	req.Vars = splitList(query["var"])
	req.Dates = splitList(query["date"])
	req.Mode = c.Query("mode")
	for key, raw := range query {
		switch key {
		case "var", "date", "mode":
			continue
		}
		dim, ok := domain.ParseDim(key)
		if !ok {
			return req, domain.Usagef("wrong dimension to extract: %q", key)
		}
		values, err := parseFloats(key, raw)
		if err != nil {
			return req, err
		}
		switch dim {
		case domain.DimTime:
			req.DOY = append(req.DOY, values...)
		case domain.DimDepth:
			req.Depth = append(req.Depth, values...)
		case domain.DimLat:
			req.Lat = append(req.Lat, values...)
		case domain.DimLon:
			req.Lon = append(req.Lon, values...)
		}
	}
	return req, nil
}

// splitList flattens repeated and comma-separated values.
func splitList(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, s := range strings.Split(r, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func parseFloats(key string, raw []string) ([]float64, error) {
	items := splitList(raw)
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]float64, len(items))
	for i, s := range items {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, domain.Usagef("invalid %s: %v", key, err)
		}
		out[i] = v
	}
	return out, nil
}

// fail writes err with the status matching its kind.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Error [%s] %s: %v", c.GetString(requestIDKey), c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "request_id": c.GetString(requestIDKey)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUsage), errors.Is(err, domain.ErrRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// DatasetResponse describes one configured dataset.
type DatasetResponse struct {
	Name       string   `json:"name"`
	Family     string   `json:"family"`
	Kind       string   `json:"kind"`
	Dimensions []string `json:"dimensions"`
	Variables  []string `json:"variables"`
	Available  bool     `json:"available"`
	Error      string   `json:"error,omitempty"`
}

// GetDatasets handles GET /v1/datasets.
func (h *Handler) GetDatasets(c *gin.Context) {
	datasets := h.extractionUC.Datasets()
	response := make([]DatasetResponse, len(datasets))
	for i, d := range datasets {
		dims := make([]string, len(d.Dims))
		for j, dim := range d.Dims {
			dims[j] = string(dim)
		}
		if d.Variables == nil {
			d.Variables = []string{}
		}
		response[i] = DatasetResponse{
			Name:       d.Name,
			Family:     d.Family.String(),
			Kind:       d.Kind.String(),
			Dimensions: dims,
			Variables:  d.Variables,
			Available:  d.Available,
			Error:      d.Error,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"datasets": response,
		"count":    len(response),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	var available int
	for _, d := range h.extractionUC.Datasets() {
		if d.Available {
			available++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"datasets": fmt.Sprintf("%d available", available),
	})
}
