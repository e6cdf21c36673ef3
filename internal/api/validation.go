package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/oboisot/BSARGeom/core"
	"github.com/oboisot/BSARGeom/internal/logging"
)

// Server-side limits keeping one request from monopolizing the process.
const (
	maxSeriesSamples  = 100_000
	maxAzimuthSamples = 4096
	maxGridN          = 1024
	maxContourLevels  = 64

	defaultGridN         = 129
	defaultContourLevels = 10
)

func validateSeriesBounds(startS, endS, stepS float64) error {
	if stepS <= 0 {
		return fmt.Errorf("step_s must be positive, got %g", stepS)
	}
	if endS < startS {
		return fmt.Errorf("end_s %g before start_s %g", endS, startS)
	}
	if samples := (endS-startS)/stepS + 1; samples > maxSeriesSamples {
		return fmt.Errorf("series would produce %.0f samples, limit is %d", samples, maxSeriesSamples)
	}
	return nil
}

func validateSwathParams(azimuthSamples int) error {
	if azimuthSamples < 0 {
		return fmt.Errorf("azimuth_samples must be non-negative, got %d", azimuthSamples)
	}
	if azimuthSamples > maxAzimuthSamples {
		return fmt.Errorf("azimuth_samples %d exceeds limit %d", azimuthSamples, maxAzimuthSamples)
	}
	return nil
}

func validateContourParams(extentM float64, gridN, levels int) (int, int, error) {
	if extentM <= 0 {
		return 0, 0, fmt.Errorf("extent_m must be positive, got %g", extentM)
	}
	if gridN == 0 {
		gridN = defaultGridN
	}
	if gridN < 2 || gridN > maxGridN {
		return 0, 0, fmt.Errorf("grid_n must be in [2, %d], got %d", maxGridN, gridN)
	}
	if levels == 0 {
		levels = defaultContourLevels
	}
	if levels < 1 || levels > maxContourLevels {
		return 0, 0, fmt.Errorf("levels must be in [1, %d], got %d", maxContourLevels, levels)
	}
	return gridN, levels, nil
}

// handleScenarioError reports engine-construction failures. Everything
// NewEngine rejects is a property of the submitted scenario, so the
// status is the client's except for degenerate geometry.
func (s *Server) handleScenarioError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)

	if errors.Is(err, core.ErrDegenerateGeometry) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// handleEngineError maps engine sentinels to HTTP statuses: invalid
// input is the client's fault, degenerate geometry is a well-formed
// request the engine cannot satisfy, anything else is internal.
func (s *Server) handleEngineError(ctx context.Context, w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)

	switch {
	case errors.Is(err, core.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrDegenerateGeometry):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error(ctx, "engine failure", logging.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
