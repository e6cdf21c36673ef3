// Package api exposes the geometry engine over HTTP. Every request
// carries a full scenario, so the server holds no session state and
// identical requests always produce identical responses.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oboisot/BSARGeom/core"
	"github.com/oboisot/BSARGeom/internal/logging"
	"github.com/oboisot/BSARGeom/internal/observability"
	"github.com/oboisot/BSARGeom/model"
)

// Server wires the geometry engine to its HTTP routes.
type Server struct {
	logger    logging.Logger
	collector *observability.EngineCollector
}

// NewServer builds the HTTP API around a metrics collector. A nil
// logger logs nowhere; a nil collector disables HTTP metrics.
func NewServer(logger logging.Logger, collector *observability.EngineCollector) *Server {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Server{logger: logger, collector: collector}
}

// Router assembles the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogging(s.logger))
	r.Use(Tracing())

	r.Method(http.MethodGet, "/healthz", http.HandlerFunc(s.handleHealth))
	if s.collector != nil {
		r.Method(http.MethodGet, "/metrics", s.collector.Handler())
	}

	r.Method(http.MethodPost, "/v1/snapshot", s.instrument("/v1/snapshot", s.handleSnapshot))
	r.Method(http.MethodPost, "/v1/series", s.instrument("/v1/series", s.handleSeries))
	r.Method(http.MethodPost, "/v1/swath", s.instrument("/v1/swath", s.handleSwath))
	r.Method(http.MethodPost, "/v1/contours", s.instrument("/v1/contours", s.handleContours))

	return r
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	if s.collector == nil {
		return h
	}
	return s.collector.Middleware(route, h)
}

type snapshotRequest struct {
	Scenario model.Scenario `json:"scenario"`
	TimeS    float64        `json:"time_s"`
	// Epoch anchors TLE-driven platforms to wall-clock time, RFC 3339.
	// Ignored for linear motion; defaults to the request time.
	Epoch string `json:"epoch,omitempty"`
}

type seriesRequest struct {
	Scenario model.Scenario `json:"scenario"`
	StartS   float64        `json:"start_s"`
	EndS     float64        `json:"end_s"`
	StepS    float64        `json:"step_s"`
	Epoch    string         `json:"epoch,omitempty"`
}

type seriesResponse struct {
	Snapshots []*core.GeometrySnapshot `json:"snapshots"`
	Count     int                      `json:"count"`
}

type swathRequest struct {
	Scenario       model.Scenario `json:"scenario"`
	TimeS          float64        `json:"time_s"`
	AzimuthSamples int            `json:"azimuth_samples,omitempty"`
	ToleranceM     float64        `json:"tolerance_m,omitempty"`
	Epoch          string         `json:"epoch,omitempty"`
}

type groundPoint struct {
	EastM  float64 `json:"east_m"`
	NorthM float64 `json:"north_m"`
	UpM    float64 `json:"up_m"`
}

type swathResponse struct {
	BistaticRangeM float64       `json:"bistatic_range_m"`
	Points         []groundPoint `json:"points"`
}

type contoursRequest struct {
	Scenario model.Scenario `json:"scenario"`
	TimeS    float64        `json:"time_s"`
	ExtentM  float64        `json:"extent_m"`
	GridN    int            `json:"grid_n,omitempty"`
	Levels   int            `json:"levels,omitempty"`
	Epoch    string         `json:"epoch,omitempty"`
}

type contoursResponse struct {
	RangeContours   [][]groundPoint `json:"range_contours"`
	DopplerContours [][]groundPoint `json:"doppler_contours"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSnapshot serves POST /v1/snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	epoch, err := parseEpoch(req.Epoch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := startSpan(r.Context(), "API/Snapshot")
	defer span.End()

	engine, err := core.NewEngine(req.Scenario, epoch)
	if err != nil {
		s.handleScenarioError(w, span, err)
		return
	}

	start := time.Now()
	snap, err := engine.Publish(req.TimeS)
	if s.collector != nil {
		s.collector.ObservePublish(snap, err, time.Since(start))
	}
	if err != nil {
		s.handleEngineError(ctx, w, span, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// handleSeries serves POST /v1/series.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	epoch, err := parseEpoch(req.Epoch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateSeriesBounds(req.StartS, req.EndS, req.StepS); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := startSpan(r.Context(), "API/Series")
	defer span.End()

	engine, err := core.NewEngine(req.Scenario, epoch)
	if err != nil {
		s.handleScenarioError(w, span, err)
		return
	}
	snaps, err := engine.PublishSeries(req.StartS, req.EndS, req.StepS)
	if err != nil {
		s.handleEngineError(ctx, w, span, err)
		return
	}

	writeJSON(w, http.StatusOK, seriesResponse{Snapshots: snaps, Count: len(snaps)})
}

// handleSwath serves POST /v1/swath: the iso-range locus through the
// scenario target at the requested time.
func (s *Server) handleSwath(w http.ResponseWriter, r *http.Request) {
	var req swathRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	epoch, err := parseEpoch(req.Epoch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateSwathParams(req.AzimuthSamples); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := startSpan(r.Context(), "API/Swath")
	defer span.End()

	engine, err := core.NewEngine(req.Scenario, epoch)
	if err != nil {
		s.handleScenarioError(w, span, err)
		return
	}
	snap, points, err := engine.Footprint(req.TimeS, core.SwathOptions{
		AzimuthSamples: req.AzimuthSamples,
		ToleranceM:     req.ToleranceM,
	})
	if err != nil {
		s.handleEngineError(ctx, w, span, err)
		return
	}

	writeJSON(w, http.StatusOK, swathResponse{
		BistaticRangeM: snap.Geometry.BistaticRangeM,
		Points:         groundPoints(points),
	})
}

// handleContours serves POST /v1/contours: iso-range and iso-Doppler
// polylines over a square ground patch.
func (s *Server) handleContours(w http.ResponseWriter, r *http.Request) {
	var req contoursRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	epoch, err := parseEpoch(req.Epoch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	gridN, levels, err := validateContourParams(req.ExtentM, req.GridN, req.Levels)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := startSpan(r.Context(), "API/Contours")
	defer span.End()

	engine, err := core.NewEngine(req.Scenario, epoch)
	if err != nil {
		s.handleScenarioError(w, span, err)
		return
	}
	set, err := engine.IsoContours(req.TimeS, req.ExtentM, gridN, levels)
	if err != nil {
		s.handleEngineError(ctx, w, span, err)
		return
	}

	resp := contoursResponse{
		RangeContours:   make([][]groundPoint, len(set.RangeContours)),
		DopplerContours: make([][]groundPoint, len(set.DopplerContours)),
	}
	for i, c := range set.RangeContours {
		resp.RangeContours[i] = groundPoints(c)
	}
	for i, c := range set.DopplerContours {
		resp.DopplerContours[i] = groundPoints(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func groundPoints(points []core.Vec3) []groundPoint {
	out := make([]groundPoint, len(points))
	for i, p := range points {
		out[i] = groundPoint{EastM: p.X, NorthM: p.Y, UpM: p.Z}
	}
	return out
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseEpoch(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch %q: must be RFC 3339", s)
	}
	return t.UTC(), nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	// Encode before the header goes out: a late encode failure must
	// surface as a 500, not as a truncated 200.
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
