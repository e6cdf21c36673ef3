package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oboisot/BSARGeom/core"
	"github.com/oboisot/BSARGeom/internal/logging"
	"github.com/oboisot/BSARGeom/internal/observability"
	"github.com/oboisot/BSARGeom/model"
)

func f64ptr(v float64) *float64 { return &v }

func testScenario() model.Scenario {
	return model.Scenario{
		Origin: model.GeodeticPoint{LatitudeDeg: 43.6, LongitudeDeg: 1.44},
		Tx: model.PlatformConfig{
			Name:           "tx",
			AltitudeM:      8000,
			GroundSpeedMps: 200,
		},
		Rx: model.PlatformConfig{
			Name:           "rx",
			AltitudeM:      6000,
			GroundSpeedMps: 180,
			StartEastM:     50000,
		},
		Radar: model.RadarParams{
			WavelengthM:      0.03,
			BandwidthHz:      100e6,
			IntegrationTimeS: 1,
		},
		TargetEastM:  f64ptr(25000),
		TargetNorthM: f64ptr(10000),
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	collector, err := observability.NewEngineCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}
	return NewServer(logging.Noop(), collector).Router()
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	router := testRouter(t)
	rec := postJSON(t, router, "/v1/snapshot", snapshotRequest{
		Scenario: testScenario(),
		TimeS:    1.5,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var snap core.GeometrySnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snap.TimeS != 1.5 {
		t.Errorf("snapshot time %g, want 1.5", snap.TimeS)
	}
	if snap.Geometry.BistaticRangeM <= 0 {
		t.Errorf("bistatic range %g, want positive", snap.Geometry.BistaticRangeM)
	}
}

func TestSnapshotRejectsMalformedBody(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/snapshot", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestSnapshotRejectsUnknownFields(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/snapshot",
		bytes.NewReader([]byte(`{"scenario": {}, "time_s": 0, "bogus": 1}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestSnapshotRejectsInvalidLatitude(t *testing.T) {
	router := testRouter(t)
	scn := testScenario()
	scn.Origin.LatitudeDeg = 123

	rec := postJSON(t, router, "/v1/snapshot", snapshotRequest{Scenario: scn})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestSnapshotDegenerateGeometryIsUnprocessable(t *testing.T) {
	router := testRouter(t)
	scn := testScenario()
	// Both platforms on the target: ill-posed triangle.
	scn.Tx.AltitudeM = 0
	scn.Tx.StartEastM = *scn.TargetEastM
	scn.Tx.StartNorthM = *scn.TargetNorthM
	scn.Rx.AltitudeM = 0
	scn.Rx.StartEastM = *scn.TargetEastM
	scn.Rx.StartNorthM = *scn.TargetNorthM

	rec := postJSON(t, router, "/v1/snapshot", snapshotRequest{Scenario: scn})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestSnapshotDegenerateResolutionStillEncodes(t *testing.T) {
	router := testRouter(t)
	scn := testScenario()
	// Both platforms stationary: cross-range resolution is infinite,
	// but the flagged snapshot must still reach the consumer intact.
	scn.Tx.GroundSpeedMps = 0
	scn.Rx.GroundSpeedMps = 0

	rec := postJSON(t, router, "/v1/snapshot", snapshotRequest{Scenario: scn})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty response body for a degenerate but valid scenario")
	}

	var snap core.GeometrySnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !snap.Resolution.CrossRange.Degenerate {
		t.Error("cross-range resolution should be flagged degenerate")
	}
	if !math.IsInf(snap.Resolution.CrossRange.ValueM, 1) {
		t.Errorf("cross-range %g after decode, want +Inf", snap.Resolution.CrossRange.ValueM)
	}
	if !math.IsInf(snap.Resolution.CellAreaM2, 1) {
		t.Errorf("cell area %g after decode, want +Inf", snap.Resolution.CellAreaM2)
	}
}

func TestWriteJSONEncodeFailureIsServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	// A bare infinity has no JSON form; the failure must not leak out
	// as a truncated 200.
	writeJSON(rec, http.StatusOK, math.Inf(1))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
}

func TestSeriesEndpoint(t *testing.T) {
	router := testRouter(t)
	rec := postJSON(t, router, "/v1/series", seriesRequest{
		Scenario: testScenario(),
		StartS:   0,
		EndS:     10,
		StepS:    1,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp seriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 11 {
		t.Errorf("series count %d, want 11", resp.Count)
	}
	if len(resp.Snapshots) != resp.Count {
		t.Errorf("snapshots %d, count %d", len(resp.Snapshots), resp.Count)
	}
}

func TestSeriesRejectsBadStep(t *testing.T) {
	router := testRouter(t)
	rec := postJSON(t, router, "/v1/series", seriesRequest{
		Scenario: testScenario(),
		StartS:   0,
		EndS:     10,
		StepS:    0,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestSeriesRejectsOversizedSweep(t *testing.T) {
	router := testRouter(t)
	rec := postJSON(t, router, "/v1/series", seriesRequest{
		Scenario: testScenario(),
		StartS:   0,
		EndS:     1e9,
		StepS:    0.001,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestSwathEndpoint(t *testing.T) {
	router := testRouter(t)
	rec := postJSON(t, router, "/v1/swath", swathRequest{
		Scenario:       testScenario(),
		TimeS:          0,
		AzimuthSamples: 36,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp swathResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BistaticRangeM <= 0 {
		t.Errorf("bistatic range %g, want positive", resp.BistaticRangeM)
	}
	if len(resp.Points) == 0 {
		t.Fatal("no footprint points returned")
	}
	for i, p := range resp.Points {
		if p.UpM != 0 {
			t.Fatalf("point %d off the ground plane: up = %g", i, p.UpM)
		}
	}
}

func TestContoursEndpoint(t *testing.T) {
	router := testRouter(t)
	rec := postJSON(t, router, "/v1/contours", contoursRequest{
		Scenario: testScenario(),
		TimeS:    0,
		ExtentM:  20000,
		GridN:    65,
		Levels:   5,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp contoursResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.RangeContours) == 0 {
		t.Error("no iso-range contours returned")
	}
	if len(resp.DopplerContours) == 0 {
		t.Error("no iso-Doppler contours returned")
	}
}

func TestContoursRejectsBadExtent(t *testing.T) {
	router := testRouter(t)
	rec := postJSON(t, router, "/v1/contours", contoursRequest{
		Scenario: testScenario(),
		ExtentM:  -5,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestEpochParsing(t *testing.T) {
	router := testRouter(t)

	rec := postJSON(t, router, "/v1/snapshot", snapshotRequest{
		Scenario: testScenario(),
		Epoch:    "2026-03-01T12:00:00Z",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("RFC 3339 epoch rejected: %d %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, router, "/v1/snapshot", snapshotRequest{
		Scenario: testScenario(),
		Epoch:    "yesterday",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400 for malformed epoch", rec.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := testRouter(t)

	// Generate one observation first.
	postJSON(t, router, "/v1/snapshot", snapshotRequest{Scenario: testScenario()})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("bsar_")) {
		t.Error("metrics output missing bsar_ namespace")
	}
}
