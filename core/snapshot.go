package core

import (
	"fmt"
	"math"
	"time"

	"github.com/oboisot/BSARGeom/model"
)

// GeometrySnapshot is the publishable, immutable aggregate of one
// simulation time step: both platform states, the solved bistatic
// geometry and the derived resolution cell. Constructed fresh for
// every requested t, never mutated afterwards, and safe to share
// read-only with any number of consumers.
type GeometrySnapshot struct {
	TimeS float64 `json:"time_s"`

	Tx PlatformState `json:"tx"`
	Rx PlatformState `json:"rx"`

	Geometry   BistaticGeometry `json:"geometry"`
	Resolution ResolutionCell   `json:"resolution"`
}

// Engine evaluates a fixed scenario. It owns the configuration values
// for the duration of a run and holds no other state: every snapshot
// is recomputed from (scenario, t), never updated incrementally.
type Engine struct {
	scenario model.Scenario
	frame    *LocalFrame
	txModel  TrajectoryModel
	rxModel  TrajectoryModel
	target   Vec3
}

// NewEngine validates the scenario and prepares the local frame and
// trajectory models. epoch anchors TLE-driven platforms to wall-clock
// time; it is ignored for linear motion.
func NewEngine(scn model.Scenario, epoch time.Time) (*Engine, error) {
	if err := scn.Validate(); err != nil {
		return nil, err
	}

	frame, err := NewLocalFrame(scn.Origin)
	if err != nil {
		return nil, err
	}
	txModel, err := NewTrajectoryModel(scn.Tx, frame, epoch)
	if err != nil {
		return nil, err
	}
	rxModel, err := NewTrajectoryModel(scn.Rx, frame, epoch)
	if err != nil {
		return nil, err
	}
	target, err := resolveTarget(scn)
	if err != nil {
		return nil, err
	}

	return &Engine{
		scenario: scn,
		frame:    frame,
		txModel:  txModel,
		rxModel:  rxModel,
		target:   target,
	}, nil
}

// resolveTarget returns the configured ground target. A scenario that
// names none is aimed by its antennas instead: the target is the
// ground point where the two squinted boresight traces cross.
func resolveTarget(scn model.Scenario) (Vec3, error) {
	if scn.TargetEastM != nil && scn.TargetNorthM != nil {
		return Vec3{X: *scn.TargetEastM, Y: *scn.TargetNorthM}, nil
	}
	if scn.Tx.Motion == model.MotionSourceTLE || scn.Rx.Motion == model.MotionSourceTLE {
		return Vec3{}, fmt.Errorf("scenario with TLE motion requires an explicit target")
	}

	p, dp := boresightGroundTrace(scn.Tx)
	q, dq := boresightGroundTrace(scn.Rx)

	denom := dp.X*dq.Y - dp.Y*dq.X
	if math.Abs(denom) < 1e-12 {
		return Vec3{}, fmt.Errorf("tx and rx boresight traces are parallel; set an explicit target")
	}
	rX, rY := q.X-p.X, q.Y-p.Y
	s := (rX*dq.Y - rY*dq.X) / denom
	u := (rX*dp.Y - rY*dp.X) / denom
	if s < 0 || u < 0 {
		return Vec3{}, fmt.Errorf("tx and rx boresight traces cross behind a platform; set an explicit target")
	}
	return Vec3{X: p.X + s*dp.X, Y: p.Y + s*dp.Y}, nil
}

// boresightGroundTrace is the ray the antenna boresight projects onto
// the ground plane: the platform start position and the unit direction
// at compass azimuth heading + squint.
func boresightGroundTrace(cfg model.PlatformConfig) (Vec3, Vec3) {
	az := (cfg.HeadingDeg + cfg.SquintDeg) * math.Pi / 180
	return Vec3{X: cfg.StartEastM, Y: cfg.StartNorthM},
		Vec3{X: math.Sin(az), Y: math.Cos(az)}
}

// Scenario returns a copy of the engine's configuration.
func (e *Engine) Scenario() model.Scenario { return e.scenario }

// Frame returns the session's local frame.
func (e *Engine) Frame() *LocalFrame { return e.frame }

// Publish assembles the snapshot for simulation time t. Pure
// orchestration: trajectory model twice, solver once, resolution once.
// The first propagated hard error aborts the snapshot; a snapshot is
// never partially populated.
func (e *Engine) Publish(t float64) (*GeometrySnapshot, error) {
	tx, err := e.txModel.StateAt(t)
	if err != nil {
		return nil, fmt.Errorf("tx trajectory at t=%.3f s: %w", t, err)
	}
	rx, err := e.rxModel.StateAt(t)
	if err != nil {
		return nil, fmt.Errorf("rx trajectory at t=%.3f s: %w", t, err)
	}

	geometry, err := Solve(tx, rx, e.target)
	if err != nil {
		return nil, fmt.Errorf("solve at t=%.3f s: %w", t, err)
	}
	resolution, err := Resolution(geometry, e.scenario.Radar)
	if err != nil {
		return nil, fmt.Errorf("resolution at t=%.3f s: %w", t, err)
	}

	return &GeometrySnapshot{
		TimeS:      t,
		Tx:         tx,
		Rx:         rx,
		Geometry:   geometry,
		Resolution: resolution,
	}, nil
}

// PublishSeries sweeps [t0, t1] at step dt and returns one snapshot
// per sample, the time series the plotting surface charts. Fails on
// the first snapshot error.
func (e *Engine) PublishSeries(t0, t1, dt float64) ([]*GeometrySnapshot, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("series step must be positive, got %.6g", dt)
	}
	if t1 < t0 {
		return nil, fmt.Errorf("series end %.3f before start %.3f", t1, t0)
	}

	var out []*GeometrySnapshot
	for t := t0; t <= t1+dt/2; t += dt {
		snap, err := e.Publish(t)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// Footprint samples the iso-range locus through the scenario target at
// time t and returns it together with the snapshot it was computed
// from: every ground point shares that snapshot's bistatic range.
func (e *Engine) Footprint(t float64, opts SwathOptions) (*GeometrySnapshot, []Vec3, error) {
	snap, err := e.Publish(t)
	if err != nil {
		return nil, nil, err
	}
	points, err := IsoRangePoints(snap.Tx, snap.Rx, snap.Geometry.BistaticRangeM, opts)
	if err != nil {
		return nil, nil, err
	}
	return snap, points, nil
}

// IsoContourSet bundles iso-range and iso-Doppler polylines over a
// ground patch for display.
type IsoContourSet struct {
	RangeContours   [][]Vec3
	DopplerContours [][]Vec3
}

// IsoContours rasterizes bistatic range and Doppler over a square
// ground patch at time t and extracts nLevels evenly spaced contours
// of each for ground overlays.
func (e *Engine) IsoContours(t float64, extentM float64, gridN, nLevels int) (*IsoContourSet, error) {
	snap, err := e.Publish(t)
	if err != nil {
		return nil, err
	}
	if nLevels < 1 {
		nLevels = 1
	}

	lambda := e.scenario.Radar.Wavelength()
	rangeField := NewRangeField(snap.Tx, snap.Rx, extentM, gridN, 0)
	dopplerField := NewDopplerField(snap.Tx, snap.Rx, lambda, extentM, gridN, 0)

	return &IsoContourSet{
		RangeContours:   GroundContours(rangeField, spreadLevels(rangeField, nLevels)),
		DopplerContours: GroundContours(dopplerField, spreadLevels(dopplerField, nLevels)),
	}, nil
}

// spreadLevels picks nLevels thresholds evenly spaced strictly inside
// the field's value range.
func spreadLevels(f *GridField, nLevels int) []float64 {
	w, h := f.Dimensions()
	min, max := math.Inf(1), math.Inf(-1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			z := f.ZAt(x, y)
			if z != z { // NaN
				continue
			}
			if z < min {
				min = z
			}
			if z > max {
				max = z
			}
		}
	}

	levels := make([]float64, 0, nLevels)
	step := (max - min) / float64(nLevels+1)
	for i := 1; i <= nLevels; i++ {
		levels = append(levels, min+float64(i)*step)
	}
	return levels
}

// Publish computes one snapshot from raw configuration, the
// single-call form of the engine for callers that do not reuse a
// scenario across frames.
func Publish(t float64, scn model.Scenario, epoch time.Time) (*GeometrySnapshot, error) {
	engine, err := NewEngine(scn, epoch)
	if err != nil {
		return nil, err
	}
	return engine.Publish(t)
}
