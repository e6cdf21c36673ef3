package core

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/oboisot/BSARGeom/model"
)

// PlatformState is a platform's position and velocity in the local
// frame at a given simulation time. Derived, never stored; recomputed
// per frame.
type PlatformState struct {
	Position Vec3
	Velocity Vec3
}

// TrajectoryModel produces platform states as a function of simulation
// time (seconds relative to the scenario start). Implementations are
// pure: the same t always yields the same state or the same error.
type TrajectoryModel interface {
	StateAt(t float64) (PlatformState, error)
}

// StateAt evaluates the linear constant-velocity model for cfg at time
// t: position(t) = start + velocity·t, altitude held constant. Valid
// for all real t, including negative; callers decide the relevant
// window.
func StateAt(cfg model.PlatformConfig, t float64) PlatformState {
	heading := cfg.HeadingDeg * math.Pi / 180
	// Compass bearing: 0° = north (+Y), 90° = east (+X).
	vel := Vec3{
		X: cfg.GroundSpeedMps * math.Sin(heading),
		Y: cfg.GroundSpeedMps * math.Cos(heading),
	}
	return PlatformState{
		Position: Vec3{
			X: cfg.StartEastM + vel.X*t,
			Y: cfg.StartNorthM + vel.Y*t,
			Z: cfg.AltitudeM,
		},
		Velocity: vel,
	}
}

// LinearModel wraps StateAt as a TrajectoryModel.
type LinearModel struct {
	cfg model.PlatformConfig
}

// StateAt implements TrajectoryModel. The linear model never fails.
func (m *LinearModel) StateAt(t float64) (PlatformState, error) {
	return StateAt(m.cfg, t), nil
}

// OrbitalModel propagates a spaceborne platform with SGP4 from a TLE
// and maps the result into the local frame. Simulation time t is an
// offset in seconds from the model epoch.
type OrbitalModel struct {
	sat   satellite.Satellite
	frame *LocalFrame
	epoch time.Time
}

// NewOrbitalModel builds an SGP4 model from TLE lines. The epoch is
// the wall-clock instant corresponding to simulation time zero.
func NewOrbitalModel(line1, line2 string, frame *LocalFrame, epoch time.Time) *OrbitalModel {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	return &OrbitalModel{sat: sat, frame: frame, epoch: epoch}
}

// StateAt implements TrajectoryModel. Velocity comes from a central
// difference over the local-frame positions; SGP4's native velocity is
// inertial and would need the full ECI->ENU rate transform instead.
func (m *OrbitalModel) StateAt(t float64) (PlatformState, error) {
	const dt = 1.0 // seconds

	pos, err := m.positionAt(t)
	if err != nil {
		return PlatformState{}, err
	}
	before, err := m.positionAt(t - dt)
	if err != nil {
		return PlatformState{}, err
	}
	after, err := m.positionAt(t + dt)
	if err != nil {
		return PlatformState{}, err
	}

	return PlatformState{
		Position: pos,
		Velocity: after.Sub(before).Scale(1 / (2 * dt)),
	}, nil
}

func (m *OrbitalModel) positionAt(t float64) (Vec3, error) {
	at := m.epoch.Add(time.Duration(t * float64(time.Second))).UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	gmst := satellite.GSTimeFromDate(year, int(month), day, hour, min, sec)
	alt, _, latLon := satellite.ECIToLLA(posECI, gmst)

	if math.IsNaN(alt) || math.IsNaN(latLon.Latitude) || math.IsNaN(latLon.Longitude) {
		// A decayed or malformed TLE makes SGP4 return garbage.
		return Vec3{}, fmt.Errorf("%w: sgp4 propagation not finite at t=%.3f s", ErrInvalidCoordinate, t)
	}

	const kmToM = 1000.0
	gp := model.GeodeticPoint{
		LatitudeDeg:  latLon.Latitude * 180 / math.Pi,
		LongitudeDeg: normalizeLonDeg(latLon.Longitude * 180 / math.Pi),
		AltitudeM:    alt * kmToM,
	}
	v, err := m.frame.GeodeticToLocal(gp)
	if err != nil {
		return Vec3{}, fmt.Errorf("orbital position at t=%.3f s: %w", t, err)
	}
	return v, nil
}

func normalizeLonDeg(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// NewTrajectoryModel chooses the trajectory generator for the platform
// configuration: SGP4 when a TLE source is configured, otherwise the
// linear constant-velocity model.
func NewTrajectoryModel(cfg model.PlatformConfig, frame *LocalFrame, epoch time.Time) (TrajectoryModel, error) {
	switch cfg.Motion {
	case "", model.MotionSourceLinear:
		return &LinearModel{cfg: cfg}, nil
	case model.MotionSourceTLE:
		if cfg.TLELine1 == "" || cfg.TLELine2 == "" {
			return nil, fmt.Errorf("platform %q: TLE motion source without TLE lines", cfg.Name)
		}
		return NewOrbitalModel(cfg.TLELine1, cfg.TLELine2, frame, epoch), nil
	default:
		return nil, fmt.Errorf("platform %q: unknown motion source %q", cfg.Name, cfg.Motion)
	}
}
