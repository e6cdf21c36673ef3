package model

import "fmt"

// MotionSource indicates how a platform's trajectory is generated.
type MotionSource string

const (
	// MotionSourceLinear is a straight constant-velocity pass in the
	// local plane at constant altitude. This is the default.
	MotionSourceLinear MotionSource = "linear"
	// MotionSourceTLE propagates the platform with SGP4 from a two-line
	// element set (spaceborne illuminator or receiver).
	MotionSourceTLE MotionSource = "tle"
)

// PlatformConfig describes one radar platform (transmitter or receiver)
// for a simulation run. Values are immutable once a run starts; the GUI
// layer edits them only between runs.
type PlatformConfig struct {
	Name string `yaml:"name" json:"name"`

	// AltitudeM is the platform height above the local ground plane.
	AltitudeM float64 `yaml:"altitude_m" json:"altitude_m"`
	// GroundSpeedMps is the horizontal speed along the heading.
	GroundSpeedMps float64 `yaml:"ground_speed_mps" json:"ground_speed_mps"`
	// HeadingDeg is the compass bearing of the velocity vector:
	// 0° = north, 90° = east.
	HeadingDeg float64 `yaml:"heading_deg" json:"heading_deg"`
	// SquintDeg is the angle between the velocity vector and the
	// antenna boresight, positive towards starboard. Heading plus
	// squint is the compass azimuth of the boresight ground trace;
	// when the scenario names no target, the two traces aim it.
	SquintDeg float64 `yaml:"squint_deg" json:"squint_deg"`
	// StartEastM/StartNorthM place the platform ground track at t = 0.
	StartEastM  float64 `yaml:"start_east_m" json:"start_east_m"`
	StartNorthM float64 `yaml:"start_north_m" json:"start_north_m"`

	// Motion selects the trajectory generator. Empty means linear.
	Motion MotionSource `yaml:"motion,omitempty" json:"motion,omitempty"`
	// TLELine1/TLELine2 are required when Motion == MotionSourceTLE.
	TLELine1 string `yaml:"tle_line1,omitempty" json:"tle_line1,omitempty"`
	TLELine2 string `yaml:"tle_line2,omitempty" json:"tle_line2,omitempty"`
}

// Validate checks structural constraints on the configuration.
func (c PlatformConfig) Validate() error {
	switch c.Motion {
	case "", MotionSourceLinear:
		if c.AltitudeM < 0 {
			return fmt.Errorf("platform %q: altitude %.1f m below ground plane", c.Name, c.AltitudeM)
		}
		if c.GroundSpeedMps < 0 {
			return fmt.Errorf("platform %q: negative ground speed %.1f m/s", c.Name, c.GroundSpeedMps)
		}
	case MotionSourceTLE:
		if c.TLELine1 == "" || c.TLELine2 == "" {
			return fmt.Errorf("platform %q: motion source %q requires both TLE lines", c.Name, c.Motion)
		}
	default:
		return fmt.Errorf("platform %q: unknown motion source %q", c.Name, c.Motion)
	}
	return nil
}
