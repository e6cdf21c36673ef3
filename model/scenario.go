package model

import "fmt"

// Scenario is the full serializable configuration of one bistatic
// pass: the local frame origin, both platforms, the radar parameters
// and the ground target the geometry is solved for. Save/load of named
// scenarios serializes this struct verbatim.
type Scenario struct {
	// Origin anchors the local East-North-Up frame on the ellipsoid.
	Origin GeodeticPoint `yaml:"origin" json:"origin"`

	Tx PlatformConfig `yaml:"tx" json:"tx"`
	Rx PlatformConfig `yaml:"rx" json:"rx"`

	Radar RadarParams `yaml:"radar" json:"radar"`

	// TargetEastM/TargetNorthM locate the ground point of interest in
	// the local plane; the ground plane sits at local altitude zero.
	// Omitting both aims the scene at the crossing of the two squinted
	// boresight ground traces. Setting only one is invalid.
	TargetEastM  *float64 `yaml:"target_east_m,omitempty" json:"target_east_m,omitempty"`
	TargetNorthM *float64 `yaml:"target_north_m,omitempty" json:"target_north_m,omitempty"`
}

// Validate checks the whole scenario; the first failing part wins.
func (s Scenario) Validate() error {
	if err := s.Origin.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if err := s.Tx.Validate(); err != nil {
		return fmt.Errorf("tx: %w", err)
	}
	if err := s.Rx.Validate(); err != nil {
		return fmt.Errorf("rx: %w", err)
	}
	if err := s.Radar.Validate(); err != nil {
		return err
	}
	if (s.TargetEastM == nil) != (s.TargetNorthM == nil) {
		return fmt.Errorf("target: target_east_m and target_north_m must be set together")
	}
	return nil
}
