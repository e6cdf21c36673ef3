package model

import "fmt"

// GeodeticPoint is a geographic position: latitude and longitude in
// decimal degrees, altitude in metres above the ellipsoid.
type GeodeticPoint struct {
	LatitudeDeg  float64 `yaml:"latitude_deg" json:"latitude_deg"`
	LongitudeDeg float64 `yaml:"longitude_deg" json:"longitude_deg"`
	AltitudeM    float64 `yaml:"altitude_m" json:"altitude_m"`
}

// Validate checks that latitude and longitude are within their valid
// ranges. Altitude is unconstrained.
func (p GeodeticPoint) Validate() error {
	if p.LatitudeDeg < -90 || p.LatitudeDeg > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90, 90]", p.LatitudeDeg)
	}
	if p.LongitudeDeg < -180 || p.LongitudeDeg > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180, 180]", p.LongitudeDeg)
	}
	return nil
}
