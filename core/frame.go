package core

import (
	"fmt"
	"math"

	"github.com/oboisot/BSARGeom/model"
)

// WGS84 ellipsoid constants.
const (
	wgs84EquatorialRadiusM = 6378137.0
	wgs84FirstFlattening   = 1.0 / 298.257223563
	wgs84EccentricitySq    = wgs84FirstFlattening * (2.0 - wgs84FirstFlattening)
)

// LocalFrame is a local East-North-Up tangent plane anchored at a
// geodetic origin, fixed for the session. All geometry is computed in
// this frame for numerical stability near the origin.
//
// The frame uses the flat-Earth tangent-plane approximation: geodetic
// offsets are scaled by the WGS84 radii of curvature at the origin and
// curvature is neglected beyond that. Conversions round-trip exactly;
// the approximation against a full ellipsoidal solution stays within
// 1 mm-level agreement only near the origin and is intentionally not a
// full ellipsoidal SAR geometry.
type LocalFrame struct {
	origin model.GeodeticPoint

	// Radii of curvature at the origin, metres per radian of
	// latitude (meridian) and of longitude (prime vertical, scaled
	// by cos of latitude).
	metersPerLatRad float64
	metersPerLonRad float64
}

// NewLocalFrame builds a frame at the given origin. Fails with
// ErrInvalidCoordinate when the origin is out of range.
func NewLocalFrame(origin model.GeodeticPoint) (*LocalFrame, error) {
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCoordinate, err)
	}

	latRad := origin.LatitudeDeg * math.Pi / 180
	sinLat := math.Sin(latRad)
	w := math.Sqrt(1 - wgs84EccentricitySq*sinLat*sinLat)

	// Meridian radius of curvature M and prime vertical radius N.
	m := wgs84EquatorialRadiusM * (1 - wgs84EccentricitySq) / (w * w * w)
	n := wgs84EquatorialRadiusM / w

	return &LocalFrame{
		origin:          origin,
		metersPerLatRad: m + origin.AltitudeM,
		metersPerLonRad: (n + origin.AltitudeM) * math.Cos(latRad),
	}, nil
}

// Origin returns the geodetic anchor of the frame.
func (f *LocalFrame) Origin() model.GeodeticPoint {
	return f.origin
}

// GeodeticToLocal converts a geodetic point to local ENU metres.
// Fails with ErrInvalidCoordinate for out-of-range latitude/longitude.
func (f *LocalFrame) GeodeticToLocal(p model.GeodeticPoint) (Vec3, error) {
	if err := p.Validate(); err != nil {
		return Vec3{}, fmt.Errorf("%w: %v", ErrInvalidCoordinate, err)
	}

	dLat := (p.LatitudeDeg - f.origin.LatitudeDeg) * math.Pi / 180
	dLon := (p.LongitudeDeg - f.origin.LongitudeDeg) * math.Pi / 180

	return Vec3{
		X: dLon * f.metersPerLonRad,
		Y: dLat * f.metersPerLatRad,
		Z: p.AltitudeM - f.origin.AltitudeM,
	}, nil
}

// LocalToGeodetic converts local ENU metres back to a geodetic point.
// Exact inverse of GeodeticToLocal.
func (f *LocalFrame) LocalToGeodetic(v Vec3) model.GeodeticPoint {
	return model.GeodeticPoint{
		LatitudeDeg:  f.origin.LatitudeDeg + (v.Y/f.metersPerLatRad)*180/math.Pi,
		LongitudeDeg: f.origin.LongitudeDeg + (v.X/f.metersPerLonRad)*180/math.Pi,
		AltitudeM:    f.origin.AltitudeM + v.Z,
	}
}
