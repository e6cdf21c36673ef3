package core

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/oboisot/BSARGeom/model"
)

// sincHalfPowerWidth is the width of the squared normalized cardinal
// sine at half height: twice the positive solution of sinc²(x) = 1/2.
// Weighted-aperture processing scales all resolutions by this factor.
const sincHalfPowerWidth = 0.885892941378904715150369091935531

// ResolutionValue is a resolution extent that may be degenerate. The
// numeric value is still computable (+Inf) so plotting layers can chart
// it; Degenerate distinguishes "off the configuration edge" from a
// merely large cell. On the wire a degenerate extent carries a null
// value_m: encoding/json rejects infinities outright.
type ResolutionValue struct {
	ValueM     float64 `json:"value_m"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// resolutionValueJSON is the wire form of ResolutionValue.
type resolutionValueJSON struct {
	ValueM     *float64 `json:"value_m"`
	Degenerate bool     `json:"degenerate,omitempty"`
}

// MarshalJSON implements json.Marshaler. A non-finite extent encodes
// as a null value_m so the enclosing snapshot still serializes.
func (v ResolutionValue) MarshalJSON() ([]byte, error) {
	out := resolutionValueJSON{Degenerate: v.Degenerate}
	if !math.IsInf(v.ValueM, 0) && !math.IsNaN(v.ValueM) {
		value := v.ValueM
		out.ValueM = &value
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler; a null value_m decodes
// back to +Inf.
func (v *ResolutionValue) UnmarshalJSON(data []byte) error {
	var in resolutionValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	v.Degenerate = in.Degenerate
	if in.ValueM == nil {
		v.ValueM = math.Inf(1)
		return nil
	}
	v.ValueM = *in.ValueM
	return nil
}

func finiteOrDegenerate(value float64) ResolutionValue {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return ResolutionValue{ValueM: math.Inf(1), Degenerate: true}
	}
	return ResolutionValue{ValueM: value}
}

// ResolutionCell is the ground/slant resolution cell and the ambiguity
// verdict for one bistatic geometry.
type ResolutionCell struct {
	// SlantRange and CrossRange span the cell along and across the
	// bisector direction in the slant plane.
	SlantRange ResolutionValue `json:"slant_range"`
	CrossRange ResolutionValue `json:"cross_range"`
	// GroundRange and GroundCrossRange are the ground-plane
	// projections, from the ground-projected bisector.
	GroundRange      ResolutionValue `json:"ground_range"`
	GroundCrossRange ResolutionValue `json:"ground_cross_range"`

	// CellAreaM2 is the ground resolution cell area (+Inf when either
	// axis is degenerate).
	CellAreaM2 float64 `json:"cell_area_m2"`

	// OrientationDeg is the compass azimuth of the range-resolution
	// axis (the ground-projected bisector); the cross-range axis is
	// perpendicular to it in the ground plane.
	OrientationDeg float64 `json:"orientation_deg"`

	// IntegrationTimeS is the coherent integration time actually used:
	// the configured value, or the automatic square-pixel value when
	// none was configured.
	IntegrationTimeS float64 `json:"integration_time_s"`

	DopplerFrequencyHz          float64 `json:"doppler_frequency_hz"`
	DopplerRateHz               float64 `json:"doppler_rate_hz"`
	ProcessedDopplerBandwidthHz float64 `json:"processed_doppler_bandwidth_hz"`

	// DopplerAmbiguous reports whether the processed Doppler bandwidth
	// exceeds the unambiguous interval set by the PRF. Always false
	// when no PRF is configured.
	DopplerAmbiguous bool `json:"doppler_ambiguous"`
	// UnambiguousDopplerHz is the half-width of the unambiguous
	// Doppler interval, ±PRF/2. Zero when no PRF is configured.
	UnambiguousDopplerHz float64 `json:"unambiguous_doppler_hz"`
}

// resolutionCell aliases ResolutionCell so the custom JSON round-trip
// keeps the default field mapping without recursing.
type resolutionCell ResolutionCell

type resolutionCellJSON struct {
	resolutionCell
	CellAreaM2 *float64 `json:"cell_area_m2"`
}

// MarshalJSON implements json.Marshaler. The cell area is null when it
// is not finite; a degenerate axis must never fail the snapshot encode.
func (c ResolutionCell) MarshalJSON() ([]byte, error) {
	out := resolutionCellJSON{resolutionCell: resolutionCell(c)}
	if !math.IsInf(c.CellAreaM2, 0) && !math.IsNaN(c.CellAreaM2) {
		area := c.CellAreaM2
		out.CellAreaM2 = &area
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler; a null cell area decodes
// back to +Inf.
func (c *ResolutionCell) UnmarshalJSON(data []byte) error {
	var in resolutionCellJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = ResolutionCell(in.resolutionCell)
	if in.CellAreaM2 == nil {
		c.CellAreaM2 = math.Inf(1)
	} else {
		c.CellAreaM2 = *in.CellAreaM2
	}
	return nil
}

// Resolution derives the resolution cell and ambiguity metrics from a
// solved geometry and the radar parameters. Degenerate axes (bistatic
// angle at 180°, zero bisector rotation rate) come back flagged, never
// as an error: they are reachable user configurations, not faults.
func Resolution(g BistaticGeometry, p model.RadarParams) (ResolutionCell, error) {
	if err := p.Validate(); err != nil {
		return ResolutionCell{}, fmt.Errorf("resolution: %w", err)
	}

	lambda := p.Wavelength()
	weight := 1.0
	if p.WeightedApertures {
		weight = sincHalfPowerWidth
	}

	// |β| = 2·cos(β/2): zero exactly when the look vectors oppose
	// (β = 180°) and the range gradient vanishes.
	betaNorm := g.Bisector.Norm()
	dBetaNorm := g.BisectorRate.Norm()
	betaGround := g.Bisector.Horizontal()
	dBetaGround := g.BisectorRate.Horizontal()
	betaGroundNorm := betaGround.Norm()
	dBetaGroundNorm := dBetaGround.Norm()

	integrationTime := p.IntegrationTimeS
	if integrationTime == 0 {
		integrationTime = autoIntegrationTime(p, betaGroundNorm, dBetaGroundNorm, betaNorm, dBetaNorm)
	}

	c := model.SpeedOfLight
	cell := ResolutionCell{
		SlantRange:       finiteOrDegenerate(weight * c / (p.BandwidthHz * betaNorm)),
		GroundRange:      finiteOrDegenerate(weight * c / (p.BandwidthHz * betaGroundNorm)),
		CrossRange:       finiteOrDegenerate(weight * lambda / (integrationTime * dBetaNorm)),
		GroundCrossRange: finiteOrDegenerate(weight * lambda / (integrationTime * dBetaGroundNorm)),
		OrientationDeg:   compassAzimuthDeg(betaGround),
		IntegrationTimeS: integrationTime,
	}

	crossArea := betaGround.Cross(dBetaGround).Norm()
	cell.CellAreaM2 = weight * weight * c * lambda / (p.BandwidthHz * integrationTime * crossArea)
	if math.IsNaN(cell.CellAreaM2) {
		cell.CellAreaM2 = math.Inf(1)
	}

	cell.DopplerFrequencyHz = g.DopplerFrequencyHz(lambda)
	cell.DopplerRateHz = g.DopplerRateHz(lambda)
	cell.ProcessedDopplerBandwidthHz = integrationTime * math.Abs(cell.DopplerRateHz)

	if p.PRFHz > 0 {
		cell.UnambiguousDopplerHz = p.PRFHz / 2
		cell.DopplerAmbiguous = cell.ProcessedDopplerBandwidthHz > p.PRFHz
	}

	return cell, nil
}

// autoIntegrationTime is the coherent integration time that yields
// square resolution cells: T = (B/f_c)·|β|/|dβ|, evaluated on the
// ground-projected bisector when it rotates, otherwise on the slant
// bisector. Returns 0 when the bisector does not rotate at all; the
// cross-range axis is degenerate regardless of T in that case.
func autoIntegrationTime(p model.RadarParams, betaGroundNorm, dBetaGroundNorm, betaNorm, dBetaNorm float64) float64 {
	centerFreq := model.SpeedOfLight / p.Wavelength()
	switch {
	case dBetaGroundNorm > 0:
		return p.BandwidthHz / centerFreq * betaGroundNorm / dBetaGroundNorm
	case dBetaNorm > 0:
		return p.BandwidthHz / centerFreq * betaNorm / dBetaNorm
	default:
		return 0
	}
}

// compassAzimuthDeg converts a ground-plane vector to a compass
// bearing: 0° = north, 90° = east. Zero-length input reports 0.
func compassAzimuthDeg(v Vec3) float64 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	deg := math.Atan2(v.X, v.Y) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
