package core

import (
	"fmt"
	"math"
)

// BistaticGeometry is the instantaneous geometry of the bistatic
// triangle Tx - target - Rx, fully derived from the two platform
// states and the target point. Immutable once built.
type BistaticGeometry struct {
	Tx     PlatformState
	Rx     PlatformState
	Target Vec3

	// TxRangeM and RxRangeM are the two monostatic slant ranges.
	TxRangeM float64
	RxRangeM float64
	// BistaticRangeM is their sum, the defining bistatic quantity.
	BistaticRangeM float64
	// DirectRangeM is the Tx-Rx baseline length.
	DirectRangeM float64

	// BistaticAngleDeg is the angle at the target between the two look
	// directions, in [0, 180].
	BistaticAngleDeg float64

	// Bisector is the sum of the two unit look vectors (target to Tx
	// plus target to Rx). Its direction is the monostatic-equivalent
	// look direction; its norm equals 2·cos(β/2).
	Bisector Vec3
	// BisectorRate is the time derivative of Bisector, combining both
	// platforms' velocity components perpendicular to their look
	// vectors. Its norm drives the cross-range resolution.
	BisectorRate Vec3

	// RangeRateMps is the time derivative of BistaticRangeM. The
	// bistatic Doppler frequency is -RangeRateMps/λ.
	RangeRateMps float64
	// DopplerRateScaleMps2 is the λ-free magnitude of the Doppler
	// rate: multiply by -1/λ for the rate in Hz/s.
	DopplerRateScaleMps2 float64

	// NoLineOfSight is set when the ground plane occludes the segment
	// from either platform to the target. The geometry is still
	// mathematically defined and fully populated.
	NoLineOfSight bool
}

// DopplerFrequencyHz returns the bistatic Doppler shift of the target
// for the given wavelength.
func (g *BistaticGeometry) DopplerFrequencyHz(wavelengthM float64) float64 {
	return -g.RangeRateMps / wavelengthM
}

// DopplerRateHz returns the bistatic Doppler rate in Hz/s for the
// given wavelength.
func (g *BistaticGeometry) DopplerRateHz(wavelengthM float64) float64 {
	return -g.DopplerRateScaleMps2 / wavelengthM
}

// Solve computes the bistatic geometry for one target point.
//
// Fails with ErrDegenerateGeometry when the two platforms coincide
// (zero baseline, bistatic angle undefined) or when the target sits on
// a platform (look vector undefined). A target without line of sight
// is not an error: the geometry is returned with NoLineOfSight set.
func Solve(tx, rx PlatformState, target Vec3) (BistaticGeometry, error) {
	baseline := tx.Position.Sub(rx.Position)
	if baseline.IsZero() {
		return BistaticGeometry{}, fmt.Errorf("%w: tx and rx coincide at (%.3f, %.3f, %.3f)",
			ErrDegenerateGeometry, tx.Position.X, tx.Position.Y, tx.Position.Z)
	}

	toTx := tx.Position.Sub(target)
	toRx := rx.Position.Sub(target)
	txRange := toTx.Norm()
	rxRange := toRx.Norm()
	if txRange == 0 || rxRange == 0 {
		return BistaticGeometry{}, fmt.Errorf("%w: target coincides with a platform", ErrDegenerateGeometry)
	}

	uTx := toTx.Scale(1 / txRange)
	uRx := toRx.Scale(1 / rxRange)

	// Bisector vector and its first temporal derivative. |β| = 2cos(β/2)
	// gives the bistatic angle without a second acos of a quotient.
	bisector := uTx.Add(uRx)
	angle := 2 * math.Acos(clampUnit(0.5*bisector.Norm()))

	bisectorRate := perpComponent(tx.Velocity, uTx).Scale(1 / txRange).
		Add(perpComponent(rx.Velocity, uRx).Scale(1 / rxRange))

	// d/dt |platform - target| is the velocity projected on the look
	// vector; the bistatic range rate sums both legs.
	rangeRate := tx.Velocity.Dot(uTx) + rx.Velocity.Dot(uRx)

	dopplerScale := velocitySquaredPerp(tx.Velocity, uTx)/txRange +
		velocitySquaredPerp(rx.Velocity, uRx)/rxRange

	return BistaticGeometry{
		Tx:                   tx,
		Rx:                   rx,
		Target:               target,
		TxRangeM:             txRange,
		RxRangeM:             rxRange,
		BistaticRangeM:       txRange + rxRange,
		DirectRangeM:         baseline.Norm(),
		BistaticAngleDeg:     angle * 180 / math.Pi,
		Bisector:             bisector,
		BisectorRate:         bisectorRate,
		RangeRateMps:         rangeRate,
		DopplerRateScaleMps2: dopplerScale,
		NoLineOfSight:        !hasGroundPlaneLoS(tx.Position, target) || !hasGroundPlaneLoS(rx.Position, target),
	}, nil
}

// perpComponent returns v minus its projection on the unit vector u.
func perpComponent(v, u Vec3) Vec3 {
	return v.Sub(u.Scale(v.Dot(u)))
}

// velocitySquaredPerp returns the squared speed component
// perpendicular to the line of sight: |v|²·(1 - (v̂·û)²).
func velocitySquaredPerp(v, u Vec3) float64 {
	speedSq := v.NormSquared()
	if speedSq == 0 {
		return 0
	}
	sinGamma := v.Scale(1 / math.Sqrt(speedSq)).Dot(u)
	return speedSq * (1 - sinGamma*sinGamma)
}

// hasGroundPlaneLoS checks whether the straight segment between a
// platform and the target stays at or above the local ground plane.
// The segment's height is linear in the path parameter, so it dips
// below the plane only if an endpoint does.
func hasGroundPlaneLoS(platform, target Vec3) bool {
	return platform.Z >= 0 && target.Z >= 0
}
