package core

import "errors"

// Hard failures: these abort a snapshot computation. Degenerate but
// meaningful results (no line of sight, infinite resolution) are
// carried as flags on the result types instead, so the rendering layer
// can still draw the frame.
var (
	// ErrInvalidCoordinate reports an out-of-range geodetic input.
	ErrInvalidCoordinate = errors.New("invalid geodetic coordinate")

	// ErrDegenerateGeometry reports an ill-posed bistatic triangle,
	// e.g. zero baseline or a target coincident with a platform.
	ErrDegenerateGeometry = errors.New("degenerate bistatic geometry")
)
