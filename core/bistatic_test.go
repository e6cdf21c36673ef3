package core

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSolve_SymmetricInTxRxLabeling(t *testing.T) {
	tx := PlatformState{Position: Vec3{X: -12000, Y: 4000, Z: 8000}, Velocity: Vec3{X: 50, Y: 190}}
	rx := PlatformState{Position: Vec3{X: 30000, Y: -2500, Z: 5500}, Velocity: Vec3{Y: 180}}
	target := Vec3{X: 10000, Y: 9000}

	ab, err := Solve(tx, rx, target)
	if err != nil {
		t.Fatalf("Solve(tx, rx): %v", err)
	}
	ba, err := Solve(rx, tx, target)
	if err != nil {
		t.Fatalf("Solve(rx, tx): %v", err)
	}

	if !almostEqual(ab.BistaticRangeM, ba.BistaticRangeM, 1e-9) {
		t.Errorf("bistatic range not symmetric: %g vs %g", ab.BistaticRangeM, ba.BistaticRangeM)
	}
	if !almostEqual(ab.BistaticAngleDeg, ba.BistaticAngleDeg, 1e-9) {
		t.Errorf("bistatic angle not symmetric: %g vs %g", ab.BistaticAngleDeg, ba.BistaticAngleDeg)
	}
	if !almostEqual(ab.RangeRateMps, ba.RangeRateMps, 1e-9) {
		t.Errorf("range rate not symmetric: %g vs %g", ab.RangeRateMps, ba.RangeRateMps)
	}
}

func TestSolve_MonostaticLimit(t *testing.T) {
	state := PlatformState{Position: Vec3{X: 0, Y: 0, Z: 8000}, Velocity: Vec3{Y: 200}}
	target := Vec3{X: 3000, Y: 1000}

	g, err := Solve(state, state, target)
	if !errors.Is(err, ErrDegenerateGeometry) {
		// Identical platform positions are a zero baseline.
		t.Fatalf("expected ErrDegenerateGeometry for coincident platforms, got geometry %+v, err %v", g, err)
	}

	// The monostatic limit proper: two distinct platforms brought
	// arbitrarily close together.
	near := state
	near.Position.X += 1e-6
	g, err = Solve(state, near, target)
	if err != nil {
		t.Fatalf("Solve near-monostatic: %v", err)
	}

	mono := state.Position.DistanceTo(target)
	if !almostEqual(g.BistaticRangeM, 2*mono, 1e-6) {
		t.Errorf("near-monostatic bistatic range %g, want 2×%g", g.BistaticRangeM, mono)
	}
	if g.BistaticAngleDeg > 1e-6 {
		t.Errorf("near-monostatic bistatic angle %g deg, want ~0", g.BistaticAngleDeg)
	}
}

func TestSolve_TargetOnPlatformIsDegenerate(t *testing.T) {
	tx := PlatformState{Position: Vec3{X: 0, Y: 0, Z: 8000}}
	rx := PlatformState{Position: Vec3{X: 50000, Y: 0, Z: 6000}}

	if _, err := Solve(tx, rx, tx.Position); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry for target on tx, got %v", err)
	}
}

// The reference scenario: airborne Tx and Rx in a 50 km across-track
// baseline, both flying due north, target off to the side.
func TestSolve_ReferenceScenario(t *testing.T) {
	tx := PlatformState{Position: Vec3{X: 0, Y: 0, Z: 8000}, Velocity: Vec3{Y: 200}}
	rx := PlatformState{Position: Vec3{X: 50000, Y: 0, Z: 6000}, Velocity: Vec3{Y: 180}}
	target := Vec3{X: 25000, Y: 10000}

	g, err := Solve(tx, rx, target)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	wantRange := tx.Position.DistanceTo(target) + rx.Position.DistanceTo(target)
	if !almostEqual(g.BistaticRangeM, wantRange, 1e-9) {
		t.Errorf("bistatic range %g, want sum of slant ranges %g", g.BistaticRangeM, wantRange)
	}
	if g.BistaticAngleDeg <= 0 || g.BistaticAngleDeg >= 180 {
		t.Errorf("bistatic angle %g deg, want strictly inside (0, 180)", g.BistaticAngleDeg)
	}
	if g.NoLineOfSight {
		t.Errorf("target should be visible from both platforms")
	}
	if !almostEqual(g.DirectRangeM, tx.Position.DistanceTo(rx.Position), 1e-9) {
		t.Errorf("direct range %g, want baseline %g", g.DirectRangeM, tx.Position.DistanceTo(rx.Position))
	}

	// Bisector points up and towards both platforms from the target.
	if g.Bisector.Z <= 0 {
		t.Errorf("bisector should point upward from a ground target, got %+v", g.Bisector)
	}
	// |β| = 2·cos(β/2).
	halfAngle := g.BistaticAngleDeg / 2 * math.Pi / 180
	if !almostEqual(g.Bisector.Norm(), 2*math.Cos(halfAngle), 1e-9) {
		t.Errorf("bisector norm %g inconsistent with bistatic angle %g deg", g.Bisector.Norm(), g.BistaticAngleDeg)
	}
}

func TestSolve_RangeRateMatchesFiniteDifference(t *testing.T) {
	tx := PlatformState{Position: Vec3{X: 0, Y: 0, Z: 8000}, Velocity: Vec3{Y: 200}}
	rx := PlatformState{Position: Vec3{X: 50000, Y: 0, Z: 6000}, Velocity: Vec3{Y: 180}}
	target := Vec3{X: 25000, Y: 10000}

	g, err := Solve(tx, rx, target)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	const dt = 1e-4
	later := func(s PlatformState) PlatformState {
		s.Position = s.Position.Add(s.Velocity.Scale(dt))
		return s
	}
	gLater, err := Solve(later(tx), later(rx), target)
	if err != nil {
		t.Fatalf("Solve at t+dt: %v", err)
	}

	numeric := (gLater.BistaticRangeM - g.BistaticRangeM) / dt
	if !almostEqual(g.RangeRateMps, numeric, 1e-3) {
		t.Errorf("range rate %g, finite difference gives %g", g.RangeRateMps, numeric)
	}

	// The bisector derivative should match a finite difference too.
	numRate := gLater.Bisector.Sub(g.Bisector).Scale(1 / dt)
	if diff := numRate.Sub(g.BisectorRate).Norm(); diff > 1e-6 {
		t.Errorf("bisector rate off from finite difference by %g", diff)
	}
}

func TestSolve_NoLineOfSightFlagged(t *testing.T) {
	tx := PlatformState{Position: Vec3{X: 0, Y: 0, Z: 8000}}
	rx := PlatformState{Position: Vec3{X: 50000, Y: 0, Z: 6000}}
	buried := Vec3{X: 25000, Y: 10000, Z: -100}

	g, err := Solve(tx, rx, buried)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !g.NoLineOfSight {
		t.Errorf("target below the ground plane should flag NoLineOfSight")
	}
	if g.BistaticRangeM <= 0 {
		t.Errorf("geometry must still be populated for a flagged target, range %g", g.BistaticRangeM)
	}
}
