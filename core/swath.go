package core

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// SwathOptions tunes the ground-plane sampling of iso-loci.
type SwathOptions struct {
	// AzimuthSamples is the number of sweep rays (default 360).
	AzimuthSamples int
	// ToleranceM is the bisection tolerance on the range residual
	// along each ray (default 1e-3 m).
	ToleranceM float64
	// Workers bounds the sampling fan-out (default runtime.NumCPU()).
	Workers int
}

func (o SwathOptions) withDefaults() SwathOptions {
	if o.AzimuthSamples <= 0 {
		o.AzimuthSamples = 360
	}
	if o.ToleranceM <= 0 {
		o.ToleranceM = 1e-3
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// bistaticRangeAt is the bistatic range of a ground-plane point.
func bistaticRangeAt(tx, rx PlatformState, p Vec3) float64 {
	return tx.Position.DistanceTo(p) + rx.Position.DistanceTo(p)
}

// MinimumGroundRange finds the ground-plane point with the smallest
// bistatic range and that range. By symmetry the minimizer lies on the
// ground trace of the Tx-Rx baseline, where the range is convex;
// golden-section search over an expanded bracket nails it down.
func MinimumGroundRange(tx, rx PlatformState) (Vec3, float64) {
	txGround := tx.Position.Horizontal()
	rxGround := rx.Position.Horizontal()

	dir := rxGround.Sub(txGround)
	span := dir.Norm()
	if span == 0 {
		// Vertical baseline: the minimum sits at the common ground
		// trace.
		return txGround, bistaticRangeAt(tx, rx, txGround)
	}
	dir = dir.Scale(1 / span)

	at := func(u float64) Vec3 { return txGround.Add(dir.Scale(u)) }
	f := func(u float64) float64 { return bistaticRangeAt(tx, rx, at(u)) }

	// The minimizer is between the ground traces for any altitudes.
	lo, hi := 0.0, span
	const invPhi = 0.6180339887498949
	a, b := hi-(hi-lo)*invPhi, lo+(hi-lo)*invPhi
	fa, fb := f(a), f(b)
	for hi-lo > 1e-6 {
		if fa < fb {
			hi, b, fb = b, a, fa
			a = hi - (hi-lo)*invPhi
			fa = f(a)
		} else {
			lo, a, fa = a, b, fb
			b = lo + (hi-lo)*invPhi
			fb = f(b)
		}
	}
	u := (lo + hi) / 2
	return at(u), f(u)
}

// IsoRangePoints samples the iso-range locus on the ground plane: the
// set of points whose bistatic range equals rangeM.
//
// The locus is an exact ellipse only when Tx and Rx fly at the same
// altitude; for unequal altitudes it is the projection of a 3D locus
// and has no closed ground-plane form. It is therefore computed
// numerically: rays are swept in azimuth from the interior minimum-
// range point and the range equality is solved along each ray by
// bracketing and bisection. Points come back in sweep order, forming a
// closed polyline.
//
// A level below the minimum reachable ground range has no solution and
// returns an error.
func IsoRangePoints(tx, rx PlatformState, rangeM float64, opts SwathOptions) ([]Vec3, error) {
	opts = opts.withDefaults()

	center, minRange := MinimumGroundRange(tx, rx)
	if rangeM <= minRange {
		return nil, fmt.Errorf("iso-range level %.3f m not reachable on ground plane (minimum %.3f m)", rangeM, minRange)
	}

	points := make([]Vec3, opts.AzimuthSamples)
	forEachIndex(opts.AzimuthSamples, opts.Workers, func(i int) {
		theta := 2 * math.Pi * float64(i) / float64(opts.AzimuthSamples)
		dir := Vec3{X: math.Sin(theta), Y: math.Cos(theta)}
		points[i] = solveRangeAlongRay(tx, rx, center, dir, rangeM, opts.ToleranceM)
	})
	return points, nil
}

// solveRangeAlongRay finds the distance s ≥ 0 with
// bistaticRange(center + s·dir) == rangeM. Range grows without bound
// along the ray, so a doubling bracket always closes around the
// crossing.
func solveRangeAlongRay(tx, rx PlatformState, center, dir Vec3, rangeM, tolM float64) Vec3 {
	residual := func(s float64) float64 {
		return bistaticRangeAt(tx, rx, center.Add(dir.Scale(s))) - rangeM
	}

	lo, hi := 0.0, rangeM
	for residual(hi) < 0 {
		lo = hi
		hi *= 2
	}
	for hi-lo > tolM {
		mid := (lo + hi) / 2
		if residual(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return center.Add(dir.Scale((lo + hi) / 2))
}

// GridField is a scalar field evaluated eagerly over a square ground
// patch centered on the local origin. It implements Field for contour
// extraction, and records the mapping back to ground metres.
type GridField struct {
	n       int
	extentM float64
	values  []float64
}

// Dimensions implements Field.
func (f *GridField) Dimensions() (int, int) { return f.n, f.n }

// ZAt implements Field.
func (f *GridField) ZAt(x, y int) float64 { return f.values[y*f.n+x] }

// GroundPoint maps fractional grid coordinates to the ground plane.
func (f *GridField) GroundPoint(p Point2) Vec3 {
	half := f.extentM / 2
	step := f.extentM / float64(f.n-1)
	return Vec3{X: -half + p.X*step, Y: -half + p.Y*step}
}

// NewGridField samples fn over an n×n grid spanning extentM metres in
// each ground direction. Samples are independent; rows are filled by a
// bounded worker pool.
func NewGridField(extentM float64, n, workers int, fn func(ground Vec3) float64) *GridField {
	if n < 2 {
		n = 2
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	f := &GridField{n: n, extentM: extentM, values: make([]float64, n*n)}
	forEachIndex(n, workers, func(y int) {
		for x := 0; x < n; x++ {
			f.values[y*f.n+x] = fn(f.GroundPoint(Point2{X: float64(x), Y: float64(y)}))
		}
	})
	return f
}

// NewRangeField samples the bistatic range over the ground patch.
func NewRangeField(tx, rx PlatformState, extentM float64, n, workers int) *GridField {
	return NewGridField(extentM, n, workers, func(p Vec3) float64 {
		return bistaticRangeAt(tx, rx, p)
	})
}

// NewDopplerField samples the bistatic Doppler frequency over the
// ground patch for the given wavelength. Points coinciding with a
// platform sample as NaN and drop out of contour extraction.
func NewDopplerField(tx, rx PlatformState, wavelengthM, extentM float64, n, workers int) *GridField {
	return NewGridField(extentM, n, workers, func(p Vec3) float64 {
		g, err := Solve(tx, rx, p)
		if err != nil {
			return math.NaN()
		}
		return g.DopplerFrequencyHz(wavelengthM)
	})
}

// GroundContours extracts the level-set polylines of the field and
// maps them into ground-plane metres.
func GroundContours(f *GridField, levels []float64) [][]Vec3 {
	var out [][]Vec3
	for _, level := range levels {
		for _, c := range MarchingSquares(f, level) {
			line := make([]Vec3, len(c))
			for i, p := range c {
				line[i] = f.GroundPoint(p)
			}
			out = append(out, line)
		}
	}
	return out
}

// forEachIndex runs fn for every index in [0, n) across at most
// workers goroutines. Each index is independent; no synchronization
// beyond the final join.
func forEachIndex(n, workers int, fn func(i int)) {
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	next := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		next <- i
	}
	close(next)
	wg.Wait()
}
