package timectrl

import (
	"sync"
	"time"
)

// SimClock is read-only access to simulation time, in seconds on the
// engine's time axis. Consumers that only need "what time is it"
// depend on this instead of the concrete controller.
type SimClock interface {
	// Now returns the current simulation time in seconds.
	Now() float64
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances in step with wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as fast as the listeners can keep up,
	// still stepping by Tick.
	Accelerated
)

// TimeController drives an animation/playback loop over simulation
// time and notifies registered listeners every tick. The engine itself
// is pure; the controller only schedules calls into it.
type TimeController struct {
	mu sync.RWMutex

	StartS float64
	TickS  float64
	Mode   Mode

	currentS  float64
	listeners []func(float64)
}

// NewTimeController constructs a controller starting at startS
// simulation seconds, stepping by tickS.
func NewTimeController(startS, tickS float64, mode Mode) *TimeController {
	return &TimeController{
		StartS:   startS,
		TickS:    tickS,
		Mode:     mode,
		currentS: startS,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentS
}

// SetTime jumps the simulation time without notifying listeners; the
// next tick fires from the new time.
func (tc *TimeController) SetTime(t float64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentS = t
}

// AddListener registers a callback invoked on every tick with the new
// simulation time. Not safe to call after Start.
func (tc *TimeController) AddListener(fn func(float64)) {
	tc.listeners = append(tc.listeners, fn)
}

// Start runs the controller for durationS simulation seconds in a
// separate goroutine and returns a channel closed when it finishes.
func (tc *TimeController) Start(durationS float64) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.currentS
		tc.mu.Unlock()

		var ticker *time.Ticker
		if tc.Mode == RealTime {
			ticker = time.NewTicker(time.Duration(tc.TickS * float64(time.Second)))
			defer ticker.Stop()
		}

		// Half-tick slack keeps float accumulation from dropping the
		// final step.
		for elapsed := 0.0; elapsed < durationS-tc.TickS/2; elapsed += tc.TickS {
			if ticker != nil {
				<-ticker.C
			}
			simTime += tc.TickS

			tc.mu.Lock()
			tc.currentS = simTime
			tc.mu.Unlock()

			for _, fn := range tc.listeners {
				fn(simTime)
			}
		}
	}()
	return done
}
