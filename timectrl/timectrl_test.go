package timectrl

import (
	"testing"
)

func TestTimeControllerSetTime(t *testing.T) {
	tc := NewTimeController(0, 1, RealTime)

	tc.SetTime(42)
	if got := tc.Now(); got != 42 {
		t.Fatalf("Now() = %v, want 42", got)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	tc := NewTimeController(0, 0.25, Accelerated)

	done := tc.Start(1.0)
	<-done

	if got := tc.Now(); got != 1.0 {
		t.Fatalf("Now() = %v, want 1.0", got)
	}
}

func TestTimeControllerNotifiesListeners(t *testing.T) {
	tc := NewTimeController(10, 1, Accelerated)

	var ticks []float64
	tc.AddListener(func(simTime float64) {
		ticks = append(ticks, simTime)
	})

	<-tc.Start(3)

	if len(ticks) != 3 {
		t.Fatalf("expected 3 ticks, got %d (%v)", len(ticks), ticks)
	}
	for i, want := range []float64{11, 12, 13} {
		if ticks[i] != want {
			t.Fatalf("tick %d = %v, want %v", i, ticks[i], want)
		}
	}
}
