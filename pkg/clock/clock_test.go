package clock

import (
	"testing"
	"time"
)

func TestClockImplementations(t *testing.T) {
	var _ Clock = NewRealClock()
	var _ Clock = NewVirtualClock(time.Now())
}

func TestVirtualClock_ReplayWait(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	vc := NewVirtualClock(start)
	wait := vc.After(120 * time.Millisecond)
	if vc.Waiters() != 1 {
		t.Fatalf("Waiters() = %d, want 1", vc.Waiters())
	}

	vc.Advance(120 * time.Millisecond)
	select {
	case got := <-wait:
		if !got.Equal(start.Add(120 * time.Millisecond)) {
			t.Fatalf("wait fired at %v", got)
		}
	default:
		t.Fatal("wait did not fire at its deadline")
	}
}
