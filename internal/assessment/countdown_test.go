package assessment

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerSchedulerStops(t *testing.T) {
	var ticks atomic.Int32
	stop := TickerScheduler{}.Every(2*time.Millisecond, func() { ticks.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("ticker never fired three times")
		}
		time.Sleep(time.Millisecond)
	}

	stop()
	stop()
	time.Sleep(5 * time.Millisecond)
	afterStop := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != afterStop {
		t.Fatalf("ticks continued after stop: %d -> %d", afterStop, got)
	}
}

func TestTickerSchedulerStopFromCallback(t *testing.T) {
	var ticks atomic.Int32
	handoff := make(chan func(), 1)
	stopped := make(chan struct{})

	handoff <- TickerScheduler{}.Every(2*time.Millisecond, func() {
		if ticks.Add(1) == 1 {
			stop := <-handoff
			stop()
			close(stopped)
		}
	})

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("callback never ran")
	}
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != 1 {
		t.Fatalf("expected a single tick after stopping from callback, got %d", got)
	}
}
