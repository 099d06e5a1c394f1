package assessment

import (
	"sync"
	"time"
)

const tickInterval = time.Second

// Scheduler runs fn every interval until the returned stop function is
// called. stop must be safe to call more than once and from inside fn.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A stop issued while waiting on the ticker wins over a pending tick.
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// countdown is the cancellable task owned by a Session for one attempt.
type countdown struct {
	stop func()
}

func (c *countdown) cancel() {
	if c == nil || c.stop == nil {
		return
	}
	c.stop()
	c.stop = nil
}
