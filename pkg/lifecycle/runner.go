// Package lifecycle provides a reusable start/stop wrapper for the
// background loops the bot runs (dedup janitor, session watchdog).
package lifecycle

import (
	"sync"
	"time"
)

// Runner owns one background loop. Start and Stop are idempotent and Stop
// waits for the loop to exit before returning.
type Runner struct {
	mu      sync.RWMutex
	wg      sync.WaitGroup
	running bool
	stopCh  chan struct{}
}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Start(loop func(stop <-chan struct{})) bool {
	if loop == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}

	stopCh := make(chan struct{})
	r.stopCh = stopCh
	r.running = true
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		loop(stopCh)
	}()
	return true
}

// StartTicker runs tick every interval until Stop is called.
func (r *Runner) StartTicker(interval time.Duration, tick func()) bool {
	if tick == nil || interval <= 0 {
		return false
	}
	return r.Start(func(stop <-chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tick()
			}
		}
	})
}

func (r *Runner) Stop() bool {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return false
	}
	stopCh := r.stopCh
	r.stopCh = nil
	r.running = false
	close(stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	return true
}

func (r *Runner) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}
