package task

import (
	"time"

	"github.com/mediascribe/mediascribe/pkg/utils"
)

// StartReaper sweeps the registry on a fixed interval until stop is
// closed. One periodic sweep replaces per-task cleanup timers.
func (r *Registry) StartReaper(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if n := r.Sweep(now); n > 0 {
					utils.Log.Debugf("task reaper evicted %d finished tasks", n)
				}
			}
		}
	}()
}
