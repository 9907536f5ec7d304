package selection

import (
	"sync"
	"time"
)

// Dwell is a cancellable deferred action used to detect a sustained press.
// At most one action is armed at a time.
type Dwell struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Arm schedules fn after d, superseding any previously armed action.
func (d *Dwell) Arm(after time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(after, func() {
		d.mu.Lock()
		current := d.gen == gen && d.timer != nil
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel stops the armed action. After Cancel returns the action will not start.
func (d *Dwell) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Armed reports whether an action is waiting to fire.
func (d *Dwell) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Dwell) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// A callback already past Stop sees a stale generation and returns.
	d.gen++
}
