package console

import (
	"sync"
	"time"
)

// Debouncer delivers only the last value pushed within delay.
type Debouncer struct {
	// fire serializes deliveries so a timer callback that already passed its
	// generation check cannot land after a later Clear.
	fire sync.Mutex

	mu      sync.Mutex
	delay   time.Duration
	fn      func(string)
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer calls fn with the settled value. A zero delay means 500ms.
func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Push restarts the timer with value.
func (d *Debouncer) Push(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.deliver(gen, value) })
}

// deliver runs fn only if no Push, Clear or Stop happened since gen was taken.
// timer.Stop cannot recall a callback that has already started.
func (d *Debouncer) deliver(gen uint64, value string) {
	d.fire.Lock()
	defer d.fire.Unlock()
	d.mu.Lock()
	current := !d.stopped && gen == d.gen
	d.mu.Unlock()
	if current {
		d.fn(value)
	}
}

// Clear cancels any pending value and fires the empty value immediately.
func (d *Debouncer) Clear() {
	d.fire.Lock()
	defer d.fire.Unlock()
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fn("")
}

// Stop cancels the pending value; later pushes are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
