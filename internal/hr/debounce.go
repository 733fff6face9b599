package hr

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled function of a key once the key
// has been idle for the delay. Scheduling again before the delay elapses
// supersedes the earlier function entirely.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	timers  map[string]pendingCall
	stopped bool
	running sync.WaitGroup
}

type pendingCall struct {
	gen   uint64
	timer *time.Timer
}

// NewDebouncer constructs a Debouncer with the given idle window.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, timers: make(map[string]pendingCall)}
}

// Schedule arms fn for key, replacing any pending call. It reports false
// once the debouncer is stopped.
func (d *Debouncer) Schedule(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	if prev, ok := d.timers[key]; ok {
		prev.timer.Stop()
	}
	d.seq++
	gen := d.seq
	d.timers[key] = pendingCall{gen: gen, timer: time.AfterFunc(d.delay, func() { d.fire(key, gen, fn) })}
	return true
}

// Cancel drops the pending call of key and reports whether one existed.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.timers[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.timers, key)
	return true
}

// Pending reports whether key has an armed call.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}

// Stop cancels every pending call and waits for running ones to finish.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for key, p := range d.timers {
		p.timer.Stop()
		delete(d.timers, key)
	}
	d.mu.Unlock()
	d.running.Wait()
}

// fire runs fn only when gen is still the armed generation of key. A timer
// that already fired when Stop or Schedule raced it finds a newer or missing
// entry and returns.
func (d *Debouncer) fire(key string, gen uint64, fn func()) {
	d.mu.Lock()
	p, ok := d.timers[key]
	if !ok || p.gen != gen || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	fn()
}
