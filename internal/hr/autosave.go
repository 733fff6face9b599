package hr

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/erp-portal/portal/internal/tokens"
)

// Observer counts background save outcomes ("saved" or "failed").
type Observer interface {
	ObserveAutosave(outcome string)
}

// Autosaver queues onboarding drafts and saves the latest one per user once
// edits have been idle for the debounce window.
type Autosaver struct {
	repo      Repository
	debouncer *Debouncer
	timeout   time.Duration
	logger    *slog.Logger
	observer  Observer

	mu     sync.Mutex
	seq    uint64
	drafts map[string]queued
}

type queued struct {
	seq    uint64
	record Record
}

// NewAutosaver constructs an Autosaver. timeout bounds each background save.
func NewAutosaver(repo Repository, delay, timeout time.Duration, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Autosaver{
		repo:      repo,
		debouncer: NewDebouncer(delay),
		timeout:   timeout,
		logger:    logger,
		drafts:    make(map[string]queued),
	}
}

// WithObserver reports save outcomes to o. Call it before the first Queue.
func (a *Autosaver) WithObserver(o Observer) *Autosaver {
	a.observer = o
	return a
}

// Queue schedules a save of rec for key. Locked drafts are never queued.
// The save runs with a detached copy of the caller's tokens because the
// request that queued it is gone by then.
func (a *Autosaver) Queue(key string, src *tokens.Session, rec Record) bool {
	if rec.Locked() {
		return false
	}
	rec = cloneRecord(rec)
	detached := src.Detached()

	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.drafts[key] = queued{seq: seq, record: rec}
	a.mu.Unlock()

	ok := a.debouncer.Schedule(key, func() { a.save(key, seq, detached, rec) })
	if !ok {
		a.forget(key, seq)
	}
	return ok
}

// Draft returns the queued, not yet saved, draft of key.
func (a *Autosaver) Draft(key string) (Record, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	q, ok := a.drafts[key]
	if !ok {
		return Record{}, false
	}
	return cloneRecord(q.record), true
}

// Cancel drops any pending save of key.
func (a *Autosaver) Cancel(key string) {
	a.debouncer.Cancel(key)
	a.mu.Lock()
	delete(a.drafts, key)
	a.mu.Unlock()
}

// Pending reports whether a save of key is armed.
func (a *Autosaver) Pending(key string) bool {
	return a.debouncer.Pending(key)
}

// Stop cancels pending saves and waits for running ones.
func (a *Autosaver) Stop() {
	a.debouncer.Stop()
}

func (a *Autosaver) save(key string, seq uint64, src *tokens.Session, rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	outcome := "saved"
	if _, err := a.repo.Save(ctx, src, rec); err != nil {
		outcome = "failed"
		a.logger.Warn("onboarding autosave failed", slog.String("user", key), slog.Any("error", err))
	} else {
		a.logger.Debug("onboarding autosaved", slog.String("user", key))
	}
	if a.observer != nil {
		a.observer.ObserveAutosave(outcome)
	}
	a.forget(key, seq)
}

// forget removes the queued draft unless a newer one replaced it.
func (a *Autosaver) forget(key string, seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if q, ok := a.drafts[key]; ok && q.seq == seq {
		delete(a.drafts, key)
	}
}
