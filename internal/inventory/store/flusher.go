package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// Flusher saves the store a fixed delay after the last change.
// Every change restarts the delay; saves never overlap.
type Flusher struct {
	store     *Store
	persister Persister
	delay     time.Duration
	logger    *logger.Logger

	kick   chan struct{}
	dirty  atomic.Bool
	saveMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	lastSaved atomic.Pointer[time.Time]
}

// NewFlusher registers itself as a change listener on store.
func NewFlusher(store *Store, persister Persister, delay time.Duration, log *logger.Logger) *Flusher {
	f := &Flusher{
		store:     store,
		persister: persister,
		delay:     delay,
		logger:    log.WithComponent("flusher"),
		kick:      make(chan struct{}, 1),
	}
	store.OnChange(f.Trigger)
	return f
}

// Trigger marks the store dirty and restarts the delay.
func (f *Flusher) Trigger() {
	f.dirty.Store(true)
	select {
	case f.kick <- struct{}{}:
	default:
	}
}

// Start runs the debounce loop in a background goroutine.
func (f *Flusher) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		f.logger.Info().Dur("delay", f.delay).Msg("flusher started")

		timer := time.NewTimer(f.delay)
		stopTimer(timer)

		for {
			select {
			case <-ctx.Done():
				stopTimer(timer)
				f.logger.Info().Msg("flusher stopped")
				return
			case <-f.kick:
				stopTimer(timer)
				timer.Reset(f.delay)
			case <-timer.C:
				f.flush(ctx)
			}
		}
	}()
}

// Stop ends the loop and saves pending changes with ctx.
func (f *Flusher) Stop(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
		<-f.done
	}
	if !f.dirty.Load() {
		return nil
	}
	return f.Flush(ctx)
}

// Flush saves synchronously and returns the persister error.
func (f *Flusher) Flush(ctx context.Context) error {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	f.dirty.Store(false)
	snap := f.store.Snapshot()
	start := time.Now()
	if err := f.persister.Save(ctx, snap); err != nil {
		f.dirty.Store(true)
		return err
	}

	now := time.Now()
	f.lastSaved.Store(&now)
	f.logger.Debug().
		Int("items", len(snap.Items)).
		Int("locations", len(snap.Locations)).
		Int("categories", len(snap.Categories)).
		Int("history", len(snap.History)).
		Dur("duration", time.Since(start)).
		Msg("inventory saved")
	return nil
}

// LastSaved returns the time of the last successful save.
func (f *Flusher) LastSaved() (time.Time, bool) {
	t := f.lastSaved.Load()
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// Pending reports unsaved changes.
func (f *Flusher) Pending() bool {
	return f.dirty.Load()
}

func (f *Flusher) flush(ctx context.Context) {
	if err := f.Flush(ctx); err != nil {
		f.logger.Error().Err(err).Msg("failed to save inventory")
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
