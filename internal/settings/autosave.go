package settings

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-invitation/internal/models"
)

// Status is what the settings form shows next to the save indicator
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

const (
	DefaultAutosaveDelay = 1500 * time.Millisecond
	DefaultSavedHold     = 2 * time.Second
	DefaultErrorHold     = 3 * time.Second
)

var ErrAutosaverClosed = errors.New("autosaver closed")

// SaveFunc persists an accumulated patch
type SaveFunc func(ctx context.Context, patch Patch) error

type AutosaveConfig struct {
	Delay     time.Duration
	SavedHold time.Duration
	ErrorHold time.Duration
	// OnStatus is called on every status change with the autosaver locked;
	// it must not call back into the Autosaver.
	OnStatus func(Status)
}

// Autosaver coalesces field edits into one save once input settles.
// Every edit lands in the local copy at once, cancels the scheduled save and
// schedules a new one Delay later. Saves never overlap.
type Autosaver struct {
	mu        sync.Mutex
	saveMu    sync.Mutex
	cfg       AutosaveConfig
	save      SaveFunc
	local     models.WeddingInfo
	pending   Patch
	timer     *time.Timer
	holdTimer *time.Timer
	status    Status
	statusGen uint64
	lastErr   error
	closed    bool
	log       zerolog.Logger
}

func NewAutosaver(initial models.WeddingInfo, save SaveFunc, cfg AutosaveConfig, log zerolog.Logger) *Autosaver {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultAutosaveDelay
	}
	if cfg.SavedHold <= 0 {
		cfg.SavedHold = DefaultSavedHold
	}
	if cfg.ErrorHold <= 0 {
		cfg.ErrorHold = DefaultErrorHold
	}
	return &Autosaver{
		cfg:     cfg,
		save:    save,
		local:   initial,
		pending: Patch{},
		status:  StatusIdle,
		log:     log.With().Str("component", "autosave").Logger(),
	}
}

// Edit records one field change and (re)schedules the save
func (a *Autosaver) Edit(field, value string) error {
	return a.EditMany(Patch{field: value})
}

// EditMany records several field changes as one edit
func (a *Autosaver) EditMany(patch Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAutosaverClosed
	}

	patch.ApplyTo(&a.local)
	a.pending.Merge(patch)
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.cfg.Delay, a.fire)
	return nil
}

func (a *Autosaver) fire() {
	if err := a.flush(context.Background()); err != nil {
		a.log.Error().Err(err).Msg("autosave failed")
	}
}

// Flush cancels the scheduled save and saves the pending changes now
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	return a.flush(ctx)
}

func (a *Autosaver) flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	if len(a.pending) == 0 {
		a.mu.Unlock()
		return nil
	}
	patch := a.pending
	a.pending = Patch{}
	a.setStatusLocked(StatusSaving)
	a.mu.Unlock()

	err := a.save(ctx, patch)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		// keep the failed values for the next save unless newer edits replaced them
		for k, v := range patch {
			if _, newer := a.pending[k]; !newer {
				a.pending[k] = v
			}
		}
		a.lastErr = err
		a.setStatusLocked(StatusError)
		a.holdLocked(a.cfg.ErrorHold)
		return err
	}
	a.lastErr = nil
	a.setStatusLocked(StatusSaved)
	a.holdLocked(a.cfg.SavedHold)
	a.log.Debug().Int("fields", len(patch)).Msg("autosaved")
	return nil
}

func (a *Autosaver) setStatusLocked(s Status) {
	a.statusGen++
	if a.holdTimer != nil {
		a.holdTimer.Stop()
		a.holdTimer = nil
	}
	if a.status == s {
		return
	}
	a.status = s
	if a.cfg.OnStatus != nil {
		a.cfg.OnStatus(s)
	}
}

// holdLocked returns the indicator to idle after d unless the status moves on first
func (a *Autosaver) holdLocked(d time.Duration) {
	gen := a.statusGen
	a.holdTimer = time.AfterFunc(d, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.statusGen == gen {
			a.setStatusLocked(StatusIdle)
		}
	})
}

// Status returns the current indicator state
func (a *Autosaver) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// LastError returns the error of the most recent failed save, nil after a success
func (a *Autosaver) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Pending returns a copy of the changes not yet saved
func (a *Autosaver) Pending() Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(Patch, len(a.pending))
	out.Merge(a.pending)
	return out
}

// Snapshot returns the local copy including unsaved edits
func (a *Autosaver) Snapshot() models.WeddingInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.local
}

// Rebase replaces the local copy with info, a row saved by someone else, and
// lays the unsaved edits back on top
func (a *Autosaver) Rebase(info models.WeddingInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending.ApplyTo(&info)
	a.local = info
}

// Close saves whatever is pending and stops accepting edits
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	err := a.Flush(ctx)

	a.mu.Lock()
	if a.holdTimer != nil {
		a.holdTimer.Stop()
		a.holdTimer = nil
	}
	a.mu.Unlock()
	return err
}
