package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crypto_track/internal/domain"
	"crypto_track/internal/infra"
)

// State is the refresh lifecycle state: Idle -> Loading -> (Ready | Failed) -> Loading -> ...
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// errNoticeMessage is the user-visible toast shown on a failed refresh
const errNoticeMessage = "Could not fetch cryptocurrency prices. Please try again later."

// Notice is a user-visible, non-blocking notification. Seq increases on
// every new failure event so consumers can show each notice exactly once.
type Notice struct {
	Seq     uint64 `json:"seq"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// PreferenceStore persists the display-currency selection across restarts
type PreferenceStore interface {
	SaveCurrency(c domain.Currency) error
	LoadCurrency() (domain.Currency, error)
}

// Refresher orchestrates periodic market-data fetching. It owns the held
// snapshot batch, the active display currency, and the refresh timer; the
// timer is cancelled by Stop, never left dangling.
//
// Overlapping fetches (timer tick plus a user-triggered refresh) are
// tolerated: the later-completing response wins.
type Refresher struct {
	provider domain.SnapshotProvider
	notifier domain.ShellNotifier
	prefs    PreferenceStore
	ids      []string
	interval time.Duration

	mu        sync.RWMutex
	state     State
	batch     []domain.AssetSnapshot
	currency  domain.Currency
	lastErr   error
	notice    *Notice
	noticeSeq uint64
	subs      map[int]func()
	nextSub   int

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a refresher with the default 60 second cadence
func NewRefresher(provider domain.SnapshotProvider, ids []string) *Refresher {
	return &Refresher{
		provider: provider,
		notifier: domain.NoopShellNotifier{},
		ids:      ids,
		interval: 60 * time.Second,
		state:    StateIdle,
		currency: domain.CurrencyUSD,
		subs:     make(map[int]func()),
	}
}

// NewRefresherWithConfig creates a refresher with custom wiring.
// notifier and prefs may be nil.
func NewRefresherWithConfig(provider domain.SnapshotProvider, ids []string, interval time.Duration, notifier domain.ShellNotifier, prefs PreferenceStore) *Refresher {
	r := NewRefresher(provider, ids)
	if interval > 0 {
		r.interval = interval
	}
	if notifier != nil {
		r.notifier = notifier
	}
	r.prefs = prefs
	return r
}

// SetNotifier wires the shell notifier after construction. The bridge
// needs the refresher as its controls, so one of the two is always
// created first; call this before Start.
func (r *Refresher) SetNotifier(n domain.ShellNotifier) {
	if n != nil {
		r.notifier = n
	}
}

// Start triggers an immediate fetch and schedules the recurring one.
// The wall-clock cadence is fixed: user-triggered refreshes never shift
// the timer phase.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return nil // already running
	}
	ctx, cancel := context.WithCancel(ctx)
	r.runCtx = ctx
	r.cancel = cancel

	if r.prefs != nil {
		if c, err := r.prefs.LoadCurrency(); err == nil {
			r.currency = c
		} else {
			slog.Warn("Failed to load currency preference", slog.Any("error", err))
		}
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Refresh loop panic recovered", slog.Any("panic", rec))
			}
		}()

		// Immediate fetch on start
		r.fetch(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Refresh loop stopped")
				return
			case <-ticker.C:
				r.fetch(ctx)
			}
		}
	}()

	return nil
}

// Stop cancels the recurring schedule and waits for in-flight work.
// Safe to call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		r.wg.Wait()
	}
}

// RefreshNow runs a user-triggered fetch, independent of the timer.
// The timer keeps its original cadence.
func (r *Refresher) RefreshNow() {
	r.mu.Lock()
	ctx := r.runCtx
	if ctx == nil || r.cancel == nil || ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	// Add under the lock so Stop cannot start waiting in between
	r.wg.Add(1)
	r.mu.Unlock()
	go func() {
		defer r.wg.Done()
		r.fetch(ctx)
	}()
}

// SetCurrency switches the display currency instantly. Both currencies
// are fetched together, so no refetch is needed.
func (r *Refresher) SetCurrency(c domain.Currency) {
	r.mu.Lock()
	changed := r.currency != c
	r.currency = c
	prefs := r.prefs
	r.mu.Unlock()

	if !changed {
		return
	}
	if prefs != nil {
		if err := prefs.SaveCurrency(c); err != nil {
			slog.Warn("Failed to persist currency preference", slog.Any("error", err))
		}
	}
	r.notifier.NotifySelectionChanged()
	r.publish()
}

// Currency returns the active display currency
func (r *Refresher) Currency() domain.Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currency
}

// State returns the current lifecycle state
func (r *Refresher) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// LastError returns the error of the most recent failed fetch, nil after
// a success
func (r *Refresher) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Notice returns the current user-visible notification, nil when none
func (r *Refresher) Notice() *Notice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.notice == nil {
		return nil
	}
	n := *r.notice
	return &n
}

// Snapshots returns a deep copy of the held batch, newest fetch wins.
// Callers may mutate the copy freely.
func (r *Refresher) Snapshots() []domain.AssetSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.CloneBatch(r.batch)
}

// Snapshot returns one asset from the held batch by id
func (r *Refresher) Snapshot(id string) (domain.AssetSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.batch {
		if r.batch[i].ID == id {
			return r.batch[i].Clone(), nil
		}
	}
	return domain.AssetSnapshot{}, domain.ErrUnknownAsset
}

// Subscribe registers a change callback and returns its unsubscribe
// function. Callbacks fire after every state, batch, currency, or notice
// change; they must not block.
func (r *Refresher) Subscribe(fn func()) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// fetch runs one refresh cycle and applies its outcome
func (r *Refresher) fetch(ctx context.Context) {
	r.mu.Lock()
	r.state = StateLoading
	r.mu.Unlock()
	r.publish()

	start := time.Now()
	batch, err := r.provider.FetchSnapshots(ctx, r.ids)

	// A late response after teardown is discarded, not applied
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		r.applyFailure(err)
		return
	}
	r.applySuccess(batch, time.Since(start))
}

func (r *Refresher) applySuccess(batch []domain.AssetSnapshot, latency time.Duration) {
	infra.GlobalMetrics.RecordFetch(latency)

	r.mu.Lock()
	r.batch = batch
	r.state = StateReady
	r.lastErr = nil
	r.notice = nil
	r.mu.Unlock()

	slog.Info("Snapshot batch refreshed",
		slog.Int("assets", len(batch)),
		slog.Duration("latency", latency),
	)
	r.notifier.NotifySuccess()
	r.publish()
}

func (r *Refresher) applyFailure(err error) {
	infra.GlobalMetrics.RecordFetchError()

	r.mu.Lock()
	// The previously held batch stays: stale-but-available over empty.
	// A new notice is raised only when this failure differs from the one
	// already surfaced; lastErr survives the Loading state, so an
	// unchanged error repeating tick after tick stays silent.
	newEvent := r.lastErr == nil || r.lastErr.Error() != err.Error()
	r.state = StateFailed
	r.lastErr = err
	if newEvent {
		r.noticeSeq++
		r.notice = &Notice{Seq: r.noticeSeq, Level: "error", Message: errNoticeMessage}
	}
	r.mu.Unlock()

	slog.Error("Snapshot refresh failed",
		slog.Any("error", err),
		slog.Bool("retriable", domain.IsRetriable(err)),
	)
	r.notifier.NotifyError()
	r.publish()
}

// publish invokes subscriber callbacks outside the state lock
func (r *Refresher) publish() {
	r.mu.RLock()
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
