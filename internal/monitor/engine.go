package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pauljones0/stockwatch/internal/history"
	"github.com/pauljones0/stockwatch/internal/models"
	"github.com/pauljones0/stockwatch/internal/notifier"
	"github.com/pauljones0/stockwatch/internal/status"
)

// ScanningText is shown instead of the countdown once a poll is due.
const ScanningText = "SCANNING"

// Test placeholders passed to the dispatcher by the manual trigger.
const testStatus = "TEST"

// Snapshot is a consistent view of the engine for the presentation layer.
type Snapshot struct {
	Remaining               int                   `json:"remaining"`
	RemainingText           string                `json:"remainingText"`
	Status                  string                `json:"status"`
	HasStatus               bool                  `json:"hasStatus"`
	History                 []models.Scan         `json:"history"`
	Selection               models.StoreSelection `json:"selection"`
	PollIntervalSeconds     int                   `json:"pollIntervalSeconds"`
	SoundEnabled            bool                  `json:"soundEnabled"`
	NotificationsAuthorized bool                  `json:"notificationsAuthorized"`
	LastPoll                time.Time             `json:"lastPoll,omitzero"`
}

// Engine owns the monitoring state for one session: the active store
// selection, the held status, the countdown and the scan history.
type Engine struct {
	resolver   StoreResolver
	fetcher    InventoryFetcher
	dispatcher AlertDispatcher
	history    *history.Buffer
	interval   int // seconds
	now        func() time.Time

	mu         sync.Mutex
	selection  models.StoreSelection
	generation uint64
	detector   Detector
	elapsed    int
	nextSeq    uint64
	appliedSeq uint64
	lastPoll   time.Time
}

// New resolves initialCode and returns an engine monitoring it.
func New(initialCode string, resolver StoreResolver, fetcher InventoryFetcher, dispatcher AlertDispatcher, hist *history.Buffer, interval time.Duration) (*Engine, error) {
	sel, err := resolver.Resolve(initialCode)
	if err != nil {
		return nil, fmt.Errorf("initial store selection: %w", err)
	}
	if hist == nil {
		hist = history.New(history.DefaultCapacity)
	}
	seconds := int(interval / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	e := &Engine{
		resolver:   resolver,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		history:    hist,
		interval:   seconds,
		now:        time.Now,
		selection:  sel,
	}
	dispatcher.BindStorefront(e.StorefrontURL)
	return e, nil
}

// RequestPermission asks for notification permission once. Later calls do
// not change the outcome.
func (e *Engine) RequestPermission(ctx context.Context, r notifier.PermissionRequester) {
	e.dispatcher.Authorize(notifier.RequestOnce(ctx, r))
}

// SelectStore switches monitoring to code. API and storefront URLs change
// together, and the baseline is cleared so the new product seeds silently.
// Polls started before the switch are discarded when they complete.
func (e *Engine) SelectStore(code string) (models.StoreSelection, error) {
	sel, err := e.resolver.Resolve(code)
	if err != nil {
		return models.StoreSelection{}, err
	}

	e.mu.Lock()
	e.selection = sel
	e.generation++
	e.detector.Reset()
	e.mu.Unlock()

	slog.Info("Store selection changed", "code", sel.Code, "api", sel.APIURL, "storefront", sel.StorefrontURL)
	return sel, nil
}

func (e *Engine) Selection() models.StoreSelection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

func (e *Engine) StorefrontURL() string {
	return e.Selection().StorefrontURL
}

// Poll runs one fetch, normalize and detect cycle. It reports whether a
// status was observed and applied. Fetch failures and stale results are
// dropped silently.
func (e *Engine) Poll(ctx context.Context) bool {
	e.mu.Lock()
	e.elapsed = 0
	e.nextSeq++
	seq, gen, url := e.nextSeq, e.generation, e.selection.APIURL
	e.mu.Unlock()

	inv, err := e.fetcher.FetchInventory(ctx, url)
	if err != nil {
		slog.Debug("Poll yielded no result", "url", url, "error", err)
		return false
	}
	observed := status.Normalize(inv.Status)

	e.mu.Lock()
	if gen != e.generation || seq <= e.appliedSeq {
		e.mu.Unlock()
		slog.Debug("Discarding stale poll result", "url", url, "seq", seq, "status", observed)
		return false
	}
	e.appliedSeq = seq
	e.lastPoll = e.now()
	old, changed := e.detector.Observe(observed)
	if changed {
		e.history.Record(models.Scan{Timestamp: e.lastPoll, Status: observed})
	}
	e.mu.Unlock()

	if changed {
		slog.Info("Stock status changed", "from", old, "to", observed, "product", inv.Name)
		e.dispatcher.Dispatch(ctx, old, observed)
	}
	return true
}

// Tick advances the countdown by one second.
func (e *Engine) Tick() {
	e.mu.Lock()
	e.elapsed++
	e.mu.Unlock()
}

// Remaining returns the seconds until the next poll. It goes negative when
// a poll is late.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval - e.elapsed
}

// RemainingText renders Remaining, or ScanningText once the countdown has
// run out.
func RemainingText(remaining int) string {
	if remaining <= 0 {
		return ScanningText
	}
	return strconv.Itoa(remaining)
}

// TestNotification fires both alert channels with placeholder statuses so
// the user can check them without waiting for a transition.
func (e *Engine) TestNotification(ctx context.Context) {
	e.dispatcher.Dispatch(ctx, testStatus, testStatus)
}

func (e *Engine) SetSoundEnabled(enabled bool) {
	e.dispatcher.SetSoundEnabled(enabled)
}

// CurrentStatus returns the held status, if one has been observed.
func (e *Engine) CurrentStatus() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detector.Current()
}

func (e *Engine) History() []models.Scan {
	return e.history.Scans()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	remaining := e.interval - e.elapsed
	current, seeded := e.detector.Current()
	snap := Snapshot{
		Remaining:           remaining,
		RemainingText:       RemainingText(remaining),
		Status:              current,
		HasStatus:           seeded,
		Selection:           e.selection,
		PollIntervalSeconds: e.interval,
		LastPoll:            e.lastPoll,
	}
	e.mu.Unlock()

	snap.History = e.history.Scans()
	snap.SoundEnabled = e.dispatcher.SoundEnabled()
	snap.NotificationsAuthorized = e.dispatcher.Authorized()
	return snap
}
