package monitor

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/pauljones0/stockwatch/internal/history"
	"github.com/pauljones0/stockwatch/internal/models"
	"github.com/pauljones0/stockwatch/internal/notifier"
	"github.com/pauljones0/stockwatch/internal/store"
)

// --- Mock implementations ---

type fetchResult struct {
	status string
	err    error
}

type mockFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	urls    []string
}

func (m *mockFetcher) push(statuses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range statuses {
		m.results = append(m.results, fetchResult{status: s})
	}
}

func (m *mockFetcher) pushErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, fetchResult{err: err})
}

func (m *mockFetcher) FetchInventory(_ context.Context, url string) (models.ProductInventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, url)
	if len(m.results) == 0 {
		return models.ProductInventory{}, models.ErrNoResult
	}
	r := m.results[0]
	m.results = m.results[1:]
	if r.err != nil {
		return models.ProductInventory{}, r.err
	}
	return models.ProductInventory{Name: "RTX 3080", Status: r.status}, nil
}

type mockDisplay struct {
	alerts []models.Alert
}

func (m *mockDisplay) Show(_ context.Context, alert models.Alert) error {
	m.alerts = append(m.alerts, alert)
	return nil
}

type mockChime struct {
	plays int
}

func (m *mockChime) Rewind() error           { return nil }
func (m *mockChime) SetVolume(float64) error { return nil }
func (m *mockChime) Play() error             { m.plays++; return nil }

type fakePermission struct {
	result notifier.Permission
	calls  int
}

func (f *fakePermission) Supported() bool { return true }
func (f *fakePermission) RequestPermission(context.Context) (notifier.Permission, error) {
	f.calls++
	return f.result, nil
}

type testRig struct {
	engine  *Engine
	fetcher *mockFetcher
	display *mockDisplay
	chime   *mockChime
}

func newTestRig(t *testing.T, capacity int) *testRig {
	t.Helper()
	fetcher := &mockFetcher{}
	display := &mockDisplay{}
	chime := &mockChime{}
	dispatcher := notifier.NewDispatcher("NVIDIA 3080FE Stock alert", chime, nil, display)
	resolver := store.NewResolver("api-prod.nvidia.com", "www.nvidia.com", "geforce/graphics-cards/30-series/rtx-3080", nil)

	e, err := New("en-us:USD:5438481700", resolver, fetcher, dispatcher, history.New(capacity), 15*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	e.now = func() time.Time { return time.Date(2020, 9, 17, 6, 0, 0, 0, time.UTC) }
	e.RequestPermission(context.Background(), &fakePermission{result: notifier.PermissionGranted})
	return &testRig{engine: e, fetcher: fetcher, display: display, chime: chime}
}

// --- Tests ---

func TestEngine_PollScenario(t *testing.T) {
	rig := newTestRig(t, 30)
	ctx := context.Background()
	rig.fetcher.push("PRODUCT_INVENTORY_OUT_OF_STOCK", "PRODUCT_INVENTORY_IN_STOCK", "PRODUCT_INVENTORY_IN_STOCK")

	// First poll seeds the baseline silently.
	if !rig.engine.Poll(ctx) {
		t.Fatal("First poll should apply a status")
	}
	if got, ok := rig.engine.CurrentStatus(); !ok || got != "Out of stock" {
		t.Errorf("CurrentStatus() = %q, %v; want Out of stock", got, ok)
	}
	if len(rig.display.alerts) != 0 || len(rig.engine.History()) != 0 {
		t.Fatalf("Baseline must not notify or record, got %d alerts, %d scans", len(rig.display.alerts), len(rig.engine.History()))
	}

	// Second poll is a transition.
	rig.engine.Poll(ctx)
	if len(rig.engine.History()) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(rig.engine.History()))
	}
	if h := rig.engine.History()[0]; h.Status != "In stock" || !h.Timestamp.Equal(rig.engine.now()) {
		t.Errorf("Unexpected scan %+v", h)
	}
	if len(rig.display.alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(rig.display.alerts))
	}
	if body := rig.display.alerts[0].Body; body != "Stock went from Out of stock to In stock." {
		t.Errorf("Alert body = %q", body)
	}

	// Third poll repeats the status: nothing happens.
	rig.engine.Poll(ctx)
	if len(rig.engine.History()) != 1 || len(rig.display.alerts) != 1 {
		t.Errorf("Unchanged status must not notify, got %d scans, %d alerts", len(rig.engine.History()), len(rig.display.alerts))
	}
}

func TestEngine_DoubleTransitionFiresTwice(t *testing.T) {
	rig := newTestRig(t, 30)
	ctx := context.Background()
	rig.fetcher.push("PRODUCT_INVENTORY_IN_STOCK", "PRODUCT_INVENTORY_OUT_OF_STOCK", "PRODUCT_INVENTORY_IN_STOCK")

	for i := 0; i < 3; i++ {
		rig.engine.Poll(ctx)
	}

	if len(rig.display.alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(rig.display.alerts))
	}
	if rig.display.alerts[1].Body != "Stock went from Out of stock to In stock." {
		t.Errorf("Second alert body = %q", rig.display.alerts[1].Body)
	}
	scans := rig.engine.History()
	if len(scans) != 2 || scans[0].Status != "In stock" || scans[1].Status != "Out of stock" {
		t.Errorf("Unexpected history %+v", scans)
	}
}

func TestEngine_TransitionPropertyOverRandomSequences(t *testing.T) {
	statuses := []string{"PRODUCT_INVENTORY_IN_STOCK", "PRODUCT_INVENTORY_OUT_OF_STOCK", "PRODUCT_INVENTORY_LIMITED"}
	r := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 50; run++ {
		rig := newTestRig(t, 1000)
		n := 1 + r.IntN(40)
		var seq []string
		for i := 0; i < n; i++ {
			seq = append(seq, statuses[r.IntN(len(statuses))])
		}
		rig.fetcher.push(seq...)

		want := 0
		for i := 1; i < len(seq); i++ {
			if seq[i] != seq[i-1] {
				want++
			}
		}

		for range seq {
			rig.engine.Poll(context.Background())
		}
		if len(rig.display.alerts) != want || len(rig.engine.History()) != want {
			t.Fatalf("run %d: sequence %v gave %d alerts, %d scans; want %d", run, seq, len(rig.display.alerts), len(rig.engine.History()), want)
		}
	}
}

func TestEngine_FailedPollIsSilent(t *testing.T) {
	rig := newTestRig(t, 30)
	ctx := context.Background()
	rig.fetcher.push("PRODUCT_INVENTORY_OUT_OF_STOCK")
	rig.fetcher.pushErr(models.ErrUnexpectedStatus)
	rig.fetcher.pushErr(errors.New("connection reset"))
	rig.fetcher.push("PRODUCT_INVENTORY_OUT_OF_STOCK")

	if !rig.engine.Poll(ctx) {
		t.Fatal("Expected first poll to apply")
	}
	if rig.engine.Poll(ctx) || rig.engine.Poll(ctx) {
		t.Error("Failed polls must report no result")
	}
	if got, _ := rig.engine.CurrentStatus(); got != "Out of stock" {
		t.Errorf("Failed polls must not touch the held status, got %q", got)
	}
	rig.engine.Poll(ctx)
	if len(rig.display.alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(rig.display.alerts))
	}
}

func TestEngine_HistoryBoundedByCapacity(t *testing.T) {
	rig := newTestRig(t, 3)
	statuses := []string{"A", "B"}
	for i := 0; i < 10; i++ {
		rig.fetcher.push(statuses[i%2])
	}
	for i := 0; i < 10; i++ {
		rig.engine.Poll(context.Background())
	}
	if got := len(rig.engine.History()); got != 3 {
		t.Errorf("History length = %d, want 3", got)
	}
}

func TestEngine_TestNotification(t *testing.T) {
	rig := newTestRig(t, 30)
	rig.engine.SetSoundEnabled(false)

	rig.engine.TestNotification(context.Background())

	if len(rig.display.alerts) != 1 {
		t.Fatalf("Expected exactly 1 notification, got %d", len(rig.display.alerts))
	}
	if rig.display.alerts[0].Body != "Stock went from TEST to TEST." {
		t.Errorf("Test alert body = %q", rig.display.alerts[0].Body)
	}
	if rig.chime.plays != 0 {
		t.Errorf("Expected no playback, got %d", rig.chime.plays)
	}
	if len(rig.engine.History()) != 0 {
		t.Error("Manual trigger must bypass the history")
	}
}

func TestEngine_TestNotificationWithSound(t *testing.T) {
	rig := newTestRig(t, 30)
	rig.engine.SetSoundEnabled(true)

	rig.engine.TestNotification(context.Background())

	if rig.chime.plays != 1 {
		t.Errorf("Expected 1 playback, got %d", rig.chime.plays)
	}
}

func TestEngine_UnauthorizedStillChimes(t *testing.T) {
	fetcher := &mockFetcher{}
	display := &mockDisplay{}
	chime := &mockChime{}
	dispatcher := notifier.NewDispatcher("title", chime, nil, display)
	resolver := store.NewResolver("api", "web", "p", nil)
	e, err := New("en-us:USD:1", resolver, fetcher, dispatcher, nil, 15*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	perm := &fakePermission{result: notifier.PermissionDenied}
	e.RequestPermission(context.Background(), perm)
	e.SetSoundEnabled(true)

	fetcher.push("PRODUCT_INVENTORY_OUT_OF_STOCK", "PRODUCT_INVENTORY_IN_STOCK")
	e.Poll(context.Background())
	e.Poll(context.Background())

	if len(display.alerts) != 0 {
		t.Errorf("Denied permission must suppress notifications, got %d", len(display.alerts))
	}
	if chime.plays != 1 {
		t.Errorf("Expected chime on transition, got %d plays", chime.plays)
	}
	if len(e.History()) != 1 {
		t.Errorf("History records transitions regardless of alert channels, got %d", len(e.History()))
	}
}

func TestEngine_SelectStore(t *testing.T) {
	rig := newTestRig(t, 30)
	ctx := context.Background()
	rig.fetcher.push("PRODUCT_INVENTORY_OUT_OF_STOCK")
	rig.engine.Poll(ctx)

	sel, err := rig.engine.SelectStore("de-at:EUR:123")
	if err != nil {
		t.Fatalf("SelectStore() error = %v", err)
	}
	if sel.CountryLocale != "de_de" || sel.StorefrontCountry != "de-at" {
		t.Errorf("Unexpected selection %+v", sel)
	}
	snap := rig.engine.Snapshot()
	if snap.Selection.APIURL != sel.APIURL || rig.engine.StorefrontURL() != sel.StorefrontURL {
		t.Error("API and storefront URLs must switch together")
	}
	if snap.HasStatus {
		t.Error("Store change should clear the baseline")
	}

	rig.fetcher.push("PRODUCT_INVENTORY_IN_STOCK")
	rig.engine.Poll(ctx)
	if len(rig.display.alerts) != 0 {
		t.Error("First poll of a new store must seed silently")
	}
	if last := rig.fetcher.urls[len(rig.fetcher.urls)-1]; last != sel.APIURL {
		t.Errorf("Poll used %s, want %s", last, sel.APIURL)
	}

	if _, err := rig.engine.SelectStore("garbage"); !errors.Is(err, models.ErrInvalidSelection) {
		t.Errorf("Expected ErrInvalidSelection, got %v", err)
	}
	if rig.engine.Selection().Code != "de-at:EUR:123" {
		t.Error("Invalid selection must leave the active store untouched")
	}
}

func TestEngine_CountdownAndScanning(t *testing.T) {
	rig := newTestRig(t, 30)

	if got := rig.engine.Remaining(); got != 15 {
		t.Errorf("Remaining() = %d, want 15", got)
	}
	for i := 0; i < 14; i++ {
		rig.engine.Tick()
	}
	if got := rig.engine.Snapshot().RemainingText; got != "1" {
		t.Errorf("RemainingText = %q, want 1", got)
	}
	rig.engine.Tick()
	if got := rig.engine.Snapshot().RemainingText; got != ScanningText {
		t.Errorf("RemainingText = %q, want %s", got, ScanningText)
	}
	rig.engine.Tick()
	if got := rig.engine.Snapshot(); got.Remaining != -1 || got.RemainingText != ScanningText {
		t.Errorf("Countdown past zero: %+v", got)
	}

	// Polling resets the counter even when the fetch fails.
	rig.engine.Poll(context.Background())
	if got := rig.engine.Remaining(); got != 15 {
		t.Errorf("Remaining() after poll = %d, want 15", got)
	}
}

func TestEngine_PermissionRequestedOnce(t *testing.T) {
	rig := newTestRig(t, 30)
	denied := &fakePermission{result: notifier.PermissionDenied}
	rig.engine.RequestPermission(context.Background(), denied)

	if !rig.engine.Snapshot().NotificationsAuthorized {
		t.Error("A later permission result must not override the startup result")
	}
}

// blockingFetcher holds each call until released, so tests can complete
// overlapping polls out of order.
type blockingFetcher struct {
	started chan string
	release map[string]chan string
	mu      sync.Mutex
	calls   int
}

func (b *blockingFetcher) FetchInventory(ctx context.Context, url string) (models.ProductInventory, error) {
	b.mu.Lock()
	b.calls++
	key := url
	if b.calls > 1 {
		key = url + "#2"
	}
	ch := b.release[key]
	b.mu.Unlock()

	b.started <- key
	select {
	case s := <-ch:
		return models.ProductInventory{Status: s}, nil
	case <-ctx.Done():
		return models.ProductInventory{}, ctx.Err()
	}
}

func TestEngine_StaleOverlappingPollDiscarded(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan string, 2), release: map[string]chan string{}}
	display := &mockDisplay{}
	dispatcher := notifier.NewDispatcher("title", nil, nil, display)
	dispatcher.Authorize(notifier.PermissionGranted)
	resolver := store.NewResolver("api", "web", "p", nil)
	e, err := New("en-us:USD:1", resolver, fetcher, dispatcher, nil, 15*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	url := e.Selection().APIURL
	fetcher.release[url] = make(chan string)
	fetcher.release[url+"#2"] = make(chan string)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); e.Poll(context.Background()) }()
	<-fetcher.started
	wg.Add(1)
	go func() { defer wg.Done(); e.Poll(context.Background()) }()
	<-fetcher.started

	// The newer poll completes first, then the older one.
	fetcher.release[url+"#2"] <- "PRODUCT_INVENTORY_IN_STOCK"
	for {
		if _, ok := e.CurrentStatus(); ok {
			break
		}
		time.Sleep(time.Millisecond)
	}
	fetcher.release[url] <- "PRODUCT_INVENTORY_OUT_OF_STOCK"
	wg.Wait()

	if got, _ := e.CurrentStatus(); got != "In stock" {
		t.Errorf("Stale poll overwrote status: %q", got)
	}
	if len(display.alerts) != 0 {
		t.Errorf("Stale poll must not notify, got %d alerts", len(display.alerts))
	}
}

func TestEngine_StaleStoreResponseDiscarded(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan string, 1), release: map[string]chan string{}}
	dispatcher := notifier.NewDispatcher("title", nil, nil)
	resolver := store.NewResolver("api", "web", "p", nil)
	e, err := New("en-us:USD:1", resolver, fetcher, dispatcher, nil, 15*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	oldURL := e.Selection().APIURL
	fetcher.release[oldURL] = make(chan string)

	done := make(chan bool)
	go func() { done <- e.Poll(context.Background()) }()
	<-fetcher.started

	if _, err := e.SelectStore("fr-fr:EUR:2"); err != nil {
		t.Fatal(err)
	}
	fetcher.release[oldURL] <- "PRODUCT_INVENTORY_IN_STOCK"

	if applied := <-done; applied {
		t.Error("Response for the previous store must be discarded")
	}
	if _, ok := e.CurrentStatus(); ok {
		t.Error("Stale response must not seed the new store's baseline")
	}
}

func TestNew_InvalidInitialSelection(t *testing.T) {
	resolver := store.NewResolver("api", "web", "p", nil)
	dispatcher := notifier.NewDispatcher("title", nil, nil)
	if _, err := New("nope", resolver, &mockFetcher{}, dispatcher, nil, time.Second); !errors.Is(err, models.ErrInvalidSelection) {
		t.Errorf("Expected ErrInvalidSelection, got %v", err)
	}
}
