package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pauljones0/stockwatch/internal/models"
)

const feedSize = 10

// FeedItem is an alert shown on the dashboard.
type FeedItem struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	URL     string    `json:"url"`
	Vibrate []int     `json:"vibrate"`
	Shown   time.Time `json:"shown"`

	onClick func()
}

// Feed is an in-page alert display. It keeps the latest alerts so the
// dashboard can show them and forward clicks to their handlers.
type Feed struct {
	mu    sync.Mutex
	items []FeedItem
}

func NewFeed() *Feed {
	return &Feed{}
}

// Show implements notifier.Display.
func (f *Feed) Show(_ context.Context, alert models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	item := FeedItem{
		ID:      uuid.NewString(),
		Title:   alert.Title,
		Body:    alert.Body,
		URL:     alert.URL,
		Vibrate: alert.Vibrate,
		Shown:   time.Now(),
		onClick: alert.OnClick,
	}
	f.items = append([]FeedItem{item}, f.items...)
	if len(f.items) > feedSize {
		f.items = f.items[:feedSize]
	}
	return nil
}

// Items returns the alerts, newest first.
func (f *Feed) Items() []FeedItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FeedItem, len(f.items))
	copy(out, f.items)
	return out
}

// Click runs the click handler of alert id. It reports false if the alert
// is no longer in the feed.
func (f *Feed) Click(id string) bool {
	f.mu.Lock()
	var onClick func()
	found := false
	for _, it := range f.items {
		if it.ID == id {
			onClick, found = it.onClick, true
			break
		}
	}
	f.mu.Unlock()

	if found && onClick != nil {
		onClick()
	}
	return found
}
