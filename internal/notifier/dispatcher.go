package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pauljones0/stockwatch/internal/models"
)

// VibratePattern is the fixed vibration pattern attached to every alert.
var VibratePattern = []int{200, 100, 200}

// Display shows an alert to the user.
type Display interface {
	Show(ctx context.Context, alert models.Alert) error
}

// Chime is an audio player reset to the start and full volume before playing.
type Chime interface {
	Rewind() error
	SetVolume(volume float64) error
	Play() error
}

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Dispatcher turns a status transition into alerts on two independent
// channels: displays (gated by notification permission) and the chime
// (gated by the sound toggle).
type Dispatcher struct {
	title    string
	displays []Display
	chime    Chime
	opener   Opener

	authorized   atomic.Bool
	authorizeSet sync.Once
	soundEnabled atomic.Bool

	mu         sync.RWMutex
	storefront func() string
}

func NewDispatcher(title string, chime Chime, opener Opener, displays ...Display) *Dispatcher {
	return &Dispatcher{
		title:    title,
		displays: displays,
		chime:    chime,
		opener:   opener,
	}
}

// Authorize records the permission outcome. Only the first call has effect;
// permission is never re-queried during a session.
func (d *Dispatcher) Authorize(p Permission) {
	d.authorizeSet.Do(func() {
		d.authorized.Store(p == PermissionGranted)
		slog.Info("Notification permission resolved", "permission", string(p))
	})
}

func (d *Dispatcher) Authorized() bool {
	return d.authorized.Load()
}

func (d *Dispatcher) SetSoundEnabled(enabled bool) {
	d.soundEnabled.Store(enabled)
}

func (d *Dispatcher) SoundEnabled() bool {
	return d.soundEnabled.Load()
}

// BindStorefront sets the source of the storefront URL opened when an alert
// is clicked. It is read at click time.
func (d *Dispatcher) BindStorefront(fn func() string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.storefront = fn
}

func (d *Dispatcher) storefrontURL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.storefront == nil {
		return ""
	}
	return d.storefront()
}

// Dispatch alerts the user that stock went from oldStatus to newStatus.
func (d *Dispatcher) Dispatch(ctx context.Context, oldStatus, newStatus string) {
	if d.authorized.Load() {
		alert := d.buildAlert(oldStatus, newStatus)
		for _, display := range d.displays {
			if err := display.Show(ctx, alert); err != nil {
				slog.Warn("Failed to show stock alert", "error", err)
			}
		}
	}

	if d.soundEnabled.Load() && d.chime != nil {
		if err := d.playChime(); err != nil {
			slog.Warn("Failed to play chime", "error", err)
		}
	}
}

func (d *Dispatcher) buildAlert(oldStatus, newStatus string) models.Alert {
	url := d.storefrontURL()
	vibrate := make([]int, len(VibratePattern))
	copy(vibrate, VibratePattern)

	return models.Alert{
		Title:   d.title,
		Body:    fmt.Sprintf("Stock went from %s to %s.", oldStatus, newStatus),
		Vibrate: vibrate,
		URL:     url,
		OnClick: func() {
			if d.opener == nil {
				return
			}
			if err := d.opener.Open(context.Background(), d.storefrontURL()); err != nil {
				slog.Warn("Failed to open storefront", "url", url, "error", err)
			}
		},
	}
}

// playChime restarts the sound from time zero at full volume, even if it is
// already playing.
func (d *Dispatcher) playChime() error {
	if err := d.chime.Rewind(); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	if err := d.chime.SetVolume(1); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	if err := d.chime.Play(); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}
