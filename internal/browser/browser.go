// Package browser opens storefront pages in a visible browser tab when the
// user clicks a stock alert.
package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(ctx context.Context, url string) error
	io.Closer
}

// New returns the opener for driver: "chromedp", "playwright", "rod" or "none".
func New(driver string) (Opener, error) {
	switch driver {
	case "chromedp":
		return NewChromedp(), nil
	case "playwright":
		return NewPlaywright(), nil
	case "rod":
		return NewRod(), nil
	case "none", "":
		return LogOpener{}, nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", driver)
	}
}

// LogOpener only logs the URL. Used when no browser is available.
type LogOpener struct{}

func (LogOpener) Open(_ context.Context, url string) error {
	slog.Info("Storefront link", "url", url)
	return nil
}

func (LogOpener) Close() error { return nil }
