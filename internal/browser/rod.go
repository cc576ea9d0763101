package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Rod opens each URL as a new target in a headed Chrome launched by the
// rod launcher.
type Rod struct {
	mu      sync.Mutex
	lnch    *launcher.Launcher
	browser *rod.Browser
}

func NewRod() *Rod {
	return &Rod{}
}

func (r *Rod) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		l := launcher.New().Headless(false)
		wsURL, err := l.Launch()
		if err != nil {
			return fmt.Errorf("failed to launch chrome: %w", err)
		}
		b := rod.New().ControlURL(wsURL)
		if err := b.Connect(); err != nil {
			l.Cleanup()
			return fmt.Errorf("failed to connect to chrome: %w", err)
		}
		r.lnch, r.browser = l, b
		slog.Info("Started browser for storefront links", "driver", "rod")
	}

	if _, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url}); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
	}
	r.browser, r.lnch = nil, nil
	return err
}
