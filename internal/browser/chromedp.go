package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"
)

// Chromedp opens each URL in a new tab of a single headed Chrome instance.
// The browser is started on first use and tabs stay open until Close.
type Chromedp struct {
	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	tabCancels    []context.CancelFunc
}

func NewChromedp() *Chromedp {
	return &Chromedp{}
}

func (c *Chromedp) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browserCtx == nil {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", false),
			chromedp.Flag("hide-scrollbars", false),
			chromedp.Flag("mute-audio", false),
		)
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		// The first Run on a context launches the browser.
		if err := chromedp.Run(browserCtx); err != nil {
			cancelBrowser()
			cancelAlloc()
			return fmt.Errorf("failed to start chrome: %w", err)
		}
		c.browserCtx, c.cancelAlloc, c.cancelBrowser = browserCtx, cancelAlloc, cancelBrowser
		slog.Info("Started browser for storefront links", "driver", "chromedp")
	}

	// Cancelling a tab context closes the tab, so keep it until Close.
	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		cancelTab()
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	c.tabCancels = append(c.tabCancels, cancelTab)
	return nil
}

func (c *Chromedp) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cancel := range c.tabCancels {
		cancel()
	}
	c.tabCancels = nil
	if c.cancelBrowser != nil {
		c.cancelBrowser()
		c.cancelAlloc()
	}
	c.browserCtx, c.cancelBrowser, c.cancelAlloc = nil, nil, nil
	return nil
}
