package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Playwright opens each URL in a new page of a headed Chromium launched
// through the Playwright driver. The driver must already be installed.
type Playwright struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywright() *Playwright {
	return &Playwright{}
}

func (p *Playwright) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser == nil {
		pw, err := playwright.Run()
		if err != nil {
			return fmt.Errorf("failed to start playwright: %w", err)
		}
		browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(false),
		})
		if err != nil {
			_ = pw.Stop()
			return fmt.Errorf("failed to launch chromium: %w", err)
		}
		p.pw, p.browser = pw, browser
		slog.Info("Started browser for storefront links", "driver", "playwright")
	}

	page, err := p.browser.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	if _, err := page.Goto(url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

func (p *Playwright) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.browser != nil {
		errs = append(errs, p.browser.Close())
	}
	if p.pw != nil {
		errs = append(errs, p.pw.Stop())
	}
	p.browser, p.pw = nil, nil
	return errors.Join(errs...)
}
