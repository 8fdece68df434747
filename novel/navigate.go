package novel

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/novelgrab/browser"
	"github.com/use-agent/novelgrab/models"
)

// Navigator brings a chapter page up. The returned release func must be
// called once the page has been read.
type Navigator interface {
	Open(ctx context.Context, landing browser.Tab, ch Chapter) (browser.Tab, func(), error)
}

// TabNavigator clicks the chapter link and reads the tab the click opens.
// Releasing closes that tab, leaving the landing tab in place.
type TabNavigator struct {
	Settle time.Duration
}

func (n TabNavigator) Open(ctx context.Context, landing browser.Tab, ch Chapter) (browser.Tab, func(), error) {
	if ch.Link == nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeNavigation, "chapter has no link element", nil)
	}

	tab, err := landing.ClickOpen(ctx, ch.Link, n.Settle)
	if errors.Is(err, browser.ErrNoNewTab) {
		return nil, nil, models.NewScrapeError(models.ErrCodeNoNewTab, "No new tab opened", err)
	}
	if err != nil {
		return nil, nil, err
	}

	release := func() {
		if err := tab.Close(); err != nil {
			slog.Warn("failed to close chapter tab", "chapter", ch.Index, "error", err)
		}
	}
	return tab, release, nil
}

// DirectNavigator loads the chapter URL in the landing tab.
type DirectNavigator struct{}

func (DirectNavigator) Open(ctx context.Context, landing browser.Tab, ch Chapter) (browser.Tab, func(), error) {
	if ch.URL == "" {
		return nil, nil, models.NewScrapeError(models.ErrCodeNavigation, "chapter has no url", nil)
	}
	if err := landing.Navigate(ctx, ch.URL); err != nil {
		return nil, nil, err
	}
	return landing, func() {}, nil
}
