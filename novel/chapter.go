// Package novel discovers the chapters of a novel on its landing page and
// pulls the paragraph text out of each chapter page.
package novel

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/use-agent/novelgrab/browser"
)

// Chapter describes one chapter found on the landing page. Link is the
// element a click opens the chapter from; URL is set when the chapter can be
// reached directly.
type Chapter struct {
	Index int
	Title string
	URL   string
	Link  browser.Element
}

// Lister enumerates the chapters shown on the landing tab.
type Lister interface {
	List(ctx context.Context, tab browser.Tab) ([]Chapter, error)
}

// DiscoverTitle returns the trimmed text of the novel heading. It returns
// fallback and false when the heading is missing or blank.
func DiscoverTitle(ctx context.Context, tab browser.Tab, sel browser.Selector, fallback string) (string, bool) {
	el, err := tab.Has(ctx, sel)
	if err != nil {
		if !errors.Is(err, browser.ErrNotFound) {
			slog.Warn("title lookup failed", "selector", sel.String(), "error", err)
		}
		slog.Info("could not find novel title, using default", "title", fallback)
		return fallback, false
	}

	text, err := el.Text()
	if err != nil {
		slog.Warn("could not read novel title, using default", "error", err)
		return fallback, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback, false
	}
	return text, true
}
