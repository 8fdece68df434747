// Package browser drives the pages a scrape run reads from. A Session owns
// one landing tab; chapter tabs are opened from it by clicking. Two backends
// exist: a Chromium instance controlled through Rod, and a static backend
// that parses fetched HTML without running scripts.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("browser: element not found")

	// ErrNoNewTab is returned by ClickOpen when the click opened no tab.
	ErrNoNewTab = errors.New("browser: no new tab opened")
)

// Session is one browser instance with its landing tab.
type Session interface {
	// Tab returns the landing tab.
	Tab() Tab
	// Close releases the tab set and the browser process.
	Close() error
}

// Tab is a single page.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	URL() string

	// Has looks up the first match without waiting. No match yields
	// ErrNotFound.
	Has(ctx context.Context, sel Selector) (Element, error)
	All(ctx context.Context, sel Selector) ([]Element, error)

	// Wait blocks until sel matches or timeout elapses, in which case the
	// error wraps context.DeadlineExceeded.
	Wait(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)

	// ClickOpen clicks el, waits settle and returns the tab the click
	// opened. The caller owns the returned tab.
	ClickOpen(ctx context.Context, el Element, settle time.Duration) (Tab, error)

	HTML(ctx context.Context) (string, error)
	Close() error
}

// Element is a node inside a Tab.
type Element interface {
	// Text is the rendered text of the element.
	Text() (string, error)
	Visible() (bool, error)
	Attribute(name string) (string, bool, error)
	All(sel Selector) ([]Element, error)
	// HTML is the outer HTML of the element.
	HTML() (string, error)
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
