package novel

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"strings"

	"github.com/use-agent/novelgrab/browser"
	"github.com/use-agent/novelgrab/models"
)

// BulkLister collects every chapter title matching Selector in one query.
// Each title element doubles as the link clicked to open the chapter.
type BulkLister struct {
	Selector browser.Selector
}

func (l BulkLister) List(ctx context.Context, tab browser.Tab) ([]Chapter, error) {
	els, err := tab.All(ctx, l.Selector)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNoChapters, "chapter lookup failed", err)
	}
	if len(els) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeNoChapters, "No chapters found!", nil)
	}

	chapters := make([]Chapter, 0, len(els))
	for i, el := range els {
		title, err := el.Text()
		if err != nil {
			slog.Warn("could not read chapter title", "index", i+1, "error", err)
		}
		chapters = append(chapters, Chapter{
			Index: i + 1,
			Title: strings.TrimSpace(title),
			Link:  el,
		})
	}
	return chapters, nil
}

// SequentialLister probes a positional XPath template (one %d verb) for
// index 1, 2, ... until an index no longer resolves.
type SequentialLister struct {
	Path string
}

func (l SequentialLister) List(ctx context.Context, tab browser.Tab) ([]Chapter, error) {
	base := tab.URL()

	var chapters []Chapter
	for i, el := range Probe(ctx, tab, l.Path) {
		ch := Chapter{Index: i, Link: el}

		title, err := el.Text()
		if err != nil {
			slog.Warn("could not read chapter title", "index", i, "error", err)
		}
		ch.Title = strings.TrimSpace(title)

		if href, ok, _ := el.Attribute("href"); ok {
			ch.URL = absURL(base, href)
		}
		chapters = append(chapters, ch)
	}

	if len(chapters) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeNoChapters, "No chapters found!", nil)
	}
	return chapters, nil
}

// Probe yields the element at each 1-based position of path. The sequence
// ends at the first position that does not resolve; a lookup error other
// than not-found also ends it and is logged.
func Probe(ctx context.Context, tab browser.Tab, path string) iter.Seq2[int, browser.Element] {
	return func(yield func(int, browser.Element) bool) {
		for i := 1; ; i++ {
			if ctx.Err() != nil {
				return
			}

			el, err := tab.Has(ctx, browser.XPath(fmt.Sprintf(path, i)))
			if errors.Is(err, browser.ErrNotFound) {
				slog.Debug("chapter probe finished", "found", i-1)
				return
			}
			if err != nil {
				slog.Warn("chapter probe aborted", "index", i, "error", err)
				return
			}
			if !yield(i, el) {
				return
			}
		}
	}
}

func absURL(base, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}
