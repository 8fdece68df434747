package novel

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/novelgrab/browser"
	"github.com/use-agent/novelgrab/cleaner"
	"github.com/use-agent/novelgrab/models"
)

// Document is the text pulled out of one chapter page.
type Document struct {
	Paragraphs []string

	// HTML is the markup of the kept paragraphs, one <p> each, limited to
	// the spans that made up its text. It is empty when the text came from
	// a fallback.
	HTML string

	// Scanned is the number of paragraph elements looked at.
	Scanned int
}

// Text joins the paragraphs with blank lines.
func (d *Document) Text() string {
	return strings.Join(d.Paragraphs, "\n\n")
}

// Extractor reads paragraph text from the content container of a chapter
// page.
type Extractor struct {
	Container browser.Selector
	Paragraph browser.Selector
	Span      browser.Selector

	// MinLen drops paragraphs whose character count is not above it.
	MinLen int

	// Timeout bounds the wait for Container.
	Timeout time.Duration

	// Readability extracts the page with go-readability when Container
	// never shows up.
	Readability bool
}

// Extract waits for the container and collects its paragraphs. A paragraph
// with spans contributes its visible span texts joined by spaces, one
// without spans its own text. When no paragraph survives, the container
// text is split on blank lines instead.
func (x *Extractor) Extract(ctx context.Context, tab browser.Tab) (*Document, error) {
	container, err := tab.Wait(ctx, x.Container, x.Timeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if x.Readability {
			doc, rerr := x.readability(ctx, tab)
			if rerr == nil {
				return doc, nil
			}
			slog.Debug("readability fallback failed", "error", rerr)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewScrapeError(models.ErrCodeTimeout, "timed out waiting for content", err)
		}
		return nil, models.NewScrapeError(models.ErrCodeContentMissing, "content container not found", err)
	}

	paras, err := container.All(x.Paragraph)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeContentMissing, "paragraph lookup failed", err)
	}

	doc := &Document{Scanned: len(paras)}
	var markup strings.Builder
	for _, p := range paras {
		text, m := x.paragraph(p)
		if cleaner.Keep(text, x.MinLen) {
			doc.Paragraphs = append(doc.Paragraphs, text)
			markup.WriteString(m)
		}
	}
	doc.HTML = markup.String()

	if len(doc.Paragraphs) == 0 {
		raw, err := container.Text()
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeContentMissing, "container text unreadable", err)
		}
		for _, block := range cleaner.SplitBlocks(raw) {
			if cleaner.Keep(block, x.MinLen) {
				doc.Paragraphs = append(doc.Paragraphs, block)
			}
		}
	}

	if len(doc.Paragraphs) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeEmptyContent, "No content extracted", nil)
	}

	return doc, nil
}

// paragraph returns the text of p and the markup it was taken from.
func (x *Extractor) paragraph(p browser.Element) (string, string) {
	spans, err := p.All(x.Span)
	if err == nil && len(spans) > 0 {
		var texts, parts []string
		for _, s := range spans {
			if vis, err := s.Visible(); err != nil || !vis {
				continue
			}
			t, err := s.Text()
			if err != nil {
				continue
			}
			if t = strings.TrimSpace(t); t == "" {
				continue
			}
			texts = append(texts, t)
			parts = append(parts, outerHTML(s, html.EscapeString(t)))
		}
		return strings.Join(texts, " "), "<p>" + strings.Join(parts, " ") + "</p>"
	}

	text, err := p.Text()
	if err != nil {
		return "", ""
	}
	text = strings.TrimSpace(text)
	return text, outerHTML(p, "<p>"+html.EscapeString(text)+"</p>")
}

// outerHTML returns the markup of el, or fallback when it cannot be read.
func outerHTML(el browser.Element, fallback string) string {
	h, err := el.HTML()
	if err != nil || h == "" {
		return fallback
	}
	return h
}

func (x *Extractor) readability(ctx context.Context, tab browser.Tab) (*Document, error) {
	raw, err := tab.HTML(ctx)
	if err != nil {
		return nil, err
	}
	paras, err := cleaner.ReadabilityParagraphs(raw, tab.URL())
	if err != nil {
		return nil, err
	}

	doc := &Document{Scanned: len(paras)}
	for _, p := range paras {
		if cleaner.Keep(p, x.MinLen) {
			doc.Paragraphs = append(doc.Paragraphs, p)
		}
	}
	if len(doc.Paragraphs) == 0 {
		return nil, errors.New("readability produced no paragraphs")
	}
	slog.Info("content container missing, used readability", "url", tab.URL(), "paragraphs", len(doc.Paragraphs))
	return doc, nil
}
