package browser

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/novelgrab/models"
)

type rodTab struct {
	browser *rod.Browser
	page    *rod.Page
}

func (t *rodTab) Navigate(ctx context.Context, url string) error {
	p := t.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "page did not finish loading")
	}
	return nil
}

func (t *rodTab) URL() string {
	info, err := t.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (t *rodTab) Has(ctx context.Context, sel Selector) (Element, error) {
	p := t.page.Context(ctx)

	var (
		ok  bool
		el  *rod.Element
		err error
	)
	if sel.XPath {
		ok, el, err = p.HasX(sel.Expr)
	} else {
		ok, el, err = p.Has(sel.Expr)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &rodElement{el: el}, nil
}

func (t *rodTab) All(ctx context.Context, sel Selector) ([]Element, error) {
	p := t.page.Context(ctx)

	var (
		els rod.Elements
		err error
	)
	if sel.XPath {
		els, err = p.ElementsX(sel.Expr)
	} else {
		els, err = p.Elements(sel.Expr)
	}
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

func (t *rodTab) Wait(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	p := t.page.Context(ctx).Timeout(timeout)

	var (
		el  *rod.Element
		err error
	)
	if sel.XPath {
		el, err = p.ElementX(sel.Expr)
	} else {
		el, err = p.Element(sel.Expr)
	}
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

// ClickOpen clicks el from script, which bypasses overlays that would
// intercept a synthetic mouse click, then picks the tab that appeared.
func (t *rodTab) ClickOpen(ctx context.Context, el Element, settle time.Duration) (Tab, error) {
	re, ok := el.(*rodElement)
	if !ok {
		return nil, errors.New("browser: element belongs to another backend")
	}

	before, err := t.browser.Pages()
	if err != nil {
		return nil, err
	}
	known := make(map[proto.TargetTargetID]struct{}, len(before))
	for _, p := range before {
		known[p.TargetID] = struct{}{}
	}

	if _, err := re.el.Context(ctx).Eval(`() => this.click()`); err != nil {
		return nil, categorizeError(err, "click failed")
	}
	if err := sleep(ctx, settle); err != nil {
		return nil, err
	}

	after, err := t.browser.Pages()
	if err != nil {
		return nil, err
	}

	// The most recently listed unknown target wins.
	var opened *rod.Page
	for _, p := range after {
		if _, seen := known[p.TargetID]; !seen {
			opened = p
		}
	}
	if opened == nil {
		return nil, ErrNoNewTab
	}

	if _, err := opened.Activate(); err != nil {
		return nil, err
	}
	return &rodTab{browser: t.browser, page: opened}, nil
}

func (t *rodTab) HTML(ctx context.Context) (string, error) {
	return t.page.Context(ctx).HTML()
}

func (t *rodTab) Close() error {
	return t.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) { return e.el.Text() }

func (e *rodElement) Visible() (bool, error) { return e.el.Visible() }

func (e *rodElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *rodElement) All(sel Selector) ([]Element, error) {
	var (
		els rod.Elements
		err error
	)
	if sel.XPath {
		els, err = e.el.ElementsX(sel.Expr)
	} else {
		els, err = e.el.Elements(sel.Expr)
	}
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

func (e *rodElement) HTML() (string, error) { return e.el.HTML() }

func wrapRod(els rod.Elements) []Element {
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out
}

// categorizeError wraps raw errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
