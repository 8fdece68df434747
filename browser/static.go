package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/use-agent/novelgrab/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageSet serves pages from memory, keyed by absolute URL.
type PageSet map[string]string

// Fetch returns the page stored under target.
func (ps PageSet) Fetch(_ context.Context, target string) ([]byte, error) {
	body, ok := ps[target]
	if !ok {
		return nil, fmt.Errorf("pageset: no page for %s", target)
	}
	return []byte(body), nil
}

// StaticSession renders nothing: pages are fetched and parsed as served.
// A click follows the nearest link into a new tab.
type StaticSession struct {
	fetcher Fetcher
	main    *staticTab

	mu   sync.Mutex
	tabs []*staticTab
}

// NewStaticSession creates a session whose tabs load pages through f.
func NewStaticSession(f Fetcher) *StaticSession {
	s := &StaticSession{fetcher: f}
	s.main = s.newTab()
	return s
}

func (s *StaticSession) newTab() *staticTab {
	t := &staticTab{session: s}
	s.mu.Lock()
	s.tabs = append(s.tabs, t)
	s.mu.Unlock()
	return t
}

func (s *StaticSession) Tab() Tab { return s.main }

// OpenTabs returns the number of tabs not yet closed.
func (s *StaticSession) OpenTabs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tabs {
		if !t.closed {
			n++
		}
	}
	return n
}

func (s *StaticSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tabs {
		t.closed = true
	}
	return nil
}

type staticTab struct {
	session *StaticSession
	url     string
	doc     *html.Node
	closed  bool
}

func (t *staticTab) Navigate(ctx context.Context, target string) error {
	body, err := t.session.fetcher.Fetch(ctx, target)
	if err != nil {
		return categorizeError(err, "navigation failed")
	}
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "failed to parse page", err)
	}
	t.url = target
	t.doc = doc
	slog.Debug("static page loaded", "url", target, "bytes", len(body))
	return nil
}

func (t *staticTab) URL() string { return t.url }

func (t *staticTab) Has(_ context.Context, sel Selector) (Element, error) {
	nodes, err := t.query(sel)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return &staticElement{node: nodes[0]}, nil
}

func (t *staticTab) All(_ context.Context, sel Selector) ([]Element, error) {
	nodes, err := t.query(sel)
	if err != nil {
		return nil, err
	}
	return wrapNodes(nodes), nil
}

// Wait does not wait: a static page never changes after loading.
func (t *staticTab) Wait(ctx context.Context, sel Selector, _ time.Duration) (Element, error) {
	return t.Has(ctx, sel)
}

func (t *staticTab) ClickOpen(ctx context.Context, el Element, settle time.Duration) (Tab, error) {
	se, ok := el.(*staticElement)
	if !ok {
		return nil, errors.New("browser: element belongs to another backend")
	}

	href, ok := linkOf(se.node)
	if !ok {
		return nil, ErrNoNewTab
	}
	target, err := resolve(t.url, href)
	if err != nil {
		return nil, fmt.Errorf("browser: bad link %q: %w", href, err)
	}

	tab := t.session.newTab()
	if err := tab.Navigate(ctx, target); err != nil {
		tab.Close()
		return nil, err
	}
	if err := sleep(ctx, settle); err != nil {
		tab.Close()
		return nil, err
	}
	return tab, nil
}

func (t *staticTab) HTML(_ context.Context) (string, error) {
	if t.doc == nil {
		return "", errors.New("browser: tab has no page")
	}
	return render(t.doc)
}

func (t *staticTab) Close() error {
	t.session.mu.Lock()
	t.closed = true
	t.session.mu.Unlock()
	return nil
}

func (t *staticTab) query(sel Selector) ([]*html.Node, error) {
	if t.doc == nil {
		return nil, errors.New("browser: tab has no page")
	}
	return queryNodes(t.doc, sel)
}

type staticElement struct {
	node *html.Node
}

func (e *staticElement) Text() (string, error) { return innerText(e.node), nil }

func (e *staticElement) Visible() (bool, error) {
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && isHidden(n) {
			return false, nil
		}
	}
	return true, nil
}

func (e *staticElement) Attribute(name string) (string, bool, error) {
	v, ok := attr(e.node, name)
	return v, ok, nil
}

func (e *staticElement) All(sel Selector) ([]Element, error) {
	nodes, err := queryNodes(e.node, sel)
	if err != nil {
		return nil, err
	}
	return wrapNodes(nodes), nil
}

func (e *staticElement) HTML() (string, error) { return render(e.node) }

// queryNodes runs sel below root. CSS matches exclude root itself.
func queryNodes(root *html.Node, sel Selector) ([]*html.Node, error) {
	if sel.XPath {
		expr, err := xpath.Compile(sel.Expr)
		if err != nil {
			return nil, fmt.Errorf("browser: invalid xpath %q: %w", sel.Expr, err)
		}
		return htmlquery.QuerySelectorAll(root, expr), nil
	}

	m, err := cascadia.Compile(sel.Expr)
	if err != nil {
		return nil, fmt.Errorf("browser: invalid css %q: %w", sel.Expr, err)
	}
	return goquery.NewDocumentFromNode(root).FindMatcher(m).Nodes, nil
}

func wrapNodes(nodes []*html.Node) []Element {
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = &staticElement{node: n}
	}
	return out
}

func render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// linkOf returns the href of n or of its nearest anchor ancestor.
func linkOf(n *html.Node) (string, bool) {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := attr(n, "href"); ok && strings.TrimSpace(href) != "" {
				return strings.TrimSpace(href), true
			}
		}
	}
	return "", false
}

func resolve(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base == "" {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

var hiddenStyle = regexp.MustCompile(`(?i)(display\s*:\s*none|visibility\s*:\s*hidden)`)

func isHidden(n *html.Node) bool {
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	style, _ := attr(n, "style")
	return hiddenStyle.MatchString(style)
}

var spaceRun = regexp.MustCompile(`\s+`)

// innerText approximates the rendered text of n: hidden subtrees and
// script-like elements are skipped, <br> breaks a line, block elements sit
// on their own lines and paragraphs are separated by a blank line.
func innerText(n *html.Node) string {
	var b strings.Builder
	pending := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			s := spaceRun.ReplaceAllString(n.Data, " ")
			if strings.TrimSpace(s) == "" {
				if b.Len() > 0 && pending == 0 {
					b.WriteString(" ")
				}
				return
			}
			if b.Len() > 0 && pending > 0 {
				b.WriteString(strings.Repeat("\n", pending))
			}
			pending = 0
			b.WriteString(s)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
				return
			case atom.Br:
				b.WriteString("\n")
				return
			}
			if isHidden(n) {
				return
			}
		}

		brk := blockBreak(n)
		pending = max(pending, brk)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		pending = max(pending, brk)
	}
	walk(n)

	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// blockBreak is the number of line breaks required around n.
func blockBreak(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.P:
		return 2
	case atom.Div, atom.Li, atom.Ul, atom.Ol, atom.H1, atom.H2, atom.H3, atom.H4,
		atom.H5, atom.H6, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Blockquote, atom.Pre, atom.Tr, atom.Table, atom.Body, atom.Main, atom.Nav:
		return 1
	}
	return 0
}
