// Package runner wires discovery, extraction and persistence into one
// sequential scrape run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/novelgrab/browser"
	"github.com/use-agent/novelgrab/cleaner"
	"github.com/use-agent/novelgrab/config"
	"github.com/use-agent/novelgrab/models"
	"github.com/use-agent/novelgrab/novel"
	"github.com/use-agent/novelgrab/simhash"
	"github.com/use-agent/novelgrab/storage"
)

// repeatThreshold is the simhash distance at or below which two
// consecutive chapter bodies are reported as the same page.
const repeatThreshold = 3

// Opener starts the browser session a run uses.
type Opener func(ctx context.Context) (browser.Session, error)

// Reporter receives progress of a run.
type Reporter interface {
	Notice(msg string)
	Found(title string, found, selected int, dir string)
	Chapter(pos, total int, ch novel.Chapter)
	Outcome(o models.ChapterOutcome)
	Done(rep *models.RunReport)
}

// Runner performs scrape runs with a fixed configuration.
type Runner struct {
	cfg      *config.Config
	open     Opener
	reporter Reporter
}

// New creates a Runner. open is called once per Run, after the URL has been
// validated.
func New(cfg *config.Config, open Opener, reporter Reporter) *Runner {
	return &Runner{cfg: cfg, open: open, reporter: reporter}
}

// components are the per-mode pieces of a run.
type components struct {
	title     browser.Selector
	lister    novel.Lister
	navigator novel.Navigator
	extractor *novel.Extractor
	store     *storage.Store
	markdown  *converter.Converter
}

func (r *Runner) build() (*components, error) {
	site := r.cfg.Site
	mode := r.cfg.Scraper.Mode
	v := site.For(mode)

	parse := func(what, expr string) (browser.Selector, error) {
		sel, err := browser.ParseSelector(expr)
		if err != nil {
			return browser.Selector{}, models.NewScrapeError(models.ErrCodeInvalidInput, what+" selector", err)
		}
		return sel, nil
	}

	c := &components{
		extractor: &novel.Extractor{
			MinLen:      v.MinParagraphLen,
			Timeout:     r.cfg.Scraper.ContentTimeout,
			Readability: r.cfg.Scraper.ReadabilityFallback,
		},
		store: &storage.Store{
			Root:        r.cfg.Output.Dir,
			MaxTitleLen: v.MaxTitleLen,
			Ext:         r.cfg.Output.Format,
			Fallback:    site.DefaultTitle,
		},
	}

	var err error
	if v.Title != "" {
		if c.title, err = parse("title", v.Title); err != nil {
			return nil, err
		}
	}
	if c.extractor.Container, err = parse("content", v.Content); err != nil {
		return nil, err
	}
	if c.extractor.Paragraph, err = parse("paragraph", site.Paragraph); err != nil {
		return nil, err
	}
	if c.extractor.Span, err = parse("span", site.Span); err != nil {
		return nil, err
	}

	switch mode {
	case config.ModeSequential:
		if strings.Count(v.Chapters, "%d") != 1 {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
				fmt.Sprintf("chapter path %q needs exactly one %%d", v.Chapters), nil)
		}
		if err := browser.XPath(fmt.Sprintf(v.Chapters, 1)).Validate(); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "chapter path", err)
		}
		c.lister = novel.SequentialLister{Path: v.Chapters}
		c.navigator = novel.DirectNavigator{}
	default:
		sel, err := parse("chapter", v.Chapters)
		if err != nil {
			return nil, err
		}
		c.lister = novel.BulkLister{Selector: sel}
		c.navigator = novel.TabNavigator{Settle: r.cfg.Scraper.ClickDelay}
	}

	if r.cfg.Output.Format == config.FormatMarkdown {
		c.markdown = cleaner.NewMarkdownConverter()
	}
	return c, nil
}

// Run scrapes the novel at target. Per-chapter failures are recorded in
// the report; the returned error is set only when the run as a whole could
// not proceed or was canceled.
func (r *Runner) Run(ctx context.Context, target string) (*models.RunReport, error) {
	target = strings.TrimSpace(target)

	pattern := ""
	if r.cfg.Scraper.Mode == config.ModeSequential {
		pattern = r.cfg.Site.Sequential.URLPattern
	}
	if err := ValidateURL(target, pattern); err != nil {
		return nil, err
	}

	c, err := r.build()
	if err != nil {
		return nil, err
	}

	sess, err := r.open(ctx)
	if err != nil {
		var se *models.ScrapeError
		if !errors.As(err, &se) {
			err = models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to start browser", err)
		}
		return nil, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			slog.Warn("failed to close browser session", "error", err)
		}
	}()

	report := &models.RunReport{Started: time.Now()}
	tab := sess.Tab()

	slog.Info("loading landing page", "url", target, "mode", r.cfg.Scraper.Mode)
	navCtx, cancel := context.WithTimeout(ctx, r.cfg.Scraper.NavigationTimeout)
	err = tab.Navigate(navCtx, target)
	cancel()
	if err != nil {
		return nil, err
	}
	if err := pause(ctx, r.cfg.Scraper.LandingDelay); err != nil {
		return nil, err
	}

	report.NovelTitle = r.cfg.Site.DefaultTitle
	if c.title.Expr != "" {
		var found bool
		report.NovelTitle, found = novel.DiscoverTitle(ctx, tab, c.title, r.cfg.Site.DefaultTitle)
		if !found {
			r.reporter.Notice("Could not find novel title, using default")
		}
	}

	chapters, err := c.lister.List(ctx, tab)
	if err != nil {
		return nil, err
	}
	report.Found = len(chapters)

	chapters = models.Truncate(chapters, r.cfg.Scraper.MaxChapters)
	if chapters, err = models.Select(chapters, r.cfg.Scraper.Range, r.cfg.Scraper.List); err != nil {
		return nil, err
	}

	if report.Dir, err = c.store.Prepare(report.NovelTitle); err != nil {
		return nil, err
	}

	slog.Info("chapters discovered",
		"novel", report.NovelTitle,
		"found", report.Found,
		"selected", len(chapters),
		"dir", report.Dir,
	)
	r.reporter.Found(report.NovelTitle, report.Found, len(chapters), report.Dir)

	p := newPacer(r.cfg.Scraper.ChapterDelay)
	repeats := &simhash.Repeats{Threshold: repeatThreshold}

	for pos, ch := range chapters {
		if err = p.Wait(ctx); err != nil {
			break
		}
		r.reporter.Chapter(pos+1, len(chapters), ch)

		out := r.chapter(ctx, c, tab, ch, repeats)
		if out.Err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
				break
			}
			slog.Warn("chapter skipped",
				"index", ch.Index,
				"title", ch.Title,
				"code", models.CodeOf(out.Err),
				"error", out.Err,
			)
		}
		report.Chapters = append(report.Chapters, out)
		r.reporter.Outcome(out)
		p.Rest()
	}

	report.Finished = time.Now()
	slog.Info("run finished",
		"saved", report.Saved(),
		"total", report.Total(),
		"elapsed", report.Finished.Sub(report.Started).Round(time.Millisecond),
	)
	r.reporter.Done(report)

	return report, err
}

// chapter opens, extracts and saves one chapter.
func (r *Runner) chapter(ctx context.Context, c *components, landing browser.Tab, ch novel.Chapter, repeats *simhash.Repeats) models.ChapterOutcome {
	out := models.ChapterOutcome{Index: ch.Index, Title: ch.Title}

	navCtx, cancel := context.WithTimeout(ctx, r.cfg.Scraper.NavigationTimeout)
	defer cancel()

	tab, release, err := c.navigator.Open(navCtx, landing, ch)
	if err != nil {
		out.Err = err
		return out
	}
	defer release()

	doc, err := c.extractor.Extract(ctx, tab)
	if err != nil {
		out.Err = err
		return out
	}
	out.Paragraphs = len(doc.Paragraphs)

	body := doc.Text()
	if c.markdown != nil && doc.HTML != "" {
		md, err := cleaner.ChapterMarkdown(c.markdown, doc.HTML, origin(tab.URL()))
		if err != nil {
			slog.Warn("markdown conversion failed, keeping plain text", "index", ch.Index, "error", err)
		} else if md != "" {
			body = md
		}
	}
	out.Chars = utf8.RuneCountInString(body)

	if d, repeated := repeats.Check(doc.Text()); repeated {
		slog.Warn("chapter body nearly identical to the previous one",
			"index", ch.Index,
			"title", ch.Title,
			"distance", d,
		)
	}

	slog.Debug("chapter extracted", "index", ch.Index, "scanned", doc.Scanned, "kept", out.Paragraphs, "chars", out.Chars)

	out.File, out.Err = c.store.Save(ch.Index, ch.Title, body)
	return out
}

// origin returns scheme://host of raw, or "" when raw does not parse.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
