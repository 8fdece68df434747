package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/novelgrab/browser"
	"github.com/use-agent/novelgrab/config"
	"github.com/use-agent/novelgrab/models"
	"github.com/use-agent/novelgrab/novel"
	"github.com/use-agent/novelgrab/ui"
)

const landingURL = "https://www.bilibili.com/read/readlist/rl321"

// bulkLanding places the title where the default bulk title XPath
// (/html/body/div[2]/div[2]/div/div[1]/div[2]/div[1]) expects it and lists
// k chapter links.
func bulkLanding(title string, k int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div>top bar</div><div><div>banner</div><div><div><div>`)
	b.WriteString(`<div>cover</div><div><div>` + title + `</div><div>by someone</div></div>`)
	b.WriteString(`</div></div></div></div><div class="list">`)
	for i := 1; i <= k; i++ {
		fmt.Fprintf(&b, `<a href="/read/cv%d" target="_blank"><div class="title-text">Chapter %d</div></a>`, i, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// bulkChapter places the paragraphs at the default bulk content XPath
// (/html/body/div[2]/div[4]/div[1]/div[4]).
func bulkChapter(paras ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div>nav</div><div><div>a</div><div>b</div><div>c</div><div><div>`)
	b.WriteString(`<div>1</div><div>2</div><div>3</div><div>`)
	for _, p := range paras {
		b.WriteString(`<p><span>` + p + `</span></p>`)
	}
	b.WriteString(`</div></div></div></div></body></html>`)
	return b.String()
}

func bulkPages(title string, k int) browser.PageSet {
	pages := browser.PageSet{landingURL: bulkLanding(title, k)}
	for i := 1; i <= k; i++ {
		pages[fmt.Sprintf("https://www.bilibili.com/read/cv%d", i)] = bulkChapter(
			fmt.Sprintf("The first paragraph of chapter %d.", i),
			fmt.Sprintf("The second paragraph of chapter %d.", i),
		)
	}
	return pages
}

type trackedSession struct {
	*browser.StaticSession
	closed bool
}

func (s *trackedSession) Close() error {
	s.closed = true
	return s.StaticSession.Close()
}

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Scraper.Mode = mode
	cfg.Scraper.LandingDelay = 0
	cfg.Scraper.ClickDelay = 0
	cfg.Scraper.ChapterDelay = 0
	cfg.Scraper.ContentTimeout = time.Second
	cfg.Scraper.NavigationTimeout = 5 * time.Second
	cfg.Output.Dir = filepath.Join(t.TempDir(), "output")
	require.NoError(t, cfg.Validate())
	return cfg
}

func opener(pages browser.PageSet) (Opener, *trackedSession) {
	sess := &trackedSession{StaticSession: browser.NewStaticSession(pages)}
	return func(context.Context) (browser.Session, error) { return sess, nil }, sess
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	open, sess := opener(bulkPages("Test Novel", 3))
	var out bytes.Buffer

	rep, err := New(cfg, open, ui.NewConsole(&out)).Run(context.Background(), landingURL)
	require.NoError(t, err)

	assert.Equal(t, "Test Novel", rep.NovelTitle)
	assert.Equal(t, 3, rep.Found)
	assert.Equal(t, 3, rep.Saved())
	assert.Equal(t, 3, rep.Total())
	assert.True(t, sess.closed, "session must be closed")
	assert.Equal(t, 0, sess.OpenTabs())

	dir := filepath.Join(cfg.Output.Dir, "Test_Novel")
	assert.Equal(t, dir, rep.Dir)

	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	require.Len(t, files, 3)
	for i, f := range files {
		assert.True(t, strings.HasPrefix(filepath.Base(f), fmt.Sprintf("Chapter_%03d_", i+1)), f)
	}

	data, err := os.ReadFile(files[1])
	require.NoError(t, err)
	want := "Chapter 2: Chapter 2\n" + strings.Repeat("=", 80) + "\n\n" +
		"The first paragraph of chapter 2.\n\nThe second paragraph of chapter 2."
	assert.Equal(t, want, string(data))

	assert.Contains(t, out.String(), "Completed! 3/3 chapters saved")
}

func TestRun_MaxChapters(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	cfg.Scraper.MaxChapters = 2
	open, _ := opener(bulkPages("Test Novel", 5))

	rep, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), landingURL)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Found)
	assert.Equal(t, 2, rep.Total())
	assert.Equal(t, 2, rep.Saved())
}

func TestRun_RangeSelection(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	cfg.Scraper.Range = "2-3"
	open, _ := opener(bulkPages("Test Novel", 4))

	rep, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), landingURL)
	require.NoError(t, err)
	require.Len(t, rep.Chapters, 2)
	assert.Equal(t, 2, rep.Chapters[0].Index)
	assert.Equal(t, 3, rep.Chapters[1].Index)
	assert.FileExists(t, filepath.Join(rep.Dir, "Chapter_002_Chapter 2.txt"))
}

func TestRun_PartialFailure(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	pages := bulkPages("Test Novel", 3)
	delete(pages, "https://www.bilibili.com/read/cv2")
	pages["https://www.bilibili.com/read/cv3"] = bulkChapter("tiny", "")
	open, sess := opener(pages)
	var out bytes.Buffer

	rep, err := New(cfg, open, ui.NewConsole(&out)).Run(context.Background(), landingURL)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Saved())
	assert.Equal(t, 2, rep.Failed())
	assert.Equal(t, models.ErrCodeNavigation, models.CodeOf(rep.Chapters[1].Err))
	assert.Equal(t, models.ErrCodeEmptyContent, models.CodeOf(rep.Chapters[2].Err))
	assert.True(t, sess.closed)
	assert.Equal(t, 0, sess.OpenTabs())
	assert.Contains(t, out.String(), "Completed! 1/3 chapters saved")

	files, _ := filepath.Glob(filepath.Join(rep.Dir, "*"))
	assert.Len(t, files, 1)
}

func TestRun_DefaultTitle(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	pages := bulkPages("", 1)
	pages[landingURL] = `<html><body><a href="/read/cv1"><div class="title-text">Only</div></a></body></html>`
	open, _ := opener(pages)
	var out bytes.Buffer

	rep, err := New(cfg, open, ui.NewConsole(&out)).Run(context.Background(), landingURL)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Could not find novel title, using default\n")
	assert.Equal(t, "Bilibili_Novel", rep.NovelTitle)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "Bilibili_Novel"), rep.Dir)
	assert.Equal(t, 1, rep.Saved())
}

func TestRun_NoChapters(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	open, sess := opener(browser.PageSet{landingURL: bulkLanding("Test Novel", 0)})

	_, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), landingURL)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNoChapters, models.CodeOf(err))
	assert.True(t, sess.closed)
}

func TestRun_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		mode string
		url  string
	}{
		{"empty", config.ModeBulk, ""},
		{"relative", config.ModeBulk, "/read/readlist/rl1"},
		{"ftp", config.ModeBulk, "ftp://example.com/novel/1"},
		{"sequential shape", config.ModeSequential, "https://www.linovelib.com/book/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.mode)
			opened := false
			open := func(context.Context) (browser.Session, error) {
				opened = true
				return nil, errors.New("should not be called")
			}

			_, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), tt.url)
			assert.Equal(t, models.ErrCodeInvalidURL, models.CodeOf(err))
			assert.True(t, models.IsFatal(err))
			assert.False(t, opened, "browser must not start for an invalid URL")
		})
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	open := func(context.Context) (browser.Session, error) {
		return nil, errors.New("chrome not found")
	}

	_, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), landingURL)
	assert.Equal(t, models.ErrCodeBrowserLaunch, models.CodeOf(err))
	assert.True(t, models.IsFatal(err))
}

func TestRun_BadSelector(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	cfg.Site.Bulk.Chapters = "div["
	open, _ := opener(bulkPages("Test Novel", 1))

	_, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), landingURL)
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))
}

const seqURL = "https://www.linovelib.com/novel/2704/catalog"

func sequentialPages(k int) browser.PageSet {
	var b strings.Builder
	b.WriteString(`<html><body><h1>Seq Novel</h1><ul class="chapter-li">`)
	for i := 1; i <= k; i++ {
		fmt.Fprintf(&b, `<li><a href="/novel/2704/%d.html">第%d章</a></li>`, i, i)
	}
	b.WriteString(`</ul></body></html>`)

	pages := browser.PageSet{seqURL: b.String()}
	for i := 1; i <= k; i++ {
		pages[fmt.Sprintf("https://www.linovelib.com/novel/2704/%d.html", i)] = fmt.Sprintf(
			`<html><body><div id="acontent"><p>第%d章的内容。</p><p>Short</p><p></p></div></body></html>`, i)
	}
	return pages
}

func TestRun_Sequential(t *testing.T) {
	cfg := testConfig(t, config.ModeSequential)
	open, sess := opener(sequentialPages(4))

	rep, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), seqURL)
	require.NoError(t, err)

	assert.Equal(t, "Seq Novel", rep.NovelTitle)
	assert.Equal(t, 4, rep.Found)
	assert.Equal(t, 4, rep.Saved())
	assert.True(t, sess.closed)

	data, err := os.ReadFile(filepath.Join(rep.Dir, "Chapter_004_第4章.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "第4章的内容。\n\nShort"))
}

func TestRun_Markdown(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	cfg.Output.Format = config.FormatMarkdown
	open, _ := opener(bulkPages("Test Novel", 1))

	rep, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), landingURL)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Saved())
	assert.Equal(t, ".md", filepath.Ext(rep.Chapters[0].File))

	data, err := os.ReadFile(rep.Chapters[0].File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "The first paragraph of chapter 1.\n\nThe second paragraph of chapter 1.")
}

func TestRun_MarkdownDropsShortParagraphs(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	cfg.Output.Format = config.FormatMarkdown
	pages := bulkPages("Test Novel", 1)
	pages["https://www.bilibili.com/read/cv1"] = bulkChapter("tiny", "A long enough paragraph of prose.")
	open, _ := opener(pages)

	rep, err := New(cfg, open, ui.NewConsole(&bytes.Buffer{})).Run(context.Background(), landingURL)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Saved())

	data, err := os.ReadFile(rep.Chapters[0].File)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tiny")
	assert.Contains(t, string(data), "\n\nA long enough paragraph of prose.")
}

// timedReporter records when each chapter starts and finishes.
type timedReporter struct {
	*ui.Console
	starts []time.Time
	ends   []time.Time
}

func (r *timedReporter) Chapter(pos, total int, ch novel.Chapter) {
	r.starts = append(r.starts, time.Now())
	r.Console.Chapter(pos, total, ch)
}

func (r *timedReporter) Outcome(o models.ChapterOutcome) {
	r.Console.Outcome(o)
	r.ends = append(r.ends, time.Now())
}

func TestRun_ChapterDelay(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	cfg.Scraper.ClickDelay = 120 * time.Millisecond
	cfg.Scraper.ChapterDelay = 100 * time.Millisecond
	open, _ := opener(bulkPages("Test Novel", 3))
	rec := &timedReporter{Console: ui.NewConsole(&bytes.Buffer{})}

	rep, err := New(cfg, open, rec).Run(context.Background(), landingURL)
	require.NoError(t, err)
	require.Equal(t, 3, rep.Saved())
	require.Len(t, rec.starts, 3)
	require.Len(t, rec.ends, 3)

	for i := 1; i < 3; i++ {
		gap := rec.starts[i].Sub(rec.ends[i-1])
		assert.GreaterOrEqual(t, gap, cfg.Scraper.ChapterDelay-time.Millisecond,
			"gap between chapter %d and %d", i, i+1)
	}
}

// cancelOn cancels the run when chapter n starts.
type cancelOn struct {
	*ui.Console
	n      int
	cancel context.CancelFunc
}

func (c *cancelOn) Chapter(pos, total int, ch novel.Chapter) {
	c.Console.Chapter(pos, total, ch)
	if pos == c.n {
		c.cancel()
	}
}

func TestRun_Canceled(t *testing.T) {
	cfg := testConfig(t, config.ModeBulk)
	open, sess := opener(bulkPages("Test Novel", 5))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep := &cancelOn{Console: ui.NewConsole(&bytes.Buffer{}), n: 2, cancel: cancel}

	report, err := New(cfg, open, rep).Run(ctx, landingURL)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Saved())
	assert.True(t, sess.closed)
}

func TestValidateURL(t *testing.T) {
	pattern := config.DefaultSite().Sequential.URLPattern
	tests := []struct {
		url     string
		pattern string
		ok      bool
	}{
		{"https://www.bilibili.com/read/readlist/rl1", "", true},
		{" http://example.com ", "", true},
		{"example.com/novel/1", "", false},
		{"https:///novel/1", "", false},
		{"https://www.linovelib.com/novel/12/catalog", pattern, true},
		{"https://www.linovelib.com/user/12", pattern, false},
		{"https://example.com", "(", false},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url, tt.pattern)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateURL(%q, %q) error = %v, want ok %v", tt.url, tt.pattern, err, tt.ok)
		}
	}
}

func TestPacer(t *testing.T) {
	p := newPacer(0)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	slow := newPacer(time.Hour)
	require.NoError(t, slow.Wait(context.Background()), "first wait is free")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, slow.Wait(ctx))
}

func TestPacer_Rest(t *testing.T) {
	p := newPacer(50 * time.Millisecond)
	require.NoError(t, p.Wait(context.Background()))

	// A chapter longer than the interval must not use up the rest.
	time.Sleep(60 * time.Millisecond)
	p.Rest()

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 49*time.Millisecond)

	free := newPacer(0)
	free.Rest()
	require.NoError(t, free.Wait(context.Background()))
}
