package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/use-agent/novelgrab/models"
	"github.com/use-agent/novelgrab/novel"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress shows a single bar for the chapters of a run and prints the
// summary once the run is done.
type Progress struct {
	w       io.Writer
	console *Console
	p       *mpb.Progress
	bar     *mpb.Bar
	current atomic.Pointer[string]
	failed  atomic.Int64
}

// NewProgress returns a Progress rendering to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w, console: NewConsole(w)}
}

// Notice prints msg as a plain line. Notices come before Found, so the bar
// is not running yet.
func (pr *Progress) Notice(msg string) {
	pr.console.Notice(msg)
}

func (pr *Progress) Found(title string, found, selected int, dir string) {
	pr.console.Found(title, found, selected, dir)

	pr.p = mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(pr.w),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	pr.bar = pr.p.New(
		int64(selected),
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(
			decor.Name("chapters  "),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
			decor.Any(func(_ decor.Statistics) string {
				n := pr.failed.Load()
				if n == 0 {
					return ""
				}
				return fmt.Sprintf(" | %d failed", n)
			}),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
			decor.Any(func(_ decor.Statistics) string {
				if t := pr.current.Load(); t != nil {
					return "  " + *t
				}
				return ""
			}),
		),
	)
}

func (pr *Progress) Chapter(pos, total int, ch novel.Chapter) {
	title := ch.Title
	pr.current.Store(&title)
}

func (pr *Progress) Outcome(o models.ChapterOutcome) {
	if !o.OK() {
		pr.failed.Add(1)
	}
	if pr.bar != nil {
		pr.bar.Increment()
	}
}

func (pr *Progress) Done(rep *models.RunReport) {
	if pr.bar != nil {
		pr.current.Store(nil)
		pr.bar.SetTotal(-1, true)
		pr.p.Wait()
	}
	pr.console.Done(rep)
}
