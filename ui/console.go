// Package ui prints the human-readable status of a scrape run.
package ui

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/use-agent/novelgrab/models"
	"github.com/use-agent/novelgrab/novel"
)

// Console writes one status line per event.
type Console struct {
	w io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Notice(msg string) {
	fmt.Fprintln(c.w, msg)
}

// Fatal prints the reason a run stopped before finishing.
func (c *Console) Fatal(err error) {
	fmt.Fprintln(c.w, Reason(err))
}

func (c *Console) Found(title string, found, selected int, dir string) {
	fmt.Fprintf(c.w, "Novel: %s\n", title)
	fmt.Fprintf(c.w, "Found %d chapters\n", found)
	if selected != found {
		fmt.Fprintf(c.w, "Processing %d chapters\n", selected)
	}
	fmt.Fprintf(c.w, "Output directory: %s\n", dir)
}

func (c *Console) Chapter(pos, total int, ch novel.Chapter) {
	fmt.Fprintf(c.w, "\n[%d/%d] %s\n", pos, total, ch.Title)
}

func (c *Console) Outcome(o models.ChapterOutcome) {
	if !o.OK() {
		fmt.Fprintf(c.w, "  ✗ %s\n", Reason(o.Err))
		return
	}
	fmt.Fprintf(c.w, "  Extracted %d paragraphs, %d characters\n", o.Paragraphs, o.Chars)
	fmt.Fprintf(c.w, "  ✓ Saved: %s\n", filepath.Base(o.File))
}

func (c *Console) Done(rep *models.RunReport) {
	fmt.Fprintf(c.w, "\nCompleted! %d/%d chapters saved\n", rep.Saved(), rep.Total())
	if n := rep.Failed(); n > 0 {
		fmt.Fprintf(c.w, "Failed chapters: %d\n", n)
	}
	fmt.Fprintf(c.w, "Files saved in: %s\n", rep.Dir)
}

// Reason is the short message of err for status lines.
func Reason(err error) string {
	if err == nil {
		return "unknown error"
	}
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
