package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/use-agent/novelgrab/models"
	"github.com/use-agent/novelgrab/novel"
)

func sampleReport() *models.RunReport {
	return &models.RunReport{
		NovelTitle: "Test Novel",
		Dir:        "output/Test_Novel",
		Found:      3,
		Chapters: []models.ChapterOutcome{
			{Index: 1, Title: "One", File: "output/Test_Novel/Chapter_001_One.txt", Paragraphs: 2, Chars: 40},
			{Index: 2, Title: "Two", Err: models.NewScrapeError(models.ErrCodeNoNewTab, "No new tab opened", nil)},
		},
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	rep := sampleReport()

	c.Found(rep.NovelTitle, 3, 2, rep.Dir)
	c.Chapter(1, 2, novel.Chapter{Index: 1, Title: "One"})
	c.Outcome(rep.Chapters[0])
	c.Chapter(2, 2, novel.Chapter{Index: 2, Title: "Two"})
	c.Outcome(rep.Chapters[1])
	c.Done(rep)

	out := buf.String()
	for _, want := range []string{
		"Novel: Test Novel\n",
		"Found 3 chapters\n",
		"Processing 2 chapters\n",
		"Output directory: output/Test_Novel\n",
		"[1/2] One\n",
		"Extracted 2 paragraphs, 40 characters\n",
		"✓ Saved: Chapter_001_One.txt\n",
		"[2/2] Two\n",
		"✗ No new tab opened\n",
		"Completed! 1/2 chapters saved\n",
		"Failed chapters: 1\n",
		"Files saved in: output/Test_Novel\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsole_AllSelected(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Found("N", 4, 4, "out/N")
	if strings.Contains(buf.String(), "Processing") {
		t.Errorf("no selection line expected when nothing was cut:\n%s", buf.String())
	}
}

func TestConsole_NoticeAndFatal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Notice("Could not find novel title, using default")
	c.Fatal(models.NewScrapeError(models.ErrCodeNoChapters, "No chapters found!", nil))

	want := "Could not find novel title, using default\nNo chapters found!\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestConsole_NoFailedLine(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Done(&models.RunReport{
		Dir:      "out/N",
		Chapters: []models.ChapterOutcome{{Index: 1, File: "out/N/Chapter_001_A.txt"}},
	})
	if strings.Contains(buf.String(), "Failed chapters") {
		t.Errorf("no failure line expected:\n%s", buf.String())
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "unknown error"},
		{errors.New("boom"), "boom"},
		{models.NewScrapeError(models.ErrCodeEmptyContent, "No content extracted", nil), "No content extracted"},
	}

	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestProgress_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)
	rep := sampleReport()

	p.Found(rep.NovelTitle, 3, 2, rep.Dir)
	for i, o := range rep.Chapters {
		p.Chapter(i+1, 2, novel.Chapter{Index: o.Index, Title: o.Title})
		p.Outcome(o)
	}
	p.Done(rep)

	if !strings.Contains(buf.String(), "Completed! 1/2 chapters saved") {
		t.Errorf("summary missing:\n%s", buf.String())
	}
}
