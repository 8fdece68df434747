package models

import "time"

// ChapterOutcome records what happened to one chapter during a run.
type ChapterOutcome struct {
	Index      int
	Title      string
	File       string
	Paragraphs int
	Chars      int
	Err        error
}

// OK reports whether the chapter was saved.
func (o ChapterOutcome) OK() bool {
	return o.Err == nil && o.File != ""
}

// RunReport is the aggregate result of one scrape run.
type RunReport struct {
	NovelTitle string
	Dir        string
	Found      int
	Chapters   []ChapterOutcome
	Started    time.Time
	Finished   time.Time
}

// Total is the number of chapters attempted.
func (r *RunReport) Total() int {
	return len(r.Chapters)
}

// Saved is the number of chapters written to disk.
func (r *RunReport) Saved() int {
	n := 0
	for _, c := range r.Chapters {
		if c.OK() {
			n++
		}
	}
	return n
}

// Failed is the number of attempted chapters that were skipped.
func (r *RunReport) Failed() int {
	return r.Total() - r.Saved()
}
