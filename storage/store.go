package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/novelgrab/models"
)

// separator sits under the chapter header line.
var separator = strings.Repeat("=", 80)

// Store writes the chapters of one novel below Root.
type Store struct {
	Root string

	// MaxTitleLen caps titles in file names; 0 means no cap.
	MaxTitleLen int

	// Ext is the file extension without the dot.
	Ext string

	// Fallback names the directory when the novel title is blank.
	Fallback string

	dir string
}

// Prepare creates Root/<DirName(title)> and returns its path.
func (s *Store) Prepare(title string) (string, error) {
	dir := filepath.Join(s.Root, DirName(title, s.Fallback))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", models.NewScrapeError(models.ErrCodeWriteFailed, "create output directory", err)
	}
	s.dir = dir
	slog.Debug("output directory ready", "dir", dir)
	return dir, nil
}

// Dir returns the directory set by Prepare.
func (s *Store) Dir() string { return s.dir }

// Save writes one chapter and returns the file path. An empty body writes
// nothing.
func (s *Store) Save(index int, title, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", models.NewScrapeError(models.ErrCodeEmptyContent, "refusing to save empty chapter", nil)
	}
	if s.dir == "" {
		return "", models.NewScrapeError(models.ErrCodeWriteFailed, "output directory not prepared", errors.New("storage: Prepare not called"))
	}

	ext := s.Ext
	if ext == "" {
		ext = "txt"
	}
	path := filepath.Join(s.dir, ChapterFilename(index, title, s.MaxTitleLen, ext))

	var b strings.Builder
	fmt.Fprintf(&b, "Chapter %d: %s\n", index, title)
	b.WriteString(separator)
	b.WriteString("\n\n")
	b.WriteString(body)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", models.NewScrapeError(models.ErrCodeWriteFailed, "write chapter file", err)
	}
	return path, nil
}
