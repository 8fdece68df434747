// Package storage writes chapters to per-novel directories of text files.
package storage

import (
	"fmt"
	"regexp"
	"strings"
)

var reserved = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeTitle replaces each filesystem-reserved character with "_" and,
// when max > 0, keeps at most max characters.
func SanitizeTitle(s string, max int) string {
	s = reserved.Replace(s)
	if max > 0 {
		if r := []rune(s); len(r) > max {
			s = string(r[:max])
		}
	}
	return s
}

var reSpace = regexp.MustCompile(`\s+`)

// DirName turns a novel title into a directory name: reserved characters
// and whitespace runs become "_". Blank titles and dot names yield fallback.
func DirName(title, fallback string) string {
	s := reSpace.ReplaceAllString(strings.TrimSpace(SanitizeTitle(title, 0)), "_")
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}

// ChapterFilename is Chapter_<3-digit index>_<sanitised title>.<ext>.
func ChapterFilename(index int, title string, max int, ext string) string {
	return fmt.Sprintf("Chapter_%03d_%s.%s", index, SanitizeTitle(title, max), ext)
}
