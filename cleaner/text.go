// Package cleaner turns chapter markup into text: blank-line splitting,
// noise removal, Markdown conversion and a Readability fallback.
package cleaner

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var blankLine = regexp.MustCompile(`\n\s*\n`)

// SplitBlocks splits text on blank lines and trims each block. Empty blocks
// are dropped.
func SplitBlocks(text string) []string {
	var out []string
	for _, block := range blankLine.Split(text, -1) {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}

// Keep reports whether a trimmed paragraph is long enough to keep: it must be
// non-empty and longer than minLen characters.
func Keep(text string, minLen int) bool {
	return text != "" && utf8.RuneCountInString(text) > minLen
}
