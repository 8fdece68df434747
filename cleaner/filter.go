package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors match elements that never belong in a chapter body.
// Hidden nodes carry anti-copy filler on some readers.
var noiseSelectors = []string{
	"script", "style", "noscript", "iframe",
	"[hidden]",
	`[style*="display:none"]`, `[style*="display: none"]`,
	`[style*="visibility:hidden"]`, `[style*="visibility: hidden"]`,
}

// StripNoise removes script-like, hidden and excluded elements from a
// chapter container's HTML. On parse failure the input is returned as is.
func StripNoise(html string, exclude []string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	for _, selector := range noiseSelectors {
		doc.Find(selector).Remove()
	}
	for _, selector := range exclude {
		doc.Find(selector).Remove()
	}

	result, err := doc.Find("body").Html()
	if err != nil {
		return html
	}
	return result
}
