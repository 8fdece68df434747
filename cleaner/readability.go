package cleaner

import (
	"fmt"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered a chapter.
const minContentLength = 50

// ReadabilityParagraphs runs the Readability algorithm over a whole chapter
// page and returns its paragraphs. It is used when the configured content
// container is missing, e.g. after a site redesign.
func ReadabilityParagraphs(rawHTML, sourceURL string) ([]string, error) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("readability: invalid source url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}
	if len([]rune(strings.TrimSpace(article.TextContent))) < minContentLength {
		return nil, fmt.Errorf("readability: extracted content too short")
	}

	var paras []string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
		doc.Find("p").Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				paras = append(paras, text)
			}
		})
	}
	if len(paras) == 0 {
		paras = SplitBlocks(article.TextContent)
	}
	return paras, nil
}
