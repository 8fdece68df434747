package cleaner

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

// NewMarkdownConverter creates a reusable, goroutine-safe Converter. The
// base plugin drops script, style, head and comments; commonmark renders
// paragraphs, emphasis, headings and links.
func NewMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

// ChapterMarkdown converts the kept paragraph markup of a chapter to
// Markdown. domain resolves relative links and images.
func ChapterMarkdown(conv *converter.Converter, html, domain string) (string, error) {
	md, err := conv.ConvertString(StripNoise(html, nil), converter.WithDomain(domain))
	if err != nil {
		return "", err
	}
	md = extraBlankLines.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md), nil
}
