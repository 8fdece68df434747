package config

import (
	"fmt"
	"regexp"
	"slices"
)

// SiteConfig describes where things live on the target site. Selectors are
// CSS unless they start with "/", "(" or "xpath:".
type SiteConfig struct {
	// DefaultTitle is used when the novel heading cannot be found.
	DefaultTitle string `yaml:"default_title"`

	// Paragraph and Span select paragraph elements inside the content
	// container and text spans inside a paragraph.
	Paragraph string `yaml:"paragraph"`
	Span      string `yaml:"span"`

	Bulk       Variant `yaml:"bulk"`
	Sequential Variant `yaml:"sequential"`
}

// Variant holds the selectors and limits of one discovery strategy.
type Variant struct {
	// Title selects the novel heading on the landing page.
	Title string `yaml:"title"`

	// Chapters is a CSS selector matching every chapter title (bulk) or a
	// positional XPath template with one %d verb (sequential).
	Chapters string `yaml:"chapters"`

	// Content selects the chapter text container.
	Content string `yaml:"content"`

	// URLPattern, when set, must match the landing page URL.
	URLPattern string `yaml:"url_pattern"`

	// MinParagraphLen drops paragraphs whose length is not above it.
	MinParagraphLen int `yaml:"min_paragraph_len"`

	// MaxTitleLen caps sanitised titles in file names; 0 means no cap.
	MaxTitleLen int `yaml:"max_title_len"`
}

// DefaultSite returns the selectors for the Bilibili novel reader.
func DefaultSite() SiteConfig {
	return SiteConfig{
		DefaultTitle: "Bilibili_Novel",
		Paragraph:    "p",
		Span:         "span",
		Bulk: Variant{
			Title:           "/html/body/div[2]/div[2]/div/div[1]/div[2]/div[1]",
			Chapters:        "div.title-text",
			Content:         "/html/body/div[2]/div[4]/div[1]/div[4]",
			MinParagraphLen: 5,
			MaxTitleLen:     50,
		},
		Sequential: Variant{
			Title:      "//h1",
			Chapters:   "//ul[contains(@class,'chapter-li')]/li[%d]/a",
			Content:    "//div[@id='acontent']",
			URLPattern: `^https?://[^/]+/novel/\d+`,
		},
	}
}

// For returns the variant used by mode.
func (s SiteConfig) For(mode string) Variant {
	if mode == ModeSequential {
		return s.Sequential
	}
	return s.Bulk
}

// Validate checks the enumerated settings. Selector syntax is checked
// where selectors are compiled.
func (c *Config) Validate() error {
	if !slices.Contains([]string{ModeBulk, ModeSequential}, c.Scraper.Mode) {
		return fmt.Errorf("config: unknown mode %q", c.Scraper.Mode)
	}
	if !slices.Contains([]string{EngineRod, EngineHTTP}, c.Browser.Engine) {
		return fmt.Errorf("config: unknown engine %q", c.Browser.Engine)
	}
	if !slices.Contains([]string{FormatText, FormatMarkdown}, c.Output.Format) {
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	if c.Scraper.MaxChapters < 0 {
		return fmt.Errorf("config: max chapters must not be negative")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("config: output dir is empty")
	}

	v := c.Site.For(c.Scraper.Mode)
	if v.Chapters == "" || v.Content == "" {
		return fmt.Errorf("config: %s selectors for chapters and content are required", c.Scraper.Mode)
	}
	if v.URLPattern != "" {
		if _, err := regexp.Compile(v.URLPattern); err != nil {
			return fmt.Errorf("config: url pattern: %w", err)
		}
	}
	return nil
}
