package runner

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/novelgrab/models"
)

// ValidateURL checks that raw is an absolute http(s) URL with a host and,
// when pattern is set, that it matches pattern.
func ValidateURL(raw, pattern string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.NewScrapeError(models.ErrCodeInvalidURL, "no URL provided", nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidURL, "malformed URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return models.NewScrapeError(models.ErrCodeInvalidURL, fmt.Sprintf("unsupported scheme %q", u.Scheme), nil)
	}
	if u.Host == "" {
		return models.NewScrapeError(models.ErrCodeInvalidURL, "URL has no host", nil)
	}

	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return models.NewScrapeError(models.ErrCodeInvalidInput, "bad URL pattern", err)
		}
		if !re.MatchString(raw) {
			return models.NewScrapeError(models.ErrCodeInvalidURL, fmt.Sprintf("URL does not look like a novel page (want %s)", pattern), nil)
		}
	}
	return nil
}
