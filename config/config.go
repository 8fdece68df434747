package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Scrape modes.
const (
	ModeBulk       = "bulk"
	ModeSequential = "sequential"
)

// Page engines.
const (
	EngineRod  = "rod"
	EngineHTTP = "http"
)

// Output formats.
const (
	FormatText     = "txt"
	FormatMarkdown = "md"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Scraper ScraperConfig `yaml:"scraper"`
	Site    SiteConfig    `yaml:"site"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// BrowserConfig controls the page engine and the Rod browser instance.
type BrowserConfig struct {
	// Engine selects "rod" (Chromium) or "http" (static HTML, no JS).
	Engine string `yaml:"engine"` // default: "rod"

	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: false

	// NoSandbox disables Chrome's sandbox.
	NoSandbox bool `yaml:"no_sandbox"` // default: true

	// DisableDevShm stops Chrome from using /dev/shm.
	DisableDevShm bool `yaml:"disable_dev_shm"` // default: true

	ViewportWidth  int `yaml:"viewport_width"`  // default: 1920
	ViewportHeight int `yaml:"viewport_height"` // default: 1080

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Proxy is passed to Chromium and to the HTTP engine.
	Proxy string `yaml:"proxy"`

	// Stealth masks navigator.webdriver and friends on the landing tab.
	Stealth bool `yaml:"stealth"`

	// BlockedResourceTypes lists resource types blocked on the landing tab.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string `yaml:"blocked_resource_types"`

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers"`
}

// ScraperConfig controls pacing and timeouts of a run.
type ScraperConfig struct {
	// Mode is "bulk" (one CSS query, click opens tab) or "sequential"
	// (probe positional XPath, navigate by URL).
	Mode string `yaml:"mode"` // default: "bulk"

	// MaxChapters truncates the discovered list; 0 keeps all.
	MaxChapters int `yaml:"max_chapters"`

	// Range and List further select chapters by 1-based position.
	Range string `yaml:"range"`
	List  string `yaml:"list"`

	LandingDelay      time.Duration `yaml:"landing_delay"`      // default: 5s
	ClickDelay        time.Duration `yaml:"click_delay"`        // default: 3s
	ChapterDelay      time.Duration `yaml:"chapter_delay"`      // default: 2s
	ContentTimeout    time.Duration `yaml:"content_timeout"`    // default: 10s
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 30s

	// ReadabilityFallback extracts the chapter with readability when the
	// content container cannot be found.
	ReadabilityFallback bool `yaml:"readability_fallback"`
}

// OutputConfig controls where and how chapters are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`    // default: "output"
	Format string `yaml:"format"` // "txt" or "md"; default: "txt"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "text"
}

// Load reads configuration from .env, environment variables and, when
// path (or NOVELGRAB_CONFIG) is set, a YAML file layered on top.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("config: .env not loaded", "error", err)
	}

	cfg := fromEnv()

	if path == "" {
		path = os.Getenv("NOVELGRAB_CONFIG")
	}
	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Browser: BrowserConfig{
			Engine:         envOr("NOVELGRAB_ENGINE", EngineRod),
			Headless:       envBoolOr("NOVELGRAB_HEADLESS", false),
			NoSandbox:      envBoolOr("NOVELGRAB_NO_SANDBOX", true),
			DisableDevShm:  envBoolOr("NOVELGRAB_DISABLE_DEV_SHM", true),
			ViewportWidth:  envIntOr("NOVELGRAB_VIEWPORT_WIDTH", 1920),
			ViewportHeight: envIntOr("NOVELGRAB_VIEWPORT_HEIGHT", 1080),
			BrowserBin:     os.Getenv("NOVELGRAB_BROWSER_BIN"),
			Proxy:          os.Getenv("NOVELGRAB_PROXY"),
			Stealth:        envBoolOr("NOVELGRAB_STEALTH", false),
			BlockedResourceTypes: envSliceOr("NOVELGRAB_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			Mode:                envOr("NOVELGRAB_MODE", ModeBulk),
			MaxChapters:         envIntOr("NOVELGRAB_MAX_CHAPTERS", 0),
			LandingDelay:        envDurationOr("NOVELGRAB_LANDING_DELAY", 5*time.Second),
			ClickDelay:          envDurationOr("NOVELGRAB_CLICK_DELAY", 3*time.Second),
			ChapterDelay:        envDurationOr("NOVELGRAB_CHAPTER_DELAY", 2*time.Second),
			ContentTimeout:      envDurationOr("NOVELGRAB_CONTENT_TIMEOUT", 10*time.Second),
			NavigationTimeout:   envDurationOr("NOVELGRAB_NAV_TIMEOUT", 30*time.Second),
			ReadabilityFallback: envBoolOr("NOVELGRAB_READABILITY_FALLBACK", false),
		},
		Site: DefaultSite(),
		Output: OutputConfig{
			Dir:    envOr("NOVELGRAB_OUTPUT_DIR", "output"),
			Format: envOr("NOVELGRAB_FORMAT", FormatText),
		},
		Log: LogConfig{
			Level:  envOr("NOVELGRAB_LOG_LEVEL", "info"),
			Format: envOr("NOVELGRAB_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
