package browser

import (
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/novelgrab/config"
	"github.com/use-agent/novelgrab/models"
	"github.com/ysmood/gson"
)

// RodSession is a Chromium instance controlled through Rod.
type RodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	main     *rodTab
	router   *rod.HijackRouter
}

// Launch starts Chromium and prepares the landing tab.
func Launch(cfg config.BrowserConfig) (*RodSession, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}
	if cfg.DisableDevShm {
		l.Set(flags.Flag("disable-dev-shm-usage"))
	}
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.ViewportWidth, cfg.ViewportHeight))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))

	if cfg.Stealth {
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to connect to browser", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to open landing tab", err)
	}

	s := &RodSession{
		launcher: l,
		browser:  b,
		main:     &rodTab{browser: b, page: page},
	}
	s.prepare(page, cfg)

	return s, nil
}

// prepare applies viewport, stealth, headers and resource blocking to the
// landing tab. Failures here degrade the session but do not abort it.
func (s *RodSession) prepare(page *rod.Page, cfg config.BrowserConfig) {
	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.ViewportWidth,
			Height:            cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			slog.Warn("failed to set viewport", "error", err)
		}
	}

	if cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if len(cfg.Headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(cfg.Headers)}).Call(page); err != nil {
			slog.Warn("failed to set extra headers", "error", err)
		}
	}

	s.router = setupHijack(page, cfg.BlockedResourceTypes)
}

// Tab returns the landing tab.
func (s *RodSession) Tab() Tab { return s.main }

// Close stops request hijacking, closes the browser and removes its
// profile directory.
func (s *RodSession) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	err := s.browser.Close()
	s.launcher.Cleanup()
	slog.Info("browser closed")
	return err
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
