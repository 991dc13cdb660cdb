package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/tikscope/tikscope/config"
	"github.com/tikscope/tikscope/models"
)

// defaultUserAgent is a fixed realistic Chrome UA applied before any page
// script executes.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// session is one isolated automated-browser instance. Exactly one session
// exists per scrape attempt; no browser state survives past Close.
//
// It is an interface so the retry controller can be exercised in tests with
// a fake factory (and so tests can count open/close pairs).
type session interface {
	// Navigate drives the session to the URL and waits for the page to
	// settle. The context bounds the whole operation.
	Navigate(ctx context.Context, url string) error

	// Title returns the current page title, best-effort.
	Title() string

	// HTML returns the current rendered page markup.
	HTML() (string, error)

	// Eval runs a JS function in the page and returns its result.
	Eval(js string) (gson.JSON, error)

	// ScrollNudge scrolls to the bottom and back to the top to trigger
	// lazy-loaded content.
	ScrollNudge()

	// Screenshot captures the full page (debug artifacts only).
	Screenshot() ([]byte, error)

	// Close tears down the page and the browser process. Safe to call on
	// every exit path; must be called exactly once.
	Close()
}

// sessionFactory opens a session, optionally routed through a proxy.
type sessionFactory func(ctx context.Context, proxyAddr string) (session, error)

// rodSession is the production session backed by a dedicated Chromium
// process launched through rod.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	debug    bool
}

// newSessionFactory builds the rod-backed factory from browser config.
func newSessionFactory(cfg config.BrowserConfig) sessionFactory {
	return func(ctx context.Context, proxyAddr string) (session, error) {
		return openRodSession(ctx, cfg, proxyAddr)
	}
}

// openRodSession launches a hardened Chromium and prepares a stealth page.
// Teardown of every partially-constructed resource happens in-line so a
// failed open never leaks a process.
func openRodSession(ctx context.Context, cfg config.BrowserConfig, proxyAddr string) (session, error) {
	headless := cfg.Headless
	if cfg.Debug {
		headless = false
	}

	l := launcher.New().
		Headless(headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if proxyAddr != "" {
		l = l.Proxy(proxyAddr)
	}

	// Hardening flags: suppress the automation banner, GPU compositing and
	// cross-origin isolation; pin the viewport to a common desktop size.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-accelerated-2d-canvas"))
	l.Set(flags.Flag("disable-features"), "IsolateOrigins,site-per-process")
	l.Set(flags.Flag("window-size"), "1920,1080")
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	// stealth.Page injects the evasion script (navigator.webdriver, plugin
	// list, language list overrides) before any page script executes.
	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to create stealth page", err)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: "en-US,en;q=0.9",
	}); err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to set user agent", err)
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Accept":                    gson.New("text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"),
			"Referer":                   gson.New("https://www.tiktok.com/"),
			"Upgrade-Insecure-Requests": gson.New("1"),
		},
	}.Call(page)

	s := &rodSession{
		launcher: l,
		browser:  browser,
		page:     page,
		debug:    cfg.Debug,
	}

	setupResourceBlocking(page)
	if cfg.Debug {
		s.traceNetwork()
	}

	return s, nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	// Best-effort settle; a page that never stabilizes is still worth
	// handing to the extractor.
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("page did not stabilize, proceeding", "error", err)
	}
	return nil
}

func (s *rodSession) Title() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

func (s *rodSession) HTML() (string, error) {
	return s.page.HTML()
}

func (s *rodSession) Eval(js string) (gson.JSON, error) {
	result, err := s.page.Timeout(10 * time.Second).Eval(js)
	if err != nil {
		return gson.JSON{}, err
	}
	return result.Value, nil
}

// ScrollNudge scrolls to the bottom and back up with short pauses, the same
// maneuver the web client uses to trigger lazy-loaded grid items.
func (s *rodSession) ScrollNudge() {
	_, _ = s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	time.Sleep(1500 * time.Millisecond)
	_, _ = s.page.Eval(`() => window.scrollTo(0, 0)`)
	time.Sleep(time.Second)
}

func (s *rodSession) Screenshot() ([]byte, error) {
	return s.page.Screenshot(true, nil)
}

// Close tears the whole process down: page, browser connection, and the
// launched Chromium itself. Called on every exit path of an attempt.
func (s *rodSession) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
}

// traceNetwork logs every request, response and failure. Debug mode only;
// the event listeners add measurable overhead per page load.
func (s *rodSession) traceNetwork() {
	go s.page.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			slog.Debug("net request", "method", e.Request.Method, "url", e.Request.URL)
		},
		func(e *proto.NetworkResponseReceived) {
			slog.Debug("net response", "status", e.Response.Status, "url", e.Response.URL)
		},
		func(e *proto.NetworkLoadingFailed) {
			slog.Debug("net failure", "error", e.ErrorText, "request", e.RequestID)
		},
	)()
}

// dumpArtifacts writes a full-page screenshot and the current HTML next to
// each other so a failed extraction can be inspected offline.
func dumpArtifacts(dir, username string, sess session, html string) {
	stamp := time.Now().Unix()
	base := filepath.Join(dir, fmt.Sprintf("debug-%s-%d", username, stamp))

	if shot, err := sess.Screenshot(); err == nil {
		if err := os.WriteFile(base+".png", shot, 0o644); err != nil {
			slog.Warn("could not write debug screenshot", "error", err)
		}
	}
	if err := os.WriteFile(base+".html", []byte(html), 0o644); err != nil {
		slog.Warn("could not write debug html", "error", err)
	}
	slog.Debug("debug artifacts saved", "base", base)
}
