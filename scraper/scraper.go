// Package scraper drives headless-browser extraction of public TikTok
// profile data: session lifecycle, navigation, state recovery and
// normalization, wrapped in a bounded retry loop.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/tikscope/tikscope/config"
	"github.com/tikscope/tikscope/models"
	"github.com/tikscope/tikscope/proxy"
)

const profileBaseURL = "https://www.tiktok.com/@"

// Scraper owns the full pipeline for one deployment: a proxy pool, a
// session factory, the extractor chain and the normalizer. Safe for
// concurrent use; every scrape attempt gets its own browser session.
type Scraper struct {
	cfg        config.ScraperConfig
	browserCfg config.BrowserConfig

	proxies     *proxy.Pool
	extractor   *Extractor
	normalizer  *Normalizer
	fetcher     *httpFetcher
	openSession sessionFactory

	active  atomic.Int32
	baseURL string
}

// New wires a Scraper from configuration.
func New(cfg config.ScraperConfig, browserCfg config.BrowserConfig, proxies *proxy.Pool) *Scraper {
	return &Scraper{
		cfg:         cfg,
		browserCfg:  browserCfg,
		proxies:     proxies,
		extractor:   NewExtractor(cfg.ExtractRounds, cfg.ExtractDelay),
		normalizer:  NewNormalizer(cfg.HashtagCap, cfg.AudioTrackCap),
		fetcher:     newHTTPFetcher(cfg.NavigationTimeout / 2),
		openSession: newSessionFactory(browserCfg),
		baseURL:     profileBaseURL,
	}
}

// ActiveScrapes reports how many attempts are in flight right now.
func (s *Scraper) ActiveScrapes() int {
	return int(s.active.Load())
}

// ScrapeAccount scrapes one profile with retries. Terminal conditions
// (profile missing, private, bad input) return immediately; transient
// failures retry with a fixed delay, and exhaustion wraps the last cause.
func (s *Scraper) ScrapeAccount(ctx context.Context, username string) (*models.AccountSnapshot, error) {
	if username == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "username must not be empty", nil)
	}

	attempts := s.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	snap, err := retry.DoWithData(
		func() (*models.AccountSnapshot, error) {
			return s.attempt(ctx, username)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(s.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(models.Retryable),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("scrape attempt failed, retrying",
				"username", username, "attempt", n+1, "max", attempts, "error", err)
		}),
	)
	if err != nil {
		if !models.Retryable(err) {
			return nil, err
		}
		return nil, models.NewScrapeError(models.ErrCodeScrapeExhausted,
			fmt.Sprintf("giving up on @%s after %d attempts", username, attempts), err)
	}
	return snap, nil
}

// attempt runs one full scrape: pick a proxy, open a session, navigate,
// extract, normalize. The session is always closed before returning.
func (s *Scraper) attempt(ctx context.Context, username string) (*models.AccountSnapshot, error) {
	s.active.Add(1)
	defer s.active.Add(-1)

	proxyAddr := s.proxies.Pick()
	targetURL := s.baseURL + username

	// Optional HTTP pre-flight: when the page still ships server-rendered
	// state, the answer arrives without ever paying for a browser.
	if s.cfg.FetchMode == "auto" {
		if snap, done, err := s.tryHTTPFirst(ctx, username, targetURL, proxyAddr); done {
			return snap, err
		}
	}

	sess, err := s.openSession(ctx, proxyAddr)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	slog.Info("scraping profile", "username", username, "proxy", proxyAddr != "")

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()
	if err := sess.Navigate(navCtx, targetURL); err != nil {
		return nil, classifyNavigation(err, proxyAddr)
	}

	// Let late hydration land before the first capture.
	time.Sleep(s.cfg.SettleDelay)

	html, err := sess.HTML()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "could not read page content", err)
	}

	if sigErr := checkPageSignals(username, sess.Title(), html); sigErr != nil {
		return nil, sigErr
	}

	state := s.extractor.Run(&source{html: html, sess: sess})
	if state == nil && s.browserCfg.Debug {
		if latest, err := sess.HTML(); err == nil {
			html = latest
		}
		dumpArtifacts(s.browserCfg.DebugDir, username, sess, html)
	}
	if state != nil {
		if rec, ok := state.MatchUser(username); ok && rec.Private {
			return nil, models.NewScrapeError(models.ErrCodeProfilePrivate,
				fmt.Sprintf("profile @%s is private", username), nil)
		}
	}

	return s.normalizer.Snapshot(username, state, html), nil
}

// tryHTTPFirst attempts the cheap path. done=false means fall through to
// the browser; done=true carries the final result, success or terminal.
func (s *Scraper) tryHTTPFirst(ctx context.Context, username, targetURL, proxyAddr string) (*models.AccountSnapshot, bool, error) {
	body, err := s.fetcher.fetch(ctx, targetURL, proxyAddr)
	if err != nil {
		if !models.Retryable(err) {
			return nil, true, err
		}
		slog.Debug("http pre-flight failed, falling back to browser", "username", username, "error", err)
		return nil, false, nil
	}

	html := string(body)
	if sigErr := checkPageSignals(username, "", html); sigErr != nil {
		if !models.Retryable(sigErr) {
			return nil, true, sigErr
		}
		return nil, false, nil
	}

	state := s.extractor.Run(&source{html: html})
	if state == nil {
		return nil, false, nil
	}
	rec, ok := state.MatchUser(username)
	if !ok {
		return nil, false, nil
	}
	if rec.Private {
		return nil, true, models.NewScrapeError(models.ErrCodeProfilePrivate,
			fmt.Sprintf("profile @%s is private", username), nil)
	}

	slog.Info("profile resolved without a browser", "username", username)
	return s.normalizer.Snapshot(username, state, html), true, nil
}
