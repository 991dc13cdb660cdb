package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	tls2 "github.com/refraction-networking/utls"

	"github.com/tikscope/tikscope/models"
)

// httpFetcher retrieves profile pages over plain HTTP with a Chrome TLS
// fingerprint (utls). Much cheaper than a browser session, and enough when
// the page still ships server-rendered state. Used only in "auto" fetch
// mode as a pre-flight before the browser; any failure other than a 404
// falls through silently to the browser path.
type httpFetcher struct {
	timeout time.Duration
}

func newHTTPFetcher(timeout time.Duration) *httpFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &httpFetcher{timeout: timeout}
}

// fetch GETs the URL through the given proxy (or directly when empty) and
// returns the body. A 404 is promoted to a terminal profile-not-found error
// so callers can short-circuit before ever opening a browser.
func (f *httpFetcher) fetch(ctx context.Context, targetURL, proxyAddr string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if proxyAddr != "" {
		proxyURL, err := url.Parse(proxyAddr)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			// With a proxy set, the transport CONNECT-tunnels https requests
			// and runs its own crypto/tls handshake inside the tunnel, so
			// DialTLSContext (and the Chrome hello) only applies to direct
			// connections. Proxied pre-flights carry the stock Go
			// fingerprint; if it gets blocked, the browser path still runs.
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.tiktok.com/")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, models.NewScrapeError(models.ErrCodeProfileNotFound,
			"profile not found: the upstream returned 404", nil)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("httpfetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024)) // 10 MB cap
	if err != nil {
		return nil, fmt.Errorf("httpfetch: read body: %w", err)
	}
	return body, nil
}

// dialTLSChrome establishes a TLS connection presenting a Chrome hello.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
