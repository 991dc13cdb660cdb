package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tikscope/tikscope/models"
)

// netErrPattern pulls the Chromium transport error code out of a navigation
// failure, e.g. "net::ERR_CONNECTION_REFUSED" → "CONNECTION_REFUSED".
var netErrPattern = regexp.MustCompile(`net::ERR_(\w+)`)

// classifyNavigation turns a raw navigation failure into a typed error with
// an actionable message. Classification happens here, once, close to the
// source; the API boundary only maps codes to statuses.
func classifyNavigation(err error, proxyAddr string) *models.ScrapeError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		msg := "navigation timeout: the profile page took too long to respond"
		if proxyAddr != "" {
			msg += " (proxy may be slow)"
		} else {
			msg += " (consider configuring a proxy)"
		}
		return models.NewScrapeError(models.ErrCodeNavigationTimeout, msg, err)
	}

	match := netErrPattern.FindStringSubmatch(err.Error())
	if match == nil {
		return models.NewScrapeError(models.ErrCodeNetwork, "navigation failed", err)
	}

	code := match[1]
	switch code {
	case "PROXY_CONNECTION_FAILED", "TUNNEL_CONNECTION_FAILED":
		return models.NewScrapeError(models.ErrCodeProxyConnection,
			fmt.Sprintf("proxy connection failed: %s; try a different proxy or disable the pool", proxyAddr), err)
	case "TIMED_OUT", "CONNECTION_TIMED_OUT":
		msg := "connection timed out; the upstream may be blocking requests"
		if proxyAddr != "" {
			msg += "; try a different proxy"
		} else {
			msg += "; consider using a proxy"
		}
		return models.NewScrapeError(models.ErrCodeConnectionTimeout, msg, err)
	case "CONNECTION_REFUSED":
		msg := "connection refused"
		if proxyAddr != "" {
			msg += "; proxy may be down or blocked"
		} else {
			msg += "; check connectivity"
		}
		return models.NewScrapeError(models.ErrCodeConnectionRefused, msg, err)
	default:
		msg := fmt.Sprintf("network error (ERR_%s): unable to reach the profile page", code)
		if proxyAddr != "" {
			msg += fmt.Sprintf("; proxy %s may be blocked or invalid", proxyAddr)
		}
		return models.NewScrapeError(models.ErrCodeNetwork, msg, err)
	}
}

// Markers the web client renders for terminal page states. These live in
// the page body, not in a status code: the upstream serves HTTP 200 for
// all of them.
var (
	notFoundMarkers = []string{
		"couldn't find this account",
		"page not available",
	}
	privateMarkers = []string{
		"this account is private",
		`"privateaccount":true`,
	}
	botMarkers = []string{
		"verify to continue",
		"captcha-verify",
		"security check",
		"tiktok-verify-page",
	}
)

// checkPageSignals inspects the loaded page for terminal or bot-detection
// states before extraction begins. Not-found and private are terminal: no
// retry can change them. Bot detection is retryable; a different proxy may
// pass the next attempt.
func checkPageSignals(username, title, html string) *models.ScrapeError {
	lowTitle := strings.ToLower(title)
	lowHTML := strings.ToLower(html)

	if strings.Contains(lowTitle, "404") || strings.Contains(lowTitle, "not found") {
		return models.NewScrapeError(models.ErrCodeProfileNotFound,
			fmt.Sprintf("profile not found: @%s does not exist", username), nil)
	}
	for _, m := range notFoundMarkers {
		if strings.Contains(lowHTML, m) {
			return models.NewScrapeError(models.ErrCodeProfileNotFound,
				fmt.Sprintf("profile not found: @%s does not exist", username), nil)
		}
	}

	for _, m := range privateMarkers {
		if strings.Contains(lowHTML, m) {
			return models.NewScrapeError(models.ErrCodeProfilePrivate,
				fmt.Sprintf("profile @%s is private", username), nil)
		}
	}

	for _, m := range botMarkers {
		if strings.Contains(lowHTML, m) {
			return models.NewScrapeError(models.ErrCodeBotDetected,
				"bot detection suspected: the page served a verification challenge", nil)
		}
	}

	return nil
}
