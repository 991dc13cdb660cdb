package scraper

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockedPatterns lists URL patterns whose responses never matter for data
// extraction: static media and third-party analytics. Blocking them keeps
// page loads fast and cuts the surface observable by tracking scripts.
var blockedPatterns = []string{
	"*.css", "*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp",
	"*.mp4", "*.woff*", "*.svg", "*analytics*",
}

// setupResourceBlocking installs a hijack router on the page that fails
// requests for the blocked patterns. The router goroutine exits when the
// page closes.
func setupResourceBlocking(page *rod.Page) {
	router := page.HijackRequests()
	for _, pattern := range blockedPatterns {
		_ = router.Add(pattern, "", func(ctx *rod.Hijack) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
}
