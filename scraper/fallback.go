package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/tikscope/tikscope/models"
)

// Markup-heuristic fallback for pages where no structured state could be
// recovered. Numbers come from visible text like "128.5K Followers"; the
// result is marked by its zeroed fields rather than a flag, callers treat
// it like any other snapshot.

var (
	followersTextPattern = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?[KMB]?)\s*followers?`)
	likesTextPattern     = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?[KMB]?)\s*likes?`)
)

// fallbackHashtagCap is tighter than the structured cap: hashtags scraped
// out of raw markup include navigation chrome and suggested content, so a
// long tail is mostly noise.
const fallbackHashtagCap = 20

func (n *Normalizer) fallbackSnapshot(username, markup string) *models.AccountSnapshot {
	snap := &models.AccountSnapshot{
		Username:    username,
		Hashtags:    []string{},
		AudioTracks: []string{},
		ScrapedAt:   time.Now().UTC(),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return snap
	}

	for _, sel := range []string{
		`[data-e2e="user-title"]`,
		`[data-e2e="user-name"]`,
		"h1",
		`[class*="username"]`,
	} {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			snap.DisplayName = text
			break
		}
	}
	if bio := strings.TrimSpace(doc.Find(`[data-e2e="user-bio"]`).First().Text()); bio != "" {
		snap.Bio = bio
	}

	text := visibleText(markup)
	if m := followersTextPattern.FindStringSubmatch(text); m != nil {
		snap.Followers = ParseCompactCount(m[1])
	}
	if m := likesTextPattern.FindStringSubmatch(text); m != nil {
		snap.Likes = ParseCompactCount(m[1])
	}

	snap.VideoCount = doc.Find(`[data-e2e="user-post-item"], [class*="video"]`).Length()

	var tags []string
	for _, raw := range hashtagPattern.FindAllString(text, -1) {
		tags = append(tags, strings.TrimPrefix(raw, "#"))
	}
	snap.Hashtags = dedupCap(tags, fallbackHashtagCap)

	return snap
}

// visibleText strips tags, scripts and styles from markup and returns the
// human-visible text with collapsed whitespace.
func visibleText(markup string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}
