package scraper

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tikscope/tikscope/models"
)

// hashtagPattern matches hashtags in caption text, including Hebrew-script
// tags which the word class alone misses.
var hashtagPattern = regexp.MustCompile(`#[\w\x{0590}-\x{05FF}]+`)

// compactCountPattern matches display counts like "12.3K", "4M", "1,234".
var compactCountPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMBkmb])?$`)

// ParseCompactCount converts a display-formatted count into an absolute
// integer. Unparsable input collapses to 0 rather than an error: a missing
// metric and an unreadable metric are the same thing downstream.
func ParseCompactCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	m := compactCountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(m[2]) {
	case "K":
		n *= 1_000
	case "M":
		n *= 1_000_000
	case "B":
		n *= 1_000_000_000
	}
	if n < 0 {
		return 0
	}
	return int(n)
}

// Normalizer turns raw page state (or raw markup, when no state could be
// recovered) into a clean snapshot.
type Normalizer struct {
	HashtagCap    int
	AudioTrackCap int
}

// NewNormalizer applies the configured list caps.
func NewNormalizer(hashtagCap, audioCap int) *Normalizer {
	return &Normalizer{HashtagCap: hashtagCap, AudioTrackCap: audioCap}
}

// Snapshot builds the account snapshot. A non-nil state takes the
// structured path; a nil state falls back to markup heuristics. Both paths
// always produce a snapshot.
func (n *Normalizer) Snapshot(username string, state *RawPageState, html string) *models.AccountSnapshot {
	if state == nil {
		slog.Warn("no structured state recovered, using markup fallback", "username", username)
		return n.fallbackSnapshot(username, html)
	}

	snap := &models.AccountSnapshot{
		Username:  username,
		ScrapedAt: time.Now().UTC(),
	}

	rec, matched := state.MatchUser(username)
	if matched {
		snap.Username = rec.UniqueID
		snap.DisplayName = rec.Nickname
		snap.Bio = rec.Bio
		snap.AvatarURL = rec.AvatarURL
		snap.Verified = rec.Verified
		snap.Followers = rec.Followers
		snap.Following = rec.Following
		snap.Likes = rec.Hearts
		snap.VideoCount = rec.Videos
	} else {
		// The state belongs to someone else (cached page, redirect).
		// Profile fields stay zeroed; content aggregates below are still
		// usable because items came from the same page.
		slog.Warn("recovered state does not contain the requested user",
			"username", username, "records", len(state.UserRecords()))
	}

	items := state.Items()
	var likesTotal, viewsTotal, commentsTotal, sharesTotal int
	var hashtags, audio []string
	for _, item := range items {
		likesTotal += item.Likes
		viewsTotal += item.Views
		commentsTotal += item.Comments
		sharesTotal += item.Shares

		hashtags = append(hashtags, item.HashtagNames...)
		for _, raw := range hashtagPattern.FindAllString(item.Caption, -1) {
			hashtags = append(hashtags, strings.TrimPrefix(raw, "#"))
		}
		// Mentions often carry hashtag-like content.
		for _, m := range item.Mentions {
			if strings.HasPrefix(m, "#") {
				hashtags = append(hashtags, strings.TrimPrefix(m, "#"))
			}
		}
		if item.MusicTitle != "" {
			track := item.MusicTitle
			if item.MusicAuthor != "" {
				track = fmt.Sprintf("%s - %s", item.MusicAuthor, item.MusicTitle)
			}
			audio = append(audio, track)
		}
	}

	snap.Views = viewsTotal
	snap.Comments = commentsTotal
	snap.Shares = sharesTotal
	// Profile-level heart counts are sometimes zeroed server-side while the
	// per-item counts survive; the sum is the better number then.
	if snap.Likes == 0 && likesTotal > 0 {
		snap.Likes = likesTotal
	}
	if snap.VideoCount == 0 && len(items) > 0 {
		snap.VideoCount = len(items)
	}

	snap.Hashtags = dedupCap(hashtags, n.HashtagCap)
	snap.AudioTracks = dedupCap(audio, n.AudioTrackCap)
	return snap
}

// dedupCap removes duplicates case-insensitively, keeps first-seen order
// and original casing, and truncates to limit entries. Always returns a
// non-nil slice so the field serializes as [] rather than null.
func dedupCap(values []string, limit int) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
