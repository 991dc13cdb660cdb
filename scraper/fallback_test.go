package scraper

import (
	"fmt"
	"strings"
	"testing"
)

const fallbackMarkup = `<html>
<head><title>Alice</title><style>.hidden{display:none}</style>
<script>trackPageView();</script></head>
<body>
<h2 data-e2e="user-title">Alice Smith</h2>
<div data-e2e="user-bio">dancing daily</div>
<div><strong>128.5K</strong> Followers</div>
<div><strong>2.1M</strong> Likes</div>
<div data-e2e="user-post-item"></div>
<div data-e2e="user-post-item"></div>
<div data-e2e="user-post-item"></div>
<p>clips tagged #dance and #fyp and #dance again</p>
</body></html>`

func TestFallbackSnapshot_VisibleTextCounts(t *testing.T) {
	snap := NewNormalizer(30, 30).Snapshot("alice", nil, fallbackMarkup)

	if snap.Followers != 128500 {
		t.Errorf("followers = %d, want 128500", snap.Followers)
	}
	if snap.Likes != 2_100_000 {
		t.Errorf("likes = %d, want 2100000", snap.Likes)
	}
	if snap.DisplayName != "Alice Smith" {
		t.Errorf("display name = %q, want Alice Smith", snap.DisplayName)
	}
	if snap.Bio != "dancing daily" {
		t.Errorf("bio = %q", snap.Bio)
	}
	if snap.VideoCount != 3 {
		t.Errorf("video count = %d, want 3", snap.VideoCount)
	}
}

func TestFallbackSnapshot_HashtagsDedupedAndCapped(t *testing.T) {
	snap := NewNormalizer(30, 30).Snapshot("alice", nil, fallbackMarkup)

	if len(snap.Hashtags) != 2 {
		t.Fatalf("hashtags = %v, want exactly [dance fyp]", snap.Hashtags)
	}
	if snap.Hashtags[0] != "dance" || snap.Hashtags[1] != "fyp" {
		t.Errorf("hashtags = %v, want first-seen order [dance fyp]", snap.Hashtags)
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "#tag%d ", i)
	}
	b.WriteString("</body></html>")
	snap = NewNormalizer(30, 30).Snapshot("alice", nil, b.String())
	if len(snap.Hashtags) != fallbackHashtagCap {
		t.Errorf("fallback hashtag cap not applied: got %d, want %d", len(snap.Hashtags), fallbackHashtagCap)
	}
}

func TestFallbackSnapshot_EmptyMarkup(t *testing.T) {
	snap := NewNormalizer(30, 30).Snapshot("alice", nil, "")

	if snap.Username != "alice" {
		t.Errorf("username = %q", snap.Username)
	}
	if snap.Followers != 0 || snap.Likes != 0 || snap.VideoCount != 0 {
		t.Errorf("empty markup must produce zeroed counts: %+v", snap)
	}
	if snap.Hashtags == nil || snap.AudioTracks == nil {
		t.Error("list fields must serialize as [] rather than null")
	}
}

func TestVisibleText_StripsScriptsAndStyles(t *testing.T) {
	got := visibleText(`<html><head><style>a{}</style></head><body><script>var x=1;</script><p>hello  world</p></body></html>`)
	if got != "hello world" {
		t.Errorf("visibleText = %q, want %q", got, "hello world")
	}
}
