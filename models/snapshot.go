package models

import "time"

// AccountSnapshot is the normalized result of one scrape of one profile.
// It is created fresh per scrape call and never mutated afterward by the
// engine; the caller owns persistence and identity fields.
//
// All numeric fields are non-negative. A fully zeroed snapshot is a valid
// outcome; the engine prefers "return something" over failing the request
// once navigation has succeeded.
type AccountSnapshot struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`

	Followers  int `json:"followers"`
	Following  int `json:"following"`
	Likes      int `json:"likes"`
	Views      int `json:"views"`
	Comments   int `json:"comments"`
	Shares     int `json:"shares"`
	VideoCount int `json:"video_count"`

	// Hashtags and AudioTracks are deduplicated, insertion-ordered and
	// capped by the normalizer.
	Hashtags    []string `json:"hashtags"`
	AudioTracks []string `json:"audio_tracks"`

	Verified  bool   `json:"verified"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	ScrapedAt time.Time `json:"scraped_at"`
}
