package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// Username is the target profile handle, without the "@". Required.
	Username string `json:"username" binding:"required"`

	// MaxAge allows serving a cached snapshot no older than this many
	// seconds. 0 (default) always scrapes fresh.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0,max=86400"`

	// Timeout is the max duration in seconds for the whole scrape
	// (all attempts included). Default: 0 = server default.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`
}

// BatchRequest is the payload for POST /api/v1/batch/scrape.
type BatchRequest struct {
	// Usernames lists the target profiles. Required.
	Usernames []string `json:"usernames" binding:"required,min=1,max=50"`

	// WebhookURL, if set, receives a signed batch.completed event.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}
