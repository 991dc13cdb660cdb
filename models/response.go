package models

// ScrapeResponse is the envelope for POST /api/v1/scrape.
type ScrapeResponse struct {
	Success  bool             `json:"success"`
	Snapshot *AccountSnapshot `json:"snapshot,omitempty"`
	Error    *ErrorDetail     `json:"error,omitempty"`

	// CacheStatus is "hit", "miss" or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo `json:"timing"`
}

// TimingInfo reports wall-clock durations for the main phases.
type TimingInfo struct {
	TotalMs  int64 `json:"total_ms"`
	ScrapeMs int64 `json:"scrape_ms,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/scrape.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Results   []*ScrapeResponse `json:"results,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	ActiveScrapes int    `json:"active_scrapes"`
	ProxyPoolSize int    `json:"proxy_pool_size"`
	Version       string `json:"version"`
}
