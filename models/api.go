package models

// CheckRequest is the payload for POST /api/v1/check.
type CheckRequest struct {
	LinkCheckOptions

	// WebhookURL, when set, receives the finished report as a signed
	// POST after the response is returned.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// CheckResponse is the response for POST /api/v1/check.
type CheckResponse struct {
	// Success indicates the run executed; a report full of failing
	// links is still a success at this level.
	Success bool `json:"success"`

	// Report is the full aggregate report when Success is true.
	Report *AggregateReport `json:"report,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	BrowserStats BrowserStats `json:"browser_stats"`
	Version      string       `json:"version"`
}

// BrowserStats reports the state of the browser page pool.
type BrowserStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
