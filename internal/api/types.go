package api

// Response is the envelope every endpoint returns. Mock is present on all
// success responses and reports whether the in-memory fallback served the
// request; Warning carries the degraded-mode advisory for end-user display.
// Details is only populated outside prod.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	Mock    *bool  `json:"mock,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// HealthDTO is returned by the health endpoints.
type HealthDTO struct {
	Status string `json:"status"`
}
