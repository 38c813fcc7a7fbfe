package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Engine   string `json:"engine"`
	Model    string `json:"model"`
	State    string `json:"state"`
	LoadedAt string `json:"loaded_at"`
}
