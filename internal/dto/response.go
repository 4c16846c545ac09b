package dto

// APIVersion is echoed in every response envelope.
const APIVersion = "1.0"

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	APIVer     string      `json:"api_ver"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
