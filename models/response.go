package models

// IngestResponse reports the outcome of an ingest run. Summary is a
// human-readable count-based message; ingest failures are reported here
// rather than as transport errors.
type IngestResponse struct {
	Summary string `json:"summary"`
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Entries int    `json:"indexed_entries"`
}

// ErrorResponse is the uniform error payload for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
