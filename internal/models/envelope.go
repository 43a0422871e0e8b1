package models

// Envelope is the uniform response for every inbound message.
//
// It never carries a Go error; failures are flattened to a user-facing string.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK wraps data in a successful [Envelope].
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail wraps a message in a failed [Envelope].
func Fail(msg string) Envelope {
	return Envelope{Success: false, Error: msg}
}

// BatchFailure records a single item that failed during a best-effort batch.
type BatchFailure struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// BatchResult summarizes a best-effort batch: failures are recorded, not fatal.
type BatchResult struct {
	Attempted int            `json:"attempted"`
	Succeeded int            `json:"succeeded"`
	Failures  []BatchFailure `json:"failures,omitempty"`
	Files     []string       `json:"files,omitempty"`
}
