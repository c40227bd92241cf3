package store

import "time"

// Status is the lifecycle state of the current session.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusUploading Status = "UPLOADING"
	StatusReady     Status = "READY"
	StatusError     Status = "ERROR"
)

// Flow names the consumer a session was created for. Chat and presentation
// never share a session.
type Flow string

const (
	FlowChat         Flow = "chat"
	FlowPresentation Flow = "presentation"
)

// Session is a read-only snapshot of the current session.
type Session struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Flow   Flow   `json:"flow"`
	// Error holds the failure message while Status is StatusError.
	Error     string    `json:"error,omitempty"`
	Epoch     uint64    `json:"epoch"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ticket pins an in-flight operation to the session it started against.
type Ticket struct {
	SessionID string
	Flow      Flow
	Epoch     uint64
}
