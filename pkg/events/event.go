package events

import "time"

// Event defines the contract for all lifecycle events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_READY").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeSessionUploading = "SESSION_UPLOADING"
	TypeSessionReady     = "SESSION_READY"
	TypeSessionFailed    = "SESSION_FAILED"
	TypeSessionReset     = "SESSION_RESET"
	TypeUploadStage      = "UPLOAD_STAGE"
	TypeChatTurn         = "CHAT_TURN"
	TypeSelectionChanged = "SELECTION_CHANGED"
	TypeDeckGenerated    = "DECK_GENERATED"
)

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// String reads a string payload field, or "" when absent.
func (e BaseEvent) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// Int reads a numeric payload field. Values that crossed a JSON boundary
// arrive as float64.
func (e BaseEvent) Int(key string) int {
	switch v := e.Data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (e BaseEvent) Bool(key string) bool {
	b, _ := e.Data[key].(bool)
	return b
}
