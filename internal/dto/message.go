package dto

import "encoding/json"

// Event types carried in Message.Type.
const (
	EventRawFrame       = "raw_frame"
	EventMissed         = "missed"
	EventNotVerified    = "not_verified"
	EventNotVerifiedAlt = "not verified"

	EventSuccess        = "success"
	EventAnnotatedFrame = "annotated_frame"
	EventVerified       = "verified"
	EventError          = "error"
)

// Message is the envelope for every websocket frame in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals payload into an envelope of the given type.
func NewMessage(eventType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: eventType, Data: data})
}
