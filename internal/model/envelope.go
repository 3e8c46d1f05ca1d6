package model

import "time"

type MessageType string

const (
	MessageTypeDeclare MessageType = "declare"
	MessageTypePoint   MessageType = "point"
)

// Envelope is transport-agnostic framing for stream payloads.
type Envelope struct {
	Type          MessageType `json:"type"`
	NodeID        string      `json:"node_id"`
	ClientVersion string      `json:"client_version,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       any         `json:"payload"`
}
