// Package protocol defines the JSON messages exchanged on a session's
// control websocket. Clients send commands; the server answers each with
// an ack, the resulting state, or an error carrying the same ID.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of control message
type MessageType string

const (
	// Client → server commands
	TypePlay      MessageType = "play"
	TypePause     MessageType = "pause"
	TypeToggle    MessageType = "toggle"
	TypeTempo     MessageType = "tempo"
	TypeSeek      MessageType = "seek"
	TypeLift      MessageType = "lift"
	TypeOffset    MessageType = "offset"
	TypePin       MessageType = "pin"
	TypeUnpin     MessageType = "unpin"
	TypeBar       MessageType = "bar"
	TypeParameter MessageType = "parameter"
	TypeReset     MessageType = "reset"
	TypeSnapshot  MessageType = "snapshot"

	// Server → client replies
	TypeAck   MessageType = "ack"
	TypeState MessageType = "state"
	TypeError MessageType = "error"

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the envelope for every control message.
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id,omitempty"` // echoed in the reply
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// WithID sets the correlation id and returns m.
func (m *Message) WithID(id string) *Message {
	m.ID = id
	return m
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("invalid %s data: %w", m.Type, err)
	}
	return nil
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Command payloads
// =============================================================================

// TempoCommand sets the playback speed multiplier.
type TempoCommand struct {
	Tempo float64 `json:"tempo"`
}

// SeekCommand jumps to a cycle position.
type SeekCommand struct {
	Progress float64 `json:"progress"`
}

// LiftCommand switches the active lift.
type LiftCommand struct {
	Lift string `json:"lift"`
}

// OffsetCommand sets a manual joint angle offset in degrees.
type OffsetCommand struct {
	Joint   string  `json:"joint"`
	Degrees float64 `json:"degrees"`
}

// PinCommand fixes a joint at a scene position. Unpin uses Joint only.
type PinCommand struct {
	Joint string  `json:"joint"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// BarCommand sets the manual bar offset.
type BarCommand struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParameterCommand sets a setup parameter of the active lift.
type ParameterCommand struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Reset scopes.
const (
	ResetAll        = "all"
	ResetManual     = "manual"
	ResetParameters = "parameters"
)

// ResetCommand restores defaults. An empty scope means ResetAll.
type ResetCommand struct {
	Scope string `json:"scope,omitempty"`
}

// =============================================================================
// Reply payloads
// =============================================================================

// AckData acknowledges a command. Value holds the applied value when the
// server clamped the request.
type AckData struct {
	Command MessageType `json:"command"`
	Value   any         `json:"value,omitempty"`
}

// ErrorData describes a rejected command.
type ErrorData struct {
	Command MessageType `json:"command,omitempty"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// Error codes.
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeUnsupported = "unsupported"
)

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
