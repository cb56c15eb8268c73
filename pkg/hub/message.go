// Package hub streams encoded session states to websocket subscribers
// with a channel-based fan-out: one goroutine owns the client set and
// every client has its own buffered writer.
package hub

import (
	"encoding/json"
	"fmt"
)

// Kind tags a streamed message.
type Kind string

const (
	// KindState carries a composed session state.
	KindState Kind = "state"
	// KindClosed tells subscribers the stream is ending.
	KindClosed Kind = "closed"
)

// Envelope is the JSON frame written to subscribers.
type Envelope struct {
	Kind   Kind            `json:"type"`
	Stream string          `json:"stream"`
	Seq    uint64          `json:"seq"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Message is an encoded envelope ready to be written.
type Message struct {
	Kind Kind
	Seq  uint64
	Data []byte
}

// Encode wraps v in an envelope for stream.
func Encode(kind Kind, stream string, seq uint64, v any) (Message, error) {
	var raw json.RawMessage
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return Message{}, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		raw = b
	}
	data, err := json.Marshal(Envelope{Kind: kind, Stream: stream, Seq: seq, Data: raw})
	if err != nil {
		return Message{}, fmt.Errorf("encode %s envelope: %w", kind, err)
	}
	return Message{Kind: kind, Seq: seq, Data: data}, nil
}

// Decode parses an envelope. Subscribers such as the watch command use it.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
