package protocol

import "time"

// Constructors

// NewAckMessage acknowledges command.
func NewAckMessage(command MessageType, value any) (*Message, error) {
	return NewMessage(TypeAck, AckData{Command: command, Value: value})
}

// NewErrorMessage reports a rejected command.
func NewErrorMessage(command MessageType, code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Command: command, Code: code, Message: message})
}

// NewStateMessage wraps a session state.
func NewStateMessage(state any) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: time.Now().UnixMilli()})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// Accessors

// GetTempo extracts a tempo command.
func (m *Message) GetTempo() (*TempoCommand, error) { return parse[TempoCommand](m) }

// GetSeek extracts a seek command.
func (m *Message) GetSeek() (*SeekCommand, error) { return parse[SeekCommand](m) }

// GetLift extracts a lift command.
func (m *Message) GetLift() (*LiftCommand, error) { return parse[LiftCommand](m) }

// GetOffset extracts an offset command.
func (m *Message) GetOffset() (*OffsetCommand, error) { return parse[OffsetCommand](m) }

// GetPin extracts a pin or unpin command.
func (m *Message) GetPin() (*PinCommand, error) { return parse[PinCommand](m) }

// GetBar extracts a bar offset command.
func (m *Message) GetBar() (*BarCommand, error) { return parse[BarCommand](m) }

// GetParameter extracts a parameter command.
func (m *Message) GetParameter() (*ParameterCommand, error) { return parse[ParameterCommand](m) }

// GetReset extracts a reset command, defaulting the scope.
func (m *Message) GetReset() (*ResetCommand, error) {
	cmd, err := parse[ResetCommand](m)
	if err != nil {
		return nil, err
	}
	if cmd.Scope == "" {
		cmd.Scope = ResetAll
	}
	return cmd, nil
}

// GetError extracts an error reply.
func (m *Message) GetError() (*ErrorData, error) { return parse[ErrorData](m) }

// GetAck extracts an ack reply.
func (m *Message) GetAck() (*AckData, error) { return parse[AckData](m) }

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) { return parse[PingData](m) }

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) { return parse[PongData](m) }

func parse[T any](m *Message) (*T, error) {
	var data T
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
