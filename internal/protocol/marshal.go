package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope wraps every websocket frame. A reply carries the RequestID of the
// request it answers.
type Envelope struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope encodes data into an envelope of type t.
func NewEnvelope(t MessageType, requestID string, data any) (*Envelope, error) {
	env := &Envelope{Type: t, RequestID: requestID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		env.Data = raw
	}
	return env, nil
}

// DecodeData unmarshals the envelope payload into v. An empty payload leaves
// v at its zero value.
func (e *Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// NewRequest returns the zero request payload for t, or false when t is not a
// request type.
func NewRequest(t MessageType) (any, bool) {
	switch t {
	case TypeCreateRoom:
		return &CreateRoomRequest{}, true
	case TypeJoinRoom:
		return &JoinRoomRequest{}, true
	case TypeStartGame:
		return &StartGameRequest{}, true
	case TypeMakeGuess:
		return &MakeGuessRequest{}, true
	case TypeGameStatus:
		return &GameStatusRequest{}, true
	case TypeHand:
		return &HandRequest{}, true
	case TypeGameData:
		return &struct{}{}, true
	default:
		return nil, false
	}
}
