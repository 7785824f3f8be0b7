// Package protocol defines the JSON messages exchanged between a host and its
// peers. Every frame is an Envelope whose payload shape depends on its type.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jason-s-yu/unoparty/internal/models"
)

type MessageType string

const (
	TypeJoinRequest  MessageType = "JOIN_REQUEST"
	TypeJoinResponse MessageType = "JOIN_RESPONSE"
	TypeAction       MessageType = "ACTION"
	TypeLeaveRequest MessageType = "LEAVE_REQUEST"
	TypeStateUpdate  MessageType = "STATE_UPDATE"
)

// Join failure reasons carried in JoinResponse.Error.
const (
	ReasonRoomFull     = "ROOM_FULL"
	ReasonRoomNotFound = "ROOM_NOT_FOUND"
	ReasonTimeout      = "CONNECTION_TIMEOUT"
	ReasonRejected     = "JOIN_REJECTED"
)

// ErrUnknownType is returned by Decode for a type this package does not know.
var ErrUnknownType = errors.New("unknown message type")

// Envelope is the outer frame of every message.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinRequest struct {
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	RequestID  string `json:"requestId"`
	ExistingID string `json:"existingId,omitempty"`
}

type JoinResponse struct {
	RequestID    string               `json:"requestId"`
	Success      bool                 `json:"success"`
	PlayerID     string               `json:"playerId,omitempty"`
	InitialState *models.SessionState `json:"initialState,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// Action carries one in-round intent; see models.GameAction.
type Action = models.GameAction

type LeaveRequest struct {
	PlayerID string `json:"playerId"`
}

type StateUpdate struct {
	State models.SessionState `json:"state"`
}

// New wraps payload in an Envelope of type t.
func New(t MessageType, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{Type: t, Payload: raw}, nil
}

// MustNew is New for payloads that always marshal, such as the types above.
func MustNew(t MessageType, payload interface{}) Envelope {
	env, err := New(t, payload)
	if err != nil {
		panic(err)
	}
	return env
}

// Decode unmarshals the payload into the struct matching Type and returns it
// as a value (JoinRequest, JoinResponse, Action, LeaveRequest or StateUpdate).
func (e Envelope) Decode() (interface{}, error) {
	var err error
	switch e.Type {
	case TypeJoinRequest:
		var m JoinRequest
		err = e.into(&m)
		return m, err
	case TypeJoinResponse:
		var m JoinResponse
		err = e.into(&m)
		return m, err
	case TypeAction:
		var m Action
		err = e.into(&m)
		return m, err
	case TypeLeaveRequest:
		var m LeaveRequest
		err = e.into(&m)
		return m, err
	case TypeStateUpdate:
		var m StateUpdate
		err = e.into(&m)
		return m, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
}

func (e Envelope) into(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Marshal encodes env as a single JSON frame.
func Marshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Unmarshal parses one JSON frame.
func Unmarshal(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("invalid envelope: missing type")
	}
	return env, nil
}
