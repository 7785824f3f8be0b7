package game

import "errors"

// Rejected actions. The host drops them without touching state; callers on the
// host side see the reason, remote peers never do.
var (
	ErrWrongPhase       = errors.New("action not allowed in current session status")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrInactivePlayer   = errors.New("player is eliminated or spectating")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrUnknownCard      = errors.New("card not in hand")
	ErrIllegalMove      = errors.New("card cannot be played on the current discard")
	ErrInvalidColor     = errors.New("wild card requires red, yellow, green or blue")
	ErrCannotCallUno    = errors.New("uno can only be called with two or fewer cards")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrNotEnoughPlayers = errors.New("at least two players are required")
	ErrInvalidMode      = errors.New("unknown game mode")
)

// Join failures.
var (
	ErrRoomFull = errors.New("room is full")
)

// ErrSessionClosed is returned by every operation once the host has shut down.
var ErrSessionClosed = errors.New("session closed")
