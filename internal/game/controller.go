package game

import (
	"context"

	"github.com/jason-s-yu/unoparty/internal/models"
)

// Kind tells a front end whether it drives the authority or a remote view.
type Kind int

const (
	KindHost Kind = iota
	KindRemote
)

func (k Kind) String() string {
	if k == KindHost {
		return "host"
	}
	return "remote"
}

// Controller is the set of intents a participant can issue, whether it sits at
// the host or connects from elsewhere. Host is nil unless Kind is KindHost.
type Controller interface {
	Kind() Kind
	Host() *Host
	PlayerID() string
	PlayCard(ctx context.Context, cardID string, wild models.Color) error
	DrawCard(ctx context.Context) error
	CallUno(ctx context.Context) error
	React(ctx context.Context, emoji string) error
	Chat(ctx context.Context, text string) error
	Leave(ctx context.Context) error
	Subscribe(fn Observer) *Subscription
}

// LocalSeat is a Controller bound to a player seated at this Host.
type LocalSeat struct {
	host     *Host
	playerID string
}

var _ Controller = (*LocalSeat)(nil)

// Seat returns a Controller acting as playerID.
func (h *Host) Seat(playerID string) *LocalSeat {
	return &LocalSeat{host: h, playerID: playerID}
}

// HostSeat returns the Controller of the host participant.
func (h *Host) HostSeat() *LocalSeat {
	return h.Seat(h.hostPlayerID)
}

func (s *LocalSeat) Kind() Kind       { return KindHost }
func (s *LocalSeat) PlayerID() string { return s.playerID }

// Host exposes the session for host-only commands.
func (s *LocalSeat) Host() *Host { return s.host }

func (s *LocalSeat) PlayCard(ctx context.Context, cardID string, wild models.Color) error {
	return s.host.PlayCard(ctx, s.playerID, cardID, wild)
}

func (s *LocalSeat) DrawCard(ctx context.Context) error {
	return s.host.DrawCard(ctx, s.playerID)
}

func (s *LocalSeat) CallUno(ctx context.Context) error {
	return s.host.CallUno(ctx, s.playerID)
}

func (s *LocalSeat) React(ctx context.Context, emoji string) error {
	return s.host.React(ctx, s.playerID, emoji)
}

func (s *LocalSeat) Chat(ctx context.Context, text string) error {
	return s.host.Chat(ctx, s.playerID, text)
}

// Leave removes the player. When the host participant leaves, the session
// ends for everybody.
func (s *LocalSeat) Leave(ctx context.Context) error {
	if s.playerID == s.host.hostPlayerID {
		s.host.Close()
		return nil
	}
	return s.host.Leave(ctx, s.playerID)
}

func (s *LocalSeat) Subscribe(fn Observer) *Subscription {
	return s.host.Subscribe(fn)
}
