// Package relay connects remote peers to a game.Host: it turns inbound protocol
// messages into host calls and fans every published state out to the peers.
package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/unoparty/internal/game"
	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/jason-s-yu/unoparty/internal/protocol"
	"github.com/jason-s-yu/unoparty/internal/transport"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 5 * time.Second

// Relay serves one host to any number of peer connections.
type Relay struct {
	host *game.Host
	log  *logrus.Entry
	sub  *game.Subscription

	mu       sync.Mutex
	conns    map[transport.Conn]string // conn -> bound player id, "" before join
	byPlayer map[string]transport.Conn
	closed   bool
}

// New subscribes to host and returns a relay ready to Attach connections. The
// relay closes every connection once the host shuts down.
func New(host *game.Host, logger *logrus.Entry) *Relay {
	r := &Relay{
		host:     host,
		log:      logger.WithField("component", "relay"),
		conns:    make(map[transport.Conn]string),
		byPlayer: make(map[string]transport.Conn),
	}
	r.sub = host.Subscribe(r.broadcast)
	go func() {
		<-host.Done()
		r.Close()
	}()
	return r
}

// Attach starts serving c. The peer must send JOIN_REQUEST before anything else.
func (r *Relay) Attach(c transport.Conn) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = c.Close()
		return
	}
	r.conns[c] = ""
	r.mu.Unlock()

	c.OnMessage(func(env protocol.Envelope) { r.handle(c, env) })
	c.OnError(func(err error) { r.log.WithError(err).Debug("peer connection error") })
	c.OnClose(func(err error) { r.detach(c, err) })
	c.Start()
}

// Close stops broadcasting and closes every peer connection.
func (r *Relay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	conns := make([]transport.Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	r.sub.Unsubscribe()
	for _, c := range conns {
		_ = c.Close()
	}
}

// Peers is the number of connections bound to a player.
func (r *Relay) Peers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPlayer)
}

// broadcast runs on the host goroutine; Send never blocks.
func (r *Relay) broadcast(state models.SessionState) {
	env, err := protocol.New(protocol.TypeStateUpdate, protocol.StateUpdate{State: state})
	if err != nil {
		r.log.WithError(err).Error("failed to encode state update")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid, c := range r.byPlayer {
		if err := c.Send(env); err != nil {
			r.log.WithError(err).WithField("player", pid).Warn("dropping state update")
		}
	}
}

func (r *Relay) handle(c transport.Conn, env protocol.Envelope) {
	msg, err := env.Decode()
	if err != nil {
		r.log.WithError(err).Warn("ignoring undecodable message")
		return
	}
	switch m := msg.(type) {
	case protocol.JoinRequest:
		r.handleJoin(c, m)
	case protocol.Action:
		r.handleAction(c, m)
	case protocol.LeaveRequest:
		r.handleLeave(c, m)
	default:
		r.log.WithField("type", env.Type).Debug("ignoring message not meant for the host")
	}
}

func (r *Relay) handleJoin(c transport.Conn, req protocol.JoinRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if bound := r.playerFor(c); bound != "" && req.ExistingID == "" {
		req.ExistingID = bound
	}
	res, err := r.host.Join(ctx, game.JoinParams{Name: req.Name, Avatar: req.Avatar, ExistingID: req.ExistingID})
	if err != nil {
		r.log.WithError(err).WithField("name", req.Name).Info("join rejected")
		_ = c.Send(protocol.MustNew(protocol.TypeJoinResponse, protocol.JoinResponse{
			RequestID: req.RequestID,
			Error:     joinFailureReason(err),
		}))
		return
	}

	// Bind and answer on the host goroutine so the response precedes any later
	// state update for this peer.
	var superseded transport.Conn
	stillOpen := false
	err = r.host.Resync(ctx, func(state models.SessionState) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.conns[c]; !ok {
			return
		}
		stillOpen = true
		if old, ok := r.byPlayer[res.PlayerID]; ok && old != c {
			r.conns[old] = ""
			superseded = old
		}
		if prev := r.conns[c]; prev != "" && prev != res.PlayerID {
			delete(r.byPlayer, prev)
		}
		r.conns[c] = res.PlayerID
		r.byPlayer[res.PlayerID] = c
		_ = c.Send(protocol.MustNew(protocol.TypeJoinResponse, protocol.JoinResponse{
			RequestID:    req.RequestID,
			Success:      true,
			PlayerID:     res.PlayerID,
			InitialState: &state,
		}))
	})
	if err != nil {
		r.log.WithError(err).Warn("failed to answer join")
		return
	}
	if superseded != nil {
		_ = superseded.Close()
	}
	if !stillOpen {
		r.leave(res.PlayerID)
		return
	}
	r.log.WithFields(logrus.Fields{"player": res.PlayerID, "reconnected": res.Reconnected}).Info("peer joined")
}

func (r *Relay) handleAction(c transport.Conn, a protocol.Action) {
	pid := r.playerFor(c)
	if pid == "" || a.PlayerID != pid {
		r.log.WithFields(logrus.Fields{"bound": pid, "claimed": a.PlayerID}).Warn("dropping action for another player")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var err error
	switch a.Action {
	case models.ActionPlayCard:
		err = r.host.PlayCard(ctx, pid, a.CardID, a.WildColor)
	case models.ActionDrawCard:
		err = r.host.DrawCard(ctx, pid)
	case models.ActionCallUno:
		err = r.host.CallUno(ctx, pid)
	case models.ActionReaction:
		err = r.host.React(ctx, pid, a.Emoji)
	case models.ActionChat:
		err = r.host.Chat(ctx, pid, a.Text)
	default:
		r.log.WithField("action", a.Action).Warn("unknown action")
		return
	}
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{"player": pid, "action": a.Action}).Debug("action rejected")
	}
}

func (r *Relay) handleLeave(c transport.Conn, req protocol.LeaveRequest) {
	r.mu.Lock()
	pid := r.conns[c]
	if pid == "" || req.PlayerID != pid {
		r.mu.Unlock()
		return
	}
	r.conns[c] = ""
	delete(r.byPlayer, pid)
	r.mu.Unlock()

	r.leave(pid)
}

// detach forgets c. A bound player whose current connection drops leaves the
// game; a connection already replaced by a reconnect does not.
func (r *Relay) detach(c transport.Conn, err error) {
	r.mu.Lock()
	pid := r.conns[c]
	delete(r.conns, c)
	current := pid != "" && r.byPlayer[pid] == c
	if current {
		delete(r.byPlayer, pid)
	}
	r.mu.Unlock()

	if !current {
		return
	}
	r.log.WithError(err).WithField("player", pid).Info("peer disconnected")
	r.leave(pid)
}

func (r *Relay) leave(pid string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := r.host.Leave(ctx, pid); err != nil && !errors.Is(err, game.ErrSessionClosed) {
		r.log.WithError(err).WithField("player", pid).Warn("leave failed")
	}
}

func (r *Relay) playerFor(c transport.Conn) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[c]
}

func joinFailureReason(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomFull):
		return protocol.ReasonRoomFull
	case errors.Is(err, game.ErrSessionClosed):
		return protocol.ReasonRoomNotFound
	default:
		return protocol.ReasonRejected
	}
}
