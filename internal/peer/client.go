// Package peer is the remote side of a session: it forwards intents to the
// host and mirrors every state the host broadcasts.
package peer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/jason-s-yu/unoparty/internal/game"
	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/jason-s-yu/unoparty/internal/protocol"
	"github.com/jason-s-yu/unoparty/internal/transport"
	"github.com/sirupsen/logrus"
)

// DefaultJoinTimeout bounds how long Join waits for the host to answer.
const DefaultJoinTimeout = 10 * time.Second

var (
	// ErrTimeout means the host never answered the join request.
	ErrTimeout = errors.New(protocol.ReasonTimeout)
	// ErrRoomNotFound means the host could not be reached or went away.
	ErrRoomNotFound = errors.New(protocol.ReasonRoomNotFound)
	// ErrNotJoined is returned by intents sent before a successful Join.
	ErrNotJoined = errors.New("not joined")
)

// JoinError is a join the host refused, such as ROOM_FULL.
type JoinError struct {
	Reason string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join rejected: %s", e.Reason)
}

// Config tunes a Client. Zero values pick defaults.
type Config struct {
	Clock       quartz.Clock
	JoinTimeout time.Duration
	Logger      *logrus.Entry
}

type joinOutcome struct {
	playerID string
	state    *models.SessionState
	err      error
}

// Client is a game.Controller that talks to a remote host.
type Client struct {
	conn        transport.Conn
	clock       quartz.Clock
	log         *logrus.Entry
	joinTimeout time.Duration
	observers   *game.Observers
	done        chan struct{}

	mu      sync.Mutex
	ref     SessionRef
	pending map[string]chan joinOutcome
	latest  *models.SessionState
	closed  bool
}

var _ game.Controller = (*Client)(nil)

// New starts a client on an open connection.
func New(conn transport.Conn, cfg Config) *Client {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultJoinTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Client{
		conn:        conn,
		clock:       cfg.Clock,
		log:         cfg.Logger,
		joinTimeout: cfg.JoinTimeout,
		observers:   game.NewObservers(),
		done:        make(chan struct{}),
		pending:     make(map[string]chan joinOutcome),
	}
	conn.OnMessage(c.handle)
	conn.OnError(func(err error) { c.log.WithError(err).Debug("connection error") })
	conn.OnClose(c.closedBy)
	conn.Start()
	return c
}

// Connect dials the host at baseURL (for example ws://10.0.0.5:8080) and opens
// the room. Any dial failure is reported as ErrRoomNotFound.
func Connect(ctx context.Context, baseURL, roomID string, cfg Config) (*Client, error) {
	code, ok := game.NormalizeRoomCode(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: invalid room code %q", ErrRoomNotFound, roomID)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	cfg.Logger = cfg.Logger.WithField("room", code)
	url := strings.TrimRight(baseURL, "/") + "/room/ws/" + code
	conn, err := transport.Dial(ctx, url, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoomNotFound, err)
	}
	c := New(conn, cfg)
	c.mu.Lock()
	c.ref.RoomID = code
	c.mu.Unlock()
	return c, nil
}

// Join asks the host for a seat. existingID re-attaches a previous identity.
func (c *Client) Join(ctx context.Context, name, avatar, existingID string) (SessionRef, error) {
	reqID := uuid.NewString()
	ch := make(chan joinOutcome, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SessionRef{}, ErrRoomNotFound
	}
	c.pending[reqID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
	}()

	timer := c.clock.NewTimer(c.joinTimeout, "join")
	defer timer.Stop()

	err := c.conn.Send(protocol.MustNew(protocol.TypeJoinRequest, protocol.JoinRequest{
		Name:       name,
		Avatar:     avatar,
		RequestID:  reqID,
		ExistingID: existingID,
	}))
	if err != nil {
		return SessionRef{}, fmt.Errorf("%w: %v", ErrRoomNotFound, err)
	}

	select {
	case out := <-ch:
		if out.err != nil {
			return SessionRef{}, out.err
		}
		c.mu.Lock()
		c.ref.PlayerID = out.playerID
		c.ref.Name = name
		c.ref.Avatar = avatar
		if out.state != nil {
			c.ref.RoomID = out.state.RoomID
		}
		ref := c.ref
		c.mu.Unlock()
		return ref, nil
	case <-timer.C:
		return SessionRef{}, ErrTimeout
	case <-ctx.Done():
		return SessionRef{}, ctx.Err()
	}
}

func (c *Client) handle(env protocol.Envelope) {
	msg, err := env.Decode()
	if err != nil {
		c.log.WithError(err).Warn("ignoring undecodable message")
		return
	}
	switch m := msg.(type) {
	case protocol.JoinResponse:
		c.mu.Lock()
		ch, ok := c.pending[m.RequestID]
		c.mu.Unlock()
		if !ok {
			return
		}
		out := joinOutcome{playerID: m.PlayerID, state: m.InitialState}
		if !m.Success {
			out = joinOutcome{err: joinFailure(m.Error)}
		} else if m.InitialState != nil {
			c.apply(*m.InitialState)
		}
		select {
		case ch <- out:
		default:
		}
	case protocol.StateUpdate:
		c.apply(m.State)
	default:
		c.log.WithField("type", env.Type).Debug("ignoring message not meant for peers")
	}
}

// apply replaces the local view and notifies subscribers.
func (c *Client) apply(state models.SessionState) {
	c.mu.Lock()
	c.latest = &state
	c.mu.Unlock()
	c.observers.Publish(&state)
}

func (c *Client) closedBy(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := make([]chan joinOutcome, 0, len(c.pending))
	for _, ch := range c.pending {
		pending = append(pending, ch)
	}
	c.mu.Unlock()

	for _, ch := range pending {
		select {
		case ch <- joinOutcome{err: ErrRoomNotFound}:
		default:
		}
	}
	if err != nil {
		c.log.WithError(err).Info("connection to host lost")
	}
	close(c.done)
}

func joinFailure(reason string) error {
	switch reason {
	case protocol.ReasonRoomNotFound:
		return ErrRoomNotFound
	case protocol.ReasonTimeout:
		return ErrTimeout
	}
	return &JoinError{Reason: reason}
}

// Ref is the identity granted by the last successful Join.
func (c *Client) Ref() SessionRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref
}

// State returns the most recent state received from the host.
func (c *Client) State() (models.SessionState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return models.SessionState{}, false
	}
	return c.latest.Clone(), true
}

// Done is closed when the connection to the host is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close drops the connection without telling the host; the host treats it as
// a disconnect.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Kind() game.Kind { return game.KindRemote }

// Host is always nil; the authority lives on another machine.
func (c *Client) Host() *game.Host { return nil }

func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref.PlayerID
}

func (c *Client) Subscribe(fn game.Observer) *game.Subscription {
	return c.observers.Subscribe(fn)
}

func (c *Client) PlayCard(ctx context.Context, cardID string, wild models.Color) error {
	return c.sendAction(ctx, models.GameAction{Action: models.ActionPlayCard, CardID: cardID, WildColor: wild})
}

func (c *Client) DrawCard(ctx context.Context) error {
	return c.sendAction(ctx, models.GameAction{Action: models.ActionDrawCard})
}

func (c *Client) CallUno(ctx context.Context) error {
	return c.sendAction(ctx, models.GameAction{Action: models.ActionCallUno})
}

func (c *Client) React(ctx context.Context, emoji string) error {
	return c.sendAction(ctx, models.GameAction{Action: models.ActionReaction, Emoji: emoji})
}

func (c *Client) Chat(ctx context.Context, text string) error {
	return c.sendAction(ctx, models.GameAction{Action: models.ActionChat, Text: text})
}

// Leave tells the host this player is gone and closes the connection.
func (c *Client) Leave(ctx context.Context) error {
	pid := c.PlayerID()
	if pid != "" {
		if err := c.conn.Send(protocol.MustNew(protocol.TypeLeaveRequest, protocol.LeaveRequest{PlayerID: pid})); err != nil {
			c.log.WithError(err).Debug("leave request not sent")
		}
	}
	return c.conn.Close()
}

// sendAction forwards an intent. The host is the arbiter; a rejected action
// simply produces no state change.
func (c *Client) sendAction(ctx context.Context, a models.GameAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pid := c.PlayerID()
	if pid == "" {
		return ErrNotJoined
	}
	a.PlayerID = pid
	if err := c.conn.Send(protocol.MustNew(protocol.TypeAction, a)); err != nil {
		return fmt.Errorf("send %s: %w", a.Action, err)
	}
	return nil
}
