package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	maxLogEntries   = 50
	maxChatMessages = 50
	maxChatRunes    = 100
	maxNameRunes    = 20
	maxEmojiRunes   = 8
)

// ActionLogger receives every accepted move. Implementations must be safe for
// concurrent use; records are delivered from short-lived goroutines.
type ActionLogger interface {
	PublishAction(ctx context.Context, rec models.ActionRecord) error
}

// Config configures a new Host.
type Config struct {
	RoomID     string // generated when empty
	HostName   string
	HostAvatar string
	Settings   *Settings // DefaultSettings when nil
	Clock      quartz.Clock
	Seed       uint64 // random when zero
	Logger     *logrus.Logger
	ActionLog  ActionLogger
}

// Host is the single authority over one session. All state lives on one
// goroutine; every public method is an event submitted to it.
type Host struct {
	roomID       string
	hostPlayerID string

	clock     quartz.Clock
	rng       *rand.Rand
	log       *logrus.Entry
	actionLog ActionLogger
	observers *Observers

	events    chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine.
	state       *models.SessionState
	settings    Settings
	turnSeq     int
	turnTimer   *quartz.Timer
	botTimer    *quartz.Timer
	botSeq      int
	actionIndex int
}

// NewHost creates the session with the host seated as its first player and
// starts its event loop. Call Close to stop it.
func NewHost(cfg Config) *Host {
	settings := DefaultSettings()
	if cfg.Settings != nil {
		settings = *cfg.Settings
	}
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	roomID, ok := NormalizeRoomCode(cfg.RoomID)
	if !ok {
		roomID = NewRoomCode(rng)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	hostPlayer := &models.Player{
		ID:        uuid.NewString(),
		Name:      cleanName(cfg.HostName, "Host"),
		Avatar:    cfg.HostAvatar,
		IsHost:    true,
		Connected: true,
	}

	h := &Host{
		roomID:       roomID,
		hostPlayerID: hostPlayer.ID,
		clock:        clock,
		rng:          rng,
		log:          logger.WithField("room", roomID),
		actionLog:    cfg.ActionLog,
		observers:    NewObservers(),
		events:       make(chan func(), 64),
		done:         make(chan struct{}),
		settings:     settings,
		state: &models.SessionState{
			RoomID:             roomID,
			Players:            []*models.Player{hostPlayer},
			CurrentPlayerIndex: 0,
			Direction:          1,
			Status:             models.StatusLobby,
			Mode:               settings.Mode,
			Log:                []string{},
			ChatMessages:       []models.ChatMessage{},
		},
	}
	h.note("%s opened room %s", hostPlayer.Name, roomID)

	go h.run()
	return h
}

// RoomID is the 6-character code peers use to reach this session.
func (h *Host) RoomID() string { return h.roomID }

// HostPlayerID is the roster id of the local host participant.
func (h *Host) HostPlayerID() string { return h.hostPlayerID }

// Done is closed once the session has shut down.
func (h *Host) Done() <-chan struct{} { return h.done }

// Subscribe registers fn to receive every published state.
func (h *Host) Subscribe(fn Observer) *Subscription {
	return h.observers.Subscribe(fn)
}

// Snapshot returns a copy of the current state.
func (h *Host) Snapshot(ctx context.Context) (models.SessionState, error) {
	var out models.SessionState
	err := h.query(ctx, func() { out = h.state.Clone() })
	return out, err
}

// Settings returns the current settings.
func (h *Host) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	err := h.query(ctx, func() { out = h.settings })
	return out, err
}

// Resync calls fn on the session goroutine with a copy of the current state.
// Anything fn sends is therefore ordered with respect to later broadcasts.
func (h *Host) Resync(ctx context.Context, fn Observer) error {
	return h.query(ctx, func() { fn(h.state.Clone()) })
}

// Close stops all timers and the event loop. Pending and later calls return
// ErrSessionClosed. Must not be called from an Observer.
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		stopped := make(chan struct{})
		h.events <- func() {
			h.stopTimers()
			h.log.Info("session closed")
			close(stopped)
		}
		<-stopped
		close(h.done)
	})
}

func (h *Host) run() {
	for {
		select {
		case <-h.done:
			return
		case fn := <-h.events:
			fn()
		}
	}
}

// submit runs fn on the session goroutine. A nil error means state changed:
// observers are notified and a bot turn is scheduled if one is due.
func (h *Host) submit(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	ev := func() {
		err := fn()
		if err == nil {
			h.changed()
		}
		reply <- err
	}
	return h.dispatch(ctx, ev, reply)
}

// query runs a read-only fn on the session goroutine.
func (h *Host) query(ctx context.Context, fn func()) error {
	reply := make(chan error, 1)
	return h.dispatch(ctx, func() { fn(); reply <- nil }, reply)
}

func (h *Host) dispatch(ctx context.Context, ev func(), reply chan error) error {
	select {
	case <-h.done:
		return ErrSessionClosed
	default:
	}
	select {
	case h.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrSessionClosed
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrSessionClosed
	}
}

// post enqueues fn from a timer callback. Dropped once the session is closed.
func (h *Host) post(fn func()) {
	select {
	case h.events <- fn:
	case <-h.done:
	}
}

// changed broadcasts the state and arms the bot timer when a bot holds the turn.
func (h *Host) changed() {
	h.observers.Publish(h.state)
	h.scheduleBot()
}

// note appends an informational line to the session log.
func (h *Host) note(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	h.log.Info(line)
	h.state.Log = append(h.state.Log, line)
	if n := len(h.state.Log); n > maxLogEntries {
		h.state.Log = append([]string(nil), h.state.Log[n-maxLogEntries:]...)
	}
}

func (h *Host) recordAction(actorID string, actionType models.ActionType, payload map[string]interface{}) {
	if h.actionLog == nil {
		return
	}
	h.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := models.ActionRecord{
		RoomID:        h.roomID,
		Round:         h.state.Round,
		ActionIndex:   h.actionIndex,
		ActorPlayerID: actorID,
		ActionType:    string(actionType),
		ActionPayload: payload,
		Timestamp:     h.clock.Now().UnixMilli(),
	}
	go func(rec models.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.actionLog.PublishAction(ctx, rec); err != nil {
			h.log.WithError(err).WithField("actionIndex", rec.ActionIndex).Warn("failed to publish action")
		}
	}(rec)
}

func cleanName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	return truncateRunes(name, maxNameRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
