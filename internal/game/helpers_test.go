package game

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestHost returns a host named Alice on a mock clock with a fixed 1.5s bot
// delay so timer tests are deterministic.
func newTestHost(t *testing.T, mutateSettings ...func(*Settings)) (*Host, *quartz.Mock) {
	t.Helper()
	clk := quartz.NewMock(t)
	settings := DefaultSettings()
	settings.BotDelayMinMs = 1500
	settings.BotDelayMaxMs = 1500
	for _, fn := range mutateSettings {
		fn(&settings)
	}
	h := NewHost(Config{
		RoomID:   "abc123",
		HostName: "Alice",
		Settings: &settings,
		Clock:    clk,
		Seed:     42,
		Logger:   quietLogger(),
	})
	t.Cleanup(h.Close)
	return h, clk
}

func snapshot(t *testing.T, h *Host) models.SessionState {
	t.Helper()
	s, err := h.Snapshot(testCtx(t))
	require.NoError(t, err)
	return s
}

// mutate edits the live state on the session goroutine to stage a scenario.
func mutate(t *testing.T, h *Host, fn func(s *models.SessionState)) {
	t.Helper()
	require.NoError(t, h.query(testCtx(t), func() { fn(h.state) }))
}

func join(t *testing.T, h *Host, name string) string {
	t.Helper()
	res, err := h.Join(testCtx(t), JoinParams{Name: name})
	require.NoError(t, err)
	return res.PlayerID
}

// startWith seats n-1 guests next to the host and starts the game. The
// returned ids are in seat order, host first.
func startWith(t *testing.T, h *Host, n int) []string {
	t.Helper()
	ids := []string{h.HostPlayerID()}
	for i := 1; i < n; i++ {
		ids = append(ids, join(t, h, fmt.Sprintf("Guest%d", i)))
	}
	require.NoError(t, h.StartGame(testCtx(t)))
	return ids
}

// advance moves the mock clock forward by d one timer at a time, letting the
// session goroutine catch up between steps.
func advance(t *testing.T, h *Host, clk *quartz.Mock, d time.Duration) {
	t.Helper()
	ctx := testCtx(t)
	for d > 0 {
		snapshot(t, h)
		step := d
		if next, ok := clk.Peek(); ok && next > 0 && next < step {
			step = next
		}
		clk.Advance(step).MustWait(ctx)
		d -= step
	}
	snapshot(t, h)
}

func card(id string, color models.Color, kind models.Kind, value int) models.Card {
	return models.Card{ID: id, Color: color, Kind: kind, Value: value}
}

func num(id string, color models.Color, value int) models.Card {
	return card(id, color, models.KindNumber, value)
}

// stage replaces hands, sets the discard top and hands the turn to seat.
func stage(t *testing.T, h *Host, seat int, top models.Card, hands ...[]models.Card) {
	t.Helper()
	mutate(t, h, func(s *models.SessionState) {
		for i, hand := range hands {
			s.Players[i].Hand = hand
			s.Players[i].HasCalledUno = false
		}
		s.DiscardPile = []models.Card{top}
		s.CurrentColor = top.Color
		s.CurrentPlayerIndex = seat
		s.Direction = 1
	})
}
