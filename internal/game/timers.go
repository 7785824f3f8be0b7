package game

import (
	"time"

	"github.com/jason-s-yu/unoparty/internal/models"
)

// restartTurnTimer resets the countdown for the turn identified by turnSeq.
func (h *Host) restartTurnTimer() {
	h.stopTurnTimer()
	h.state.TurnTimer = h.settings.TurnTimerSec
	h.armTick(h.turnSeq)
}

func (h *Host) armTick(seq int) {
	h.turnTimer = h.clock.AfterFunc(time.Second, func() {
		h.post(func() { h.onTick(seq) })
	}, "turn")
}

// onTick counts the turn timer down by one second. Ticks armed for an earlier
// turn are ignored.
func (h *Host) onTick(seq int) {
	if seq != h.turnSeq || h.state.Status != models.StatusPlaying {
		return
	}
	h.state.TurnTimer--
	if h.state.TurnTimer > 0 {
		h.armTick(seq)
		h.observers.Publish(h.state)
		return
	}
	h.turnTimer = nil
	h.onTurnExpired()
	h.changed()
}

// onTurnExpired draws for a holder who let the clock run out. A holder who can
// no longer play is passed over without drawing.
func (h *Host) onTurnExpired() {
	cur := h.state.CurrentPlayer()
	if cur == nil || !cur.IsActive() {
		h.advanceTurn(1)
		return
	}
	h.note("%s ran out of time and draws a card", cur.Name)
	h.drawCards(cur, 1)
	h.recordAction(cur.ID, models.ActionDrawCard, map[string]interface{}{"timeout": true})
	h.advanceTurn(1)
}

// scheduleBot arms a think-time timer when a bot holds the current turn.
func (h *Host) scheduleBot() {
	if h.state.Status != models.StatusPlaying {
		return
	}
	cur := h.state.CurrentPlayer()
	if cur == nil || !cur.IsBot || !cur.IsActive() {
		return
	}
	if h.botTimer != nil && h.botSeq == h.turnSeq {
		return
	}
	h.stopBotTimer()

	delay := time.Duration(h.settings.BotDelayMinMs) * time.Millisecond
	if spread := h.settings.BotDelayMaxMs - h.settings.BotDelayMinMs; spread > 0 {
		delay += time.Duration(h.rng.IntN(spread+1)) * time.Millisecond
	}
	seq := h.turnSeq
	h.botSeq = seq
	h.botTimer = h.clock.AfterFunc(delay, func() {
		h.post(func() { h.runBot(seq) })
	}, "bot")
}

func (h *Host) stopTurnTimer() {
	if h.turnTimer != nil {
		h.turnTimer.Stop()
		h.turnTimer = nil
	}
}

func (h *Host) stopBotTimer() {
	if h.botTimer != nil {
		h.botTimer.Stop()
		h.botTimer = nil
	}
}

func (h *Host) stopTimers() {
	h.stopTurnTimer()
	h.stopBotTimer()
}
