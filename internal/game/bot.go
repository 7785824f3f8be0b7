package game

import (
	"github.com/jason-s-yu/unoparty/internal/models"
)

// BotMove is what a bot decided to do with its turn.
type BotMove struct {
	Draw      bool
	CardID    string
	WildColor models.Color
	CallUno   bool // call before playing; the play leaves one card
}

var botPriority = map[models.Kind]int{
	models.KindWild4:   4,
	models.KindDraw2:   3,
	models.KindSkip:    2,
	models.KindReverse: 2,
	models.KindNumber:  1,
	models.KindWild:    0,
}

// ChooseBotMove picks a play from hand: wild4 over draw2 over skip or reverse
// over plain cards, earliest in hand on ties. Plain wilds are held back behind
// numbers. With no legal card the bot draws.
func ChooseBotMove(hand []models.Card, top models.Card, activeColor models.Color) BotMove {
	legal := LegalMoves(hand, top, activeColor)
	if len(legal) == 0 {
		return BotMove{Draw: true}
	}

	best := legal[0]
	for _, c := range legal[1:] {
		if botPriority[c.Kind] > botPriority[best.Kind] {
			best = c
		}
	}

	move := BotMove{CardID: best.ID, CallUno: len(hand) == 2}
	if best.IsBlack() {
		move.WildColor = mostHeldColor(hand, activeColor)
	}
	return move
}

// mostHeldColor is the suit the hand holds most of. Ties go to the earlier
// suit; a hand with no suited cards keeps fallback if it is a suit.
func mostHeldColor(hand []models.Card, fallback models.Color) models.Color {
	counts := make(map[models.Color]int, len(models.Suits))
	for _, c := range hand {
		if c.Color.IsSuit() {
			counts[c.Color]++
		}
	}
	best, bestN := models.Color(""), 0
	for _, color := range models.Suits {
		if counts[color] > bestN {
			best, bestN = color, counts[color]
		}
	}
	if best != "" {
		return best
	}
	if fallback.IsSuit() {
		return fallback
	}
	return models.Red
}

// runBot plays the current bot's turn if seq is still the live turn.
func (h *Host) runBot(seq int) {
	h.botTimer = nil
	if seq != h.turnSeq || h.state.Status != models.StatusPlaying {
		return
	}
	cur := h.state.CurrentPlayer()
	if cur == nil || !cur.IsBot || !cur.IsActive() {
		return
	}
	top, _ := h.state.TopCard()
	move := ChooseBotMove(cur.Hand, top, h.state.CurrentColor)

	var err error
	if move.Draw {
		err = h.drawCard(cur.ID)
	} else {
		if move.CallUno {
			if err := h.callUno(cur.ID); err != nil {
				h.log.WithError(err).WithField("player", cur.ID).Debug("bot uno call rejected")
			}
		}
		err = h.playCard(cur.ID, move.CardID, move.WildColor)
	}
	if err != nil {
		// Should not happen: the move was chosen from the legal set.
		h.log.WithError(err).WithField("player", cur.ID).Warn("bot move rejected; drawing instead")
		if err = h.drawCard(cur.ID); err != nil {
			return
		}
	}
	h.changed()
}
