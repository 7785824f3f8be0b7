package game

import (
	"github.com/jason-s-yu/unoparty/internal/models"
)

// beginRound shuffles a fresh deck, deals to every active player and flips the
// opening card. Callers have already decided who is active.
func (h *Host) beginRound() {
	s := h.state
	s.Deck = BuildShuffledDeck(h.rng)
	s.DiscardPile = nil
	s.RemovedCards = 0
	s.Direction = 1
	s.Winner = ""
	s.LastReaction = nil

	for _, p := range s.Players {
		p.Hand = nil
		p.HasCalledUno = false
		p.Score = 0
	}
	active := s.ActivePlayers()
	for _, p := range active {
		h.drawCards(p, dealSize(h.settings.HandSize, len(active)))
	}

	// Black cards go to the bottom until a suited card surfaces.
	for {
		c := s.Deck[0]
		s.Deck = s.Deck[1:]
		if c.IsBlack() {
			s.Deck = append(s.Deck, c)
			continue
		}
		s.DiscardPile = []models.Card{c}
		s.CurrentColor = c.Color
		break
	}

	s.CurrentPlayerIndex = firstActiveSeat(s)
	s.Status = models.StatusPlaying
	s.Round++
	h.note("round %d started with %d players", s.Round, len(active))
	h.startTurn()
}

// resolveRound scores a round won by winner and moves to ROUND_OVER or
// GAME_OVER depending on mode.
func (h *Host) resolveRound(winner *models.Player) {
	s := h.state
	h.stopTimers()
	s.TurnTimer = 0

	if h.settings.Mode != models.ModeTournament {
		h.finishGame(winner.ID)
		return
	}

	var worst *models.Player
	for _, p := range s.ActivePlayers() {
		if p.ID == winner.ID {
			p.Score = 0
			continue
		}
		p.Score = HandScore(p.Hand)
		if p.Score > 0 && (worst == nil || p.Score > worst.Score) {
			worst = p
		}
	}

	s.Status = models.StatusRoundOver
	h.note("%s won round %d", winner.Name, s.Round)
	if worst != nil {
		worst.IsEliminated = true
		h.note("%s was eliminated with %d points", worst.Name, worst.Score)
	}

	if active := s.ActivePlayers(); len(active) == 1 {
		h.finishGame(active[0].ID)
	}
}

// finishGame ends the session with winnerID, which may be empty.
func (h *Host) finishGame(winnerID string) {
	s := h.state
	h.stopTimers()
	s.TurnTimer = 0
	s.Status = models.StatusGameOver
	s.Winner = winnerID
	if p, _ := s.PlayerByID(winnerID); p != nil {
		h.note("%s wins the game", p.Name)
	} else {
		h.note("game over")
	}
}

// dealSize shrinks the hand size for crowded tables so the deck keeps more
// cards than there are black cards, which guarantees a suited opening card.
func dealSize(handSize, players int) int {
	if players == 0 {
		return handSize
	}
	if maxDeal := (DeckSize - 9) / players; handSize > maxDeal {
		return maxDeal
	}
	return handSize
}
