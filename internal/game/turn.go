package game

import "github.com/jason-s-yu/unoparty/internal/models"

// NextSeat walks offset active seats from the current index in the direction
// of play, wrapping around and skipping eliminated players and spectators.
// It returns -1 when nobody can hold the turn.
func NextSeat(s *models.SessionState, offset int) int {
	n := len(s.Players)
	if n == 0 || len(s.ActivePlayers()) == 0 {
		return -1
	}
	dir := s.Direction
	if dir == 0 {
		dir = 1
	}
	idx := s.CurrentPlayerIndex
	if idx < 0 || idx >= n {
		idx = 0
	}
	for passed := 0; passed < offset; {
		idx = ((idx+dir)%n + n) % n
		if s.Players[idx].IsActive() {
			passed++
		}
	}
	return idx
}

// firstActiveSeat is the earliest seat that may hold the turn, or -1.
func firstActiveSeat(s *models.SessionState) int {
	for i, p := range s.Players {
		if p.IsActive() {
			return i
		}
	}
	return -1
}

// advanceTurn hands the turn offset seats on and restarts the turn timer.
func (h *Host) advanceTurn(offset int) {
	next := NextSeat(h.state, offset)
	if next < 0 {
		h.finishGame("")
		return
	}
	h.state.CurrentPlayerIndex = next
	h.startTurn()
}

// startTurn begins a fresh turn for the current seat.
func (h *Host) startTurn() {
	h.turnSeq++
	h.restartTurnTimer()
}

// drawCards moves up to n cards from the deck into p's hand, refilling the deck
// from the discard pile when it runs out. It returns the number drawn. A Uno
// call stops counting once the hand is back above two cards.
func (h *Host) drawCards(p *models.Player, n int) int {
	defer func() {
		if len(p.Hand) > 2 {
			p.HasCalledUno = false
		}
	}()
	drawn := 0
	for ; drawn < n; drawn++ {
		if len(h.state.Deck) == 0 {
			h.reshuffleDiscard()
		}
		if len(h.state.Deck) == 0 {
			h.log.WithField("player", p.ID).Warn("deck and discard exhausted; draw cut short")
			break
		}
		card := h.state.Deck[0]
		h.state.Deck = h.state.Deck[1:]
		p.Hand = append(p.Hand, card)
	}
	return drawn
}

// reshuffleDiscard moves every discard except the top card back into the deck.
func (h *Host) reshuffleDiscard() {
	pile := h.state.DiscardPile
	if len(pile) <= 1 {
		return
	}
	top := pile[len(pile)-1]
	rest := make([]models.Card, len(pile)-1)
	copy(rest, pile[:len(pile)-1])
	shuffleCards(h.rng, rest)
	h.state.Deck = append(h.state.Deck, rest...)
	h.state.DiscardPile = []models.Card{top}
	h.log.WithField("cards", len(rest)).Debug("reshuffled discard pile into deck")
}
