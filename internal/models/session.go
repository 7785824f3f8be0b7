package models

// Status is the phase of a session.
type Status string

const (
	StatusLobby     Status = "LOBBY"
	StatusPlaying   Status = "PLAYING"
	StatusRoundOver Status = "ROUND_OVER"
	StatusGameOver  Status = "GAME_OVER"
)

// Mode selects how a round win is scored.
type Mode string

const (
	// ModeQuick ends the game with the first player to empty their hand.
	ModeQuick Mode = "QUICK"
	// ModeTournament eliminates the worst hand each round until one player is left.
	ModeTournament Mode = "TOURNAMENT"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeQuick || m == ModeTournament
}

// SessionState is the whole replicated record of one room. The host owns the
// only mutable copy; everybody else sees clones.
type SessionState struct {
	RoomID             string    `json:"roomId"`
	Players            []*Player `json:"players"`
	Deck               []Card    `json:"deck"`
	DiscardPile        []Card    `json:"discardPile"` // top = last element
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	Direction          int       `json:"direction"` // +1 or -1
	Status             Status    `json:"status"`
	Winner             string    `json:"winner,omitempty"` // player id
	CurrentColor       Color     `json:"currentColor,omitempty"`
	TurnTimer          int       `json:"turnTimer"` // seconds remaining
	Mode               Mode      `json:"mode"`
	Round              int       `json:"round"`
	RemovedCards       int       `json:"removedCards"` // hands dropped by departures this round

	Log          []string      `json:"log"`
	ChatMessages []ChatMessage `json:"chatMessages"`
	LastReaction *Reaction     `json:"lastReaction,omitempty"`
}

// Clone returns a deep copy of s.
func (s *SessionState) Clone() SessionState {
	cp := *s
	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.Clone()
	}
	cp.Deck = cloneCards(s.Deck)
	cp.DiscardPile = cloneCards(s.DiscardPile)
	if s.Log != nil {
		cp.Log = append([]string(nil), s.Log...)
	}
	if s.ChatMessages != nil {
		cp.ChatMessages = append([]ChatMessage(nil), s.ChatMessages...)
	}
	if s.LastReaction != nil {
		r := *s.LastReaction
		cp.LastReaction = &r
	}
	return cp
}

// TopCard returns the last card of the discard pile.
func (s *SessionState) TopCard() (Card, bool) {
	if len(s.DiscardPile) == 0 {
		return Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

// PlayerByID returns the roster entry for id and its seat index.
func (s *SessionState) PlayerByID(id string) (*Player, int) {
	for i, p := range s.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// CurrentPlayer returns the turn holder, or nil when the index is out of range.
func (s *SessionState) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

// ActivePlayers returns players that may hold the turn, in seat order.
func (s *SessionState) ActivePlayers() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

// CardCount is the number of cards across deck, discard pile and every hand.
// Together with RemovedCards it accounts for the whole deck during a round.
func (s *SessionState) CardCount() int {
	n := len(s.Deck) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}
