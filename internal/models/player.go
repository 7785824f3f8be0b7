package models

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Hand   []Card `json:"hand"`

	IsHost       bool `json:"isHost"`
	Score        int  `json:"score"`
	IsEliminated bool `json:"isEliminated"`
	HasCalledUno bool `json:"hasCalledUno"`
	IsBot        bool `json:"isBot"`
	IsSpectator  bool `json:"isSpectator"`

	// Connected is false once the player's transport went away. Departed players
	// stay in the roster (eliminated + spectator) after the game has started.
	Connected bool `json:"connected"`
}

// IsActive reports whether the player may hold the turn.
func (p *Player) IsActive() bool {
	return !p.IsEliminated && !p.IsSpectator
}

// Clone returns a copy that shares no memory with p.
func (p *Player) Clone() *Player {
	cp := *p
	cp.Hand = cloneCards(p.Hand)
	return &cp
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
