package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoparty/internal/models"
)

// JoinParams describes a join request. ExistingID re-attaches a known player.
type JoinParams struct {
	Name       string
	Avatar     string
	ExistingID string
	IsBot      bool
}

// JoinResult is the outcome of an accepted join.
type JoinResult struct {
	PlayerID    string
	Reconnected bool
	State       models.SessionState
}

var botNames = []string{"Ada", "Bolt", "Cog", "Dot", "Echo", "Fizz", "Gizmo", "Hex", "Ion", "Jolt", "Kilo", "Lux", "Mox", "Nano"}

// Join seats a new player, or re-attaches ExistingID when it is in the roster.
// Players joining after the game has started sit out as spectators until the
// next round.
func (h *Host) Join(ctx context.Context, p JoinParams) (JoinResult, error) {
	var res JoinResult
	err := h.submit(ctx, func() error {
		var err error
		res, err = h.join(p)
		return err
	})
	return res, err
}

func (h *Host) join(p JoinParams) (JoinResult, error) {
	s := h.state
	if p.ExistingID != "" {
		if pl, _ := s.PlayerByID(p.ExistingID); pl != nil {
			pl.Connected = true
			h.note("%s reconnected", pl.Name)
			return JoinResult{PlayerID: pl.ID, Reconnected: true, State: s.Clone()}, nil
		}
	}
	if len(s.Players) >= h.settings.MaxOccupants {
		return JoinResult{}, ErrRoomFull
	}

	pl := &models.Player{
		ID:          uuid.NewString(),
		Name:        cleanName(p.Name, fmt.Sprintf("Player %d", len(s.Players)+1)),
		Avatar:      p.Avatar,
		IsBot:       p.IsBot,
		IsSpectator: s.Status != models.StatusLobby,
		Connected:   true,
	}
	s.Players = append(s.Players, pl)
	if pl.IsSpectator {
		h.note("%s joined as a spectator", pl.Name)
	} else {
		h.note("%s joined", pl.Name)
	}
	return JoinResult{PlayerID: pl.ID, State: s.Clone()}, nil
}

// AddBot seats a computer-controlled player. Lobby only.
func (h *Host) AddBot(ctx context.Context) (string, error) {
	var id string
	err := h.submit(ctx, func() error {
		if h.state.Status != models.StatusLobby {
			return ErrWrongPhase
		}
		bots := 0
		for _, p := range h.state.Players {
			if p.IsBot {
				bots++
			}
		}
		name := fmt.Sprintf("%s (bot)", botNames[bots%len(botNames)])
		res, err := h.join(JoinParams{Name: name, Avatar: "bot", IsBot: true})
		id = res.PlayerID
		return err
	})
	return id, err
}

// Leave handles a departure or lost connection. In the lobby the player is
// removed; afterwards the seat is kept but eliminated and turned spectator,
// and its hand is taken out of play for the rest of the round.
func (h *Host) Leave(ctx context.Context, playerID string) error {
	return h.submit(ctx, func() error { return h.leave(playerID) })
}

func (h *Host) leave(playerID string) error {
	s := h.state
	pl, idx := s.PlayerByID(playerID)
	if pl == nil {
		return ErrUnknownPlayer
	}

	if s.Status == models.StatusLobby {
		s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
		if s.CurrentPlayerIndex >= len(s.Players) {
			s.CurrentPlayerIndex = 0
		}
		h.note("%s left", pl.Name)
		return nil
	}

	if !pl.Connected && pl.IsSpectator {
		return nil
	}
	wasTurn := s.Status == models.StatusPlaying && idx == s.CurrentPlayerIndex
	pl.Connected = false
	pl.IsEliminated = true
	pl.IsSpectator = true
	pl.HasCalledUno = false
	s.RemovedCards += len(pl.Hand)
	pl.Hand = nil
	h.note("%s left the game", pl.Name)

	if s.Status == models.StatusGameOver {
		return nil
	}
	switch active := s.ActivePlayers(); len(active) {
	case 0:
		h.finishGame("")
		return nil
	case 1:
		h.finishGame(active[0].ID)
		return nil
	}
	if wasTurn {
		h.advanceTurn(1)
	}
	return nil
}

// StartGame deals the first round. Needs at least two occupants.
func (h *Host) StartGame(ctx context.Context) error {
	return h.submit(ctx, func() error {
		s := h.state
		if s.Status != models.StatusLobby {
			return ErrWrongPhase
		}
		if len(s.Players) < 2 {
			return ErrNotEnoughPlayers
		}
		s.Mode = h.settings.Mode
		s.Round = 0
		h.beginRound()
		return nil
	})
}

// NextRound deals again after ROUND_OVER. From GAME_OVER it restarts the game
// with every connected player back in.
func (h *Host) NextRound(ctx context.Context) error {
	return h.submit(ctx, func() error {
		s := h.state
		restart := false
		switch s.Status {
		case models.StatusRoundOver:
		case models.StatusGameOver:
			restart = true
		default:
			return ErrWrongPhase
		}

		seated := func(p *models.Player) bool {
			if !p.Connected && !p.IsBot {
				return false
			}
			return restart || !p.IsEliminated
		}
		n := 0
		for _, p := range s.Players {
			if seated(p) {
				n++
			}
		}
		if n < 2 {
			return ErrNotEnoughPlayers
		}

		for _, p := range s.Players {
			if seated(p) {
				p.IsEliminated = false
				p.IsSpectator = false
			}
		}
		if restart {
			s.Round = 0
			s.Mode = h.settings.Mode
		}
		h.beginRound()
		return nil
	})
}

// PlayCard plays cardID from the turn holder's hand. wild names the new color
// and is required for black cards.
func (h *Host) PlayCard(ctx context.Context, playerID, cardID string, wild models.Color) error {
	return h.submit(ctx, func() error { return h.playCard(playerID, cardID, wild) })
}

func (h *Host) playCard(playerID, cardID string, wild models.Color) error {
	s := h.state
	pl, err := h.turnHolder(playerID)
	if err != nil {
		return err
	}

	ci := -1
	for i, c := range pl.Hand {
		if c.ID == cardID {
			ci = i
			break
		}
	}
	if ci < 0 {
		return ErrUnknownCard
	}
	card := pl.Hand[ci]
	top, _ := s.TopCard()
	if !IsLegalMove(card, top, s.CurrentColor) {
		return ErrIllegalMove
	}
	if card.IsBlack() && !wild.IsSuit() {
		return ErrInvalidColor
	}

	hand := make([]models.Card, 0, len(pl.Hand)-1)
	hand = append(hand, pl.Hand[:ci]...)
	pl.Hand = append(hand, pl.Hand[ci+1:]...)
	s.DiscardPile = append(s.DiscardPile, card)
	if card.IsBlack() {
		s.CurrentColor = wild
	} else {
		s.CurrentColor = card.Color
	}

	payload := map[string]interface{}{"card": card}
	if card.IsBlack() {
		payload["wildColor"] = wild
	}
	h.recordAction(pl.ID, models.ActionPlayCard, payload)

	offset := 1
	switch card.Kind {
	case models.KindSkip:
		offset = 2
	case models.KindReverse:
		if len(s.ActivePlayers()) == 2 {
			offset = 2
		} else {
			s.Direction = -s.Direction
		}
	case models.KindDraw2, models.KindWild4:
		n := 2
		if card.Kind == models.KindWild4 {
			n = 4
		}
		victim := s.Players[NextSeat(s, 1)]
		h.drawCards(victim, n)
		h.note("%s draws %d", victim.Name, n)
		offset = 2
	}

	if len(pl.Hand) == 1 && !pl.HasCalledUno {
		h.drawCards(pl, 1)
		h.note("%s forgot to call UNO and draws a penalty card", pl.Name)
	}
	if len(pl.Hand) > 1 {
		pl.HasCalledUno = false
	}

	if len(pl.Hand) == 0 {
		h.resolveRound(pl)
		return nil
	}
	h.advanceTurn(offset)
	return nil
}

// DrawCard draws one card for the turn holder and passes the turn.
func (h *Host) DrawCard(ctx context.Context, playerID string) error {
	return h.submit(ctx, func() error { return h.drawCard(playerID) })
}

func (h *Host) drawCard(playerID string) error {
	pl, err := h.turnHolder(playerID)
	if err != nil {
		return err
	}
	h.drawCards(pl, 1)
	h.recordAction(pl.ID, models.ActionDrawCard, nil)
	h.advanceTurn(1)
	return nil
}

// CallUno marks the player as having called UNO. Allowed with two or fewer
// cards, on or off turn.
func (h *Host) CallUno(ctx context.Context, playerID string) error {
	return h.submit(ctx, func() error { return h.callUno(playerID) })
}

func (h *Host) callUno(playerID string) error {
	s := h.state
	if s.Status != models.StatusPlaying {
		return ErrWrongPhase
	}
	pl, _ := s.PlayerByID(playerID)
	if pl == nil {
		return ErrUnknownPlayer
	}
	if !pl.IsActive() {
		return ErrInactivePlayer
	}
	if len(pl.Hand) > 2 {
		return ErrCannotCallUno
	}
	if !pl.HasCalledUno {
		pl.HasCalledUno = true
		h.note("%s called UNO", pl.Name)
		h.recordAction(pl.ID, models.ActionCallUno, nil)
	}
	return nil
}

// React replaces the last reaction. Any known player, any status.
func (h *Host) React(ctx context.Context, playerID, emoji string) error {
	return h.submit(ctx, func() error {
		pl, _ := h.state.PlayerByID(playerID)
		if pl == nil {
			return ErrUnknownPlayer
		}
		emoji = strings.TrimSpace(emoji)
		if emoji == "" {
			return ErrEmptyMessage
		}
		h.state.LastReaction = &models.Reaction{
			PlayerID:  pl.ID,
			Emoji:     truncateRunes(emoji, maxEmojiRunes),
			Timestamp: h.clock.Now().UnixMilli(),
		}
		return nil
	})
}

// Chat appends a message to the bounded chat history.
func (h *Host) Chat(ctx context.Context, playerID, text string) error {
	return h.submit(ctx, func() error {
		pl, _ := h.state.PlayerByID(playerID)
		if pl == nil {
			return ErrUnknownPlayer
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return ErrEmptyMessage
		}
		msgs := append(h.state.ChatMessages, models.ChatMessage{
			ID:         uuid.NewString(),
			SenderID:   pl.ID,
			SenderName: pl.Name,
			Text:       truncateRunes(text, maxChatRunes),
			Timestamp:  h.clock.Now().UnixMilli(),
		})
		if len(msgs) > maxChatMessages {
			msgs = append([]models.ChatMessage(nil), msgs[len(msgs)-maxChatMessages:]...)
		}
		h.state.ChatMessages = msgs
		return nil
	})
}

// SetMode switches between QUICK and TOURNAMENT. Lobby only.
func (h *Host) SetMode(ctx context.Context, mode models.Mode) error {
	return h.UpdateSettings(ctx, map[string]interface{}{"mode": string(mode)})
}

// UpdateSettings applies a partial settings change. Lobby only; nothing
// changes when any value is invalid.
func (h *Host) UpdateSettings(ctx context.Context, changes map[string]interface{}) error {
	return h.submit(ctx, func() error {
		if h.state.Status != models.StatusLobby {
			return ErrWrongPhase
		}
		next, err := ParseSettings(changes, h.settings)
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		h.settings = next
		h.state.Mode = next.Mode
		return nil
	})
}

// turnHolder validates that playerID may act on the current turn.
func (h *Host) turnHolder(playerID string) (*models.Player, error) {
	s := h.state
	if s.Status != models.StatusPlaying {
		return nil, ErrWrongPhase
	}
	pl, idx := s.PlayerByID(playerID)
	if pl == nil {
		return nil, ErrUnknownPlayer
	}
	if !pl.IsActive() {
		return nil, ErrInactivePlayer
	}
	if idx != s.CurrentPlayerIndex {
		return nil, ErrNotYourTurn
	}
	return pl, nil
}
