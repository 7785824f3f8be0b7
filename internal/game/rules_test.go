package game

import (
	"math/rand/v2"
	"testing"

	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildShuffledDeck(t *testing.T) {
	deck := BuildShuffledDeck(rand.New(rand.NewPCG(1, 2)))
	require.Len(t, deck, DeckSize)

	ids := make(map[string]bool)
	kinds := make(map[models.Kind]int)
	zeros := 0
	for _, c := range deck {
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
		kinds[c.Kind]++
		if c.Kind == models.KindNumber && c.Value == 0 {
			zeros++
		}
		if c.IsBlack() {
			assert.Contains(t, []models.Kind{models.KindWild, models.KindWild4}, c.Kind)
		}
	}
	assert.Equal(t, 76, kinds[models.KindNumber])
	assert.Equal(t, 8, kinds[models.KindSkip])
	assert.Equal(t, 8, kinds[models.KindReverse])
	assert.Equal(t, 8, kinds[models.KindDraw2])
	assert.Equal(t, 4, kinds[models.KindWild])
	assert.Equal(t, 4, kinds[models.KindWild4])
	assert.Equal(t, 4, zeros)
}

func TestBuildShuffledDeckIsSeeded(t *testing.T) {
	a := BuildShuffledDeck(rand.New(rand.NewPCG(7, 7)))
	b := BuildShuffledDeck(rand.New(rand.NewPCG(7, 7)))
	for i := range a {
		assert.Equal(t, a[i].Kind, b[i].Kind)
		assert.Equal(t, a[i].Color, b[i].Color)
		assert.Equal(t, a[i].Value, b[i].Value)
	}
}

func TestIsLegalMove(t *testing.T) {
	red3 := num("r3", models.Red, 3)
	tests := []struct {
		name   string
		card   models.Card
		top    models.Card
		active models.Color
		want   bool
	}{
		{"same color", num("r9", models.Red, 9), red3, models.Red, true},
		{"same number", num("b3", models.Blue, 3), red3, models.Red, true},
		{"different number and color", num("b7", models.Blue, 7), red3, models.Red, false},
		{"wild always", card("w", models.Black, models.KindWild, 0), red3, models.Red, true},
		{"wild4 always", card("w4", models.Black, models.KindWild4, 0), red3, models.Red, true},
		{"same action kind", card("bs", models.Blue, models.KindSkip, 0), card("rs", models.Red, models.KindSkip, 0), models.Red, true},
		{"action on number", card("bs", models.Blue, models.KindSkip, 0), red3, models.Red, false},
		{"chosen wild color", num("g1", models.Green, 1), card("w", models.Black, models.KindWild, 0), models.Green, true},
		{"wild top other color", num("y1", models.Yellow, 1), card("w", models.Black, models.KindWild, 0), models.Green, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLegalMove(tt.card, tt.top, tt.active))
		})
	}
}

func TestHandScore(t *testing.T) {
	hand := []models.Card{
		num("a", models.Red, 7),
		card("b", models.Blue, models.KindSkip, 0),
		card("c", models.Black, models.KindWild4, 0),
		num("d", models.Green, 0),
	}
	assert.Equal(t, 77, HandScore(hand))
	assert.Equal(t, 0, HandScore(nil))
}

func TestNextSeat(t *testing.T) {
	players := func(flags ...bool) []*models.Player {
		out := make([]*models.Player, len(flags))
		for i, eliminated := range flags {
			out[i] = &models.Player{ID: string(rune('A' + i)), IsEliminated: eliminated}
		}
		return out
	}

	t.Run("skips eliminated", func(t *testing.T) {
		s := &models.SessionState{Players: players(false, true, false), Direction: 1}
		assert.Equal(t, 2, NextSeat(s, 1))
	})
	t.Run("wraps around", func(t *testing.T) {
		s := &models.SessionState{Players: players(false, false, false), Direction: 1, CurrentPlayerIndex: 2}
		assert.Equal(t, 0, NextSeat(s, 1))
		assert.Equal(t, 1, NextSeat(s, 2))
	})
	t.Run("counter clockwise", func(t *testing.T) {
		s := &models.SessionState{Players: players(false, false, false, false), Direction: -1}
		assert.Equal(t, 3, NextSeat(s, 1))
		assert.Equal(t, 2, NextSeat(s, 2))
	})
	t.Run("spectators are skipped", func(t *testing.T) {
		ps := players(false, false, false)
		ps[1].IsSpectator = true
		s := &models.SessionState{Players: ps, Direction: 1}
		assert.Equal(t, 2, NextSeat(s, 1))
	})
	t.Run("two players offset two returns to self", func(t *testing.T) {
		s := &models.SessionState{Players: players(false, false), Direction: 1}
		assert.Equal(t, 0, NextSeat(s, 2))
	})
	t.Run("nobody active", func(t *testing.T) {
		s := &models.SessionState{Players: players(true, true), Direction: 1}
		assert.Equal(t, -1, NextSeat(s, 1))
	})
}

func TestChooseBotMove(t *testing.T) {
	top := num("top", models.Red, 3)

	t.Run("draws without a legal card", func(t *testing.T) {
		move := ChooseBotMove([]models.Card{num("b7", models.Blue, 7)}, top, models.Red)
		assert.True(t, move.Draw)
	})

	t.Run("prefers wild4 over everything", func(t *testing.T) {
		hand := []models.Card{
			num("r5", models.Red, 5),
			card("rd", models.Red, models.KindDraw2, 0),
			card("w4", models.Black, models.KindWild4, 0),
			num("b1", models.Blue, 1),
			num("b2", models.Blue, 2),
			num("b3", models.Blue, 3),
		}
		move := ChooseBotMove(hand, top, models.Red)
		assert.Equal(t, "w4", move.CardID)
		assert.Equal(t, models.Blue, move.WildColor)
		assert.False(t, move.CallUno)
	})

	t.Run("draw2 over skip over number", func(t *testing.T) {
		hand := []models.Card{num("r5", models.Red, 5), card("rs", models.Red, models.KindSkip, 0), card("rd", models.Red, models.KindDraw2, 0)}
		assert.Equal(t, "rd", ChooseBotMove(hand, top, models.Red).CardID)
		assert.Equal(t, "rs", ChooseBotMove(hand[:2], top, models.Red).CardID)
	})

	t.Run("numbers before plain wild", func(t *testing.T) {
		hand := []models.Card{card("w", models.Black, models.KindWild, 0), num("r5", models.Red, 5)}
		move := ChooseBotMove(hand, top, models.Red)
		assert.Equal(t, "r5", move.CardID)
		assert.True(t, move.CallUno)
	})

	t.Run("wild color falls back to active color", func(t *testing.T) {
		move := ChooseBotMove([]models.Card{card("w", models.Black, models.KindWild, 0)}, top, models.Green)
		assert.Equal(t, models.Green, move.WildColor)
	})
}

func TestNewRoomCode(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 50; i++ {
		code := NewRoomCode(rng)
		norm, ok := NormalizeRoomCode(code)
		require.True(t, ok, code)
		assert.Equal(t, code, norm)
	}

	norm, ok := NormalizeRoomCode(" ab12cd ")
	assert.True(t, ok)
	assert.Equal(t, "AB12CD", norm)

	for _, bad := range []string{"", "ABC", "ABCDEFG", "AB-12C"} {
		_, ok := NormalizeRoomCode(bad)
		assert.False(t, ok, bad)
	}
}
