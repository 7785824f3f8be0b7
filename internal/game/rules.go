package game

import "github.com/jason-s-yu/unoparty/internal/models"

// IsLegalMove reports whether card may be played onto top while activeColor is
// the color in force. Black cards are always playable.
func IsLegalMove(card, top models.Card, activeColor models.Color) bool {
	if card.IsBlack() {
		return true
	}
	if card.Color == activeColor {
		return true
	}
	if card.Kind != top.Kind {
		return false
	}
	if card.Kind == models.KindNumber {
		return card.Value == top.Value
	}
	return true
}

// CardPoints is the scoring value of a single card left in hand.
func CardPoints(c models.Card) int {
	switch c.Kind {
	case models.KindWild, models.KindWild4:
		return 50
	case models.KindSkip, models.KindReverse, models.KindDraw2:
		return 20
	default:
		return c.Value
	}
}

// HandScore sums CardPoints over hand.
func HandScore(hand []models.Card) int {
	total := 0
	for _, c := range hand {
		total += CardPoints(c)
	}
	return total
}

// LegalMoves returns the cards of hand that may be played right now, in hand order.
func LegalMoves(hand []models.Card, top models.Card, activeColor models.Color) []models.Card {
	var out []models.Card
	for _, c := range hand {
		if IsLegalMove(c, top, activeColor) {
			out = append(out, c)
		}
	}
	return out
}
