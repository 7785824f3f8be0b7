package game

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoparty/internal/models"
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 108

// BuildShuffledDeck returns the 108-card deck shuffled with rng: per suit one 0,
// two each of 1-9, two each of skip, reverse and draw2; plus four wild and four
// wild4. Every card gets a fresh unique id.
func BuildShuffledDeck(rng *rand.Rand) []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	add := func(color models.Color, kind models.Kind, value int) {
		deck = append(deck, models.Card{ID: uuid.NewString(), Color: color, Kind: kind, Value: value})
	}

	for _, color := range models.Suits {
		add(color, models.KindNumber, 0)
		for v := 1; v <= 9; v++ {
			add(color, models.KindNumber, v)
			add(color, models.KindNumber, v)
		}
		for i := 0; i < 2; i++ {
			add(color, models.KindSkip, 0)
			add(color, models.KindReverse, 0)
			add(color, models.KindDraw2, 0)
		}
	}
	for i := 0; i < 4; i++ {
		add(models.Black, models.KindWild, 0)
		add(models.Black, models.KindWild4, 0)
	}

	shuffleCards(rng, deck)
	return deck
}

// shuffleCards is an in-place Fisher-Yates shuffle.
func shuffleCards(rng *rand.Rand, cards []models.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
