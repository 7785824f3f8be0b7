package models

// Color is one of the four suit colors, or black for wild cards.
type Color string

const (
	Red    Color = "red"
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
	Black  Color = "black"
)

// Suits lists the four playable colors in deck order.
var Suits = []Color{Red, Yellow, Green, Blue}

// IsSuit reports whether c can be chosen as the active color.
func (c Color) IsSuit() bool {
	switch c {
	case Red, Yellow, Green, Blue:
		return true
	}
	return false
}

// Kind is the face type of a card.
type Kind string

const (
	KindNumber  Kind = "number"
	KindSkip    Kind = "skip"
	KindReverse Kind = "reverse"
	KindDraw2   Kind = "draw2"
	KindWild    Kind = "wild"
	KindWild4   Kind = "wild4"
)

// Card is immutable once dealt; hands and piles hold values, not pointers.
type Card struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Kind  Kind   `json:"kind"`
	Value int    `json:"value,omitempty"` // 0-9, number cards only
}

// IsBlack reports whether the card is a wild or wild draw four.
func (c Card) IsBlack() bool {
	return c.Color == Black
}
