package console

import (
	"fmt"
	"strings"

	"github.com/jason-s-yu/unoparty/internal/models"
)

var colorAliases = map[string]models.Color{
	"r": models.Red, "red": models.Red,
	"y": models.Yellow, "yellow": models.Yellow,
	"g": models.Green, "green": models.Green,
	"b": models.Blue, "blue": models.Blue,
}

func parseColor(s string) (models.Color, error) {
	if c, ok := colorAliases[strings.ToLower(s)]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

func cardLabel(c models.Card) string {
	switch c.Kind {
	case models.KindWild:
		return "wild"
	case models.KindWild4:
		return "wild +4"
	case models.KindNumber:
		return fmt.Sprintf("%s %d", c.Color, c.Value)
	case models.KindDraw2:
		return fmt.Sprintf("%s +2", c.Color)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Kind)
}

func describeTop(s models.SessionState) string {
	top, ok := s.TopCard()
	if !ok {
		return "no card on the pile"
	}
	if top.IsBlack() {
		return fmt.Sprintf("top is %s, color %s", cardLabel(top), s.CurrentColor)
	}
	return "top is " + cardLabel(top)
}

func renderHand(s models.SessionState, me string) string {
	p, _ := s.PlayerByID(me)
	if p == nil {
		return "you are not seated\n"
	}
	if len(p.Hand) == 0 {
		return "your hand is empty\n"
	}
	var b strings.Builder
	for i, c := range p.Hand {
		fmt.Fprintf(&b, "%2d) %s\n", i+1, cardLabel(c))
	}
	return b.String()
}

func renderState(s models.SessionState, me string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "room %s  %s  mode %s  round %d\n", s.RoomID, s.Status, s.Mode, s.Round)
	if s.Status == models.StatusPlaying {
		fmt.Fprintf(&b, "%s  timer %ds  deck %d\n", describeTop(s), s.TurnTimer, len(s.Deck))
	}
	current := s.CurrentPlayer()
	for _, p := range s.Players {
		marker := " "
		if s.Status == models.StatusPlaying && current != nil && current.ID == p.ID {
			marker = ">"
		}
		var tags []string
		if p.ID == me {
			tags = append(tags, "you")
		}
		if p.IsHost {
			tags = append(tags, "host")
		}
		if p.IsBot {
			tags = append(tags, "bot")
		}
		if p.HasCalledUno {
			tags = append(tags, "UNO")
		}
		if p.IsEliminated {
			tags = append(tags, "out")
		} else if p.IsSpectator {
			tags = append(tags, "watching")
		}
		if !p.Connected && !p.IsBot {
			tags = append(tags, "gone")
		}
		label := ""
		if len(tags) > 0 {
			label = " [" + strings.Join(tags, ",") + "]"
		}
		fmt.Fprintf(&b, "%s %-20s cards %-3d score %d%s\n", marker, p.Name, len(p.Hand), p.Score, label)
	}
	if s.Winner != "" {
		if w, _ := s.PlayerByID(s.Winner); w != nil {
			fmt.Fprintf(&b, "winner: %s\n", w.Name)
		}
	}
	if s.Status == models.StatusPlaying || s.Status == models.StatusRoundOver {
		b.WriteString(renderHand(s, me))
	}
	return b.String()
}
