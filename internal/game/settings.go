package game

import (
	"fmt"

	"github.com/jason-s-yu/unoparty/internal/models"
)

// Settings are the tunables of a session. They can be changed in the lobby.
type Settings struct {
	Mode          models.Mode `json:"mode"`          // QUICK or TOURNAMENT
	TurnTimerSec  int         `json:"turnTimerSec"`  // seconds a player has to act; default is 30
	MaxOccupants  int         `json:"maxOccupants"`  // roster cap including spectators
	HandSize      int         `json:"handSize"`      // cards dealt per active player at round start
	BotDelayMinMs int         `json:"botDelayMinMs"` // lower bound of the bot think time
	BotDelayMaxMs int         `json:"botDelayMaxMs"` // upper bound of the bot think time
}

// DefaultSettings returns the settings a new session starts with.
func DefaultSettings() Settings {
	return Settings{
		Mode:          models.ModeQuick,
		TurnTimerSec:  30,
		MaxOccupants:  15,
		HandSize:      7,
		BotDelayMinMs: 1500,
		BotDelayMaxMs: 3000,
	}
}

// Update applies the keys present in newSettings. Missing keys keep their old
// value. On error the receiver may be partially updated; use ParseSettings for
// an all-or-nothing change.
func (s *Settings) Update(newSettings map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := newSettings[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64:
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	if val, exists := newSettings["mode"]; exists && val != nil {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("invalid type for mode")
		}
		m := models.Mode(str)
		if !m.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidMode, str)
		}
		s.Mode = m
	}
	if err := assignInt(&s.TurnTimerSec, "turnTimerSec", 5, 300); err != nil {
		return err
	}
	if err := assignInt(&s.MaxOccupants, "maxOccupants", 2, 15); err != nil {
		return err
	}
	if err := assignInt(&s.HandSize, "handSize", 1, 10); err != nil {
		return err
	}
	if err := assignInt(&s.BotDelayMinMs, "botDelayMinMs", 0, 60000); err != nil {
		return err
	}
	if err := assignInt(&s.BotDelayMaxMs, "botDelayMaxMs", 0, 60000); err != nil {
		return err
	}
	if s.BotDelayMaxMs < s.BotDelayMinMs {
		return fmt.Errorf("botDelayMaxMs must not be below botDelayMinMs")
	}
	return nil
}

// ParseSettings applies newSettings on top of current and returns the result.
// current is left untouched.
func ParseSettings(newSettings map[string]interface{}, current Settings) (Settings, error) {
	next := current
	if err := next.Update(newSettings); err != nil {
		return current, err
	}
	return next, nil
}
