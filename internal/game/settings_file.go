package game

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// settingsFile mirrors Settings in HCL form. Unset attributes stay nil.
type settingsFile struct {
	Mode          *string `hcl:"mode,optional"`
	TurnTimerSec  *int    `hcl:"turn_timer_sec,optional"`
	MaxOccupants  *int    `hcl:"max_occupants,optional"`
	HandSize      *int    `hcl:"hand_size,optional"`
	BotDelayMinMs *int    `hcl:"bot_delay_min_ms,optional"`
	BotDelayMaxMs *int    `hcl:"bot_delay_max_ms,optional"`
}

// LoadSettingsFile applies the attributes of an HCL file on top of current:
//
//	mode           = "TOURNAMENT"
//	turn_timer_sec = 45
//
// A missing file returns current unchanged. Values are checked by ParseSettings.
func LoadSettingsFile(filename string, current Settings) (Settings, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return current, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return current, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw settingsFile
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return current, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	changes := make(map[string]interface{})
	if raw.Mode != nil {
		changes["mode"] = *raw.Mode
	}
	setInt := func(key string, v *int) {
		if v != nil {
			changes[key] = *v
		}
	}
	setInt("turnTimerSec", raw.TurnTimerSec)
	setInt("maxOccupants", raw.MaxOccupants)
	setInt("handSize", raw.HandSize)
	setInt("botDelayMinMs", raw.BotDelayMinMs)
	setInt("botDelayMaxMs", raw.BotDelayMaxMs)

	next, err := ParseSettings(changes, current)
	if err != nil {
		return current, fmt.Errorf("%s: %w", filename, err)
	}
	return next, nil
}
