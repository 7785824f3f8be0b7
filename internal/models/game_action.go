package models

// ActionType names an in-round intent a peer can send to the host.
type ActionType string

const (
	ActionPlayCard ActionType = "playCard"
	ActionDrawCard ActionType = "drawCard"
	ActionCallUno  ActionType = "callUno"
	ActionReaction ActionType = "reaction"
	ActionChat     ActionType = "chat"
)

// GameAction captures a player's in-game move. Only the fields relevant to
// Action are read.
type GameAction struct {
	Action    ActionType `json:"action"`
	PlayerID  string     `json:"playerId"`
	CardID    string     `json:"cardId,omitempty"`
	WildColor Color      `json:"wildColor,omitempty"`
	Emoji     string     `json:"emoji,omitempty"`
	Text      string     `json:"text,omitempty"`
}

// ActionRecord is one accepted move as written to the optional action log.
type ActionRecord struct {
	RoomID        string                 `json:"room_id"`
	Round         int                    `json:"round"`
	ActionIndex   int                    `json:"action_index"`
	ActorPlayerID string                 `json:"actor_player_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}
