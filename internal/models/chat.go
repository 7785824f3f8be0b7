package models

// ChatMessage is one entry of the session chat log.
type ChatMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"` // unix millis
}

// Reaction is a last-write-wins signal; only the latest one is kept in state.
type Reaction struct {
	PlayerID  string `json:"playerId"`
	Emoji     string `json:"emoji"`
	Timestamp int64  `json:"timestamp"`
}
