package game

import (
	"math/rand/v2"
	"strings"
)

const (
	roomCodeLen      = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewRoomCode returns a random 6-character upper-case alphanumeric code.
func NewRoomCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(roomCodeLen)
	for i := 0; i < roomCodeLen; i++ {
		b.WriteByte(roomCodeAlphabet[rng.IntN(len(roomCodeAlphabet))])
	}
	return b.String()
}

// NormalizeRoomCode upper-cases a user-entered code and reports whether it is
// well formed.
func NormalizeRoomCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != roomCodeLen {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(roomCodeAlphabet, code[i]) < 0 {
			return "", false
		}
	}
	return code, true
}
