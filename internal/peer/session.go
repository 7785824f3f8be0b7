package peer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SessionRef is what a peer keeps to rejoin the same seat later.
type SessionRef struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

// SaveRef writes ref to path, creating parent directories as needed.
func SaveRef(path string, ref SessionRef) error {
	data, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session ref: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session ref: %w", err)
	}
	return nil
}

// LoadRef reads a ref saved by SaveRef. A missing file yields a zero ref and
// no error.
func LoadRef(path string) (SessionRef, error) {
	var ref SessionRef
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ref, nil
	}
	if err != nil {
		return ref, fmt.Errorf("read session ref: %w", err)
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return ref, fmt.Errorf("decode session ref: %w", err)
	}
	return ref, nil
}

// ClearRef removes a saved ref; a missing file is not an error.
func ClearRef(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session ref: %w", err)
	}
	return nil
}
