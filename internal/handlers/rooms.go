// internal/handlers/rooms.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jason-s-yu/unoparty/internal/models"
)

// RoomSummary is the public listing entry for one hosted room.
type RoomSummary struct {
	RoomID    string        `json:"roomId"`
	Status    models.Status `json:"status"`
	Mode      models.Mode   `json:"mode"`
	Round     int           `json:"round"`
	Players   int           `json:"players"`
	Occupancy int           `json:"maxOccupants"`
}

// ListRoomsHandler reports every open room on this process as JSON.
func ListRoomsHandler(rs *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		out := make([]RoomSummary, 0)
		for _, code := range rs.Store.Codes() {
			h, ok := rs.Store.Get(code)
			if !ok {
				continue
			}
			s, err := h.Snapshot(ctx)
			if err != nil {
				continue // closed while listing
			}
			settings, err := h.Settings(ctx)
			if err != nil {
				continue
			}
			out = append(out, RoomSummary{
				RoomID:    s.RoomID,
				Status:    s.Status,
				Mode:      s.Mode,
				Round:     s.Round,
				Players:   len(s.Players),
				Occupancy: settings.MaxOccupants,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
