// internal/handlers/room_ws.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/unoparty/internal/middleware"
	"github.com/jason-s-yu/unoparty/internal/transport"
	"github.com/sirupsen/logrus"
)

// RoomWSPrefix is the path peers dial, followed by the room code.
const RoomWSPrefix = "/room/ws/"

// RoomWSHandler upgrades /room/ws/{code} and hands the connection to the
// room's relay. Unknown rooms get a 404 before any upgrade so the dialing
// peer can tell ROOM_NOT_FOUND apart from a dropped connection.
func RoomWSHandler(logger *logrus.Logger, rs *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		rl, ok := rs.relayFor(code)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := transport.Accept(w, r, logger.WithField("room", strings.ToUpper(code)))
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		rl.Attach(conn)

		// The handler owns the hijacked connection until it shuts down.
		select {
		case <-conn.Done():
		case <-r.Context().Done():
			_ = conn.Close()
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
	}
}
