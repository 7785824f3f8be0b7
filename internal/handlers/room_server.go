// internal/handlers/room_server.go
package handlers

import (
	"sync"

	"github.com/jason-s-yu/unoparty/internal/game"
	"github.com/jason-s-yu/unoparty/internal/relay"
	"github.com/sirupsen/logrus"
)

// RoomServer holds the sessions this process hosts and the relay serving
// each of them to remote peers.
type RoomServer struct {
	Store *game.Store
	log   *logrus.Logger

	mu     sync.Mutex
	relays map[string]*relay.Relay
}

func NewRoomServer(logger *logrus.Logger) *RoomServer {
	return &RoomServer{
		Store:  game.NewStore(),
		log:    logger,
		relays: make(map[string]*relay.Relay),
	}
}

// Open publishes h to the network. The room is withdrawn once h closes.
func (rs *RoomServer) Open(h *game.Host) *relay.Relay {
	code := h.RoomID()
	rl := relay.New(h, rs.log.WithField("room", code))

	rs.mu.Lock()
	rs.relays[code] = rl
	rs.mu.Unlock()
	rs.Store.Add(h)

	go func() {
		<-h.Done()
		rs.mu.Lock()
		if rs.relays[code] == rl {
			delete(rs.relays, code)
		}
		rs.mu.Unlock()
		rs.log.WithField("room", code).Info("room closed")
	}()
	return rl
}

// relayFor finds the relay for a room code, matched case-insensitively.
func (rs *RoomServer) relayFor(code string) (*relay.Relay, bool) {
	code, ok := game.NormalizeRoomCode(code)
	if !ok {
		return nil, false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rl, ok := rs.relays[code]
	return rl, ok
}
