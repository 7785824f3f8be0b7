// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jason-s-yu/unoparty/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Routes builds the HTTP surface a host exposes to the network.
func Routes(logger *logrus.Logger, rs *RoomServer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(middleware.LogMiddleware(logger))

	r.Get("/rooms", ListRoomsHandler(rs))
	r.Get(RoomWSPrefix+"{code}", RoomWSHandler(logger, rs))
	return r
}
