package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/flatclass/classroom/pkg/wsrouter"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Route("/room", func(r chi.Router) {
			r.Post("/", c.createRoom)
			r.Route("/{room-id}", func(r chi.Router) {
				r.Post("/join", c.joinRoom)
				r.Group(func(r chi.Router) {
					r.Use(c.authMw)
					r.Get("/", c.getRoomInfo)
					r.Post("/users", c.getRoomUsers)
				})
			})
		})
		r.Get("/ws/room/{room-id}", c.connectRoom)
	})

	return r
}

func (c controller) getWSRouter() *wsrouter.WSRouter {
	r := wsrouter.New()
	r.Use(c.wsRequestIdMw(), c.loggerWSMw())
	r.OnError(c.handleWSError)

	wsrouter.Handle(r, "ALIVE", c.handleAlive)
	wsrouter.Handle(r, "BROADCAST", c.handleBroadcast)
	wsrouter.Handle(r, "PEER", c.handlePeer)

	return r
}
