package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the HTTP routing table.
//
// All routes are versioned under /api/v1. Read endpoints are open;
// switching commands require a valid JWT.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/registry", s.handleRegistry)
		r.Get("/channels", s.handleChannels)
		r.Get("/channels/{channel}/history", s.handleChannelHistory)
		r.Get("/sun", s.handleSun)
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/channels/on", s.handleSwitch(true))
			r.Post("/channels/off", s.handleSwitch(false))
		})
	})

	return r
}
