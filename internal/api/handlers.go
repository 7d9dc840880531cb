package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumen-home/lumen-core/internal/lights"
)

// handleHealth returns basic service health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"entries": s.registry.Len(),
	})
}

// handleRegistry returns a snapshot of every registered schedule entry.
func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": s.registry.Dump(),
	})
}

// handleChannels returns the last reported state of each configured channel.
func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": s.controller.Status(),
	})
}

// handleChannelHistory returns recent switch commands for one channel.
//
// Query parameters:
//   - limit: Maximum rows to return (optional)
func (s *Server) handleChannelHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeServiceUnavailable(w, "history not available")
		return
	}

	channel := chi.URLParam(r, "channel")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := s.history.History(r.Context(), channel, limit)
	if err != nil {
		s.logger.Error("history query failed", "channel", channel, "error", err)
		writeInternalError(w, "history query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channel": channel,
		"history": records,
	})
}

// handleSun returns today's sunrise and sunset for the configured location.
func (s *Server) handleSun(w http.ResponseWriter, r *http.Request) {
	if s.solar == nil {
		writeServiceUnavailable(w, "solar times not available")
		return
	}

	snap, err := s.solar.Today(r.Context())
	if err != nil {
		s.logger.Warn("solar lookup failed", "error", err)
		writeServiceUnavailable(w, "solar lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":       snap.Date,
		"sunrise":    snap.Sunrise.Format(time.RFC3339),
		"sunset":     snap.Sunset.Format(time.RFC3339),
		"day_length": snap.DayLength,
	})
}

// switchRequest is the body accepted by the switching endpoints.
// An empty or omitted channel list targets every configured channel.
type switchRequest struct {
	Channels []string `json:"channels"`
}

// handleSwitch returns a handler that switches channels on or off.
func (s *Server) handleSwitch(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req switchRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeBadRequest(w, "invalid JSON body")
				return
			}
		}

		var err error
		if on {
			err = s.controller.On(r.Context(), lights.SourceAPI, req.Channels...)
		} else {
			err = s.controller.Off(r.Context(), lights.SourceAPI, req.Channels...)
		}

		if errors.Is(err, lights.ErrNoChannels) {
			writeNotFound(w, "no matching channels")
			return
		}
		if err != nil {
			s.logger.Error("switch command failed", "on", on, "error", err)
			writeInternalError(w, "switch command failed")
			return
		}

		state := "off"
		if on {
			state = "on"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"state":    state,
			"channels": s.controller.Status(req.Channels...),
		})
	}
}
