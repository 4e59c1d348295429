package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/myc-roast/server-go/internal/errors"
	"github.com/myc-roast/server-go/internal/middleware"
	"github.com/myc-roast/server-go/internal/service"
)

type LiveSessionHandler struct {
	sessions *service.LiveSessionService
}

func NewLiveSessionHandler(sessions *service.LiveSessionService) *LiveSessionHandler {
	return &LiveSessionHandler{sessions: sessions}
}

func (h *LiveSessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/go-live", h.GoLive)
	r.Post("/end", h.EndSession)
	r.Get("/current", h.GetCurrent)
	r.Get("/active", h.GetActive)
	r.Get("/{sessionID}/queue", h.GetQueue)

	return r
}

// POST /api/live-sessions/go-live
func (h *LiveSessionHandler) GoLive(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req struct {
		DurationMinutes int `json:"durationMinutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	session, err := h.sessions.GoLive(r.Context(), profile.ID, req.DurationMinutes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, session)
}

// POST /api/live-sessions/end
func (h *LiveSessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, apperrors.MissingRequired("sessionId"))
		return
	}

	if err := h.sessions.EndSession(r.Context(), req.SessionID, profile.ID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, nil)
}

// GET /api/live-sessions/current
func (h *LiveSessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	session, err := h.sessions.GetCurrentSession(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, session)
}

// GET /api/live-sessions/active
func (h *LiveSessionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	views, err := h.sessions.GetActiveRoasters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, views)
}

// GET /api/live-sessions/{sessionID}/queue
func (h *LiveSessionHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, apperrors.MissingRequired("sessionID"))
		return
	}

	entries, err := h.sessions.GetSessionQueue(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, entries)
}
