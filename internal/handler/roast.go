package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/myc-roast/server-go/internal/errors"
	"github.com/myc-roast/server-go/internal/middleware"
	"github.com/myc-roast/server-go/internal/model"
	"github.com/myc-roast/server-go/internal/service"
)

type RoastHandler struct {
	roasts   *service.RoastService
	matching *service.MatchingService
}

func NewRoastHandler(roasts *service.RoastService, matching *service.MatchingService) *RoastHandler {
	return &RoastHandler{roasts: roasts, matching: matching}
}

func (h *RoastHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/requests", h.CreateRequest)
	r.Post("/requests/{meetingID}/accept", h.AcceptRequest)
	r.Post("/requests/{meetingID}/decline", h.DeclineRequest)
	r.Post("/meetings/{meetingID}/complete", h.CompleteMeeting)
	r.Get("/matches", h.Matches)
	r.Get("/priority-queue", h.PriorityQueue)

	return r
}

// POST /api/roasts/requests
func (h *RoastHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req struct {
		ReviewerID string `json:"reviewerId"`
		RoastType  string `json:"roastType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReviewerID == "" {
		writeError(w, apperrors.MissingRequired("reviewerId"))
		return
	}

	meeting, err := h.roasts.CreateRequest(r.Context(), profile.ID, req.ReviewerID, model.RoastType(req.RoastType))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, meeting)
}

// POST /api/roasts/requests/{meetingID}/accept
func (h *RoastHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	meetingID := chi.URLParam(r, "meetingID")
	meeting, err := h.roasts.AcceptRequest(r.Context(), meetingID, profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, meeting)
}

// POST /api/roasts/requests/{meetingID}/decline
func (h *RoastHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	meetingID := chi.URLParam(r, "meetingID")
	if err := h.roasts.DeclineRequest(r.Context(), meetingID, profile.ID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, nil)
}

// POST /api/roasts/meetings/{meetingID}/complete
func (h *RoastHandler) CompleteMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")
	if err := h.roasts.CompleteMeeting(r.Context(), meetingID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, nil)
}

// GET /api/roasts/matches
func (h *RoastHandler) Matches(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	matches, err := h.matching.MatchesForApplicant(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, matches)
}

// GET /api/roasts/priority-queue
func (h *RoastHandler) PriorityQueue(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	queue, err := h.matching.PriorityQueueForRoaster(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, queue)
}
