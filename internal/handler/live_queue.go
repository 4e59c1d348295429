package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/myc-roast/server-go/internal/errors"
	"github.com/myc-roast/server-go/internal/middleware"
	"github.com/myc-roast/server-go/internal/model"
	"github.com/myc-roast/server-go/internal/service"
)

// advanceResponse carries the entry, meeting and meetingLink at the top
// level of the body instead of the data envelope.
type advanceResponse struct {
	Success     bool              `json:"success"`
	Entry       *model.QueueEntry `json:"entry"`
	Meeting     *model.Meeting    `json:"meeting"`
	MeetingLink string            `json:"meetingLink"`
}

type LiveQueueHandler struct {
	queue *service.QueueService
}

func NewLiveQueueHandler(queue *service.QueueService) *LiveQueueHandler {
	return &LiveQueueHandler{queue: queue}
}

func (h *LiveQueueHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/join", h.Join)
	r.Get("/position", h.Position)
	r.Post("/confirm", h.Confirm)
	r.Post("/process-next", h.ProcessNext)
	r.Post("/complete", h.Complete)
	r.Post("/skip", h.Skip)

	return r
}

// POST /api/live-queue/join
func (h *LiveQueueHandler) Join(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.queue.JoinQueue(r.Context(), req.SessionID, profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, result)
}

// GET /api/live-queue/position?sessionId=...
func (h *LiveQueueHandler) Position(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, apperrors.MissingRequired("sessionId"))
		return
	}

	result, err := h.queue.GetQueuePosition(r.Context(), sessionID, profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, result)
}

// POST /api/live-queue/confirm
func (h *LiveQueueHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req struct {
		EntryID string `json:"entryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EntryID == "" {
		writeError(w, apperrors.MissingRequired("entryId"))
		return
	}

	if err := h.queue.ConfirmJoin(r.Context(), req.EntryID, profile.ID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, nil)
}

// POST /api/live-queue/process-next
func (h *LiveQueueHandler) ProcessNext(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.queue.AdvanceQueue(r.Context(), req.SessionID, profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, advanceResponse{
		Success:     true,
		Entry:       result.Entry,
		Meeting:     result.Meeting,
		MeetingLink: result.MeetingLink,
	})
}

// POST /api/live-queue/complete
func (h *LiveQueueHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntryID string `json:"entryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EntryID == "" {
		writeError(w, apperrors.MissingRequired("entryId"))
		return
	}

	if err := h.queue.CompleteEntry(r.Context(), req.EntryID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, nil)
}

// POST /api/live-queue/skip
func (h *LiveQueueHandler) Skip(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfile(r.Context())
	if profile == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req struct {
		EntryID string `json:"entryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EntryID == "" {
		writeError(w, apperrors.MissingRequired("entryId"))
		return
	}

	if err := h.queue.SkipEntry(r.Context(), req.EntryID, profile.ID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, nil)
}

// AutoSkip handles POST and GET /api/live-queue/auto-skip. Some schedulers
// can only issue GETs, so both verbs are accepted. Mounted behind the cron
// auth middleware.
func (h *LiveQueueHandler) AutoSkip(w http.ResponseWriter, r *http.Request) {
	skipped, err := h.queue.AutoSkipExpired(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("auto-skip sweep failed")
		writeError(w, err)
		return
	}

	writeSuccess(w, map[string]int{"skipped": skipped})
}
