package handler

import (
	"net/http"

	"github.com/myc-roast/server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// successResponse is the uniform success envelope.
type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data})
}
