package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/placesapp/places-api/internal/app/ownership"
)

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	er := errorResponse{Error: errorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: middleware.GetReqID(r.Context()),
	}}
	writeJSON(w, status, er)
}

// writeAppError renders application errors with their own status. Causes are logged, never rendered.
func writeAppError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if oe, ok := ownership.AsError(err); ok {
		writeError(w, r, oe.Status, oe.Code, oe.Message, oe.Details)
		return
	}
	log.ErrorContext(r.Context(), "unhandled error", "error", err, "requestId", middleware.GetReqID(r.Context()))
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
