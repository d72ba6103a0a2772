package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ggonsajang/comcard/internal/log"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error     string             `json:"error"`
	Message   string             `json:"message"`
	RequestID string             `json:"requestId,omitempty"`
	Details   []validationDetail `json:"details,omitempty"`
	Notices   []string           `json:"notices,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeErrorBody(w, r, status, errorResponse{Error: code, Message: message})
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, body errorResponse) {
	body.RequestID = middleware.GetReqID(r.Context())
	writeJSON(w, status, body)
}

// writeInternal logs err and answers 500 without leaking it.
func writeInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg, log.FieldError, err)
	writeError(w, r, http.StatusInternalServerError, "internal", "처리 중 오류가 발생했습니다.")
}
