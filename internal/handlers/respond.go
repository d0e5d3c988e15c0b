package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lojf/pairsurvey/internal/services"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Code: http.StatusOK, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Code: status, Message: message})
}

// fail maps err to a status and writes it. Store and unknown errors are
// logged and reported without their cause.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
	}
	respondError(w, status, msg)
}

func statusFor(err error) (int, string) {
	se, ok := services.AsServiceError(err)
	if !ok {
		return http.StatusInternalServerError, "internal server error"
	}
	switch {
	case errors.Is(se, services.ErrInvalid):
		return http.StatusBadRequest, se.Message
	case errors.Is(se, services.ErrNotFound):
		return http.StatusNotFound, se.Message
	case errors.Is(se, services.ErrSessionFull), errors.Is(se, services.ErrRoleConflict):
		return http.StatusConflict, se.Message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return services.NewInvalidError("invalid request body")
	}
	return nil
}
