package handlers

import (
	"context"
	"net/http"
	"time"
)

type healthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	st := healthStatus{Status: "UP", Timestamp: h.now().UTC()}
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.log.Error("health check failed", "error", err)
			st.Status = "DOWN"
			writeJSON(w, http.StatusServiceUnavailable, envelope{
				Success: false,
				Code:    http.StatusServiceUnavailable,
				Message: "database unreachable",
				Data:    st,
			})
			return
		}
	}
	respondOK(w, st, "Success")
}
