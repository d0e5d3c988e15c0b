package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/pairsurvey/internal/services"
)

type joinRequest struct {
	JoinCode string `json:"joinCode"`
	services.ParticipantInput
}

// POST /api/survey-sessions/initiate
func (h *Handlers) Initiate(w http.ResponseWriter, r *http.Request) {
	var in services.ParticipantInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.survey.Initiate(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, res, "Survey session initiated successfully.")
}

// POST /api/survey-sessions/join
func (h *Handlers) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.survey.Join(r.Context(), req.JoinCode, req.ParticipantInput)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, res, "Successfully joined the survey session.")
}

// POST /api/survey-sessions/{sessionId}/participants/{participantId}/answers
func (h *Handlers) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	answers, err := req.flatten()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	err = h.survey.SubmitAnswers(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "participantId"), answers)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/survey-sessions/{sessionId}/report
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	st, err := h.survey.Report(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := fmt.Sprintf("Report status: %s", st.Status)
	if st.Report != nil {
		msg = "Report successfully retrieved."
	}
	respondOK(w, st, msg)
}
