package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

// JoinQR serves a PNG QR code of a join code so the second participant can
// scan it instead of typing.
func (h *Handlers) JoinQR(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	if code == "" {
		http.NotFound(w, r)
		return
	}
	// only codes of live sessions
	if _, err := h.survey.LookupJoinCode(r.Context(), code); err != nil {
		h.fail(w, r, err)
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
