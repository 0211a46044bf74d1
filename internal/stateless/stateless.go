// Package stateless serves the game over plain request/response HTTP. It
// keeps nothing between requests: every call reads the session from the
// shared store, ticks it to the current time, applies the action and
// writes it back.
package stateless

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
	"github.com/derk-ster/StudyHatch-sub000/internal/protocol"
	"github.com/derk-ster/StudyHatch-sub000/internal/session"
	"github.com/derk-ster/StudyHatch-sub000/internal/store"
)

const (
	maxBody = 1 << 20
	qrSize  = 320
)

type Handler struct {
	mgr     *session.Manager
	logger  *slog.Logger
	joinURL string
}

// NewHandler serves mgr. joinURL is the page a scanned join QR code opens.
func NewHandler(mgr *session.Manager, logger *slog.Logger, joinURL string) *Handler {
	return &Handler{mgr: mgr, logger: logger, joinURL: joinURL}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.post)
	r.Get("/", h.get)
	r.Get("/qr", h.qr)
	return r
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var env protocol.Envelope
	if err := readJSON(r, &env); err != nil {
		h.fail(w, r, protocol.ErrInvalid)
		return
	}
	msg, err := protocol.DecodeEnvelope(env)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := protocol.Apply(r.Context(), h.mgr, msg, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Reply(h.mgr.Now()))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	code, ok := h.code(w, r)
	if !ok {
		return
	}
	s, err := h.mgr.State(r.Context(), code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.State(protocol.View(s, h.mgr.Now())))
}

func (h *Handler) qr(w http.ResponseWriter, r *http.Request) {
	code, ok := h.code(w, r)
	if !ok {
		return
	}
	if _, err := h.mgr.State(r.Context(), code); err != nil {
		h.fail(w, r, err)
		return
	}

	link := h.joinURL + "?code=" + url.QueryEscape(code)
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// code reads the join code query parameter. A missing code is a bad
// request; one that could never have been issued is an unknown session.
func (h *Handler) code(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := protocol.NormalizeCode(r.URL.Query().Get("code"))
	switch {
	case code == "":
		writeJSON(w, http.StatusBadRequest, protocol.Error("a join code is required"))
		return "", false
	case !game.ValidCode(code):
		h.fail(w, r, store.ErrNotFound)
		return "", false
	}
	return code, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("game request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, protocol.Error(protocol.Describe(err)))
}

func statusFor(err error) int {
	var ve session.ValidationError
	switch {
	case errors.Is(err, protocol.ErrInvalid), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
