// Package api exposes the promo engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/xraph/go-utils/errs"

	"github.com/xraph/promo"
	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/voucher"
)

// Handler serves the voucher and client routes.
type Handler struct {
	engine   *promo.Promo
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a Handler for engine.
func NewHandler(engine *promo.Promo, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:   engine,
		validate: newValidator(),
		logger:   logger,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, herr errs.HTTPError) {
	if herr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
			"error", herr,
		)
	}
	writeJSON(w, herr.StatusCode(), herr.ResponseBody())
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) errs.HTTPError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return decodeFailure(err)
	}
	return h.check(dst)
}

func (h *Handler) check(v any) errs.HTTPError {
	if err := h.validate.Struct(v); err != nil {
		return firstFailure(err)
	}
	return nil
}

// --- Routes ---

// Index handles GET /index.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "welcome")
}

// IssueVouchers handles POST /voucher.
func (h *Handler) IssueVouchers(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if herr := h.decode(r, &req); herr != nil {
		h.writeError(w, r, herr)
		return
	}

	if _, err := h.engine.IssueVouchers(r.Context(), req.EventID, req.inputs()); err != nil {
		h.writeError(w, r, issueError(err))
		return
	}
	writeJSON(w, http.StatusOK, MsgOK)
}

// ListVouchers handles GET /vouchers.
func (h *Handler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	vs, err := h.engine.ListVouchers(r.Context(), voucher.ListOpts{})
	if err != nil {
		h.writeError(w, r, errs.InternalError(err))
		return
	}
	if vs == nil {
		vs = []*voucher.Voucher{}
	}
	writeJSON(w, http.StatusOK, vs)
}

// CreateClient handles POST /client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if herr := h.decode(r, &req); herr != nil {
		h.writeError(w, r, herr)
		return
	}

	c, err := h.engine.CreateClient(r.Context(), req.Name, req.Email, req.Address)
	if err != nil {
		h.writeError(w, r, errs.InternalError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateClient handles PUT /client/{uid}.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req updateClientRequest
	if herr := h.decode(r, &req); herr != nil {
		h.writeError(w, r, herr)
		return
	}

	noMatch := errs.NewHTTPError(http.StatusUnprocessableEntity, MsgClientNoUpdate)
	uid, err := id.ParseClientID(chi.URLParam(r, "uid"))
	if err != nil {
		h.writeError(w, r, noMatch)
		return
	}

	modified, err := h.engine.UpdateClientEmail(r.Context(), uid, req.Email)
	switch {
	case errors.Is(err, promo.ErrClientNotFound):
		h.writeError(w, r, noMatch)
		return
	case err != nil:
		h.writeError(w, r, errs.InternalError(err))
		return
	}

	res := UpdateResult{Matched: 1}
	if modified {
		res.Modified = 1
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteClient handles DELETE /client/{uid}. An unknown uid yields null.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	uid, err := id.ParseClientID(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	c, err := h.engine.DeleteClient(r.Context(), uid)
	switch {
	case errors.Is(err, promo.ErrClientNotFound):
		writeJSON(w, http.StatusOK, nil)
	case err != nil:
		h.writeError(w, r, errs.InternalError(err))
	default:
		writeJSON(w, http.StatusOK, c)
	}
}

// ListClients handles GET /clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	cs, err := h.engine.ListClients(r.Context(), client.ListOpts{})
	if err != nil {
		h.writeError(w, r, errs.InternalError(err))
		return
	}
	if cs == nil {
		cs = []*client.Client{}
	}
	writeJSON(w, http.StatusOK, cs)
}

// GetClient handles GET /client?uid=.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	q := clientQuery{UID: r.URL.Query().Get("uid")}
	if herr := h.check(&q); herr != nil {
		h.writeError(w, r, herr)
		return
	}

	notFound := errs.BadRequest(MsgClientNotFound)
	uid, err := id.ParseClientID(q.UID)
	if err != nil {
		h.writeError(w, r, notFound)
		return
	}

	c, err := h.engine.GetClient(r.Context(), uid)
	switch {
	case errors.Is(err, promo.ErrClientNotFound):
		h.writeError(w, r, notFound)
	case err != nil:
		h.writeError(w, r, errs.InternalError(err))
	default:
		writeJSON(w, http.StatusOK, c)
	}
}
