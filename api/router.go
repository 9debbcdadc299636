package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// DefaultBasePath is the prefix of the voucher and client routes.
const DefaultBasePath = "/api"

// NewRouter builds the HTTP router. Routes are registered on full paths so
// the router can be mounted as-is under a parent mux.
func NewRouter(h *Handler, basePath string) http.Handler {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	basePath = "/" + strings.Trim(basePath, "/")

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(RequestLogger(h.logger))

	r.Get("/index", h.Index)

	r.Route(basePath, func(r chi.Router) {
		r.Post("/voucher", h.IssueVouchers)
		r.Get("/vouchers", h.ListVouchers)

		r.Post("/client", h.CreateClient)
		r.Get("/client", h.GetClient)
		r.Put("/client/{uid}", h.UpdateClient)
		r.Delete("/client/{uid}", h.DeleteClient)
		r.Get("/clients", h.ListClients)
	})

	return r
}
