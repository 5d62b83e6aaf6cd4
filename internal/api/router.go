package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers every endpoint on a chi router.
func NewRouter(h *HandlerProvider) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/issuances", h.IssueHandler)
	r.Post("/renewals", h.RenewHandler)
	r.Post("/packages/import", h.ImportHandler)

	return r
}
