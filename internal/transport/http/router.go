package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caseflow/pkg/platform/middleware/auth"
	"caseflow/pkg/platform/middleware/metadata"
	"caseflow/pkg/platform/middleware/requestid"
	"caseflow/pkg/platform/middleware/requesttime"
)

// NewRouter assembles the HTTP surface. Command and query routes require a
// channel credential; health and metrics stay open for the platform probes.
// A nil verifier disables authentication, for tests and local development.
func NewRouter(h *Handler, verifier *auth.Verifier, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestid.Middleware)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if verifier != nil {
			r.Use(auth.RequireChannel(verifier, logger))
		}
		h.Register(r)
	})

	return r
}
