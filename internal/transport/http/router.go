// Package httptransport exposes the offline layer over HTTP: diagnostics and
// control endpoints plus a caching reverse proxy to the remote API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	nethttputil "net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bloodbridge/internal/platform/middleware"
	"bloodbridge/pkg/platform/httputil"
)

// RouterConfig collects what NewRouter mounts. Everything but Logger is optional.
type RouterConfig struct {
	Handler     *Handler
	Proxy       http.Handler
	Metrics     http.Handler
	HTTPMetrics *middleware.HTTPMetrics
	// Checks back /readyz, keyed by dependency name.
	Checks map[string]func(context.Context) error
	Logger *slog.Logger
}

// NewRouter wires all public endpoints behind the shared middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(cfg.Checks, logger))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		if cfg.Handler != nil {
			cfg.Handler.Register(r)
		}
	})

	if cfg.Proxy != nil {
		r.Handle("/proxy/*", http.StripPrefix("/proxy", cfg.Proxy))
	}
	return r
}

// NewProxy forwards requests to target through transport. With the
// interceptor as transport, offline callers get cached or synthetic responses
// instead of proxy errors.
func NewProxy(target *url.URL, transport http.RoundTripper, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &nethttputil.ReverseProxy{
		Rewrite: func(pr *nethttputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WarnContext(r.Context(), "proxy request failed",
				"path", r.URL.Path,
				"request_id", chimw.GetReqID(r.Context()),
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
		},
	}
}

func readiness(checks map[string]func(context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		out := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
				out[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			out[name] = "ok"
		}
		httputil.WriteJSON(w, status, out)
	}
}
