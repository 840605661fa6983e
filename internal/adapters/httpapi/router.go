package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/placesapp/places-api/internal/platform/metrics"
)

type RouterOptions struct {
	// AuthMiddleware stores a credential.Verification in request context.
	// When nil, every request is treated as carrying no credential.
	AuthMiddleware func(http.Handler) http.Handler

	// Registry backs /metrics. Metrics must be registered on it.
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Logger *slog.Logger
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: it wires routes and middleware and delegates to the Server's handlers.
func NewRouter(api *Server, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log, opts.Metrics))
	r.Use(middleware.Recoverer)

	// Health and metrics endpoints are used for infra checks; they skip credential handling.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if opts.AuthMiddleware != nil {
			r.Use(opts.AuthMiddleware)
		}

		r.Route("/places", func(r chi.Router) {
			r.Get("/", api.ListPlaces)
			r.Post("/", api.CreatePlace)
			r.Get("/nearby/{lat}/{lon}/{dist}", api.NearbyPlaces)
			r.Get("/{id}", api.GetPlace)
			r.Put("/{id}", api.UpdatePlace)
			r.Delete("/{id}", api.DeletePlace)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", api.ListUsers)
			r.Post("/", api.RegisterUser)
			r.Get("/{id}", api.GetUser)
			r.Put("/{id}", api.UpdateUser)
			r.Delete("/{id}", api.DeleteUser)
		})

		r.Post("/login", api.Login)
	})
	return r
}

// accessLog logs one line per request and records request metrics, keyed by route pattern.
func accessLog(log *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := r.URL.Path
				if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				elapsed := time.Since(start)
				if m != nil {
					m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
					m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
				}
				log.InfoContext(r.Context(), "request",
					"method", r.Method,
					"route", route,
					"status", status,
					"duration", elapsed,
					"requestId", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
