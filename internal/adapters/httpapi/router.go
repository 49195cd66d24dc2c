package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mergington/activities-api/internal/platform/metrics"
)

type RouterOptions struct {
	// Logger receives one line per request. Nil disables request logging.
	Logger *zap.Logger
	// Metrics records request counters and serves /metrics. Nil disables both.
	Metrics *metrics.Metrics
}

// NewRouter constructs the API HTTP router with default options.
func NewRouter(api *Server) http.Handler {
	return NewRouterWithOptions(api, RouterOptions{})
}

// NewRouterWithOptions constructs the API HTTP router.
func NewRouterWithOptions(api *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.Logger != nil {
		r.Use(requestLogger(opts.Logger))
	}
	if opts.Metrics != nil {
		r.Use(requestMetrics(opts.Metrics))
	}
	r.Use(middleware.Recoverer)

	// Health endpoint for infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/static/index.html", http.StatusTemporaryRedirect)
	})
	r.Get("/static/*", serveStatic)

	r.Get("/activities", api.ListActivities)
	r.Post("/activities/{activityName}/signup", api.SignupForActivity)
	r.Delete("/activities/{activityName}/unregister", api.UnregisterFromActivity)

	return r
}
