package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/pluginlinks/pkg/app"
	"github.com/platinummonkey/pluginlinks/pkg/httputil"
	"github.com/platinummonkey/pluginlinks/pkg/observability"
)

// Server represents the admin HTTP surface
type Server struct {
	app    *app.App
	router *mux.Router
	logger *observability.Logger
	prefix string
}

// NewServer creates a server for a and registers its routes
func NewServer(a *app.App, logger *observability.Logger) (*Server, error) {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	prefix, err := adminPrefix(a.Config.Admin.BaseURL)
	if err != nil {
		return nil, err
	}

	s := &Server{
		app:    a,
		router: mux.NewRouter(),
		logger: logger,
		prefix: prefix,
	}
	s.setupRoutes()
	return s, nil
}

// adminPrefix is the path of the admin base URL, without a trailing slash
func adminPrefix(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse admin URL: %w", err)
	}
	return strings.TrimSuffix(u.Path, "/"), nil
}

// setupRoutes configures all the admin routes
func (s *Server) setupRoutes() {
	admin := s.router.PathPrefix(s.prefix).Subrouter()
	if s.prefix == "" {
		admin = s.router
	}

	admin.HandleFunc("/plugins.php", s.pluginsPage).Methods(http.MethodGet)
	admin.HandleFunc("/admin.php", s.adminPage).Methods(http.MethodGet)
	admin.HandleFunc("/toolbar", s.toolbar).Methods(http.MethodGet)
	admin.HandleFunc("/menu", s.menu).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, "no admin page at "+r.URL.Path)
	})
}

// ServeHTTP implements http.Handler without the middleware stack
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the router wrapped in tracing, request ids, logging,
// panic recovery and request metrics.
func (s *Server) Handler() http.Handler {
	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
		observability.HTTPMetricsMiddleware(s.app.Metrics),
	)
	return otelhttp.NewHandler(chain(s.router), "pluginlinks")
}
