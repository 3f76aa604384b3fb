// Package simserver serves the GHG simulation over HTTP.
package simserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tatianab/ghg-game/internal/logger"
	"github.com/tatianab/ghg-game/internal/simulator"
)

// RoutePrefix is where the simulation routes are mounted.
const RoutePrefix = "/ghg"

type Server struct {
	httpServer *http.Server
}

// NewRouter builds the HTTP handler for the simulator.
func NewRouter(registry *simulator.Registry) http.Handler {
	h := &handlers{registry: registry, validate: newValidator()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route(RoutePrefix, func(r chi.Router) {
		r.Get("/initial", h.initial)
		r.Post("/input", h.input)
		r.Get("/output", h.output)
	})
	return r
}

// NewServer creates a new Server listening on port.
func NewServer(port int, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Round submissions may wait on the storyteller.
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("simulator listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// loggingMiddleware attaches the session id to the request context and logs each request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logger.WithSessionID(r.Context(), sessionID(r))
		rw := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(rw, r.WithContext(ctx))

		logger.FromContext(ctx).Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.Status(),
			"duration", time.Since(start),
		)
	})
}
