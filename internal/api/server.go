// Package api serves the metrics pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
	"github.com/sells-group/pubmetrics/internal/report"
)

const defaultMaxUpload = 32 << 20

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	source         metrics.MetadataSource
	policy         *metrics.Policy
	window         model.DateWindow
	allowedOrigins []string
	maxUpload      int64
}

// Option configures a Server.
type Option func(*Server)

// WithPolicy sets the rank and peer-review policy.
func WithPolicy(p *metrics.Policy) Option {
	return func(s *Server) { s.policy = p }
}

// WithDefaultWindow sets the window used when a request omits start or end.
func WithDefaultWindow(w model.DateWindow) Option {
	return func(s *Server) { s.window = w }
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithMaxUpload caps the multipart body size in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// NewServer creates a Server that fetches metadata from source.
func NewServer(source metrics.MetadataSource, opts ...Option) *Server {
	s := &Server{
		source:         source,
		policy:         metrics.DefaultPolicy(),
		window:         model.AcademicYear(2024),
		allowedOrigins: []string{"*"},
		maxUpload:      defaultMaxUpload,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/metrics", s.computeMetrics)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// ErrorResponse is the error body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Code: http.StatusText(status), Message: err.Error()})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, metrics.ErrInvalidWindow),
		errors.Is(err, metrics.ErrNoIdentifiers),
		errors.Is(err, report.ErrMissingColumn),
		errors.Is(err, report.ErrNoRows):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
