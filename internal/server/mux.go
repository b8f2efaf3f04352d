// internal/server/mux.go
// Package server implements the localhost HTTP facade the presentation
// layer talks to. It exposes the on-device library, the publish and
// duplicate-then-edit flows, and the remote feed and comment threads, with
// correlation IDs, request logging, and metrics on every route.
//
// Screen-level orchestration lives here: storage and network helpers below
// this layer convert failures to sentinels or typed errors, and this is the
// only layer that shapes them into user-facing responses.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/glimpselabs/glimpse-client-go/internal/api"
	"github.com/glimpselabs/glimpse-client-go/internal/comments"
	"github.com/glimpselabs/glimpse-client-go/internal/config"
	errordefs "github.com/glimpselabs/glimpse-client-go/internal/errors"
	"github.com/glimpselabs/glimpse-client-go/internal/event"
	"github.com/glimpselabs/glimpse-client-go/internal/library"
	"github.com/glimpselabs/glimpse-client-go/internal/metrics"
	"github.com/glimpselabs/glimpse-client-go/internal/model"
	"github.com/glimpselabs/glimpse-client-go/internal/publish"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ContextKey is used for context values to avoid collisions
// when storing values in request context
type ContextKey string

const (
	// ContextKeyCorrelationID stores the unique ID for request tracking
	ContextKeyCorrelationID ContextKey = "correlationId"

	// Default limits for feed and comment listing
	DefaultListLimit = 25
	MaxListLimit     = 100
)

// Backend is the slice of the remote API the facade consumes. The concrete
// implementation is *api.Client; tests substitute a stub.
type Backend interface {
	ListMedia(ctx context.Context, skip, limit int) ([]model.MediaPost, error)
	DeleteMedia(ctx context.Context, mediaID int64) error
	LikeMedia(ctx context.Context, mediaID int64, userName string) error
	UnlikeMedia(ctx context.Context, mediaID int64, userName string) error
	CreateComment(ctx context.Context, mediaID int64, req model.CreateCommentRequest) (*model.Comment, error)
	ListComments(ctx context.Context, mediaID int64, skip, limit int) ([]model.Comment, error)
	UpdateComment(ctx context.Context, commentID int64, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, commentID int64) error
	LikeComment(ctx context.Context, commentID int64, userName string) error
	UnlikeComment(ctx context.Context, commentID int64, userName string) error
}

var _ Backend = (*api.Client)(nil)

// Mux handles HTTP requests for the Glimpse facade.
type Mux struct {
	mux       *http.ServeMux      // HTTP request multiplexer
	store     *library.Store      // Sidecar metadata store
	publisher *publish.Publisher  // Publish / duplicate orchestration
	backend   Backend             // Remote backend client
	assembler *comments.Assembler // Comment thread assembler
	events    event.Publisher     // Library event publisher
	metrics   *metrics.Metrics    // Metrics for monitoring
	userName  string              // Viewer identity for likes and comments

	// Content limits
	maxCaptionLength int
	maxCommentLength int

	// CORS configuration (empty means deny all)
	corsAllowedOrigins []string
}

// NewMux creates the facade mux with all endpoints registered.
// Parameters:
//   - cfg: Loaded configuration (limits, user name, CORS)
//   - store: Sidecar metadata store
//   - publisher: Publish / duplicate orchestration
//   - backend: Remote backend client
//   - events: Library event publisher
func NewMux(cfg config.Config, store *library.Store, publisher *publish.Publisher, backend Backend, events event.Publisher) *http.ServeMux {
	m := &Mux{
		mux:                http.NewServeMux(),
		store:              store,
		publisher:          publisher,
		backend:            backend,
		assembler:          comments.NewAssembler(slog.Default()),
		events:             events,
		metrics:            metrics.NewMetrics(),
		userName:           cfg.UserName,
		maxCaptionLength:   cfg.MaxCaptionLength,
		maxCommentLength:   cfg.MaxCommentLength,
		corsAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	// Health and metrics endpoints
	m.mux.HandleFunc("/healthz", m.handleHealthz)
	m.mux.HandleFunc("/readyz", m.handleReadyz)
	m.mux.Handle("/metrics", promhttp.Handler())

	// Library endpoints
	m.mux.HandleFunc("/v1/library", m.method("GET", m.withMiddleware(m.handleListArea)))
	m.mux.HandleFunc("/v1/library/meta", m.withMiddleware(m.handleMeta))
	m.mux.HandleFunc("/v1/library/asset", m.method("DELETE", m.withMiddleware(m.handleDeleteAsset)))
	m.mux.HandleFunc("/v1/library/duplicate", m.method("POST", m.withMiddleware(m.handleDuplicate)))
	m.mux.HandleFunc("/v1/library/publish", m.method("POST", m.withMiddleware(m.handlePublish)))

	// Editor support endpoints
	m.mux.HandleFunc("/v1/filters", m.method("GET", m.withMiddleware(m.handleFilters)))

	// Remote feed and comment endpoints
	m.mux.HandleFunc("/v1/feed", m.method("GET", m.withMiddleware(m.handleFeed)))
	m.mux.HandleFunc("/v1/feed/", m.withMiddleware(m.handleFeedItem))
	m.mux.HandleFunc("/v1/media/", m.withMiddleware(m.handleMediaComments))
	m.mux.HandleFunc("/v1/comments/", m.withMiddleware(m.handleComment))

	return m.mux
}

// method ensures the HTTP method matches the expected method
func (m *Mux) method(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			err := errordefs.New(errordefs.GLIMPSE_BAD_REQUEST, "method not allowed", "")
			m.writeErrorDef(w, err)
			return
		}
		h(w, r)
	}
}

// withMiddleware applies common middleware to handlers
func (m *Mux) withMiddleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Handle CORS preflight requests
		if r.Method == "OPTIONS" {
			if origin := r.Header.Get("Origin"); origin != "" && m.originAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-Id")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		// Set CORS headers for regular requests
		if origin := r.Header.Get("Origin"); origin != "" && m.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		// Add correlation ID if not present
		correlationID := r.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		r = r.WithContext(context.WithValue(r.Context(), ContextKeyCorrelationID, correlationID))
		w.Header().Set("X-Correlation-Id", correlationID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		duration := time.Since(start)
		statusLabel := strconv.Itoa(rec.status)
		m.metrics.HTTPRequestTotal.WithLabelValues(r.Method, r.URL.Path, statusLabel).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path, statusLabel).Observe(duration.Seconds())
		m.logRequest(r, rec.status, duration, correlationID)
	}
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// originAllowed reports whether a CORS origin is in the allow list.
func (m *Mux) originAllowed(origin string) bool {
	for _, allowed := range m.corsAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// correlationID extracts the request's correlation ID from context.
func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return id
	}
	return ""
}

// writeSuccess writes a successful response
func (m *Mux) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"data": data,
	}
	_ = json.NewEncoder(w).Encode(response)
}

// writeError writes an error response following the facade error taxonomy
func (m *Mux) writeError(w http.ResponseWriter, statusCode int, code, message, corrID string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":          code,
			"message":       message,
			"correlationId": corrID,
		},
	}

	if details != nil {
		response["error"].(map[string]interface{})["details"] = details
	}

	_ = json.NewEncoder(w).Encode(response)
}

// writeErrorDef writes an error response using the error definitions package
func (m *Mux) writeErrorDef(w http.ResponseWriter, err *errordefs.Error) {
	m.writeError(w, err.HTTPStatus, string(err.Code), err.Message, err.CorrelationID, err.Details)
}

// logRequest logs request details
func (m *Mux) logRequest(r *http.Request, status int, duration time.Duration, corrID string) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("remote_addr", r.RemoteAddr),
	}

	if corrID != "" {
		attrs = append(attrs, slog.String("correlation_id", corrID))
	}

	level := slog.LevelInfo
	msg := "request completed"
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
		msg = "request completed with error"
	}
	slog.LogAttrs(r.Context(), level, msg, attrs...)
}

// handleHealthz handles liveness health check requests
func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz handles readiness health check requests
func (m *Mux) handleReadyz(w http.ResponseWriter, r *http.Request) {
	// Ready means the library area directories are readable; the remote
	// backend may be unreachable without making the local library unusable.
	if err := m.store.Healthy(); err != nil {
		slog.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// parsePageQuery reads skip/limit query parameters with defaults and caps.
func parsePageQuery(r *http.Request) (skip, limit int) {
	limit = DefaultListLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		if v > 0 && v <= MaxListLimit {
			limit = v
		} else if v > MaxListLimit {
			limit = MaxListLimit
		}
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v > 0 {
		skip = v
	}
	return skip, limit
}

// pathID extracts a numeric identifier from a request path of the form
// prefix/{id} or prefix/{id}/suffix.
func pathID(path, prefix, suffix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.TrimSuffix(rest, suffix)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
