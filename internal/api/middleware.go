package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/resource-scheduler/internal/observability/metrics"
	"github.com/clinicops/resource-scheduler/internal/tenancy"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDMiddleware adds a unique request ID to each request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs each request with method, path, status, duration,
// request id and clinic id, and feeds the latency histogram.
func LoggingMiddleware(logger zerolog.Logger, m *metrics.SchedulingMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			routePath := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				routePath = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, routePath, strconv.Itoa(wrapped.statusCode), duration.Seconds())

			event := logger.Info()
			if wrapped.statusCode >= http.StatusInternalServerError {
				event = logger.Error()
			}

			clinicID, _ := tenancy.ClinicIDFromContext(r.Context())
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", duration).
				Str("request_id", GetRequestID(r.Context())).
				Str("clinic_id", clinicID.String()).
				Msg("request")
		})
	}
}

// TenancyMiddleware resolves the caller's clinic from the X-Clinic-ID header
// injected by the boundary layer that owns identity, and stores it in
// context. Every downstream query is scoped by it.
func TenancyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Clinic-ID")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "missing_clinic_id", "X-Clinic-ID header is required")
			return
		}

		clinicID, err := uuid.Parse(raw)
		if err != nil || clinicID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "X-Clinic-ID must be a valid UUID")
			return
		}

		next.ServeHTTP(w, r.WithContext(tenancy.WithClinicID(r.Context(), clinicID)))
	})
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
