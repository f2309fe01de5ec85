package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/gorilla/mux"
)

const requestIDHeader = "X-Request-ID"

// Authenticator is implemented by *auth.Gate.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.Account, error)
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RecoveryMiddleware turns a handler panic into a 500 response.
func RecoveryMiddleware(l logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					l.Error(r.Context(), "panic in handler", "panic", p, "path", r.URL.Path)
					writeError(w, http.StatusInternalServerError, msgInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware tags the request with an id and logs its outcome.
func LoggingMiddleware(l logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id, _ = common.MakeRandHexString(8)
			}
			w.Header().Set(requestIDHeader, id)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			l.Info(r.Context(), "http request",
				"request_id", id,
				"method", r.Method,
				"route", routeTemplate(r),
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := m.TrackInFlight()
			defer done()

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			m.ObserveHTTP(r.Method, routeTemplate(r), rec.status, time.Since(start))
		})
	}
}

// AuthMiddleware rejects requests without a valid bearer token and attaches
// the resolved student to the request context.
func AuthMiddleware(gate Authenticator, l logging.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			student, err := gate.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				status, msg, outcome := classifyAuthError(err)
				m.ObserveTokenVerification(outcome)
				if status == http.StatusInternalServerError {
					l.Error(r.Context(), "token verification failed", "error", err)
				} else {
					l.Debug(r.Context(), "request rejected", "reason", outcome)
				}
				writeError(w, status, msg)
				return
			}

			m.ObserveTokenVerification(metrics.OutcomeSuccess)
			next.ServeHTTP(w, r.WithContext(auth.WithStudent(r.Context(), student)))
		})
	}
}

func classifyAuthError(err error) (status int, msg, outcome string) {
	switch {
	case errors.Is(err, common.ErrAuthRequired):
		return http.StatusUnauthorized, msgAuthRequired, metrics.OutcomeMissing
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgTokenExpired, metrics.OutcomeExpired
	case errors.Is(err, common.ErrTokenSubjectNotFound):
		return http.StatusUnauthorized, msgInvalidToken, metrics.OutcomeUnknown
	case errors.Is(err, common.ErrTokenMalformed):
		return http.StatusUnauthorized, msgInvalidToken, metrics.OutcomeMalformed
	default:
		return http.StatusInternalServerError, msgAuthInternal, metrics.OutcomeError
	}
}
