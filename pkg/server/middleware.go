package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"atelier-hq/vigil/pkg/limits"
)

// ScopeStatus is the rate-limit scope guarding the status endpoints.
const ScopeStatus = "status-api"

// errorResponse is the JSON body for every error the server emits.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Success: false, Message: message})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Recovery converts handler panics into a 500 response. The panic is
// logged with its stack trace; the client sees no internal detail.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Logging records one structured log line per request: method, path,
// status, and latency. Server errors log at error level, client errors
// at warn.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		level := slog.LevelInfo
		if rw.statusCode >= 500 {
			level = slog.LevelError
		} else if rw.statusCode >= 400 {
			level = slog.LevelWarn
		}

		slog.Log(r.Context(), level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// RateLimit checks requests matching the path predicate against the
// limiter under the given scope. Denied requests get a 429 with a
// Retry-After header in whole seconds, rounded up so clients never
// retry early.
//
// The identifier is the X-User-ID header when present, otherwise the
// client IP. Header-based identification trusts the deployment to strip
// the header at the edge; the fallback keeps anonymous clients
// per-address rather than in one shared bucket.
func RateLimit(limiter *limits.Limiter, scope string, match func(path string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if match != nil && !match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			decision := limiter.Check(r.Context(), scope, identify(r))
			if !decision.Allowed {
				retryAfter := int64(decision.RetryAfter.Seconds())
				if decision.RetryAfter > time.Duration(retryAfter)*time.Second {
					retryAfter++
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				writeError(w, http.StatusTooManyRequests, decision.Reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// identify resolves the rate-limit identifier for a request.
func identify(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
