package server

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const apiKeyHeader = "X-API-Key"

// requireAPIKey enforces the shared-secret check on mutating routes.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(apiKeyHeader) != s.cfg.APIKey {
			s.writeError(w, http.StatusUnauthorized, "Invalid or missing API Key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recovery converts handler panics into 500 responses.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", p)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogging logs each request with a generated id and its duration.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Info("request handled",
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"client", clientIP(r),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		s.metrics.RecordHistogram("http.request_duration_seconds",
			time.Since(started).Seconds(),
			map[string]string{"method": r.Method, "path": r.URL.Path})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// clientIP returns the requester's address, honoring the first entry of
// X-Forwarded-For when a proxy sits in front.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
