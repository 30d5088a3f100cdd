// Package middleware provides HTTP middleware for the import API.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/loadimport/internal/logging"
)

// Logger logs one structured line per request with method, path, status,
// duration_ms, bytes and ip. The request id comes from chi's RequestID
// middleware via logging.FromContext. Server errors log at warn.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.bytes,
			"ip", r.RemoteAddr,
		}
		if owner := r.Header.Get(OwnerHeader); owner != "" {
			args = append(args, "owner_id", owner)
		}

		logger := logging.FromContext(r.Context())
		if ww.status >= http.StatusInternalServerError {
			logger.Warn("request", args...)
			return
		}
		logger.Info("request", args...)
	})
}

// responseWriter captures status and size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
