// Package auth gates the REST surface behind static API keys.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"SolAgent-Kit/pkg/logger"
)

// Service validates API keys presented on inbound requests. An empty key
// list disables authentication entirely.
type Service struct {
	keys []string
}

// NewService builds the key validator. Blank entries are dropped.
func NewService(keys []string) *Service {
	cleaned := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key != "" {
			cleaned = append(cleaned, key)
		}
	}
	return &Service{keys: cleaned}
}

// Enabled reports whether any key is configured.
func (s *Service) Enabled() bool {
	return s != nil && len(s.keys) > 0
}

// Authorize checks the presented credential against the configured keys.
func (s *Service) Authorize(presented string) bool {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return false
	}
	for _, key := range s.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			return true
		}
	}
	return false
}

// Middleware wraps next with key validation and request audit logging.
// The key is taken from the Authorization bearer token or the X-API-Key
// header.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		presented := bearerToken(r.Header.Get("Authorization"))
		if presented == "" {
			presented = r.Header.Get("X-API-Key")
		}
		if !s.Authorize(presented) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			logger.Audit().Warn("access_denied",
				"path", r.URL.Path,
				"method", r.Method,
			)
			return
		}

		start := time.Now()
		aw := &auditWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(aw, r)
		logger.Audit().Info("api_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", aw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// auditWriter captures the response status for the audit log.
type auditWriter struct {
	http.ResponseWriter
	status int
}

func (w *auditWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
