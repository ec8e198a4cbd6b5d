package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/ztnlabs/nexus/pkg/policy"
	"github.com/ztnlabs/nexus/pkg/telemetry"
)

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// clientIP resolves the caller address, preferring the forwarding header set
// by the fronting proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return fwd
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// recordUsage records one usage log entry per request, after the handler
// chain finishes. Policy short-circuits pass through here too, so every
// exit path of an API route is logged exactly once.
func (s *Server) recordUsage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		entry := telemetry.NewEntry(
			r.URL.Path,
			r.Method,
			r.UserAgent(),
			clientIP(r),
			start,
			time.Since(start),
			rec.status,
		)
		entry.GameID = gameID(r)
		entry.UserID = r.URL.Query().Get("userId")
		s.usage.Record(entry)
	})
}

// requireEnabled short-circuits every API route while the proxy is disabled.
func (s *Server) requireEnabled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.status.Enabled() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":   "Not Found",
				"code":    "ZTN_ERR_CODE_3",
				"message": "Not Found, ZTN ERR CODE 3",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// gameID resolves the game identifier from the dedicated header or the
// query string.
func gameID(r *http.Request) string {
	if id := r.Header.Get("Roblox-Game-Id"); id != "" {
		return id
	}
	return r.URL.Query().Get("gameId")
}

// rejectBlocked short-circuits requests from blocked games or sessions.
func (s *Server) rejectBlocked(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := gameID(r); id != "" && s.blocks.IsBlocked(policy.GameKey(id)) {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error":   "Session Blocked",
				"code":    "ZTN_ERR_CODE_5",
				"message": "This game session has been blocked by an administrator",
			})
			return
		}
		if sid := r.Header.Get("X-Session-Id"); sid != "" && s.blocks.IsBlocked(sid) {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error":   "Session Blocked",
				"code":    "ZTN_ERR_CODE_5",
				"message": "This session has been blocked by an administrator",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
