package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"memberadmin/internal/adapters/http/perf"
)

// DefaultSlowRequest is the default threshold for slow request warnings.
const DefaultSlowRequest = 200 * time.Millisecond

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds a client-supplied request ID before it reaches the logs.
const maxRequestIDLen = 64

// statusRecorder remembers the first status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

// WriteHeader records code unless a status was already sent.
func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wrote {
		rec.status = code
		rec.wrote = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

// Write marks the implicit 200 as sent.
func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wrote = true
	return rec.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

var recorderPool = sync.Pool{
	New: func() any { return &statusRecorder{} },
}

// requestID reuses a sane client-supplied ID, otherwise mints one.
func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" && len(id) <= maxRequestIDLen && !strings.ContainsAny(id, " \t\r\n") {
		return id
	}
	return uuid.NewString()
}

// Timing returns middleware that tags each request with an ID and logs its duration.
// Requests under /static/ pass straight through.
// Requests at or above slow log at WARN, the rest at DEBUG; a slow <= 0 uses DefaultSlowRequest.
// When collector is non-nil every request is also recorded for /debug/perf.
func Timing(collector *perf.Collector, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			id := requestID(r)
			w.Header().Set(RequestIDHeader, id)

			rec := recorderPool.Get().(*statusRecorder)
			rec.ResponseWriter, rec.status, rec.wrote = w, http.StatusOK, false
			defer func() {
				elapsed := time.Since(start)
				level := slog.LevelDebug
				event := "request"
				if elapsed >= slow {
					level, event = slog.LevelWarn, "slow_request"
				}
				slog.Log(r.Context(), level, event,
					"request_id", id,
					"method", r.Method,
					"path", path,
					"status", rec.status,
					"duration_ms", float64(elapsed.Microseconds())/1000.0,
				)

				if collector != nil {
					collector.Record(perf.Entry{
						Kind:     perf.KindRequest,
						Label:    r.Method + " " + path,
						Status:   rec.status,
						Failed:   rec.status >= http.StatusInternalServerError,
						Duration: elapsed,
						At:       start,
					})
				}

				rec.ResponseWriter = nil
				recorderPool.Put(rec)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
