package proxy

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mazen160/go-random"
)

const RequestIdHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestId(r *http.Request) string {
	id := r.Header.Get(RequestIdHeader)
	if id != "" {
		return id
	}
	id, err := random.String(12)
	if err != nil {
		slog.Warn("failed to generate request id", "err", err.Error())
		return ""
	}
	return id
}

// logRequests tags every request with an id (reusing the caller's one) and
// logs it once it has been served.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestId(r)
		if id != "" {
			w.Header().Set(RequestIdHeader, id)
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		slog.InfoContext(
			r.Context(), "served request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}
