package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/banshee-data/occupancy.report/internal/monitoring"
)

// ANSI escape codes used by the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

func statusCodeColor(statusCode int) string {
	code := strconv.Itoa(statusCode)
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + code + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + code + colorReset
	case statusCode >= 400:
		return colorBoldRed + code + colorReset
	default:
		return code
	}
}

// LoggingMiddleware logs one line per request: status, request ID (when
// middleware.RequestID ran first), method, URI, response size and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		reqID := middleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = "-"
		}
		monitoring.Logf(
			"[%s] %s %s %s%s%s %dB %.3fms",
			statusCodeColor(status), reqID, r.Method,
			colorCyan, r.RequestURI, colorReset,
			ww.BytesWritten(),
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}
