package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// SlowRequestThreshold marks a request as slow in the access log. Uploads
// forwarded to the media host are the usual offenders.
const SlowRequestThreshold = 2 * time.Second

// RequestLogger writes one "http.request" line per request. 5xx responses log
// at error level, 4xx at warn.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger
			if log == nil {
				log = slog.Default()
			}
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes_in", r.ContentLength,
				"bytes_out", ww.BytesWritten(),
				"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
				"request_id", chimiddleware.GetReqID(r.Context()),
				"client_ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}
			if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
				attrs = append(attrs, "route", routeCtx.RoutePattern())
				if id := routeCtx.URLParam("id"); id != "" {
					attrs = append(attrs, "product_id", id)
				}
			}
			if elapsed >= SlowRequestThreshold {
				attrs = append(attrs, "slow", true)
			}

			switch {
			case status >= http.StatusInternalServerError:
				log.ErrorContext(r.Context(), "http.request", attrs...)
			case status >= http.StatusBadRequest:
				log.WarnContext(r.Context(), "http.request", attrs...)
			default:
				log.InfoContext(r.Context(), "http.request", attrs...)
			}
		})
	}
}
