package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// requestLogger logs one line per request once the response is written
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			slog.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", requestID(r),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// recoverer turns a panic into a generic JSON 500
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("Panic while handling request",
				"path", r.URL.Path,
				"request_id", requestID(r),
				"panic", rec,
				"stack", string(debug.Stack()))
			writeError(w, http.StatusInternalServerError, msgInternal, "")
		}()

		next.ServeHTTP(w, r)
	})
}
