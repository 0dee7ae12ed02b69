// Package requestlog writes one access log line for each request served.
package requestlog

import (
	"log/slog"
	"net/http"
	"time"

	"lds.li/preflight/slogctx"
)

// loggingResponseWriter wraps the standard http.ResponseWriter to capture status and bytes written.
type loggingResponseWriter struct {
	http.ResponseWriter
	status       int
	bytesWritten int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	if lrw.status == 0 {
		lrw.status = code
	}
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

// RequestLogger logs a "Request Served" line at info level after each
// request. Attributes added to the request context with slogctx.WithAttrs
// by inner handlers are included.
type RequestLogger struct {
	// Logger to write to. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (rl *RequestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, handle := slogctx.WithHandle(r.Context())
		r = r.WithContext(ctx)

		lrw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lrw, r)

		status := lrw.status
		if status == 0 {
			status = http.StatusOK
		}

		l := rl.Logger
		if l == nil {
			l = slog.Default()
		}

		attrs := append(handle.Attrs(),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("request_method", r.Method),
			slog.String("request_url", r.URL.Path),
			slog.String("request_protocol", r.Proto),
			slog.Int("status", status),
			slog.Int("bytes_sent", lrw.bytesWritten),
			slog.String("referer", r.Referer()),
			slog.String("user_agent", r.UserAgent()),
			slog.Duration("duration", time.Since(start)),
		)

		// slogctx.Handler skips keys already on the record, so the handle's
		// attrs are not added twice.
		l.LogAttrs(ctx, slog.LevelInfo, "Request Served", attrs...)
	})
}
