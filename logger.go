package preflight

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"lds.li/preflight/slogctx"
)

// LoggerResolver picks the logger the guard writes its debug events to for a
// request. It is called once per request on a protected path, and must return
// a non-nil logger.
type LoggerResolver func(r *http.Request) *slog.Logger

// ResolveLogger returns the default LoggerResolver. For each request it uses,
// in order:
//
//   - host, if it is not nil
//   - a logger placed on the request context with [slogctx.WithLogger]
//   - a new debug level text logger writing to fallback, or os.Stdout if
//     fallback is nil
func ResolveLogger(host *slog.Logger, fallback io.Writer) LoggerResolver {
	if fallback == nil {
		fallback = os.Stdout
	}
	return func(r *http.Request) *slog.Logger {
		if host != nil {
			return host
		}
		if l, ok := slogctx.FromContext(r.Context()); ok {
			return l
		}
		return slog.New(slogctx.NewContextHandler(slog.NewTextHandler(fallback, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
}
