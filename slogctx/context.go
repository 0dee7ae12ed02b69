// Package slogctx carries logging state on a context: a request scoped
// logger, and attributes that a [Handler] adds to every record logged with
// that context.
package slogctx

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
)

type loggerContextKey struct{}
type attrsContextKey struct{}
type handleContextKey struct{}

// WithLogger returns a context carrying l. Middleware further down the chain
// can retrieve it with FromContext.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext returns the logger set by WithLogger. ok is false if there is
// none, or it is nil.
func FromContext(ctx context.Context) (_ *slog.Logger, ok bool) {
	l, ok := ctx.Value(loggerContextKey{}).(*slog.Logger)
	return l, ok && l != nil
}

// Middleware places l on the context of every request passing through it.
func Middleware(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), l)))
		})
	}
}

// WithAttrs adds attrs to the context. If the context has a Handle, the attrs
// are recorded on it and the same context is returned.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if h, ok := ctx.Value(handleContextKey{}).(*Handle); ok {
		h.attrs = append(h.attrs, attrs...)
		return ctx
	}
	all := append(AttrsFromContext(ctx), attrs...)
	return context.WithValue(ctx, attrsContextKey{}, all)
}

// AttrsFromContext returns the attributes added to the context.
func AttrsFromContext(ctx context.Context) []slog.Attr {
	if h, ok := ctx.Value(handleContextKey{}).(*Handle); ok {
		return slices.Clone(h.attrs)
	}
	attrs, _ := ctx.Value(attrsContextKey{}).([]slog.Attr)
	return slices.Clone(attrs)
}

// Handle collects attributes added to a context and all of its children, so
// an outer middleware can read attributes set deeper in the stack.
type Handle struct {
	attrs []slog.Attr
}

// Attrs returns the attributes recorded so far.
func (h *Handle) Attrs() []slog.Attr {
	return h.attrs
}

// WithHandle returns a context with a Handle, seeded with any attributes the
// context already has. An existing Handle is reused.
func WithHandle(ctx context.Context) (context.Context, *Handle) {
	if h, ok := ctx.Value(handleContextKey{}).(*Handle); ok {
		return ctx, h
	}
	h := &Handle{attrs: AttrsFromContext(ctx)}
	return context.WithValue(ctx, handleContextKey{}, h), h
}
