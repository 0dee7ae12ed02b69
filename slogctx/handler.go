package slogctx

import (
	"context"
	"log/slog"
)

var _ slog.Handler = (*Handler)(nil)

// Handler is a slog.Handler that adds the context's attributes, and those of
// registered extractors, to each record before passing it on. Attributes
// already on the record win over context ones with the same key.
type Handler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *Handler {
	return &Handler{next: next}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	attrs := append(AttrsFromContext(ctx), extractedAttrs(ctx)...)
	if len(attrs) == 0 {
		return h.next.Handle(ctx, r)
	}

	seen := make(map[string]struct{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		seen[a.Key] = struct{}{}
		return true
	})

	r = r.Clone()
	for _, a := range attrs {
		if _, ok := seen[a.Key]; ok {
			continue
		}
		seen[a.Key] = struct{}{}
		r.AddAttrs(a)
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name)}
}
