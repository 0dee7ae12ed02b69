package slogctx

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// AttributeExtractor derives log attributes from a context, e.g. a request
// ID stored by another package.
type AttributeExtractor func(ctx context.Context) []slog.Attr

var (
	extractorsMu sync.RWMutex
	extractors   = map[string]AttributeExtractor{}
)

// RegisterAttributeExtractor registers fn under name, replacing any existing
// extractor with that name. Safe to call from init.
func RegisterAttributeExtractor(name string, fn AttributeExtractor) {
	extractorsMu.Lock()
	defer extractorsMu.Unlock()
	extractors[name] = fn
}

// DeregisterAttributeExtractor removes the named extractor, reporting whether
// it was registered.
func DeregisterAttributeExtractor(name string) bool {
	extractorsMu.Lock()
	defer extractorsMu.Unlock()
	_, ok := extractors[name]
	delete(extractors, name)
	return ok
}

// ListExtractors returns the registered extractor names, sorted.
func ListExtractors() []string {
	extractorsMu.RLock()
	defer extractorsMu.RUnlock()
	return slices.Sorted(maps.Keys(extractors))
}

func extractedAttrs(ctx context.Context) []slog.Attr {
	extractorsMu.RLock()
	defer extractorsMu.RUnlock()

	var attrs []slog.Attr
	for _, name := range slices.Sorted(maps.Keys(extractors)) {
		attrs = append(attrs, extractors[name](ctx)...)
	}
	return attrs
}
