package requestid

import (
	"net/http"
	"strings"
)

// maxInboundIDLen bounds IDs accepted from trusted headers.
const maxInboundIDLen = 128

// Middleware makes sure a request ID is on the context of every request it
// handles. An ID already on the context is kept. Otherwise the first non-empty
// value from TrustedHeaders is used, and failing that a new ID is generated.
type Middleware struct {
	// TrustedHeaders are inbound headers an upstream proxy sets the request
	// ID in. Leave empty when requests come straight from clients.
	TrustedHeaders []string
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		id := m.inboundID(r)
		if id == "" {
			id = newRequestID()
		}
		next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), id)))
	})
}

func (m *Middleware) inboundID(r *http.Request) string {
	for _, h := range m.TrustedHeaders {
		v := strings.TrimSpace(r.Header.Get(h))
		if v != "" && len(v) <= maxInboundIDLen {
			return v
		}
	}
	return ""
}
