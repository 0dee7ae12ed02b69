// Package csrf rejects non-safe cross-origin browser requests, using Fetch
// metadata and the Origin header. It complements the preflight guard for
// endpoints that take form posts or other requests where requiring a custom
// header or content type is not an option.
package csrf

import (
	"fmt"
	"net/http"

	"filippo.io/csrf"
)

// Skip marks the request to be skipped for CSRF protection.
var Skip = csrf.UnsafeBypassRequest

type Handler struct {
	*csrf.Protection
}

// New returns a Handler that also allows requests from the given origins,
// each of the form "scheme://host[:port]".
func New(trustedOrigins ...string) (*Handler, error) {
	p := csrf.New()
	for _, o := range trustedOrigins {
		if err := p.AddTrustedOrigin(o); err != nil {
			return nil, fmt.Errorf("adding trusted origin: %w", err)
		}
	}
	return &Handler{Protection: p}, nil
}

func NewWithProtection(p *csrf.Protection) *Handler {
	return &Handler{Protection: p}
}

// Handler wraps h, responding 403 to cross-origin requests with non-safe
// methods.
func (hh *Handler) Handler(h http.Handler) http.Handler {
	return hh.Protection.Handler(h)
}
