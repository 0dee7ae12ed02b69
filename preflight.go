// Package preflight provides middleware that blocks potential Cross-Site
// Request Forgery against endpoints such as GraphQL servers, by rejecting
// requests a browser could have sent without a CORS preflight.
//
// Browsers send "simple" requests (HTML form posts, and fetches that stay
// within the CORS-safelisted content types and headers) cross-origin without
// asking the server first. A request that carries a Content-Type outside of
// that list, or one of a set of custom headers, could only have come from a
// same-origin page or after a successful preflight, so it is let through.
// Everything else sent to a protected path is answered with a 400.
//
// Example:
//
//	g, err := preflight.New(preflight.Config{
//		ProtectedPaths: []string{"/graphql"},
//	})
//	if err != nil {
//		return err
//	}
//	mux.Handle("/graphql", g.Handler(graphqlHandler))
package preflight

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

// defaultRequiredHeaders always count as opting in to a preflight. They match
// what Apollo clients send.
var defaultRequiredHeaders = [...]string{
	"X-APOLLO-OPERATION-NAME",
	"APOLLO-REQUIRE-PREFLIGHT",
}

// nonPreflightedContentTypes are the media types a browser will send
// cross-origin without a preflight.
var nonPreflightedContentTypes = [...]string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"text/plain",
}

// ErrNoProtectedPaths is returned from New when the config names no paths.
var ErrNoProtectedPaths = errors.New("preflight: at least one protected path is required")

// Decision is the outcome of classifying a request on a protected path.
type Decision int

const (
	// Reject means the request could have been sent cross-site without a
	// preflight.
	Reject Decision = iota
	// Passthrough means the request is preflight-eligible and is handed to
	// the wrapped handler.
	Passthrough
)

func (d Decision) String() string {
	switch d {
	case Passthrough:
		return "passthrough"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Config configures a Guard.
type Config struct {
	// ProtectedPaths are the request paths the guard applies to. Matching is
	// an exact comparison against the request URL path. Required.
	ProtectedPaths []string
	// RequiredHeaders are additional header names whose presence marks a
	// request as preflighted. They are added to the defaults,
	// X-APOLLO-OPERATION-NAME and APOLLO-REQUIRE-PREFLIGHT, which always
	// apply. Names match case-insensitively, and "_" and "-" are
	// treated as the same character.
	RequiredHeaders []string
	// Logger is the host application's logger. When set, it receives the
	// guard's debug events for every request.
	Logger *slog.Logger
	// LoggerResolver replaces the default logger lookup. See ResolveLogger.
	LoggerResolver LoggerResolver
	// OnDecision is called once for each request on a protected path, after
	// it has been classified.
	OnDecision func(r *http.Request, d Decision)
}

// Guard rejects simple requests to protected paths. It is immutable once
// created, and safe for concurrent use.
type Guard struct {
	paths map[string]struct{}
	// headers is the effective required header list, hyphenated, in config
	// order. headerKeys holds the folded form of each for matching.
	headers    []string
	headerKeys map[string]struct{}
	message    string
	logger     LoggerResolver
	onDecision func(*http.Request, Decision)
}

// New builds a Guard from the config. The default required headers are always
// included, followed by any in cfg.RequiredHeaders not already present.
func New(cfg Config) (*Guard, error) {
	g := &Guard{
		paths:      make(map[string]struct{}, len(cfg.ProtectedPaths)),
		headerKeys: make(map[string]struct{}),
		logger:     cfg.LoggerResolver,
		onDecision: cfg.OnDecision,
	}

	for _, p := range cfg.ProtectedPaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		g.paths[p] = struct{}{}
	}
	if len(g.paths) == 0 {
		return nil, ErrNoProtectedPaths
	}

	for _, h := range slices.Concat(defaultRequiredHeaders[:], cfg.RequiredHeaders) {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, errors.New("preflight: required header name must not be blank")
		}
		k := foldHeader(h)
		if _, ok := g.headerKeys[k]; ok {
			continue
		}
		g.headerKeys[k] = struct{}{}
		g.headers = append(g.headers, strings.ReplaceAll(h, "_", "-"))
	}

	if g.logger == nil {
		g.logger = ResolveLogger(cfg.Logger, nil)
	}

	g.message = rejectionMessage(g.headers)

	return g, nil
}

// Handler wraps next, rejecting requests to protected paths that are not
// preflight-eligible. Requests to other paths go straight to next.
func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Protects(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		d := g.Classify(r)
		if g.onDecision != nil {
			g.onDecision(r, d)
		}

		l := g.logger(r)
		if d == Passthrough {
			l.DebugContext(r.Context(), "Request is preflighted", "path", r.URL.Path, "method", r.Method)
			next.ServeHTTP(w, r)
			return
		}

		l.DebugContext(r.Context(), "Request isn't preflighted", "path", r.URL.Path, "method", r.Method)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, g.message)
	})
}

// Protects reports whether path is one of the protected paths.
func (g *Guard) Protects(path string) bool {
	_, ok := g.paths[path]
	return ok
}

// Classify decides whether r is preflight-eligible. It does not check the
// path. The result depends only on r and the guard's config.
func (g *Guard) Classify(r *http.Request) Decision {
	if mt, ok := MediaType(r); ok && !slices.Contains(nonPreflightedContentTypes[:], mt) {
		return Passthrough
	}
	if g.hasRequiredHeader(r.Header) {
		return Passthrough
	}
	return Reject
}

// RequiredHeaders returns the effective required header names, in the form
// they are rendered in the rejection message.
func (g *Guard) RequiredHeaders() []string {
	return slices.Clone(g.headers)
}

// RejectionMessage returns the body sent with rejected requests.
func (g *Guard) RejectionMessage() string {
	return g.message
}

func (g *Guard) hasRequiredHeader(h http.Header) bool {
	for name := range h {
		if _, ok := g.headerKeys[foldHeader(name)]; ok {
			return true
		}
	}
	return false
}

// MediaType returns the media type from the request's Content-Type header,
// lower-cased and without parameters. ok is false if the header is missing
// or blank.
func MediaType(r *http.Request) (_ string, ok bool) {
	ct := r.Header.Get("Content-Type")
	mt, _, _ := strings.Cut(ct, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt == "" {
		return "", false
	}
	return mt, true
}

func foldHeader(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

func rejectionMessage(headers []string) string {
	return "This operation has been blocked as a potential Cross-Site Request Forgery (CSRF).\n" +
		"\n" +
		`Please either specify a "Content-Type" header (with a mime-type that is not one of ` +
		strings.Join(nonPreflightedContentTypes[:], ", ") +
		") or provide one of the following headers: " +
		strings.Join(headers, ", ") + ".\n"
}
