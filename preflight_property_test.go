package preflight

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var (
	genPath        = rapid.SampledFrom([]string{"/graphql", "/custom", "/graphql/", "/GraphQL", "/other", "/"})
	genContentType = rapid.SampledFrom([]string{
		"",
		"application/x-www-form-urlencoded",
		"multipart/form-data; boundary=abc",
		"text/plain",
		"TEXT/PLAIN; charset=utf-8",
		"application/json",
		"application/json; charset=utf-8",
		"application/graphql-response+json",
		"text/html",
		"image/png",
	})
	genHeaderName = rapid.SampledFrom([]string{
		"X-Apollo-Operation-Name",
		"apollo_require_preflight",
		"APOLLO-REQUIRE-PREFLIGHT",
		"Required-Header",
		"X-Unrelated",
		"Accept",
		"Origin",
		"Apollo-Operation-Name",
	})
)

var propertyConfig = Config{
	ProtectedPaths:  []string{"/graphql", "/custom"},
	RequiredHeaders: []string{"REQUIRED_HEADER"},
}

func drawRequest(t *rapid.T) *http.Request {
	req := httptest.NewRequest(http.MethodPost, genPath.Draw(t, "path"), nil)
	if ct := genContentType.Draw(t, "contentType"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	for _, h := range rapid.SliceOfN(genHeaderName, 0, 3).Draw(t, "headers") {
		req.Header[h] = []string{rapid.StringMatching(`[a-z0-9]{0,6}`).Draw(t, "value")}
	}
	return req
}

func isOptIn(name string) bool {
	n := strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	return slices.Contains([]string{"x-apollo-operation-name", "apollo-require-preflight", "required-header"}, n)
}

// expectedDecision restates the classification rule independently of the
// implementation.
func expectedDecision(r *http.Request) Decision {
	mt, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt != "" && mt != "application/x-www-form-urlencoded" && mt != "multipart/form-data" && mt != "text/plain" {
		return Passthrough
	}
	for name := range r.Header {
		if isOptIn(name) {
			return Passthrough
		}
	}
	return Reject
}

func TestClassifyProperties(t *testing.T) {
	g, _ := newTestGuard(t, propertyConfig)

	rapid.Check(t, func(t *rapid.T) {
		req := drawRequest(t)

		got := g.Classify(req)
		if want := expectedDecision(req); got != want {
			t.Fatalf("Classify() = %s, want %s for headers %v", got, want, req.Header)
		}
		if again := g.Classify(req); again != got {
			t.Fatalf("Classify() not stable: %s then %s", got, again)
		}
	})
}

func TestHandlerProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var logs strings.Builder
		cfg := propertyConfig
		cfg.LoggerResolver = ResolveLogger(nil, &logs)
		g, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}

		req := drawRequest(t)
		protected := slices.Contains(propertyConfig.ProtectedPaths, req.URL.Path)

		rec := httptest.NewRecorder()
		g.Handler(helloHandler).ServeHTTP(rec, req)

		switch {
		case !protected:
			if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
				t.Fatalf("unprotected path %q was not passed through: %d", req.URL.Path, rec.Code)
			}
			if logs.Len() != 0 {
				t.Fatalf("unprotected path %q logged %q", req.URL.Path, logs.String())
			}
		case expectedDecision(req) == Passthrough:
			if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
				t.Fatalf("preflighted request was not passed through: %d", rec.Code)
			}
		default:
			if rec.Code != http.StatusBadRequest || rec.Body.String() != g.RejectionMessage() {
				t.Fatalf("simple request was not rejected: %d", rec.Code)
			}
		}
	})
}
