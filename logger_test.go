package preflight

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lds.li/preflight/requestid"
	"lds.li/preflight/slogctx"
)

func TestResolveLogger(t *testing.T) {
	var hostBuf, ctxBuf, fallbackBuf bytes.Buffer
	host := slog.New(slog.NewTextHandler(&hostBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	injected := slog.New(slog.NewTextHandler(&ctxBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name     string
		host     *slog.Logger
		injected *slog.Logger
		want     *bytes.Buffer
	}{
		{name: "host logger wins", host: host, injected: injected, want: &hostBuf},
		{name: "context logger", injected: injected, want: &ctxBuf},
		{name: "fallback", want: &fallbackBuf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hostBuf.Reset()
			ctxBuf.Reset()
			fallbackBuf.Reset()

			g, err := New(Config{
				ProtectedPaths: []string{"/graphql"},
				LoggerResolver: ResolveLogger(tt.host, &fallbackBuf),
			})
			if err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			if tt.injected != nil {
				req = req.WithContext(slogctx.WithLogger(req.Context(), tt.injected))
			}
			g.Handler(helloHandler).ServeHTTP(httptest.NewRecorder(), req)

			for _, b := range []*bytes.Buffer{&hostBuf, &ctxBuf, &fallbackBuf} {
				wrote := b.Len() > 0
				if want := b == tt.want; wrote != want {
					t.Errorf("sink written = %t, want %t", wrote, want)
				}
			}
			if !strings.Contains(tt.want.String(), "Request isn't preflighted") {
				t.Errorf("expected rejection log, got %q", tt.want.String())
			}
		})
	}
}

func TestResolveLoggerHostConfig(t *testing.T) {
	var buf bytes.Buffer
	g, err := New(Config{
		ProtectedPaths: []string{"/graphql"},
		Logger:         slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Content-Type", "application/json")
	g.Handler(helloHandler).ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"msg":"Request is preflighted"`) {
		t.Errorf("expected host logger to receive the event, got %q", buf.String())
	}
}

func TestResolveLoggerFallbackIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	resolve := ResolveLogger(nil, &buf)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req = req.WithContext(requestid.ContextWithRequestID(req.Context(), "rid-123"))
	resolve(req).DebugContext(req.Context(), "hello")

	if !strings.Contains(buf.String(), "request_id=rid-123") {
		t.Errorf("expected request_id attribute, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Errorf("fallback logger should log at debug, got %q", buf.String())
	}
}

func TestResolveLoggerIsPerRequest(t *testing.T) {
	resolve := ResolveLogger(nil, nil)

	a := slog.New(slog.DiscardHandler)
	b := slog.New(slog.DiscardHandler)
	reqA := httptest.NewRequest(http.MethodGet, "/", nil)
	reqA = reqA.WithContext(slogctx.WithLogger(reqA.Context(), a))
	reqB := httptest.NewRequest(http.MethodGet, "/", nil)
	reqB = reqB.WithContext(slogctx.WithLogger(reqB.Context(), b))

	if resolve(reqA) != a || resolve(reqB) != b {
		t.Error("each request should resolve its own context logger")
	}
}
