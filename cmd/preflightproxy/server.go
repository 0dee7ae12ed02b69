package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"lds.li/preflight"
	"lds.li/preflight/cors"
	"lds.li/preflight/csrf"
	"lds.li/preflight/internal/config"
	"lds.li/preflight/internal/metrics"
	"lds.li/preflight/middleware"
	"lds.li/preflight/requestid"
	"lds.li/preflight/requestlog"
	"lds.li/preflight/slogctx"
)

// newGuard builds the guard from the config, reporting decisions to m if it
// is not nil.
func newGuard(cfg *config.Config, m *metrics.Metrics) (*preflight.Guard, error) {
	gc := preflight.Config{
		ProtectedPaths:  cfg.ProtectedPaths,
		RequiredHeaders: cfg.RequiredHeaders,
	}
	if m != nil {
		gc.OnDecision = m.ObserveDecision
	}
	return preflight.New(gc)
}

// newHandler returns the proxy's root handler. Every request passes through
// the middleware chain before being proxied to the upstream, except the
// metrics endpoint.
func newHandler(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (http.Handler, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.Transport = &requestid.Transport{}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.ErrorContext(r.Context(), "proxying request", "err", err, "upstream", cfg.Upstream)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}

	guard, err := newGuard(cfg, m)
	if err != nil {
		return nil, fmt.Errorf("creating guard: %w", err)
	}

	chain := &middleware.Chain{}
	chain.Append("requestid", (&requestid.Middleware{TrustedHeaders: cfg.TrustedRequestIDHeaders}).Handler)
	chain.Append("logger", slogctx.Middleware(logger))
	chain.Append("requestlog", (&requestlog.RequestLogger{Logger: logger}).Handler)
	if cfg.DenyCORSPreflight {
		chain.Append("cors", cors.DenyPreflight)
	}
	if cfg.CrossOrigin.Enabled {
		cop, err := csrf.New(cfg.CrossOrigin.TrustedOrigins...)
		if err != nil {
			return nil, fmt.Errorf("creating cross-origin protection: %w", err)
		}
		chain.Append("csrf", cop.Handler)
	}
	chain.Append("preflight", guard.Handler)

	logger.Debug("middleware chain", "handlers", chain.List())

	mux := http.NewServeMux()
	if m != nil && cfg.MetricsEnabled() {
		mux.Handle(cfg.MetricsPath, m.Handler())
	}
	mux.Handle("/", chain.Handler(proxy))

	return mux, nil
}
