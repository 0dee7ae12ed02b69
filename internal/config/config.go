// Package config loads the preflightproxy configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen          = ":8080"
	DefaultProtectedPath   = "/graphql"
	DefaultMetricsPath     = "/metrics"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the proxy configuration, as read from YAML.
type Config struct {
	// Listen is the address the proxy serves on.
	Listen string `yaml:"listen"`
	// Upstream is the base URL requests are proxied to. Required.
	Upstream string `yaml:"upstream"`
	// ProtectedPaths are guarded against simple requests. Defaults to
	// /graphql.
	ProtectedPaths []string `yaml:"protected_paths"`
	// RequiredHeaders extend the default opt-in headers.
	RequiredHeaders []string `yaml:"required_headers"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// MetricsPath serves Prometheus metrics. Set to "-" to disable.
	MetricsPath string `yaml:"metrics_path"`
	// TrustedRequestIDHeaders are inbound headers a request ID is taken
	// from. Only set this when a trusted proxy sits in front.
	TrustedRequestIDHeaders []string `yaml:"trusted_request_id_headers"`
	// DenyCORSPreflight answers all CORS preflights without granting access.
	DenyCORSPreflight bool `yaml:"deny_cors_preflight"`
	// CrossOrigin enables Fetch metadata based cross-origin protection for
	// every path, in front of the guard.
	CrossOrigin CrossOrigin `yaml:"cross_origin_protection"`
	// ShutdownTimeout bounds how long in-flight requests get on shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CrossOrigin struct {
	Enabled        bool     `yaml:"enabled"`
	TrustedOrigins []string `yaml:"trusted_origins"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	c, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML from r, applies defaults and validates the result.
// Unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if len(c.ProtectedPaths) == 0 {
		c.ProtectedPaths = []string{DefaultProtectedPath}
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks the config is usable, returning all problems found.
func (c *Config) Validate() error {
	var errs []error

	if c.Upstream == "" {
		errs = append(errs, errors.New("upstream is required"))
	} else if u, err := url.Parse(c.Upstream); err != nil {
		errs = append(errs, fmt.Errorf("upstream: %w", err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("upstream %q must be an absolute http(s) URL", c.Upstream))
	}

	for _, p := range c.ProtectedPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("protected path %q must start with /", p))
		}
	}
	for _, h := range c.RequiredHeaders {
		if strings.TrimSpace(h) == "" {
			errs = append(errs, errors.New("required header names must not be blank"))
		}
	}
	if c.MetricsPath != "-" && !strings.HasPrefix(c.MetricsPath, "/") {
		errs = append(errs, fmt.Errorf("metrics path %q must start with / or be -", c.MetricsPath))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("shutdown timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// MetricsEnabled reports whether metrics should be served.
func (c *Config) MetricsEnabled() bool {
	return c.MetricsPath != "-"
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
