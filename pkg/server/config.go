package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/vango-dev/lazyload/internal/config"
)

// ServerConfig configures the session server.
type ServerConfig struct {
	// Address is the listen address (default ":8080").
	Address string

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the WebSocket request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout time.Duration

	// WriteTimeout is the deadline for each WebSocket write.
	WriteTimeout time.Duration

	// PongWait is how long a connection may stay silent before it is
	// dropped. Pings are sent at 9/10 of it.
	PongWait time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// MaxMessageSize is the largest client message accepted.
	MaxMessageSize int64

	// MetricsPath serves Prometheus metrics and enables the metrics
	// middleware. Empty disables both.
	MetricsPath string

	// MetricsNamespace is the Prometheus namespace.
	MetricsNamespace string

	// Tracing enables the OpenTelemetry middleware.
	Tracing bool

	// TracerName names the tracer when Tracing is on.
	TracerName string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           config.DefaultAddress,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		PongWait:          60 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxMessageSize:    1 << 20,
		MetricsPath:       config.DefaultMetricsPath,
		MetricsNamespace:  config.DefaultNamespace,
		TracerName:        config.DefaultNamespace,
	}
}

// FromConfig builds a ServerConfig from project configuration.
func FromConfig(cfg *config.Config) *ServerConfig {
	c := DefaultServerConfig()
	c.Address = cfg.Server.Address
	if d := cfg.ReadTimeout(); d > 0 {
		c.ReadHeaderTimeout = d
	}
	if d := cfg.WriteTimeout(); d > 0 {
		c.WriteTimeout = d
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		c.CheckOrigin = AllowedOriginsCheck(cfg.Server.AllowedOrigins)
	}
	c.MetricsPath = ""
	if cfg.Metrics.Enabled {
		c.MetricsPath = cfg.Server.MetricsPath
		c.MetricsNamespace = cfg.Metrics.Namespace
	}
	c.Tracing = cfg.Tracing.Enabled
	c.TracerName = cfg.Tracing.TracerName
	return c
}

func (c *ServerConfig) applyDefaults() {
	defaults := DefaultServerConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaults.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = defaults.WriteBufferSize
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = defaults.CheckOrigin
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.PongWait == 0 {
		c.PongWait = defaults.PongWait
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = defaults.MaxMessageSize
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = defaults.MetricsNamespace
	}
	if c.TracerName == "" {
		c.TracerName = defaults.TracerName
	}
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && originURL.Host == r.Host
}

// AllowedOriginsCheck accepts same-origin requests and the listed origins.
// "*" accepts any origin.
func AllowedOriginsCheck(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		if allowed["*"] || allowed[r.Header.Get("Origin")] {
			return true
		}
		return SameOriginCheck(r)
	}
}
