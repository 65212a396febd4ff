package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/lazyload"
)

// ConfigFileNames are the file names Load looks for, in order.
var ConfigFileNames = []string{"lazyload.json", "lazyload.yaml", "lazyload.yml"}

const (
	// DefaultThrottle is the default trigger quiet period.
	DefaultThrottle = "50ms"

	// DefaultAddress is the default session server address.
	DefaultAddress = ":8080"

	// DefaultMetricsPath is the default Prometheus endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "lazyload"
)

// Config represents a lazyload.json or lazyload.yaml file.
type Config struct {
	// Throttle is the quiet period after scroll/resize before elements are
	// re-checked (e.g., "50ms").
	Throttle string `json:"throttle,omitempty" yaml:"throttle,omitempty"`

	// Threshold is the default threshold for bindings that set none.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// LoadingSrc is the engine-wide placeholder. Empty means the built-in
	// transparent GIF.
	LoadingSrc string `json:"loadingSrc,omitempty" yaml:"loadingSrc,omitempty"`

	// Polling keeps pending elements re-checking after every tick.
	Polling bool `json:"polling" yaml:"polling"`

	// Server contains session server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	configPath string
}

// ServerConfig contains session server settings.
type ServerConfig struct {
	// Address is the listen address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// ReadTimeout is the HTTP read header timeout (e.g., "10s").
	ReadTimeout string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`

	// WriteTimeout is the WebSocket write deadline (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`

	// AllowedOrigins lists origins allowed to open sessions. Empty allows
	// same-origin requests only; "*" allows any.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`

	// MetricsPath is where Prometheus metrics are served.
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Throttle: DefaultThrottle,
		Polling:  true,
		Server: ServerConfig{
			Address:      DefaultAddress,
			ReadTimeout:  "10s",
			WriteTimeout: "10s",
			MetricsPath:  DefaultMetricsPath,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for lazyload.json, lazyload.yaml and lazyload.yml in that order.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E020").
		WithDetail("No lazyload.json, lazyload.yaml or lazyload.yml found in " + dir)
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension: .yaml and .yml are YAML, everything else JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E020").WithDetail("No config file at " + path)
		}
		return nil, errors.New("E021").Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E021").
				WithLocationFromError(path, err).
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E021").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path, as YAML or JSON by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E021").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E021").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Throttle == "" {
		c.Throttle = DefaultThrottle
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Throttle)
	if err != nil || d <= 0 {
		return errors.New("E022").
			WithDetail("throttle must be a positive duration, got " + quote(c.Throttle))
	}
	if c.Threshold < 0 {
		return errors.New("E022").WithDetail("threshold must not be negative")
	}
	for name, v := range map[string]string{
		"server.readTimeout":  c.Server.ReadTimeout,
		"server.writeTimeout": c.Server.WriteTimeout,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return errors.New("E022").WithDetail(name + " is not a duration: " + quote(v))
		}
	}
	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return errors.New("E022").WithDetail("server.metricsPath must start with /")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E022").
			WithDetail("unknown log level " + quote(c.Log.Level)).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E022").
			WithDetail("unknown log format " + quote(c.Log.Format)).
			WithSuggestion("Use text or json")
	}
	return nil
}

// ThrottleDuration returns the parsed throttle, or the engine default when
// it does not parse.
func (c *Config) ThrottleDuration() time.Duration {
	d, err := time.ParseDuration(c.Throttle)
	if err != nil || d <= 0 {
		return lazyload.DefaultThrottle
	}
	return d
}

// ReadTimeout returns the parsed server read timeout, or zero.
func (c *Config) ReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// WriteTimeout returns the parsed server write timeout, or zero.
func (c *Config) WriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// EngineOptions maps the configuration to engine options.
func (c *Config) EngineOptions() []lazyload.Option {
	opts := []lazyload.Option{
		lazyload.WithThrottle(c.ThrottleDuration()),
		lazyload.WithPolling(c.Polling),
	}
	if c.LoadingSrc != "" {
		opts = append(opts, lazyload.WithLoadingSrc(c.LoadingSrc))
	}
	return opts
}

// ApplyDefaults fills binding options from the configuration: the default
// threshold when the binding has none.
func (c *Config) ApplyDefaults(opts lazyload.Options) lazyload.Options {
	if opts.Threshold == 0 {
		opts.Threshold = c.Threshold
	}
	return opts
}

// Logger builds a slog logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	handlerOpts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
