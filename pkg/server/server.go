package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/lazyload/pkg/lazyload"
	lzmw "github.com/vango-dev/lazyload/pkg/middleware"
)

// Server accepts WebSocket sessions and serves health and metrics endpoints.
type Server struct {
	config   *ServerConfig
	upgrader websocket.Upgrader
	sessions *SessionManager
	router   chi.Router

	engineOptions []lazyload.Option
	defaults      func(lazyload.Options) lazyload.Options
	mw            []lazyload.Middleware

	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngineOptions adds options applied to every session engine.
func WithEngineOptions(opts ...lazyload.Option) Option {
	return func(s *Server) {
		s.engineOptions = append(s.engineOptions, opts...)
	}
}

// WithBindingDefaults sets a hook that fills unset binding options, such as
// a project-wide threshold.
func WithBindingDefaults(fn func(lazyload.Options) lazyload.Options) Option {
	return func(s *Server) {
		s.defaults = fn
	}
}

// WithMiddleware adds engine middleware after the built-in metrics and
// tracing middleware.
func WithMiddleware(mw ...lazyload.Middleware) Option {
	return func(s *Server) {
		s.mw = append(s.mw, mw...)
	}
}

// New creates a Server. A nil config uses DefaultServerConfig.
func New(config *ServerConfig, opts ...Option) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	config.applyDefaults()

	s := &Server{
		config:   config,
		sessions: NewSessionManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	var builtin []lazyload.Middleware
	if config.MetricsPath != "" {
		builtin = append(builtin, lzmw.Prometheus(lzmw.WithNamespace(config.MetricsNamespace)))
	}
	if config.Tracing {
		builtin = append(builtin, lzmw.OpenTelemetry(lzmw.WithTracerName(config.TracerName)))
	}
	s.mw = append(builtin, s.mw...)

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.config.MetricsPath != "" {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.Handler())
	}
	r.Get("/ws", s.HandleWebSocket)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HandleWebSocket upgrades the request and runs a session until it closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		lzmw.RecordWebSocketError("upgrade")
		return
	}

	session := newSession(s, conn)
	s.sessions.Add(session)
	lzmw.RecordSessionCreate()
	session.logger.Debug("session started", "remote", r.RemoteAddr)

	go session.WriteLoop()
	session.ReadLoop()
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes all sessions and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

func (s *Server) updateMiddleware() []lazyload.Middleware {
	return s.mw
}

func (s *Server) applyDefaults(opts lazyload.Options) lazyload.Options {
	if s.defaults == nil {
		return opts
	}
	return s.defaults(opts)
}
