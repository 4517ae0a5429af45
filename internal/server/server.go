package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pokechat/internal/chat"
	"pokechat/internal/config"
	"pokechat/internal/identify"
	"pokechat/internal/logging"
	"pokechat/internal/pokeapi"
	"pokechat/internal/services"
)

// Deps carries the services the HTTP surface exposes.
type Deps struct {
	Logger   *slog.Logger
	PokeAPI  pokeapi.API
	Chat     *chat.Service
	Identify *identify.Service
}

// Server is the gin HTTP surface. Handlers are stateless; everything they
// share is read-only after construction.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	api      pokeapi.API
	chat     *chat.Service
	identify *identify.Service
	engine   *gin.Engine
}

// New builds the router with the middleware chain and routes wired.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "configuration required", nil)
	}
	if deps.PokeAPI == nil || deps.Chat == nil || deps.Identify == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "missing service dependencies", nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "server"),
		api:      deps.PokeAPI,
		chat:     deps.Chat,
		identify: deps.Identify,
	}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.Identify.MaxUploadBytes
	engine.Use(
		gin.CustomRecoveryWithWriter(io.Discard, s.handlePanic),
		s.requestID(),
		s.requestLogger(),
		corsMiddleware(cfg.Server.CORSOrigins),
	)

	engine.GET("/health", s.handleHealth)
	engine.POST("/chat", s.handleChat)
	engine.POST("/identify", s.handleIdentify)
	engine.NoRoute(func(c *gin.Context) {
		s.renderError(c, services.Wrap(services.ErrNotFound, "server", "no such endpoint", nil))
	})

	s.engine = engine
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is canceled, then drains with the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: time.Duration(s.cfg.Server.ReadHeaderTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("http server listening", logging.String("address", addr))

	select {
	case err := <-errCh:
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "server", "listen "+addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(s.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
