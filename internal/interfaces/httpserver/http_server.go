package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"

	"chat-gateway/internal/config"
	"chat-gateway/internal/infrastructure/auth"
	"chat-gateway/internal/interfaces/httpserver/handlers"
	"chat-gateway/internal/interfaces/httpserver/middlewares"
	"chat-gateway/internal/interfaces/httpserver/routes"
)

// HTTPServer hosts the gateway's public API.
type HTTPServer struct {
	engine *gin.Engine
	cfg    *config.Config
	log    zerolog.Logger
}

// New builds the gin engine with the full middleware chain and routes.
func New(cfg *config.Config, log zerolog.Logger, validator *auth.Validator, chatHandler *handlers.ChatHandler, healthHandler *handlers.HealthHandler) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.Logging(log),
		middlewares.CORS(),
		middlewares.Metrics(),
	)

	engine.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	routes.Register(engine, validator.Middleware(), chatHandler, healthHandler)

	return &HTTPServer{engine: engine, cfg: cfg, log: log}
}

// Run serves until the context is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.log.Info().Msg("http server shutting down")
	return server.Shutdown(shutdownCtx)
}

// Engine exposes the router, primarily for tests.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}
