package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain/chat"
	"chat-gateway/internal/domain/entitlement"
	"chat-gateway/internal/domain/ownership"
	"chat-gateway/internal/domain/ratelimit"
	"chat-gateway/internal/infrastructure/auth"
	"chat-gateway/internal/infrastructure/crontab"
	"chat-gateway/internal/infrastructure/database"
	"chat-gateway/internal/infrastructure/generation"
	"chat-gateway/internal/infrastructure/logger"
	"chat-gateway/internal/infrastructure/observability"
	"chat-gateway/internal/infrastructure/repository/ownershiprepo"
	"chat-gateway/internal/interfaces/httpserver"
	"chat-gateway/internal/interfaces/httpserver/handlers"
)

// @title Chat Gateway
// @version 1.0
// @description Fronts an external chat-generation service with identity resolution, per-identity quotas, ownership attribution and access control.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HTTPServer
	crontab    *crontab.Crontab
	cfg        *config.Config
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HTTPServer, ctab *crontab.Crontab, cfg *config.Config, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		crontab:    ctab,
		cfg:        cfg,
		log:        log,
	}
}

// Start runs the public API, the metrics listener and the prune
// scheduler until the context is cancelled or one of them fails.
func (a *Application) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.httpServer.Run(groupCtx)
	})

	group.Go(func() error {
		return a.crontab.Run(groupCtx)
	})

	group.Go(func() error {
		return runMetricsServer(groupCtx, a.cfg, a.log)
	})

	return group.Wait()
}

func runMetricsServer(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.MetricsAddr(), Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", server.Addr).Msg("metrics server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	ownershipRepository := ownershiprepo.NewPostgresRepository(db)
	ledger := ownership.NewLedger(ownershipRepository, log)
	entitlements := entitlement.NewTable(cfg)
	limiter := ratelimit.NewLimiter(ownershipRepository, entitlements, cfg.QuotaWindow())
	generationClient := generation.NewClient(cfg, log)
	gateway := chat.NewGateway(generationClient, limiter, ledger, log)

	chatHandler := handlers.NewChatHandler(gateway, log)
	healthHandler := handlers.NewHealthHandler(db, authValidator)

	httpServer := httpserver.New(cfg, log, authValidator, chatHandler, healthHandler)
	pruneScheduler := crontab.NewCrontab(cfg, ownershipRepository, log)

	app := NewApplication(httpServer, pruneScheduler, cfg, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
