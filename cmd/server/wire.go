//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
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
	"chat-gateway/internal/infrastructure/repository/ownershiprepo"
	"chat-gateway/internal/interfaces/httpserver"
	"chat-gateway/internal/interfaces/httpserver/handlers"
)

var gatewaySet = wire.NewSet(
	ownershiprepo.NewPostgresRepository,
	wire.Bind(new(ownership.Repository), new(*ownershiprepo.PostgresRepository)),
	wire.Bind(new(ratelimit.UsageCounter), new(*ownershiprepo.PostgresRepository)),
	ownership.NewLedger,
	entitlement.NewTable,
	newLimiter,
	generation.NewClient,
	wire.Bind(new(chat.Client), new(*generation.Client)),
	chat.NewGateway,
	handlers.NewChatHandler,
	handlers.NewHealthHandler,
	crontab.NewCrontab,
)

// BuildApplication demonstrates how to assemble the gateway with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		gatewaySet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newLimiter(counter ratelimit.UsageCounter, entitlements entitlement.Table, cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.NewLimiter(counter, entitlements, cfg.QuotaWindow())
}
