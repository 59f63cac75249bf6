package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	_ "github.com/usermanager/user-management/docs"
	"github.com/usermanager/user-management/internal/api"
	"github.com/usermanager/user-management/internal/api/handler"
	"github.com/usermanager/user-management/internal/core/service"
	"github.com/usermanager/user-management/internal/infrastructure/db/mongo"
	"github.com/usermanager/user-management/internal/infrastructure/db/redis"
	"github.com/usermanager/user-management/internal/infrastructure/queue"
	"github.com/usermanager/user-management/internal/infrastructure/token"
	"github.com/usermanager/user-management/internal/pkg/config"
	"github.com/usermanager/user-management/pkg/logger"
)

const serviceName = "user-management"

// @title           User Management API
// @version         1.0
// @description     Registration, login, token refresh and role-based user administration.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad(ctx)
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	// --- MongoDB ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}

	userRepo := mongo.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}
	if err := mongo.EnsureAuditIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create audit indexes")
	}
	auditRepo := mongo.NewAuditRepository(db)

	// --- Redis ---
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	users := redis.NewUserCache(userRepo, rdb, cfg.Redis.UserCacheTTL, log)

	// --- Audit workers ---
	// Workers get their own context so in-flight events are flushed after
	// the HTTP server has stopped accepting requests.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, log)
	dispatcher.Start(auditCtx)

	// --- Core services ---
	codec := token.NewJWTCodec(cfg.Auth.JWTSecret, token.WithIssuer(cfg.Auth.JWTIssuer))
	authService := service.NewAuthService(users, codec, dispatcher, service.AuthConfig{
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, log)
	userService := service.NewUserService(users, cfg.Auth.BcryptCost, log)

	e := api.NewRouter(ctx, api.Dependencies{
		AuthService: authService,
		UserService: userService,
		TokenCodec:  codec,
		Users:       users,
		HealthChecks: []handler.Check{
			{Name: "mongodb", Ping: mongo.Ping(mongoClient)},
			{Name: "redis", Ping: redis.Ping(rdb)},
		},
		AuthLimit: api.RateLimit{
			Rate:  rate.Limit(cfg.RateLimit.AuthRate),
			Burst: cfg.RateLimit.AuthBurst,
		},
		TrustedProxies: cfg.TrustedProxyNets(),
		Log:            log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	stopAudit()
	dispatcher.Wait()

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis client")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to disconnect mongodb")
	}

	log.Info().Msg("server stopped")
}
