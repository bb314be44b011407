package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"harvest-settlement/config"
	"harvest-settlement/internal/adapter/events"
	httpHandler "harvest-settlement/internal/adapter/http/handler"
	"harvest-settlement/internal/adapter/http/middleware"
	pgStorage "harvest-settlement/internal/adapter/storage/postgres"
	redisStorage "harvest-settlement/internal/adapter/storage/redis"
	"harvest-settlement/internal/core/ports"
	"harvest-settlement/internal/service"
	"harvest-settlement/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(os.Getenv("HSS_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("events_driver", cfg.Events.Driver).
		Msg("Starting Harvest Settlement Service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize notice publisher
	publisher, err := events.NewPublisher(cfg.Events, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notice publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("notice publisher close failed")
		}
	}()

	// Initialize repositories
	orderRepo := pgStorage.NewOrderRepo(pool)
	creditRepo := pgStorage.NewCreditRepo(pool)
	grantRepo := pgStorage.NewCreditGrantRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	grantCache := redisStorage.NewGrantCache(rdb)
	failureCounter := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	var verifier ports.SignatureVerifier
	if cfg.PayMongo.WebhookSecret != "" {
		verifier = service.NewPayMongoSignatureVerifier(cfg.PayMongo.WebhookSecret, cfg.PayMongo.ReplayWindow)
	} else {
		log.Warn().Msg("paymongo.webhook_secret is empty, webhook signatures will NOT be verified")
	}

	var tokenSvc ports.TokenService
	if cfg.Auth.JWTSecret != "" {
		tokenSvc = service.NewSupabaseTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	} else {
		log.Warn().Msg("auth.jwt_secret is empty, admin endpoints disabled")
	}

	provider := service.NewPayMongoClient(cfg.PayMongo.BaseURL, cfg.PayMongo.SecretKey, cfg.PayMongo.Timeout, nil, log)
	auditSvc := service.NewAuditService(auditRepo, log)
	guard := service.NewTransitionGuard(orderRepo, cfg.Settlement.MaxTransitionAttempts, log)
	creditApplier := service.NewCreditApplier(transactor, grantRepo, creditRepo, grantCache, cfg.Settlement.GrantCacheTTL, log)
	eventRouter := service.NewEventRouter(guard, creditApplier, provider, publisher, auditSvc, cfg.Settlement.CreditPrefix, log)

	// Initialize health checkers
	checkers := []ports.HealthChecker{
		pgStorage.NewHealthCheck(pool),
		redisStorage.NewHealthCheck(rdb),
	}
	if hc, ok := publisher.(ports.HealthChecker); ok {
		checkers = append(checkers, hc)
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Verifier:       verifier,
		EventRouter:    eventRouter,
		Guard:          guard,
		Credits:        creditApplier,
		AuditSvc:       auditSvc,
		TokenSvc:       tokenSvc,
		FailureCounter: failureCounter,
		FailureRule: middleware.RateLimitRule{
			Limit:  cfg.RateLimit.SignatureFailures,
			Window: cfg.RateLimit.Window,
		},
		HealthCheckers: checkers,
		TrustedProxies: cfg.Server.TrustedProxies,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
