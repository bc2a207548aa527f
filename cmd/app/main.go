package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invite-redemption/internal/config"
	"invite-redemption/internal/infra/cache"
	pg "invite-redemption/internal/infra/db/postgres"
	"invite-redemption/internal/infra/logging"
	"invite-redemption/internal/infra/metrics"
	red "invite-redemption/internal/infra/redis"
	"invite-redemption/internal/infra/web"
	"invite-redemption/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional; rate limiting degrades to no-op without it) ----
	var limiter *red.RateLimiter
	if cfg.Redis.Addr != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.addr not set; redeem rate limiting disabled")
	}

	// ---- Repositories ----
	codeRepo := pg.NewInviteCodeRepo(pool)
	identityRepo := pg.NewIdentityRepo(pool)
	orgRepo := pg.NewOrganizationRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	entUC := usecase.NewEntitlementUseCase(identityRepo, orgRepo)
	cachedEnt := cache.NewCachedEntitlement(entUC, cfg.Cache.TTL, cfg.Cache.MaxSize)
	redeemUC := usecase.NewRedemptionUseCase(codeRepo, identityRepo, orgRepo, txManager, logger, cachedEnt.Invalidate)
	provUC := usecase.NewProvisionUseCase(codeRepo, orgRepo, txManager, logger)
	identityUC := usecase.NewIdentityUseCase(identityRepo)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- HTTP ----
	server := web.NewServer(cfg, redeemUC, cachedEnt, provUC, identityUC, limiter, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
