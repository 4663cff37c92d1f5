package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-payment-gateway/config"
	"solana-payment-gateway/internal/adapter/chain"
	httpHandler "solana-payment-gateway/internal/adapter/http/handler"
	"solana-payment-gateway/internal/adapter/qr"
	pgStorage "solana-payment-gateway/internal/adapter/storage/postgres"
	redisStorage "solana-payment-gateway/internal/adapter/storage/redis"
	"solana-payment-gateway/internal/core/domain"
	"solana-payment-gateway/internal/core/ports"
	"solana-payment-gateway/internal/metrics"
	"solana-payment-gateway/internal/service"
	"solana-payment-gateway/pkg/logger"

	"github.com/jonboulle/clockwork"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("merchant_wallet", cfg.Solana.MerchantWallet).
		Str("token_mint", cfg.Solana.TokenMint).
		Msg("Starting Solana Payment Gateway")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	if err := pgStorage.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}
	log.Info().Msg("PostgreSQL connected")

	// Redis
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	clock := clockwork.NewRealClock()
	paymentMetrics := metrics.Payments()

	// Chain adapters
	conn := chain.NewConnection(cfg.Solana, logger.Component(log, "solana_rpc"))
	ledger := chain.NewLedger(conn, cfg.Solana.Commitment, logger.Component(log, "ledger"))
	walletKeys := cfg.Solana.WalletKeys
	if cfg.Solana.WalletKeySeal != "" {
		sealer, err := service.NewKeySealer(cfg.Solana.WalletKeySeal)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid wallet key seal")
		}
		if walletKeys, err = sealer.OpenAll(walletKeys); err != nil {
			log.Fatal().Err(err).Msg("Failed to unseal payer wallet keys")
		}
	}
	wallet, err := chain.NewKeypairWallet(conn, walletKeys, cfg.Solana.Commitment, logger.Component(log, "wallet"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load payer wallets")
	}
	builder := chain.NewTransactionBuilder(ledger, logger.Component(log, "builder"))
	monitor := service.NewChainMonitor(ledger, clock, service.MonitorConfig{
		Interval:    cfg.Payment.PollInterval,
		MaxAttempts: cfg.Payment.MaxAttempts,
	}, paymentMetrics, logger.Component(log, "monitor"))

	// Backend notifier
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	var signer *service.RequestSigner
	if cfg.Backend.SigningSecret != "" {
		signer = service.NewRequestSigner(cfg.Backend.SigningSecret, clock)
	}
	notifier := service.NewBackendNotifier(service.NotifierConfig{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       cfg.Backend.Timeout,
		RetryAttempts: cfg.Backend.RetryAttempts,
		RetryDelay:    cfg.Backend.RetryDelay,
		Signer:        signer,
	}, tokenSvc, &http.Client{Timeout: cfg.Backend.Timeout}, paymentMetrics, logger.Component(log, "notifier"))

	attempts := cfg.Backend.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	notifyTimeout := time.Duration(attempts) * (cfg.Backend.Timeout + cfg.Backend.RetryDelay)

	paymentSvc := service.NewPaymentService(service.PaymentConfig{
		Recipient:      cfg.Solana.MerchantWallet,
		Currency:       domain.CurrencyFromMint(cfg.Solana.TokenMint),
		Label:          cfg.Payment.Label,
		ConfirmTimeout: cfg.Payment.ConfirmTimeout,
		NotifyTimeout:  notifyTimeout,
		ReferenceTTL:   cfg.Payment.ReferenceTTL,
		StateTTL:       cfg.Payment.StateTTL,
	}, service.PaymentDeps{
		Builder:    builder,
		Encoder:    chain.NewPayURLEncoder(),
		QR:         qr.NewRenderer(cfg.Payment.QRSize),
		Signer:     wallet,
		Ledger:     ledger,
		Watcher:    monitor,
		Notifier:   notifier,
		Attempts:   pgStorage.NewAttemptRepo(pool),
		Registry:   redisStorage.NewReferenceRegistry(rdb),
		Cache:      redisStorage.NewStateCache(rdb),
		Transactor: pgStorage.NewTransactor(pool),
		Metrics:    paymentMetrics,
		Clock:      clock,
	}, logger.Component(log, "payment"))

	go paymentSvc.RunJanitor(ctx, cfg.Payment.SweepInterval)

	docs, err := httpHandler.LoadAPIDocs("docs/api/openapi.yaml")
	if err != nil {
		log.Warn().Err(err).Msg("payments API docs unavailable at /swagger")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:     paymentSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb, clock),
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
			chain.NewHealthCheck(conn),
		},
		Metrics: metrics.HTTP(),
		Docs:    docs,
		Mode:    cfg.Server.Mode,
		Logger:  log,
	})

	// Direct payments hold the request open until the transfer confirms.
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Payment.ConfirmTimeout + 15*time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := paymentSvc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Payment monitors did not stop in time")
	}

	log.Info().Msg("Server exited")
}
