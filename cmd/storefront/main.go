package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/postgresstore"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/NGxID18/CureCart/internal/catalog"
	"github.com/NGxID18/CureCart/internal/config"
	"github.com/NGxID18/CureCart/internal/db"
	handler "github.com/NGxID18/CureCart/internal/handler/http"
	"github.com/NGxID18/CureCart/internal/order"
	"github.com/NGxID18/CureCart/internal/payment"
	"github.com/NGxID18/CureCart/internal/session"
	"github.com/NGxID18/CureCart/internal/user"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "storefront").Logger()
	}

	log.Info().Str("env", cfg.App.Env).Msg("Storefront starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.Postgres.URL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	var productRepo catalog.Repository = catalog.NewRepository(pg.Pool)
	var stock order.StockInvalidator
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, catalog cache disabled")
		} else {
			productRepo = catalog.NewCachedRepository(productRepo, rdb, cfg.Redis.CacheTTL)
			stock = catalog.NewProductCache(rdb)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Catalog cache enabled")
		}
	}

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:      cfg.Stripe.SecretKey,
		PublishableKey: cfg.Stripe.PublishableKey,
		WebhookSecret:  cfg.Stripe.WebhookSecret,
	}, nil)
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET is empty, payment callbacks will be rejected")
	}

	catalogService := catalog.NewService(productRepo)
	userService := user.NewService(user.NewRepository(pg.Pool))
	orderService := order.NewService(
		order.NewRepository(pg.Pool),
		order.NewAdminReader(sqlx.NewDb(pg.SQL(), "pgx")),
		gateway,
		stock,
		cfg.App.BaseURL,
	)

	store := postgresstore.NewWithCleanupInterval(pg.SQL(), 30*time.Minute)
	defer store.StopCleanup()

	limiter := handler.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx)

	sessions := session.New(store, session.Options{
		Lifetime: cfg.Session.Lifetime,
		Secure:   cfg.IsProduction(),
	})

	h, err := handler.NewHandler(handler.Deps{
		Catalog:     catalogService,
		Users:       userService,
		Orders:      orderService,
		Gateway:     gateway,
		Sessions:    sessions,
		RateLimiter: limiter,
		Production:  cfg.IsProduction(),
		TrustProxy:  cfg.App.TrustProxy,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build handler")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      handler.NewRouter(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Str("base_url", cfg.App.BaseURL).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
