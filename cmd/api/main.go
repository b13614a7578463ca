package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/muralhq/mural-backend/api/routes"
	"github.com/muralhq/mural-backend/internal/accounts"
	"github.com/muralhq/mural-backend/internal/artworks"
	"github.com/muralhq/mural-backend/internal/auth"
	"github.com/muralhq/mural-backend/internal/cart"
	"github.com/muralhq/mural-backend/internal/favorites"
	"github.com/muralhq/mural-backend/internal/purchases"
	"github.com/muralhq/mural-backend/pkg/auth/session"
	"github.com/muralhq/mural-backend/pkg/config"
	"github.com/muralhq/mural-backend/pkg/db"
	"github.com/muralhq/mural-backend/pkg/logger"
	"github.com/muralhq/mural-backend/pkg/metrics"
	"github.com/muralhq/mural-backend/pkg/migrate"
	"github.com/muralhq/mural-backend/pkg/outbox"
	"github.com/muralhq/mural-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	relayMetrics := metrics.NewRelayMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	guestStore, err := cart.NewGuestStore(redisClient, cfg.GuestCart.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create guest cart store", err)
		os.Exit(1)
	}

	accountsRepo := accounts.NewRepository(dbClient.DB())
	artworksRepo := artworks.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	favoritesRepo := favorites.NewRepository(dbClient.DB())
	purchasesRepo := purchases.NewRepository(dbClient.DB())

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:       cartRepo,
		GuestStore: guestStore,
		Artworks:   artworksRepo,
		Tx:         dbClient,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		AccountRepo:    accountsRepo,
		SessionManager: sessionManager,
		CartMerger:     cartService,
		GuestCarts:     guestStore,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	accountsService, err := accounts.NewService(accounts.ServiceParams{
		Repo:        accountsRepo,
		Outbox:      outboxService,
		Tx:          dbClient,
		PasswordCfg: cfg.Password,
		Metrics:     relayMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	artworksService, err := artworks.NewService(artworks.ServiceParams{
		Repo:     artworksRepo,
		Accounts: accountsRepo,
		Outbox:   outboxService,
		Tx:       dbClient,
		Metrics:  relayMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create artworks service", err)
		os.Exit(1)
	}

	favoritesService, err := favorites.NewService(favorites.ServiceParams{
		Repo:     favoritesRepo,
		Artworks: artworksRepo,
		Tx:       dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create favorites service", err)
		os.Exit(1)
	}

	purchasesService, err := purchases.NewService(purchases.ServiceParams{
		Repo:       purchasesRepo,
		CartRepo:   cartRepo,
		GuestStore: guestStore,
		Outbox:     outboxService,
		Tx:         dbClient,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchases service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			accountsService,
			artworksService,
			cartService,
			favoritesService,
			purchasesService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
