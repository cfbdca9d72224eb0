package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3-frozen/anchor-autopilot/internal/cache"
	"github.com/web3-frozen/anchor-autopilot/internal/chain"
	"github.com/web3-frozen/anchor-autopilot/internal/config"
	"github.com/web3-frozen/anchor-autopilot/internal/contract"
	"github.com/web3-frozen/anchor-autopilot/internal/handler"
	"github.com/web3-frozen/anchor-autopilot/internal/lease"
	"github.com/web3-frozen/anchor-autopilot/internal/middleware"
	"github.com/web3-frozen/anchor-autopilot/internal/provider"
	"github.com/web3-frozen/anchor-autopilot/internal/requirement"
	"github.com/web3-frozen/anchor-autopilot/internal/scheduler"
	"github.com/web3-frozen/anchor-autopilot/internal/store"
	"github.com/web3-frozen/anchor-autopilot/internal/txlog"
	"github.com/web3-frozen/anchor-autopilot/internal/yield"
)

func main() {
	// A missing .env is fine; the environment wins over the file.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Contract address book
	book := contract.NewBook()
	if cfg.ContractsFile != "" {
		if err := book.LoadFile(cfg.ContractsFile); err != nil {
			logger.Error("failed to load contracts file", "path", cfg.ContractsFile, "error", err)
			os.Exit(1)
		}
		logger.Info("contracts file loaded", "path", cfg.ContractsFile)
	}

	// Chain access
	client := chain.NewClient(cfg.LCDURL, cfg.FCDURL, cfg.RequestsPerSecond)
	scanner := txlog.NewScanner(client, book, clockwork.NewRealClock(), cfg.Scan, cfg.StableDenom, logger)
	yields := yield.NewEngine(client, scanner)

	settings := config.NewLive(cfg.Settings)
	registry := provider.NewRegistry()
	provider.Bind(registry, provider.Deps{
		Chain:       client,
		Contracts:   book,
		Scanner:     scanner,
		Yield:       yields,
		Settings:    settings,
		Wallet:      cfg.WalletAddress,
		StableDenom: cfg.StableDenom,
		ChainID:     cfg.ChainID,
		AnchorAPI:   cfg.AnchorAPIURL,
		SpectrumAPI: cfg.SpectrumAPIURL,
		AirdropAPI:  cfg.AirdropAPIURL,
	})
	if missing := registry.Missing(requirement.Catalog()); len(missing) > 0 {
		logger.Warn("requirement keys without a provider", "keys", missing)
	}
	if cfg.WalletAddress == "" {
		logger.Warn("WALLET_ADDRESS not set, account keys will fail")
	}

	opts := []scheduler.Option{scheduler.WithTickInterval(cfg.TickInterval)}
	var ready []handler.Pinger

	// Database archive (optional)
	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database connected and migrated")
		opts = append(opts, scheduler.WithArchiver(db))
		ready = append(ready, db)
	}

	// Redis fetch lease (optional, retry up to 30s for ExternalSecret to sync)
	if cfg.RedisURL != "" {
		var (
			l   *lease.Lease
			err error
		)
		for i := 0; i < 6; i++ {
			l, err = lease.New(cfg.RedisURL, cfg.RedisPassword)
			if err == nil {
				break
			}
			logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
			time.Sleep(5 * time.Second)
		}
		if err != nil {
			logger.Error("failed to connect to redis after retries", "error", err)
			os.Exit(1)
		}
		defer l.Close()
		logger.Info("redis connected for fetch leases")
		opts = append(opts, scheduler.WithLease(l))
	}

	// Scheduling engine
	entries := cache.New(nil)
	engine := scheduler.NewEngine(entries, registry, settings, logger, opts...)
	go engine.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(ready...))

	r.Route("/api", func(r chi.Router) {
		r.Get("/entries", handler.Entries(entries))
		r.Get("/entries/{key}", handler.Entry(entries))
		r.Get("/requirements", handler.Requirements(engine))
		r.Get("/settings", handler.GetSettings(engine))
		r.Put("/settings", handler.UpdateSettings(engine))
		if db != nil {
			r.Get("/history/apy", handler.APYHistory(db))
			r.Get("/history/txs/{action}", handler.TxHistory(db))
		}
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	engine.Wait()
}
