package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/ndhoang/contractwatch/internal/control"
	"github.com/ndhoang/contractwatch/internal/core/config"
	"github.com/ndhoang/contractwatch/internal/events"
	"github.com/ndhoang/contractwatch/internal/fetch"
	"github.com/ndhoang/contractwatch/internal/health"
	"github.com/ndhoang/contractwatch/internal/infra/redis"
	"github.com/ndhoang/contractwatch/internal/infra/storage/memory"
	"github.com/ndhoang/contractwatch/internal/infra/storage/postgres"
	"github.com/ndhoang/contractwatch/internal/monitor"
	"github.com/ndhoang/contractwatch/internal/verification"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "contractwatch",
	Short: "Contractwatch deployment monitor",
	Long:  `Contractwatch watches EVM chains for contract deployments and submits them for source verification.`,
	Run:   runWatch,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

func initLogger(level slog.Level) *slog.Logger {
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(log)
	return log
}

func runWatch(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		initLogger(slog.LevelInfo)
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	log := initLogger(slogLevel)

	tunables, err := config.TunablesFromEnv()
	if err != nil {
		log.Error("Invalid tunables", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repository: postgres when configured, in-memory otherwise
	var repo verification.RepositoryService
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			log.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		repo = postgres.NewMatchRepo(db)
	} else {
		log.Warn("No database configured, using in-memory repository")
		repo = memory.NewMatchRepo()
	}

	// Optional verified-address cache
	if cfg.Redis.URL != "" {
		cache, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		repo = redis.NewCachedRepository(repo, cache, 24*time.Hour, log)
	}

	verifierURL := cfg.Verifier.URL
	if verifierURL == "" {
		verifierURL = "http://localhost:5555"
	}
	gateway := cfg.Fetcher.Gateway
	if gateway == "" {
		gateway = "https://ipfs.io"
	}

	bus := events.NewBus()
	bus.SubscribeAll(events.LogHandler(log.With("component", "events")))

	deps := monitor.Deps{
		Fetcher:    fetch.NewGatewayFetcher(gateway, 30*time.Second, log),
		Verifier:   verification.NewHTTPClient(verifierURL, 60*time.Second),
		Repository: repo,
		Bus:        bus,
	}

	sup := control.NewSupervisor(cfg.Descriptors(), tunables, deps, log)

	srv := health.NewServer(sup.Statuses, cfg.Server.Port)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := sup.Start(ctx); err != nil {
		log.Error("Failed to start monitors", "error", err)
		os.Exit(1)
	}

	log.Info("Contractwatch started", "config", cfgPath)

	sig := <-sigChan
	log.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		sup.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timed out")
	}
	_ = srv.Stop(shutdownCtx)
}
