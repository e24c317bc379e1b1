package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/api"
	"github.com/smartsecurity/access-register/internal/auth"
	"github.com/smartsecurity/access-register/internal/config"
	"github.com/smartsecurity/access-register/internal/lifecycle"
	"github.com/smartsecurity/access-register/internal/notify"
	"github.com/smartsecurity/access-register/internal/report"
	"github.com/smartsecurity/access-register/internal/storage"
	"github.com/smartsecurity/access-register/internal/tenancy"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "configs/config.yaml", "Configuration file path")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogging(cfg.Log)
	if err := cfg.RequireServer(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	cfg.PrintConfigSummary()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewPostgresStore(cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()
	store.SetPool(cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	log.Info().Msg("Connected to database")

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	gateway, closeGateway := pushGateway(cfg)
	defer closeGateway()
	dispatcher := notify.NewDispatcher(gateway, cfg.Notification.QueueSize, cfg.Notification.Workers)

	var cache report.Cache
	if cfg.Redis.Addr != "" {
		client, err := report.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, dashboard counts will not be cached")
		} else {
			defer client.Close()
			cache = report.NewRedisCache(client)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		}
	}

	jwt := auth.NewJWTManager(&cfg.JWT)
	apiServer := api.NewRESTServer(cfg, jwt, api.Services{
		Auth:     auth.NewService(store, jwt),
		Visitors: lifecycle.NewVisitorService(store, dispatcher),
		Vehicles: lifecycle.NewVehicleService(store),
		Staff:    lifecycle.NewStaffService(store),
		Tenants:  tenancy.NewService(store, dispatcher),
		Reports:  report.NewReader(store, cache, cfg.Report),
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := apiServer.ListenAndServe(cfg.API.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("REST API server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown API server gracefully")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Pending notifications were dropped")
	}

	wg.Wait()
	log.Info().Msg("Access register stopped")
}

// pushGateway hands notifications to the worker over NATS when a broker is
// configured. Without one it delivers straight to the HTTP push endpoint, or
// only logs.
func pushGateway(cfg *config.Config) (notify.Gateway, func()) {
	if cfg.NATS.URL != "" {
		nc, err := notify.Connect(cfg.NATS, cfg.Server.Name)
		if err == nil {
			log.Info().Str("url", cfg.NATS.URL).Msg("Connected to NATS")
			return notify.NewNATSGateway(nc, cfg.Notification.Subject), nc.Close
		}
		log.Warn().Err(err).Msg("Failed to connect to NATS, continuing without NATS support")
	}
	if cfg.Notification.HTTP.Endpoint != "" {
		return notify.NewHTTPPushGateway(cfg.Notification.HTTP), func() {}
	}
	log.Info().Msg("No push transport configured, notifications are logged only")
	return notify.LogGateway{}, func() {}
}
