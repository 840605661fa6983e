package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/placesapp/places-api/internal/adapters/httpapi"
	memidempotency "github.com/placesapp/places-api/internal/adapters/memory/idempotency"
	memplacerepo "github.com/placesapp/places-api/internal/adapters/memory/placerepo"
	memuserrepo "github.com/placesapp/places-api/internal/adapters/memory/userrepo"
	postgres "github.com/placesapp/places-api/internal/adapters/postgres"
	pgidempotency "github.com/placesapp/places-api/internal/adapters/postgres/idempotency"
	pgplacerepo "github.com/placesapp/places-api/internal/adapters/postgres/placerepo"
	pguserrepo "github.com/placesapp/places-api/internal/adapters/postgres/userrepo"
	"github.com/placesapp/places-api/internal/app/places"
	"github.com/placesapp/places-api/internal/app/users"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
	platformclock "github.com/placesapp/places-api/internal/platform/clock"
	"github.com/placesapp/places-api/internal/platform/config"
	"github.com/placesapp/places-api/internal/platform/logger"
	"github.com/placesapp/places-api/internal/platform/metrics"
	idempotencyport "github.com/placesapp/places-api/internal/ports/out/idempotency"
	placerepoport "github.com/placesapp/places-api/internal/ports/out/placerepo"
	userrepoport "github.com/placesapp/places-api/internal/ports/out/userrepo"
)

func main() {
	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		slog.Error("invalid server config", "error", err)
		os.Exit(1)
	}
	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat, slog.String("service", "places-api"))
	if err != nil {
		slog.Error("invalid logging config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, cfg config.ServerConfig) error {
	// Auth configuration:
	// - Production: require JWT_* env vars and verify bearer credentials
	// - Local dev: set AUTH_MODE=dev to bypass verification and use X-Debug-Subject
	authCfg, err := config.LoadAuthConfigFromEnv()
	if err != nil {
		if cfg.AuthMode != config.AuthModeDev {
			return fmt.Errorf("invalid auth config: %w", err)
		}
		log.Warn("using insecure dev auth config", "error", err)
		authCfg = config.DevAuthConfig()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var authMW func(http.Handler) http.Handler
	switch cfg.AuthMode {
	case config.AuthModeDev:
		log.Warn("dev auth mode enabled; X-Debug-Subject is trusted", "defaultSubject", cfg.DevSubject)
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
	default:
		authMW = httpapi.NewCredentialMiddleware(credential.New(authCfg), m, log)
	}

	clk := platformclock.NewSystemClock()

	var (
		placeRepo placerepoport.Repository
		userRepo  userrepoport.Repository
		idemStore idempotencyport.Store
	)
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return fmt.Errorf("invalid postgres config: %w", err)
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(connectCtx, pool); err != nil {
			return err
		}

		placeRepo = pgplacerepo.NewRepo(pool)
		userRepo = pguserrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		placeRepo = memplacerepo.NewRepo()
		userRepo = memuserrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	}

	placesSvc := places.NewService(placeRepo, clk, log, m)
	usersSvc := users.NewService(userRepo, clk, credential.NewIssuer(authCfg), authCfg.BcryptCost, log, m)
	api := httpapi.NewServer(placesSvc, usersSvc, idemStore, httpapi.ServerOptions{
		LegacyPlacePayload: cfg.LegacyPlacePayload,
		Clock:              clk,
		Logger:             log,
	})

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: authMW,
		Registry:       reg,
		Metrics:        m,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api listening", "port", cfg.Port, "storage", cfg.StorageBackend, "authMode", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
