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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/flourprice/internal/config"
	"github.com/Simplici0/flourprice/internal/db"
	"github.com/Simplici0/flourprice/internal/logger"
	"github.com/Simplici0/flourprice/internal/migrations"
	"github.com/Simplici0/flourprice/internal/pricing"
	"github.com/Simplici0/flourprice/internal/seed"
	"github.com/Simplici0/flourprice/internal/yieldtable"
)

type server struct {
	engine        *pricing.Engine
	yieldSource   yieldtable.Source
	lookupTimeout time.Duration
	logger        *zap.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("server exited", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

// run serves until ctx is cancelled or the listener fails. Deferred cleanup always runs.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	srv := &server{
		engine:        pricing.NewEngine(log),
		lookupTimeout: cfg.YieldLookupTimeout,
		logger:        log,
	}

	if cfg.Policy() == pricing.SplitTable {
		source, closeSource, err := openYieldSource(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("open yield table source: %w", err)
		}
		defer closeSource()

		srv.yieldSource = source
		srv.engine = pricing.NewEngine(log,
			pricing.WithSplitTable(yieldtable.Resolver{Source: source, Mode: cfg.LookupMode()}),
			pricing.WithLookupTimeout(cfg.YieldLookupTimeout),
		)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", httpServer.Addr),
			zap.String("split_policy", string(srv.engine.Policy())),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server shutdown gracefully")
	return nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/pricing", s.handlePricing)
	r.Post("/pricing/text", s.handlePricingText)
	r.Get("/api/yield-rates", s.handleYieldRates)

	return r
}

// openYieldSource builds the configured yield table source. The returned func releases it.
func openYieldSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (yieldtable.Source, func(), error) {
	switch cfg.YieldSource {
	case config.YieldSourceHTTP:
		return yieldtable.NewHTTPSource(cfg.YieldTableURL, cfg.YieldLookupTimeout, log), func() {}, nil

	case config.YieldSourceSQLite:
		database, err := db.Open(ctx, cfg.DBPath, log)
		if err != nil {
			return nil, nil, err
		}
		if cfg.IsDev() {
			if err := migrations.Up(ctx, database, cfg.MigrationsDir, log); err != nil {
				database.Close()
				return nil, nil, err
			}
		}
		stats, err := seed.Run(ctx, database, yieldtable.Default())
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("seed yield rates: %w", err)
		}
		log.Info("yield rates seeded", zap.Int("inserts", stats.Inserts))
		return yieldtable.SQLSource{DB: database}, func() { database.Close() }, nil

	case config.YieldSourceRedis:
		source := yieldtable.NewRedisSource(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisYieldKey)
		seedCtx, cancel := context.WithTimeout(ctx, cfg.YieldLookupTimeout)
		defer cancel()
		if wrote, err := source.SeedIfEmpty(seedCtx, yieldtable.Default()); err != nil {
			log.Warn("could not seed redis yield rates", zap.Error(err))
		} else if wrote {
			log.Info("redis yield rates seeded", zap.String("key", cfg.RedisYieldKey))
		}
		return source, source.Close, nil

	default:
		return yieldtable.FileSource{Path: cfg.YieldTablePath}, func() {}, nil
	}
}
