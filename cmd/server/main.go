package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/derk-ster/StudyHatch-sub000/internal/config"
	"github.com/derk-ster/StudyHatch-sub000/internal/database"
	"github.com/derk-ster/StudyHatch-sub000/internal/handler/health"
	"github.com/derk-ster/StudyHatch-sub000/internal/migrations"
	"github.com/derk-ster/StudyHatch-sub000/internal/push"
	"github.com/derk-ster/StudyHatch-sub000/internal/server"
	"github.com/derk-ster/StudyHatch-sub000/internal/session"
	"github.com/derk-ster/StudyHatch-sub000/internal/stateless"
	"github.com/derk-ster/StudyHatch-sub000/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Session store ---
	st, checks, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr := session.New(st, logger, session.Options{TTL: cfg.SessionTTL})

	// --- Push hub (server mode only) ---
	var hub *push.Hub
	if !cfg.Serverless() {
		hub = push.NewHub(mgr, logger)
		checks["hub"] = health.CheckerFunc(func(context.Context) error {
			if _, ok := hub.Stats(); !ok {
				return fmt.Errorf("push hub is not running")
			}
			return nil
		})
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Mount("/api/game", stateless.NewHandler(mgr, logger, cfg.JoinURL).Routes())
		if hub != nil {
			r.Mount("/games", push.NewHandler(hub, logger, cfg.WSOrigins).Routes())
		}
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "deploy_mode", cfg.DeployMode)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	if hub != nil {
		g.Go(func() error {
			return hub.Run(gctx)
		})
	}

	g.Go(func() error {
		sweep(gctx, mgr, cfg.SweepInterval, logger)
		return nil
	})

	return g.Wait()
}

// openStore picks the session backend: Redis when configured, a failing
// backend for serverless deployments without one, SQLite when DB_PATH is
// set, and process memory otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, map[string]health.Checker, func(), error) {
	checks := map[string]health.Checker{}
	noop := func() {}

	switch {
	case cfg.RedisURL != "":
		target := store.Scrub(cfg.RedisURL)
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("parsing redis url %s: %w", target, err)
		}
		rdb := redis.NewClient(opt)
		rs := store.NewRedis(rdb, cfg.SessionTTL, target)
		if err := rs.Ping(ctx); err != nil {
			// Requests answer 503 until the store comes back.
			logger.Warn("redis unreachable at startup", "target", target, "error", err)
		} else {
			logger.Info("connected to redis", "target", target)
		}
		checks["redis"] = health.CheckerFunc(rs.Ping)
		return rs, checks, func() { rdb.Close() }, nil

	case cfg.Serverless():
		logger.Warn("serverless deployment without REDIS_URL, sessions cannot be stored")
		checks["store"] = health.CheckerFunc(func(context.Context) error {
			return fmt.Errorf("REDIS_URL is not configured")
		})
		return store.Unavailable{Reason: "REDIS_URL is not configured"}, checks, noop, nil

	case cfg.DBPath != "":
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("connecting to sqlite: %w", err)
		}
		if err := migrations.Run(db); err != nil {
			db.Close()
			return nil, nil, noop, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath)
		checks["sqlite"] = dbChecker{db}
		return store.NewSQLite(db), checks, func() { db.Close() }, nil

	default:
		logger.Info("using in-memory session store")
		return store.NewMemory(), checks, noop, nil
	}
}

func sweep(ctx context.Context, mgr *session.Manager, every time.Duration, logger *slog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := mgr.Sweep(ctx); err != nil {
				logger.Error("sweeping sessions", "error", err)
			}
		}
	}
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }
