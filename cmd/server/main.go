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

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/config"
	"github.com/ayush/socialnet/backend/internal/logging"
	"github.com/ayush/socialnet/backend/internal/server"
	"github.com/ayush/socialnet/backend/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid configuration", err)
	}
	ctx := context.Background()

	deps := server.Deps{Config: cfg, Logger: logger}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		mem := store.NewMemoryStore()
		deps.Store = mem
		deps.Notifications = mem
		deps.Media = store.NewMemoryMedia()

	default:
		// ── PostgreSQL ────────────────────────────────────────────
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal(logger, "postgres connect", err)
		}
		defer pgPool.Close()
		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			fatal(logger, "postgres migrate", err)
		}
		deps.Notifications = pgStore

		// ── MongoDB ──────────────────────────────────────────────
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			fatal(logger, "mongo connect", err)
		}
		defer mongoClient.Disconnect(ctx)
		mongoStore := store.NewMongoStore(mongoClient, mongoClient.Database(cfg.MongoDB), cfg.MongoTransactions)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			fatal(logger, "mongo indexes", err)
		}
		deps.Store = mongoStore

		// ── MinIO ────────────────────────────────────────────────
		minioStore, err := store.NewMinioStore(ctx, cfg)
		if err != nil {
			fatal(logger, "minio connect", err)
		}
		deps.Media = minioStore
	}

	// ── Redis ────────────────────────────────────────────────
	if cfg.RevokeOnLogout {
		rdb, err := store.NewRedisClient(ctx, cfg)
		if err != nil {
			fatal(logger, "redis connect", err)
		}
		defer rdb.Close()
		deps.Revocations = auth.NewRedisRevocationList(rdb)
	}

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		logger.Info("backend listening", "port", cfg.Port, "backend", cfg.StoreBackend, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
