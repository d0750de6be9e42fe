package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/moviease/internal/app"
	"github.com/oggyb/moviease/internal/cache"
	"github.com/oggyb/moviease/internal/config"
	"github.com/oggyb/moviease/internal/db"
	"github.com/oggyb/moviease/internal/logger"
	"github.com/oggyb/moviease/internal/server"
	"github.com/oggyb/moviease/internal/service/moviease"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init cache store (memory or Redis)
	store, err := app.NewStore(ctx, cfg)
	if err != nil {
		log.Error("failed to init cache store", "backend", cfg.Cache.Backend, "err", err)
		return
	}
	switch s := store.(type) {
	case *cache.MemoryStore:
		go s.RunJanitor(ctx, time.Minute)
	case *cache.RedisStore:
		defer s.Close()
	}

	// Inject logger into app context
	appCtx := app.New(database, store, cfg, log)

	registrars := []server.Registrar{
		moviease.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr, "cache", cfg.Cache.Backend)

	if err := server.StartGRPCServer(ctx, cfg, log, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
