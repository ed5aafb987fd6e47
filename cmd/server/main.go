package main

import (
	"context"

	"github.com/showmatch/showmatch-backend/internal/app"
	"github.com/showmatch/showmatch-backend/internal/cache"
	"github.com/showmatch/showmatch-backend/internal/config"
	"github.com/showmatch/showmatch-backend/internal/db"
	"github.com/showmatch/showmatch-backend/internal/logger"
	"github.com/showmatch/showmatch-backend/internal/server"
	"github.com/showmatch/showmatch-backend/internal/service/match"
	"github.com/showmatch/showmatch-backend/internal/service/profile"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(cfg, database, redisCache, log)

	registrars := []server.Registrar{
		server.NewHealthRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
