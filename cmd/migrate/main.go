package main

import (
	"context"
	"log/slog"
	"os"

	"goeats/internal/config"
	"goeats/internal/db"
	"goeats/internal/logger"
	"goeats/internal/migrate"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, os.Stdout).With(slog.String("cmd", "migrate"))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Error("connect db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Error("apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	version, dirty, ok, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Error("read schema version", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !ok {
		log.Warn("no migrations recorded")
		return
	}
	log.Info("migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
}
