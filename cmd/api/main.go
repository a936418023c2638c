package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"goeats/internal/config"
	"goeats/internal/httpserver"
	"goeats/internal/logger"
	"goeats/internal/remote"
	"goeats/internal/repository/state"
	"goeats/internal/service/auth"
	"goeats/internal/service/cart"
	"goeats/internal/service/menu"
	"goeats/internal/service/order"
	"goeats/internal/service/session"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, os.Stdout).With(slog.String("profile", cfg.Profile))

	ctx := context.Background()
	repo, closeRepo, err := state.Open(ctx, cfg.StorageOptions())
	if err != nil {
		log.Error("open storage", slog.String("driver", cfg.StorageDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepo()

	cartStore, err := cart.New(repo, log)
	if err != nil {
		log.Error("load cart", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sessionStore, err := session.New(repo, log)
	if err != nil {
		log.Error("load session", slog.String("error", err.Error()))
		os.Exit(1)
	}
	pricing, err := cfg.Pricing()
	if err != nil {
		log.Error("parse pricing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	api := remote.New(cfg.APIBaseURL, cfg.APITimeout)
	authService := auth.New(api, sessionStore, log)
	menuService := menu.New(api, cartStore, sessionStore, log)
	orderService := order.New(api, cartStore, sessionStore, pricing, log)

	srv := httpserver.New(cfg.HTTPAddr, log, httpserver.Deps{
		Cart:    cartStore,
		Session: sessionStore,
		Auth:    authService,
		Menu:    menuService,
		Orders:  orderService,
		Ready: []httpserver.ReadinessCheck{
			{Name: "storage", Check: func(context.Context) error { return state.Ping(repo) }},
			{Name: "remote", Check: api.Health},
		},
	}, cfg.CORSOrigins)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", slog.String("error", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	} else {
		log.Info("server stopped")
	}
}
