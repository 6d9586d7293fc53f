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

	"github.com/p4r4digm/todo-helper/internal/app"
	"github.com/p4r4digm/todo-helper/internal/config"
	"github.com/p4r4digm/todo-helper/internal/gitrepo"
	"github.com/p4r4digm/todo-helper/internal/kv"
	"github.com/p4r4digm/todo-helper/internal/tracker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	backend, err := kv.NewRedisStore(cfg.RedisURL)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	creator, err := tracker.NewGitHub(ctx, cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		logger.Error("github client setup failed", "error", err)
		os.Exit(1)
	}

	service := app.New(cfg, backend, gitrepo.New(cfg.ReposDir), creator, app.Options{Logger: logger})
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("todo-helper API listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("todo-helper API stopped")
}
