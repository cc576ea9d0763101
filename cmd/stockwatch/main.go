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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/stockwatch/internal/browser"
	"github.com/pauljones0/stockwatch/internal/config"
	"github.com/pauljones0/stockwatch/internal/dashboard"
	"github.com/pauljones0/stockwatch/internal/history"
	"github.com/pauljones0/stockwatch/internal/inventory"
	"github.com/pauljones0/stockwatch/internal/monitor"
	"github.com/pauljones0/stockwatch/internal/notifier"
	"github.com/pauljones0/stockwatch/internal/scheduler"
	"github.com/pauljones0/stockwatch/internal/store"
	"github.com/pauljones0/stockwatch/internal/validator"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	slog.Info("Starting stock watch...", "store", cfg.StoreSelection, "interval", cfg.PollInterval)

	if err := run(cfg, logger); err != nil {
		slog.Error("Stock watch stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Stock watch stopped.")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := store.NewResolver(cfg.APIHost, cfg.WebHost, cfg.ProductLinePath, validator.New())
	catalog := store.LoadCatalog(cfg.StoresConfigPath)

	opener, err := browser.New(cfg.BrowserDriver)
	if err != nil {
		return err
	}
	defer func() {
		if err := opener.Close(); err != nil {
			slog.Warn("Failed to close browser", "error", err)
		}
	}()

	feed := dashboard.NewFeed()
	dispatcher := notifier.NewDispatcher(cfg.AlertTitle, notifier.NewBell(os.Stdout), opener,
		notifier.NewDiscord(cfg.DiscordWebhookURL), feed)
	dispatcher.SetSoundEnabled(cfg.SoundEnabled)

	engine, err := monitor.New(cfg.StoreSelection, resolver, inventory.New(), dispatcher,
		history.New(cfg.HistoryCapacity), cfg.PollInterval)
	if err != nil {
		return err
	}
	engine.RequestPermission(ctx, notifier.NewWebhookPermission(cfg.DiscordWebhookURL))

	router := dashboard.NewRouter(logger)
	dashboard.NewHandler(engine, catalog, feed, logger).RegisterRoutes(router)
	httpServer := &http.Server{
		Addr:              cfg.DashboardAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.New(engine, cfg.PollInterval).Run(gctx)
	})
	g.Go(func() error {
		slog.Info("Dashboard listening", "addr", cfg.DashboardAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
