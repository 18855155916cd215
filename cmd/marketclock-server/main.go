// Command marketclock-server serves the world market clock over HTTP and
// WebSocket.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"marketclock/internal/config"
	"marketclock/internal/httpapi"
	"marketclock/internal/market"
	"marketclock/internal/store"
	"marketclock/internal/util"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	reg := market.Default()
	if cfg.Dashboard.MarketsFile != "" {
		if reg, err = market.LoadFile(cfg.Dashboard.MarketsFile); err != nil {
			log.Fatalf("loading markets: %v", err)
		}
	}

	prefs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening preference store: %v", err)
	}
	defer prefs.Close()

	defaultTheme, err := store.ParseTheme(cfg.Dashboard.DefaultTheme)
	if err != nil {
		log.Fatalf("dashboard.default_theme: %v", err)
	}

	srv := httpapi.NewDashboardServer(httpapi.Options{
		Registry:     reg,
		Prefs:        prefs,
		DefaultTheme: defaultTheme,
		Refresh:      cfg.Dashboard.RefreshInterval,
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Hub().Run(gctx)
	})

	g.Go(func() error {
		logger.Info("marketclock server listening", "addr", httpServer.Addr, "markets", reg.Len())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down marketclock server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
	}
}
