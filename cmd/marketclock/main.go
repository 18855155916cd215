// Command marketclock is the terminal world market clock.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"marketclock/internal/config"
	"marketclock/internal/market"
	"marketclock/internal/store"
	"marketclock/internal/tui"
	"marketclock/internal/util"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a dated file.
	logger, logFile, err := util.NewFileLogger(os.TempDir(), "marketclock", cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	util.SetDefault(logger)

	reg := market.Default()
	if cfg.Dashboard.MarketsFile != "" {
		if reg, err = market.LoadFile(cfg.Dashboard.MarketsFile); err != nil {
			fmt.Fprintf(os.Stderr, "loading markets: %v\n", err)
			os.Exit(1)
		}
	}
	logger.Info("loaded markets", "count", reg.Len())

	opts := tui.Options{
		Registry: reg,
		Interval: cfg.Dashboard.RefreshInterval,
		Logger:   logger,
		Theme:    detectTheme(),
	}

	// Preferences are optional; without them the theme just isn't remembered.
	prefs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		logger.Warn("opening preference store", "path", cfg.Storage.SQLitePath, "error", err)
	} else {
		defer prefs.Close()
		opts.Prefs = prefs

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		saved, found, err := prefs.Theme(ctx)
		cancel()
		switch {
		case err != nil:
			logger.Warn("reading saved theme", "error", err)
		case found:
			opts.Theme = saved
		}
	}

	p := tea.NewProgram(
		tui.New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// detectTheme follows the terminal background when no theme has been saved,
// the same way the browser page follows prefers-color-scheme.
func detectTheme() store.Theme {
	if lipgloss.HasDarkBackground() {
		return store.ThemeDark
	}
	return store.ThemeLight
}
