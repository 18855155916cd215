// Command marketclock-cli prints market states, world clocks and the saved
// theme, either computed locally or fetched from a marketclock-server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"marketclock/internal/config"
	"marketclock/internal/dashboard"
	"marketclock/internal/market"
	"marketclock/internal/store"
	"marketclock/pkg/marketclock"
)

const version = "0.1.0"

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: marketclock-cli <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  version                  Print the CLI version\n")
	fmt.Fprintf(w, "  markets [-search s] [-country c] [-status all|open|closed]\n")
	fmt.Fprintf(w, "                           List markets and their session state\n")
	fmt.Fprintf(w, "  market <name>            Show one market\n")
	fmt.Fprintf(w, "  clocks                   Show the world clocks\n")
	fmt.Fprintf(w, "  countries                List market countries\n")
	fmt.Fprintf(w, "  theme [get|set <t>|toggle]\n")
	fmt.Fprintf(w, "                           Read or change the saved theme\n")
	fmt.Fprintf(w, "\nCommon options:\n")
	fmt.Fprintf(w, "  -server URL   query a marketclock-server instead of computing locally\n")
	fmt.Fprintf(w, "  -json         print JSON\n")
	fmt.Fprintf(w, "\n")
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout)
	if errors.Is(err, errUsage) {
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// backend answers CLI queries, locally or over HTTP.
type backend interface {
	Snapshot(ctx context.Context, q marketclock.Query) (dashboard.Snapshot, error)
	Market(ctx context.Context, name string) (dashboard.MarketView, error)
	Theme(ctx context.Context) (marketclock.ThemeResponse, error)
	SetTheme(ctx context.Context, theme string) (marketclock.ThemeResponse, error)
	ToggleTheme(ctx context.Context) (marketclock.ThemeResponse, error)
}

type options struct {
	server string
	json   bool
	now    func() time.Time
}

func run(ctx context.Context, args []string, out io.Writer) error {
	return runWith(ctx, args, out, options{now: time.Now})
}

func runWith(ctx context.Context, args []string, out io.Writer, base options) error {
	if len(args) < 1 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	if cmd == "version" {
		fmt.Fprintf(out, "marketclock-cli %s\n", version)
		return nil
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := base
	fs.StringVar(&opts.server, "server", os.Getenv("MARKETCLOCK_SERVER"), "server base URL")
	fs.BoolVar(&opts.json, "json", false, "print JSON")
	var q marketclock.Query
	if cmd == "markets" {
		fs.StringVar(&q.Search, "search", "", "name or country substring")
		fs.StringVar(&q.Country, "country", "", "exact country")
		fs.StringVar(&q.Status, "status", "all", "all, open or closed")
	}
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	b, closeFn, err := newBackend(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	switch cmd {
	case "markets":
		snap, err := b.Snapshot(ctx, q)
		if err != nil {
			return err
		}
		if opts.json {
			return writeJSON(out, snap.Markets)
		}
		printMarkets(out, snap)

	case "market":
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: market takes exactly one name", errUsage)
		}
		v, err := b.Market(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if opts.json {
			return writeJSON(out, v)
		}
		printMarket(out, v)

	case "clocks":
		snap, err := b.Snapshot(ctx, marketclock.Query{})
		if err != nil {
			return err
		}
		if opts.json {
			return writeJSON(out, snap.Clocks)
		}
		t := newTable("城市", "时区", "时间")
		for _, c := range snap.Clocks {
			t.Row(c.Label, c.Timezone, c.Time)
		}
		fmt.Fprintln(out, t.Render())

	case "countries":
		snap, err := b.Snapshot(ctx, marketclock.Query{})
		if err != nil {
			return err
		}
		if opts.json {
			return writeJSON(out, snap.Countries)
		}
		for _, c := range snap.Countries {
			fmt.Fprintln(out, c)
		}

	case "theme":
		var resp marketclock.ThemeResponse
		switch sub := fs.Arg(0); sub {
		case "", "get":
			resp, err = b.Theme(ctx)
		case "set":
			if fs.NArg() != 2 {
				return fmt.Errorf("%w: theme set takes light or dark", errUsage)
			}
			resp, err = b.SetTheme(ctx, fs.Arg(1))
		case "toggle":
			resp, err = b.ToggleTheme(ctx)
		default:
			return fmt.Errorf("%w: unknown theme command %q", errUsage, sub)
		}
		if err != nil {
			return err
		}
		if opts.json {
			return writeJSON(out, resp)
		}
		saved := "default"
		if resp.Saved {
			saved = "saved"
		}
		fmt.Fprintf(out, "%s (%s)\n", resp.Theme, saved)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func newBackend(opts options) (backend, func(), error) {
	if opts.server != "" {
		return remoteBackend{marketclock.NewClient(opts.server)}, func() {}, nil
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, nil, err
	}
	reg := market.Default()
	if cfg.Dashboard.MarketsFile != "" {
		if reg, err = market.LoadFile(cfg.Dashboard.MarketsFile); err != nil {
			return nil, nil, err
		}
	}
	defaultTheme, err := store.ParseTheme(cfg.Dashboard.DefaultTheme)
	if err != nil {
		return nil, nil, err
	}
	lb := &localBackend{reg: reg, now: opts.now, cfg: cfg, defaultTheme: defaultTheme}
	return lb, lb.close, nil
}

// remoteBackend adapts the HTTP client.
type remoteBackend struct{ c *marketclock.Client }

func (r remoteBackend) Snapshot(ctx context.Context, q marketclock.Query) (dashboard.Snapshot, error) {
	return r.c.Snapshot(ctx, q)
}

func (r remoteBackend) Market(ctx context.Context, name string) (dashboard.MarketView, error) {
	return r.c.Market(ctx, name)
}

func (r remoteBackend) Theme(ctx context.Context) (marketclock.ThemeResponse, error) {
	return r.c.Theme(ctx)
}

func (r remoteBackend) SetTheme(ctx context.Context, theme string) (marketclock.ThemeResponse, error) {
	return r.c.SetTheme(ctx, theme)
}

func (r remoteBackend) ToggleTheme(ctx context.Context) (marketclock.ThemeResponse, error) {
	return r.c.ToggleTheme(ctx)
}

// localBackend computes views in-process and opens the preference store
// only when a theme command needs it.
type localBackend struct {
	reg          *market.Registry
	now          func() time.Time
	cfg          *config.Config
	defaultTheme store.Theme
	prefs        *store.SQLiteStore
}

func (l *localBackend) Snapshot(_ context.Context, q marketclock.Query) (dashboard.Snapshot, error) {
	f, err := dashboard.ParseFilter(q.Search, q.Country, q.Status)
	if err != nil {
		return dashboard.Snapshot{}, err
	}
	return dashboard.Build(l.now(), l.reg, f), nil
}

func (l *localBackend) Market(_ context.Context, name string) (dashboard.MarketView, error) {
	cal, err := l.reg.Calendar(name)
	if err != nil {
		return dashboard.MarketView{}, err
	}
	return dashboard.BuildMarket(l.now(), cal), nil
}

func (l *localBackend) openPrefs() (*store.SQLiteStore, error) {
	if l.prefs == nil {
		s, err := store.NewSQLiteStore(l.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		l.prefs = s
	}
	return l.prefs, nil
}

func (l *localBackend) Theme(ctx context.Context) (marketclock.ThemeResponse, error) {
	s, err := l.openPrefs()
	if err != nil {
		return marketclock.ThemeResponse{}, err
	}
	t, found, err := s.Theme(ctx)
	if err != nil {
		return marketclock.ThemeResponse{}, err
	}
	if !found {
		t = l.defaultTheme
	}
	return themeResponse(t, found), nil
}

func (l *localBackend) SetTheme(ctx context.Context, theme string) (marketclock.ThemeResponse, error) {
	t, err := store.ParseTheme(theme)
	if err != nil {
		return marketclock.ThemeResponse{}, err
	}
	s, err := l.openPrefs()
	if err != nil {
		return marketclock.ThemeResponse{}, err
	}
	if err := s.SetTheme(ctx, t); err != nil {
		return marketclock.ThemeResponse{}, err
	}
	return themeResponse(t, true), nil
}

func (l *localBackend) ToggleTheme(ctx context.Context) (marketclock.ThemeResponse, error) {
	s, err := l.openPrefs()
	if err != nil {
		return marketclock.ThemeResponse{}, err
	}
	t, err := s.ToggleTheme(ctx, l.defaultTheme)
	if err != nil {
		return marketclock.ThemeResponse{}, err
	}
	return themeResponse(t, true), nil
}

func (l *localBackend) close() {
	if l.prefs != nil {
		l.prefs.Close()
	}
}

func themeResponse(t store.Theme, saved bool) marketclock.ThemeResponse {
	return marketclock.ThemeResponse{Theme: t, Saved: saved, ToggleLabel: t.Label()}
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func printMarkets(w io.Writer, snap dashboard.Snapshot) {
	if snap.Empty() {
		fmt.Fprintln(w, dashboard.EmptyMessage)
		return
	}
	t := newTable("股市", "国家/地区", "状态", "当地时间", "倒计时")
	for _, v := range snap.Markets {
		t.Row(v.Name, v.Country, v.StateLabel, v.LocalTime, v.CountdownCaption+" "+v.CountdownText)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, dashboard.FormatSummary(snap.Summary))
}

func printMarket(w io.Writer, v dashboard.MarketView) {
	fmt.Fprintf(w, "%s  [%s]\n", v.Name, v.StateLabel)
	fmt.Fprintf(w, "%s · %s\n", v.Country, v.Timezone)
	for _, h := range v.Hours {
		fmt.Fprintln(w, h.String())
	}
	fmt.Fprintf(w, "%s: %s\n", dashboard.LocalTimeText, v.LocalTime)
	fmt.Fprintf(w, "%s: %s\n", v.CountdownCaption, v.CountdownText)
	if v.Description != "" {
		fmt.Fprintln(w, strings.TrimSpace(v.Description))
	}
}
