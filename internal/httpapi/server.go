package httpapi

import (
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"marketclock/internal/calendar"
	"marketclock/internal/dashboard"
	"marketclock/internal/market"
	"marketclock/internal/store"
)

//go:embed static/index.html
var indexHTML []byte

// Options configures a DashboardServer.
type Options struct {
	Registry     *market.Registry
	Prefs        store.PreferenceStore
	DefaultTheme store.Theme
	Clock        calendar.Clock // nil: system clock
	Refresh      time.Duration  // WebSocket push interval; zero means 1s
	Logger       *slog.Logger
}

// DashboardServer serves the dashboard HTTP API and WebSocket feed.
type DashboardServer struct {
	reg          *market.Registry
	prefs        store.PreferenceStore
	defaultTheme store.Theme
	clock        calendar.Clock
	hub          *Hub
	log          *slog.Logger
}

// NewDashboardServer creates a new dashboard HTTP server. The returned
// server's Hub must be started with Run for WebSocket clients to receive
// updates.
func NewDashboardServer(opts Options) *DashboardServer {
	s := &DashboardServer{
		reg:          opts.Registry,
		prefs:        opts.Prefs,
		defaultTheme: opts.DefaultTheme,
		clock:        opts.Clock,
		log:          opts.Logger,
	}
	if s.clock == nil {
		s.clock = calendar.SystemClock{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.defaultTheme == "" {
		s.defaultTheme = store.ThemeLight
	}
	refresh := opts.Refresh
	if refresh <= 0 {
		refresh = time.Second
	}

	var notifier themeNotifier
	if n, ok := opts.Prefs.(themeNotifier); ok {
		notifier = n
	}
	s.hub = NewHub(s.snapshot, refresh, notifier, s.log)
	return s
}

// Hub returns the WebSocket hub.
func (s *DashboardServer) Hub() *Hub {
	return s.hub
}

func (s *DashboardServer) snapshot(f dashboard.Filter) dashboard.Snapshot {
	return dashboard.Build(s.clock.Now(), s.reg, f)
}

// RegisterRoutes registers all routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/markets", s.handleMarkets)
	mux.HandleFunc("GET /api/markets/{name}", s.handleMarket)
	mux.HandleFunc("GET /api/clocks", s.handleClocks)
	mux.HandleFunc("GET /api/countries", s.handleCountries)
	mux.HandleFunc("GET /api/theme", s.handleGetTheme)
	mux.HandleFunc("PUT /api/theme", s.handleSetTheme)
	mux.HandleFunc("POST /api/theme/toggle", s.handleToggleTheme)
	mux.HandleFunc("GET /ws", s.hub.HandleWS)
}

// Handler returns an http.Handler with CORS and request logging.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestLogger(s.log, corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// filterFromQuery reads search, country and status query parameters.
func filterFromQuery(r *http.Request) (dashboard.Filter, error) {
	q := r.URL.Query()
	return dashboard.ParseFilter(q.Get("search"), q.Get("country"), q.Get("status"))
}

func (s *DashboardServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *DashboardServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "ok",
		Markets: s.reg.Len(),
		Clients: s.hub.ClientCount(),
	})
}

func (s *DashboardServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, s.snapshot(f))
}

func (s *DashboardServer) handleMarkets(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, s.snapshot(f).Markets)
}

func (s *DashboardServer) handleMarket(w http.ResponseWriter, r *http.Request) {
	cal, err := s.reg.Calendar(r.PathValue("name"))
	if errors.Is(err, market.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, dashboard.BuildMarket(s.clock.Now(), cal))
}

func (s *DashboardServer) handleClocks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, dashboard.BuildClocks(s.clock.Now(), s.reg.Timezones()))
}

func (s *DashboardServer) handleCountries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.reg.Countries())
}

func (s *DashboardServer) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	t, found, err := s.prefs.Theme(r.Context())
	if err != nil {
		s.log.Error("reading theme", "error", err)
		writeError(w, http.StatusInternalServerError, "reading theme")
		return
	}
	if !found {
		t = s.defaultTheme
	}
	writeJSON(w, newThemeResponse(t, found))
}

func (s *DashboardServer) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t, err := store.ParseTheme(req.Theme)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.prefs.SetTheme(r.Context(), t); err != nil {
		s.log.Error("saving theme", "error", err)
		writeError(w, http.StatusInternalServerError, "saving theme")
		return
	}
	s.log.Info("theme updated", "theme", t)
	writeJSON(w, newThemeResponse(t, true))
}

func (s *DashboardServer) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.prefs.ToggleTheme(r.Context(), s.defaultTheme)
	if err != nil {
		s.log.Error("toggling theme", "error", err)
		writeError(w, http.StatusInternalServerError, "toggling theme")
		return
	}
	s.log.Info("theme toggled", "theme", t)
	writeJSON(w, newThemeResponse(t, true))
}
