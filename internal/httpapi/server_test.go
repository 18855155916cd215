package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"marketclock/internal/calendar"
	"marketclock/internal/dashboard"
	"marketclock/internal/domain"
	"marketclock/internal/market"
	"marketclock/internal/store"
)

// Tuesday 2025-01-07, 10:15 in New York.
var testNow = time.Date(2025, 1, 7, 15, 15, 0, 0, time.UTC)

type testEnv struct {
	srv    *DashboardServer
	ts     *httptest.Server
	prefs  *store.SQLiteStore
	cancel context.CancelFunc
	hubErr chan error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	prefs, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)

	srv := NewDashboardServer(Options{
		Registry:     market.Default(),
		Prefs:        prefs,
		DefaultTheme: store.ThemeLight,
		Clock:        calendar.FixedClock{T: testNow},
		Refresh:      20 * time.Millisecond,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	env := &testEnv{
		srv:    srv,
		ts:     httptest.NewServer(srv.Handler()),
		prefs:  prefs,
		cancel: cancel,
		hubErr: make(chan error, 1),
	}
	go func() { env.hubErr <- srv.Hub().Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		env.ts.Close()
		prefs.Close()
	})
	return env
}

func (e *testEnv) getJSON(t *testing.T, path string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode, "GET %s", path)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, e.ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	var h HealthResponse
	env.getJSON(t, "/api/health", http.StatusOK, &h)
	require.Equal(t, "ok", h.Status)
	require.Equal(t, 10, h.Markets)
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "世界股市时钟")
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
}

func TestSnapshot(t *testing.T) {
	env := newTestEnv(t)

	var snap dashboard.Snapshot
	env.getJSON(t, "/api/snapshot", http.StatusOK, &snap)
	require.Len(t, snap.Markets, 10)
	require.Len(t, snap.Clocks, 8)
	require.Equal(t, "05:45:00", snap.Markets[0].CountdownText)
	require.Equal(t, domain.SessionOpen, snap.Markets[0].State)

	env.getJSON(t, "/api/snapshot?status=open", http.StatusOK, &snap)
	require.Len(t, snap.Markets, 5)
	require.Equal(t, domain.StatusOpen, snap.Filter.Status)

	var e ErrorResponse
	env.getJSON(t, "/api/snapshot?status=halted", http.StatusBadRequest, &e)
	require.Contains(t, e.Error, "halted")
}

func TestMarkets(t *testing.T) {
	env := newTestEnv(t)

	var views []dashboard.MarketView
	env.getJSON(t, "/api/markets?search=NASDAQ", http.StatusOK, &views)
	require.Len(t, views, 1)
	require.Equal(t, "纳斯达克 (NASDAQ)", views[0].Name)

	env.getJSON(t, "/api/markets?country="+url.QueryEscape("日本"), http.StatusOK, &views)
	require.Len(t, views, 1)
	require.Equal(t, domain.SessionClosed, views[0].State)

	env.getJSON(t, "/api/markets?status=bogus", http.StatusBadRequest, nil)
}

func TestMarketByName(t *testing.T) {
	env := newTestEnv(t)

	var v dashboard.MarketView
	env.getJSON(t, "/api/markets/"+url.PathEscape("纽约证券交易所 (NYSE)"), http.StatusOK, &v)
	require.Equal(t, "America/New_York", v.Timezone)
	require.Equal(t, "交易中", v.StateLabel)
	require.Equal(t, "2025年1月7日星期二 10:15:00", v.LocalTime)
	require.Len(t, v.Hours, 3)

	env.getJSON(t, "/api/markets/"+url.PathEscape("Nowhere Exchange"), http.StatusNotFound, nil)
}

func TestClocksAndCountries(t *testing.T) {
	env := newTestEnv(t)

	var clocks []dashboard.ClockView
	env.getJSON(t, "/api/clocks", http.StatusOK, &clocks)
	require.Len(t, clocks, 8)
	require.Equal(t, "纽约", clocks[0].Label)
	require.Equal(t, "10:15:00", clocks[0].Time)

	var countries []string
	env.getJSON(t, "/api/countries", http.StatusOK, &countries)
	require.Equal(t, []string{"美国", "中国", "日本", "英国", "中国香港", "德国", "加拿大", "澳大利亚"}, countries)
}

func TestThemeEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var tr ThemeResponse
	env.getJSON(t, "/api/theme", http.StatusOK, &tr)
	require.Equal(t, store.ThemeLight, tr.Theme)
	require.False(t, tr.Saved)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/theme", `{"theme":"dark"}`, &tr))
	require.Equal(t, store.ThemeDark, tr.Theme)
	require.Equal(t, "切换到浅色模式", tr.ToggleLabel)

	env.getJSON(t, "/api/theme", http.StatusOK, &tr)
	require.Equal(t, store.ThemeDark, tr.Theme)
	require.True(t, tr.Saved)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/theme/toggle", "", &tr))
	require.Equal(t, store.ThemeLight, tr.Theme)

	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/theme", `{"theme":"sepia"}`, nil))
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/theme", `not json`, nil))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.ts.URL+"/api/theme", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// --- WebSocket -------------------------------------------------------------

func dialWS(t *testing.T, env *testEnv, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads envelopes until match returns true or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Envelope) bool) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if match(env) {
			return env
		}
	}
}

func snapshotWith(n int) func(Envelope) bool {
	return func(e Envelope) bool {
		if e.Type != MsgSnapshot {
			return false
		}
		var s dashboard.Snapshot
		if err := json.Unmarshal(e.Data, &s); err != nil {
			return false
		}
		return len(s.Markets) == n
	}
}

func TestWebSocketPushesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env, "")

	first := readUntil(t, conn, func(e Envelope) bool { return e.Type == MsgSnapshot })
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(first.Data, &snap))
	require.Len(t, snap.Markets, 10)
	require.Len(t, snap.Clocks, 8)

	// Ticks keep arriving.
	readUntil(t, conn, snapshotWith(10))
	require.Eventually(t, func() bool { return env.srv.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketFilter(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env, "?status=closed")
	readUntil(t, conn, snapshotWith(5))

	msg, err := json.Marshal(FilterMessage{Type: MsgFilter, Search: "nasdaq"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))
	readUntil(t, conn, snapshotWith(1))

	bad, err := json.Marshal(FilterMessage{Type: MsgFilter, Status: "halted"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, bad))
	e := readUntil(t, conn, func(e Envelope) bool { return e.Type == MsgError })
	require.True(t, bytes.Contains(e.Data, []byte("halted")))
}

func TestWebSocketRejectsBadStatus(t *testing.T) {
	env := newTestEnv(t)
	u := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws?status=halted"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketThemeBroadcast(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env, "")
	readUntil(t, conn, func(e Envelope) bool { return e.Type == MsgSnapshot })

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/theme", `{"theme":"dark"}`, nil))
	e := readUntil(t, conn, func(e Envelope) bool { return e.Type == MsgTheme })
	var tr ThemeResponse
	require.NoError(t, json.Unmarshal(e.Data, &tr))
	require.Equal(t, store.ThemeDark, tr.Theme)
}

func TestHubStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env, "")
	readUntil(t, conn, func(e Envelope) bool { return e.Type == MsgSnapshot })

	env.cancel()
	select {
	case err := <-env.hubErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// The connection is closed by the server once the hub drains.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	require.Equal(t, 0, env.srv.Hub().ClientCount())
}
