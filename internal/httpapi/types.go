// Package httpapi serves the market dashboard over HTTP: a small browser
// page, a JSON API returning the same views as the terminal client, and a
// WebSocket feed that pushes a fresh snapshot on every refresh tick.
package httpapi

import (
	"encoding/json"

	"marketclock/internal/store"
)

// Outbound WebSocket message types.
const (
	MsgSnapshot = "snapshot"
	MsgTheme    = "theme"
	MsgError    = "error"
)

// Inbound WebSocket message types.
const (
	MsgFilter = "filter"
)

// Envelope wraps every message pushed over the WebSocket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// FilterMessage is sent by a client to replace its market filter.
type FilterMessage struct {
	Type    string `json:"type"`
	Search  string `json:"search"`
	Country string `json:"country"`
	Status  string `json:"status"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Markets int    `json:"markets"`
	Clients int    `json:"clients"`
}

// ThemeRequest is the body of PUT /api/theme.
type ThemeRequest struct {
	Theme string `json:"theme"`
}

// ThemeResponse describes the active theme. Saved is false when the value is
// the configured default rather than a stored preference.
type ThemeResponse struct {
	Theme       store.Theme `json:"theme"`
	Saved       bool        `json:"saved"`
	ToggleLabel string      `json:"toggleLabel"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newThemeResponse(t store.Theme, saved bool) ThemeResponse {
	return ThemeResponse{Theme: t, Saved: saved, ToggleLabel: t.Label()}
}

func encodeEnvelope(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Data: data})
}
