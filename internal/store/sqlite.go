package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ PreferenceStore = (*SQLiteStore)(nil)

const themeKey = "theme"

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore implements PreferenceStore backed by a SQLite database. Theme
// changes are also fanned out to subscribers so live views can follow them.
type SQLiteStore struct {
	db *sql.DB

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Theme
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns
// a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", dbPath, err)
	}
	// A single connection serialises writers and keeps ":memory:" databases
	// on one handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating preferences table: %w", err)
	}
	return &SQLiteStore{db: db, subs: make(map[int]chan Theme)}, nil
}

// Close closes the underlying database connection and every subscription.
func (s *SQLiteStore) Close() error {
	s.subsMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subsMu.Unlock()
	return s.db.Close()
}

// Theme returns the saved theme.
func (s *SQLiteStore) Theme(ctx context.Context) (Theme, bool, error) {
	return s.theme(ctx, s.db)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) theme(ctx context.Context, q queryer) (Theme, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, themeKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading theme: %w", err)
	}
	t, err := ParseTheme(v)
	if err != nil {
		// A corrupt row behaves like no preference.
		return "", false, nil
	}
	return t, true, nil
}

// SetTheme saves theme.
func (s *SQLiteStore) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsert, themeKey, string(theme)); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	s.broadcast(theme)
	return nil
}

const upsert = `
INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// ToggleTheme flips the saved theme inside one transaction.
func (s *SQLiteStore) ToggleTheme(ctx context.Context, fallback Theme) (Theme, error) {
	if _, err := ParseTheme(string(fallback)); err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning toggle: %w", err)
	}
	defer tx.Rollback()

	cur, found, err := s.theme(ctx, tx)
	if err != nil {
		return "", err
	}
	if !found {
		cur = fallback
	}
	next := cur.Toggle()
	if _, err := tx.ExecContext(ctx, upsert, themeKey, string(next)); err != nil {
		return "", fmt.Errorf("saving theme: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing toggle: %w", err)
	}

	s.broadcast(next)
	return next, nil
}

// Subscribe returns a channel that receives every saved theme. bufSize
// controls the channel buffer; slow consumers will have events dropped.
func (s *SQLiteStore) Subscribe(bufSize int) (int, <-chan Theme) {
	ch := make(chan Theme, bufSize)
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.subsMu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *SQLiteStore) Unsubscribe(id int) {
	s.subsMu.Lock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
	s.subsMu.Unlock()
}

// broadcast sends theme to all subscribers non-blocking (drop on full).
func (s *SQLiteStore) broadcast(theme Theme) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- theme:
		default:
		}
	}
}
