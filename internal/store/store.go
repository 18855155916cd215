// Package store persists user preferences. The only preference today is the
// dashboard colour theme.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Theme is the dashboard colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ErrInvalidTheme is returned for any theme value other than light or dark.
var ErrInvalidTheme = errors.New("invalid theme")

// ParseTheme validates s.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Label returns the button text that switches away from t.
func (t Theme) Label() string {
	if t == ThemeDark {
		return "切换到浅色模式"
	}
	return "切换到深色模式"
}

// PreferenceStore persists the theme preference.
type PreferenceStore interface {
	// Theme returns the saved theme. found is false when nothing has been
	// saved yet, in which case callers apply their own default.
	Theme(ctx context.Context) (theme Theme, found bool, err error)

	// SetTheme saves theme.
	SetTheme(ctx context.Context, theme Theme) error

	// ToggleTheme flips the saved theme, starting from fallback when nothing
	// is saved, and returns the new value.
	ToggleTheme(ctx context.Context, fallback Theme) (Theme, error)
}
