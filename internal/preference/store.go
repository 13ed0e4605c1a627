// Package preference exposes the persisted client settings.
package preference

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/querydesk/internal/domain"
)

// ErrInvalidTheme rejects themes other than light and dark.
var ErrInvalidTheme = errors.New("invalid theme")

// Repository is the key/value persistence the store needs.
type Repository interface {
	Get(ctx context.Context, key string) (*domain.Preference, error)
	Set(ctx context.Context, key, value string) error
}

type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Theme returns the stored theme, light unless dark was saved.
func (s *Store) Theme(ctx context.Context) (string, error) {
	pref, err := s.repo.Get(ctx, domain.PreferenceTheme)
	if err != nil {
		return domain.ThemeLight, fmt.Errorf("load theme: %w", err)
	}
	if pref != nil && pref.Value == domain.ThemeDark {
		return domain.ThemeDark, nil
	}
	return domain.ThemeLight, nil
}

// SetTheme saves theme, which must be light or dark.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if theme != domain.ThemeLight && theme != domain.ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	if err := s.repo.Set(ctx, domain.PreferenceTheme, theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Store) ToggleTheme(ctx context.Context) (string, error) {
	current, err := s.Theme(ctx)
	if err != nil {
		return current, err
	}
	next := domain.ThemeDark
	if current == domain.ThemeDark {
		next = domain.ThemeLight
	}
	return next, s.SetTheme(ctx, next)
}
