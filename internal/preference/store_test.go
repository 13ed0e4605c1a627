package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/querydesk/internal/domain"
)

type memRepo struct {
	values map[string]string
	err    error
}

func (m *memRepo) Get(ctx context.Context, key string) (*domain.Preference, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return &domain.Preference{Key: key, Value: v}, nil
}

func (m *memRepo) Set(ctx context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func TestTheme_DefaultsToLight(t *testing.T) {
	s := NewStore(&memRepo{values: map[string]string{}})
	theme, err := s.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, theme)
}

func TestTheme_UnknownStoredValueIsLight(t *testing.T) {
	s := NewStore(&memRepo{values: map[string]string{domain.PreferenceTheme: "solarized"}})
	theme, err := s.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, theme)
}

func TestSetTheme(t *testing.T) {
	repo := &memRepo{values: map[string]string{}}
	s := NewStore(repo)
	ctx := context.Background()

	require.NoError(t, s.SetTheme(ctx, domain.ThemeDark))
	theme, err := s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, theme)

	err = s.SetTheme(ctx, "blue")
	assert.ErrorIs(t, err, ErrInvalidTheme)
	assert.Equal(t, domain.ThemeDark, repo.values[domain.PreferenceTheme])
}

func TestToggleTheme(t *testing.T) {
	s := NewStore(&memRepo{values: map[string]string{}})
	ctx := context.Background()

	next, err := s.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, next)

	next, err = s.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, next)
}

func TestTheme_RepositoryError(t *testing.T) {
	s := NewStore(&memRepo{err: errors.New("disk I/O error")})
	theme, err := s.Theme(context.Background())
	assert.Error(t, err)
	assert.Equal(t, domain.ThemeLight, theme)
}
