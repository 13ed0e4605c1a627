package repository

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/querydesk/internal/config"
	"github.com/timmy/querydesk/internal/logger"
)

func openTestDB(t *testing.T) *PreferenceRepository {
	t.Helper()
	cfg := logger.DefaultConfig()
	cfg.Output = io.Discard

	db, err := InitDB(&config.StoreConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "nested", "prefs.db"),
	}, logger.New(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return NewPreferenceRepository(db)
}

func TestPreferenceRepository_GetMissing(t *testing.T) {
	repo := openTestDB(t)
	pref, err := repo.Get(context.Background(), "theme")
	require.NoError(t, err)
	assert.Nil(t, pref)
}

func TestPreferenceRepository_SetUpserts(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "theme", "dark"))
	require.NoError(t, repo.Set(ctx, "theme", "light"))
	require.NoError(t, repo.Set(ctx, "api", "http://svc"))

	pref, err := repo.Get(ctx, "theme")
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, "light", pref.Value)
	assert.False(t, pref.UpdatedAt.IsZero())

	prefs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, "api", prefs[0].Key)

	require.NoError(t, repo.Delete(ctx, "api"))
	require.NoError(t, repo.Delete(ctx, "api"))
	prefs, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, prefs, 1)
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB(&config.StoreConfig{Driver: "mongo"}, nil)
	assert.Error(t, err)
}
