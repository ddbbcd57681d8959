package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/host"
)

func newTestHost(t *testing.T) *host.Runtime {
	t.Helper()
	rt, err := host.NewRuntime(host.RuntimeOptions{
		Metadata: host.Metadata{Name: "extd", Version: "0.1.0"},
	})
	require.NoError(t, err)
	return rt
}

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestResolverFor_Singleton(t *testing.T) {
	t.Cleanup(ResetForTesting)

	h := newTestHost(t)
	cfg := baseConfig(t)

	first, err := ResolverFor(context.Background(), h, cfg)
	require.NoError(t, err)
	second, err := ResolverFor(context.Background(), h, cfg)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestResolverFor_NoSelection(t *testing.T) {
	t.Cleanup(ResetForTesting)

	r, err := ResolverFor(context.Background(), newTestHost(t), baseConfig(t))
	require.NoError(t, err)

	assert.Nil(t, r.Config().CurrentConfig)
	assert.Equal(t, "en", r.Config().Locale)
}

func TestResolverFor_ConfigSelection(t *testing.T) {
	t.Cleanup(ResetForTesting)

	cfg := baseConfig(t)
	cfg.API.Provider = "cloud"
	cfg.API.BaseURL = "https://api.example.com"
	cfg.API.Token = "tok"

	r, err := ResolverFor(context.Background(), newTestHost(t), cfg)
	require.NoError(t, err)

	current := r.Config().CurrentConfig
	require.NotNil(t, current)
	assert.Equal(t, "cloud", current.ID)
	assert.Equal(t, "https://api.example.com", current.BaseURL)
}

func TestResolverFor_StoredOverride(t *testing.T) {
	t.Cleanup(ResetForTesting)

	h := newTestHost(t)
	require.NoError(t, h.GlobalState().Update("apiConfiguration", ProviderConfig{
		ID:      "stored",
		BaseURL: "https://stored.example.com",
	}))

	r, err := ResolverFor(context.Background(), h, baseConfig(t))
	require.NoError(t, err)

	current := r.Config().CurrentConfig
	require.NotNil(t, current)
	assert.Equal(t, "stored", current.ID)
}

func TestResolver_SetAndClear(t *testing.T) {
	t.Cleanup(ResetForTesting)

	h := newTestHost(t)
	r, err := ResolverFor(context.Background(), h, baseConfig(t))
	require.NoError(t, err)

	require.NoError(t, r.SetCurrentConfig(context.Background(), ProviderConfig{
		ID:      "cloud",
		BaseURL: "https://api.example.com",
	}))
	require.NotNil(t, r.Config().CurrentConfig)

	var stored ProviderConfig
	found, err := h.GlobalState().Get("apiConfiguration", &stored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cloud", stored.ID)

	require.NoError(t, r.ClearCurrentConfig(context.Background()))
	assert.Nil(t, r.Config().CurrentConfig)
}

func TestResolver_SetRequiresID(t *testing.T) {
	t.Cleanup(ResetForTesting)

	r, err := ResolverFor(context.Background(), newTestHost(t), baseConfig(t))
	require.NoError(t, err)

	assert.Error(t, r.SetCurrentConfig(context.Background(), ProviderConfig{}))
}

func TestResolver_SnapshotIsCopy(t *testing.T) {
	t.Cleanup(ResetForTesting)

	cfg := baseConfig(t)
	cfg.API.Provider = "cloud"
	cfg.API.BaseURL = "https://api.example.com"

	r, err := ResolverFor(context.Background(), newTestHost(t), cfg)
	require.NoError(t, err)

	snap := r.Config()
	snap.CurrentConfig.ID = "mutated"

	assert.Equal(t, "cloud", r.Config().CurrentConfig.ID)
}
