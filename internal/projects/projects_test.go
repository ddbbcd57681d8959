package projects

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/settings"
)

type fakeFetcher struct {
	list []Summary
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context) ([]Summary, error) {
	return f.list, f.err
}

// failingStore wraps a MemoryStore and fails every Update.
type failingStore struct {
	*host.MemoryStore
}

func (s *failingStore) Update(key string, value any) error {
	return errors.New("disk full")
}

func testResolver(t *testing.T, selected bool) *settings.Resolver {
	t.Helper()
	t.Cleanup(settings.ResetForTesting)

	cfg, err := config.Load()
	require.NoError(t, err)
	if selected {
		cfg.API.Provider = "cloud"
		cfg.API.BaseURL = "https://api.example.com"
	}

	h, err := host.NewRuntime(host.RuntimeOptions{Metadata: host.Metadata{Name: "extd"}})
	require.NoError(t, err)

	r, err := settings.ResolverFor(context.Background(), h, cfg)
	require.NoError(t, err)
	return r
}

func TestAcquire_Success(t *testing.T) {
	want := []Summary{{ID: "p1", Name: "Alpha"}, {ID: "p2", Name: "Beta"}}
	acq := NewAcquisition(&fakeFetcher{list: want}, nil)
	store := host.NewMemoryStore()
	diag := host.NewChannel("Extd", nil)

	got := acq.Acquire(context.Background(), testResolver(t, true), store, diag)

	assert.Equal(t, want, got)
	assert.Equal(t, []string{
		"API configuration found. Fetching project list...",
		"Fetched 2 projects.",
	}, diag.Lines())

	var persisted []Summary
	found, err := store.Get(StateKey, &persisted)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, persisted)
}

func TestAcquire_EmptyResultIsNotAnError(t *testing.T) {
	acq := NewAcquisition(&fakeFetcher{list: []Summary{}}, nil)
	store := host.NewMemoryStore()
	diag := host.NewChannel("Extd", nil)

	got := acq.Acquire(context.Background(), testResolver(t, true), store, diag)

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Contains(t, diag.Lines(), "Fetched 0 projects.")
}

func TestAcquire_NilResultIsNotAnError(t *testing.T) {
	acq := NewAcquisition(&fakeFetcher{list: nil}, nil)
	diag := host.NewChannel("Extd", nil)

	got := acq.Acquire(context.Background(), testResolver(t, true), host.NewMemoryStore(), diag)

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Contains(t, diag.Lines(), "Fetched 0 projects.")
}

func TestAcquire_NoConfiguration(t *testing.T) {
	acq := NewAcquisition(&fakeFetcher{list: []Summary{{ID: "p1", Name: "ignored"}}}, nil)
	store := host.NewMemoryStore()
	diag := host.NewChannel("Extd", nil)

	got := acq.Acquire(context.Background(), testResolver(t, false), store, diag)

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, []string{
		"No API configuration found. Skipping project list fetch.",
	}, diag.Lines())

	var persisted []Summary
	found, err := store.Get(StateKey, &persisted)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, persisted)
}

func TestAcquire_FetchFailure(t *testing.T) {
	acq := NewAcquisition(&fakeFetcher{err: errors.New("connection refused")}, nil)
	store := host.NewMemoryStore()
	diag := host.NewChannel("Extd", nil)

	got := acq.Acquire(context.Background(), testResolver(t, true), store, diag)

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, []string{
		"API configuration found. Fetching project list...",
		"Error fetching project list: connection refused",
	}, diag.Lines())

	var persisted []Summary
	found, err := store.Get(StateKey, &persisted)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, persisted)
}

func TestAcquire_NilFetcherWithConfiguration(t *testing.T) {
	acq := NewAcquisition(nil, nil)
	diag := host.NewChannel("Extd", nil)

	got := acq.Acquire(context.Background(), testResolver(t, true), host.NewMemoryStore(), diag)

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Contains(t, diag.Lines(), "Error fetching project list: no project fetcher configured")
}

func TestAcquire_PersistFailureStillReturnsList(t *testing.T) {
	want := []Summary{{ID: "p1", Name: "Alpha"}}
	acq := NewAcquisition(&fakeFetcher{list: want}, nil)
	store := &failingStore{host.NewMemoryStore()}
	diag := host.NewChannel("Extd", nil)

	got := acq.Acquire(context.Background(), testResolver(t, true), store, diag)

	// Durable state may diverge from the returned value on this path;
	// the in-memory result wins.
	assert.Equal(t, want, got)
	assert.Contains(t, diag.Lines(), "Fetched 1 projects.")
}
