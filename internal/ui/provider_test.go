package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/i18n"
	"github.com/fyrsmithlabs/extd/internal/projects"
	"github.com/fyrsmithlabs/extd/internal/settings"
)

func newTestProvider(t *testing.T, apiProvider string, list []projects.Summary) *Provider {
	t.Helper()
	require.NoError(t, i18n.Init("en"))
	settings.ResetForTesting()
	t.Cleanup(settings.ResetForTesting)

	h, err := host.NewRuntime(host.RuntimeOptions{
		Metadata: host.Metadata{Name: "extd", Version: "0.1.0"},
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Extension.Locale = "en"
	cfg.API.Provider = apiProvider
	cfg.API.BaseURL = "https://api.example.com"

	resolver, err := settings.ResolverFor(context.Background(), h, cfg)
	require.NoError(t, err)

	diag := h.CreateOutputChannel("extd")
	return NewProvider(h, diag, ViewIDSidebar, resolver, nil, list)
}

func TestResolve(t *testing.T) {
	p := newTestProvider(t, "", nil)

	assert.False(t, p.Resolved())
	require.NoError(t, p.Resolve(context.Background()))
	assert.True(t, p.Resolved())
	assert.Equal(t, ViewIDSidebar, p.ViewID())
}

func TestSetProjects(t *testing.T) {
	p := newTestProvider(t, "cloud", nil)

	p.SetProjects([]projects.Summary{{ID: "p1", Name: "alpha"}})
	got := p.Projects()
	require.Len(t, got, 1)
	assert.Equal(t, "alpha", got[0].Name)

	// Mutating the returned slice must not affect the provider.
	got[0].Name = "changed"
	assert.Equal(t, "alpha", p.Projects()[0].Name)
}

func TestView_NoConfiguration(t *testing.T) {
	p := newTestProvider(t, "", nil)

	view := p.View()
	assert.Contains(t, view, "Projects")
	assert.Contains(t, view, "Connect an API configuration to list projects.")
}

func TestView_EmptyList(t *testing.T) {
	p := newTestProvider(t, "cloud", nil)

	assert.Contains(t, p.View(), "No projects available.")
}

func TestView_ListsProjects(t *testing.T) {
	p := newTestProvider(t, "cloud", []projects.Summary{
		{ID: "p1", Name: "alpha"},
		{ID: "p2", Name: "beta"},
	})

	view := p.View()
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "beta")
	assert.Contains(t, view, "2 projects")
}
