package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/extd/internal/codeindex"
	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/extension"
	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/migration"
	"github.com/fyrsmithlabs/extd/internal/settings"
)

func newTestServer() *Server {
	return New(config.ServerConfig{Port: 0}, nil)
}

func TestHealth_Inactive(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"inactive"}`, rec.Body.String())
}

func TestProjects_WithoutSession(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestProjectsAndHealth_WithSession(t *testing.T) {
	settings.ResetForTesting()
	codeindex.ResetForTesting()
	t.Cleanup(func() {
		settings.ResetForTesting()
		codeindex.ResetForTesting()
	})

	h, err := host.NewRuntime(host.RuntimeOptions{
		Metadata:      host.Metadata{Name: "extd", Version: "0.1.0"},
		WorkspaceRoot: t.TempDir(),
		StorageDir:    t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, h.GlobalState().Update(migration.VersionKey, migration.CurrentVersion))

	cfg := &config.Config{}
	cfg.Extension.Name = "extd"
	cfg.Extension.Version = "0.1.0"
	cfg.Extension.Locale = "en"
	cfg.Index.Collection = "workspace"
	cfg.Index.VectorSize = 8

	_, err = extension.Activate(context.Background(), h, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = extension.Deactivate(context.Background()) })

	s := newTestServer()

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
