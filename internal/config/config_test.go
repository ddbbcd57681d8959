package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "extd", cfg.Extension.Name)
	assert.Equal(t, "en", cfg.Extension.Locale)
	assert.Equal(t, 9290, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Stdout)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "workspace", cfg.Index.Collection)
	assert.Equal(t, 384, cfg.Index.VectorSize)
	assert.Empty(t, cfg.API.Provider, "no API configuration selected by default")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_HTTP_PORT", "8181")
	t.Setenv("EXTENSION_DISPLAY_NAME", "Extd Nightly")
	t.Setenv("API_PROVIDER", "cloud")
	t.Setenv("API_BASE_URL", "https://api.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "Extd Nightly", cfg.Extension.DisplayName)
	assert.Equal(t, "cloud", cfg.API.Provider)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
}

func TestLoad_ProviderWithoutBaseURL(t *testing.T) {
	t.Setenv("API_PROVIDER", "cloud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing extension name",
			mutate:  func(c *Config) { c.Extension.Name = "" },
			wantErr: true,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "telemetry enabled without endpoint",
			mutate:  func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Endpoint = "" },
			wantErr: true,
		},
		{
			name:    "non-positive api timeout",
			mutate:  func(c *Config) { c.API.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "non-positive vector size",
			mutate:  func(c *Config) { c.Index.VectorSize = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}
