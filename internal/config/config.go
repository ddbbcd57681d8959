// Package config provides configuration loading for the extension daemon.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. See LoadWithFile for precedence rules.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete daemon configuration.
type Config struct {
	Extension ExtensionConfig `koanf:"extension"`
	API       APIConfig       `koanf:"api"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Index     IndexConfig     `koanf:"index"`
}

// ExtensionConfig identifies the extension to the host.
type ExtensionConfig struct {
	Name        string `koanf:"name"`
	DisplayName string `koanf:"display_name"`
	Version     string `koanf:"version"`
	Publisher   string `koanf:"publisher"`
	Locale      string `koanf:"locale"`
}

// APIConfig selects the remote API configuration. An empty Provider means
// no API configuration is selected.
type APIConfig struct {
	Provider string   `koanf:"provider"`
	BaseURL  string   `koanf:"base_url"`
	Token    string   `koanf:"token"`
	Timeout  Duration `koanf:"timeout"`
}

// ServerConfig holds the status HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Stdout bool   `koanf:"stdout"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	Insecure        bool     `koanf:"insecure"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// IndexConfig holds code index configuration.
type IndexConfig struct {
	Path              string `koanf:"path"`
	Collection        string `koanf:"collection"`
	VectorSize        int    `koanf:"vector_size"`
	EmbeddingsBaseURL string `koanf:"embeddings_base_url"`
	EmbeddingsModel   string `koanf:"embeddings_model"`
	Watch             bool   `koanf:"watch"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Extension.Name == "" {
		cfg.Extension.Name = "extd"
	}
	if cfg.Extension.DisplayName == "" {
		cfg.Extension.DisplayName = "Extd"
	}
	if cfg.Extension.Version == "" {
		cfg.Extension.Version = "0.1.0"
	}
	if cfg.Extension.Publisher == "" {
		cfg.Extension.Publisher = "fyrsmithlabs"
	}
	if cfg.Extension.Locale == "" {
		cfg.Extension.Locale = "en"
	}

	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = Duration(10 * time.Second)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9290
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if !cfg.Logging.Stdout && !cfg.Logging.OTEL {
		cfg.Logging.Stdout = true
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.ShutdownTimeout == 0 {
		cfg.Telemetry.ShutdownTimeout = Duration(5 * time.Second)
	}

	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "workspace"
	}
	if cfg.Index.VectorSize == 0 {
		cfg.Index.VectorSize = 384
	}
	if cfg.Index.EmbeddingsBaseURL == "" {
		cfg.Index.EmbeddingsBaseURL = "http://localhost:8080"
	}
	if cfg.Index.EmbeddingsModel == "" {
		cfg.Index.EmbeddingsModel = "BAAI/bge-small-en-v1.5"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Extension.Name == "" {
		return errors.New("extension name is required")
	}
	if c.Extension.Version == "" {
		return errors.New("extension version is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.API.Provider != "" && c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required when provider %q is selected", c.API.Provider)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}

	if c.Index.VectorSize <= 0 {
		return errors.New("index.vector_size must be positive")
	}

	return nil
}
