package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			cfg:     NewDefaultConfig(),
			wantErr: false,
		},
		{
			name:    "console format is valid",
			cfg:     &Config{Level: zapcore.DebugLevel, Format: "console", Stdout: true},
			wantErr: false,
		},
		{
			name:    "unknown format",
			cfg:     &Config{Format: "xml", Stdout: true},
			wantErr: true,
		},
		{
			name:    "no outputs",
			cfg:     &Config{Format: "json"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger.Underlying() == nil {
		t.Error("Underlying() returned nil")
	}
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	if _, err := NewLogger(&Config{Format: "bogus"}, nil); err == nil {
		t.Error("NewLogger() should fail on invalid config")
	}
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	if fields := ContextFields(ctx); len(fields) != 0 {
		t.Errorf("ContextFields() on empty context = %v", fields)
	}

	ctx = WithFields(ctx, zap.String("session", "s1"))
	ctx = WithFields(ctx, zap.String("view", "sidebar"))

	fields := ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("ContextFields() length = %d, want 2", len(fields))
	}
	if fields[0].Key != "session" || fields[1].Key != "view" {
		t.Errorf("ContextFields() = %v, want session then view", fields)
	}
}
