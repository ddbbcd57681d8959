// Package telemetry provides OpenTelemetry instrumentation for the
// extension runtime.
//
// A Service owns the tracer and meter providers. Provider failures do not
// crash the extension; the service degrades to no-op providers. The
// package-level Init/Shutdown pair gives the lifecycle orchestrator an
// idempotent process-wide handle.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled         bool
	Endpoint        string
	ServiceName     string
	ServiceVersion  string
	Insecure        bool
	ShutdownTimeout time.Duration
}

// NewDefaultConfig returns defaults. Telemetry is off by default so the
// extension works without a collector.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:         false,
		Endpoint:        "localhost:4317",
		ServiceName:     "extd",
		ServiceVersion:  "0.1.0",
		Insecure:        true,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New("endpoint is required when telemetry is enabled")
	}
	if c.ServiceName == "" {
		return errors.New("service_name is required when telemetry is enabled")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

// Service manages TracerProvider, MeterProvider, and graceful shutdown.
type Service struct {
	config *Config

	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	healthy  atomic.Bool
	degraded atomic.Bool
}

// New creates a Service and initializes providers.
//
// If telemetry is disabled in config, returns a no-op instance. Provider
// initialization errors degrade the instance instead of failing it.
func New(ctx context.Context, cfg *Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	s := &Service{config: cfg}
	s.healthy.Store(true)

	if !cfg.Enabled {
		return s, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		s.degraded.Store(true)
		return s, nil
	}

	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		s.degraded.Store(true)
	} else {
		s.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}

	mp, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		s.degraded.Store(true)
	} else {
		s.meterProvider = mp
		otel.SetMeterProvider(mp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return s, nil
}

// Tracer returns a tracer for the given instrumentation scope.
// Returns a no-op tracer if telemetry is disabled or degraded.
func (s *Service) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if s == nil || s.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return s.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter for the given instrumentation scope.
// Returns a no-op meter if telemetry is disabled or degraded.
func (s *Service) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if s == nil || s.meterProvider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return s.meterProvider.Meter(name, opts...)
}

// IsEnabled returns true if telemetry is enabled and healthy.
func (s *Service) IsEnabled() bool {
	if s == nil || s.config == nil {
		return false
	}
	return s.config.Enabled && s.healthy.Load()
}

// Degraded reports whether any provider failed to initialize.
func (s *Service) Degraded() bool {
	if s == nil {
		return true
	}
	return s.degraded.Load()
}

// Shutdown gracefully shuts down all providers, flushing pending data.
// Uses the configured shutdown timeout if ctx has no deadline.
func (s *Service) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok && s.config != nil && s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if s.tracerProvider != nil {
		if err := s.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
		}
	}
	if s.meterProvider != nil {
		if err := s.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	s.healthy.Store(false)
	return errors.Join(errs...)
}
