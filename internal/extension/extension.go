// Package extension orchestrates the activation and deactivation
// lifecycle of the extension.
//
// Activation brings every subsystem up in a strict order and fails fast:
// an error from any step aborts activation and propagates to the host
// caller. Deactivation is the mirror image with opposite guarantees — it
// runs all teardowns regardless of individual failures, never panics,
// and is safe to call without a prior successful activation.
package extension

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/extd/internal/codeindex"
	"github.com/fyrsmithlabs/extd/internal/commands"
	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/i18n"
	"github.com/fyrsmithlabs/extd/internal/logging"
	"github.com/fyrsmithlabs/extd/internal/mcpserver"
	"github.com/fyrsmithlabs/extd/internal/migration"
	"github.com/fyrsmithlabs/extd/internal/projects"
	"github.com/fyrsmithlabs/extd/internal/settings"
	"github.com/fyrsmithlabs/extd/internal/telemetry"
	"github.com/fyrsmithlabs/extd/internal/terminal"
	"github.com/fyrsmithlabs/extd/internal/ui"
)

// Test seams. Production wiring is the zero state.
var (
	newFetcher = func(pc settings.ProviderConfig) projects.Fetcher {
		return projects.NewCloudFetcher(pc)
	}
	mcpCleanup        = mcpserver.CleanupAll
	telemetryShutdown = telemetry.Shutdown
	terminalCleanup   = func() error { return terminal.Default().Cleanup() }
)

// Session holds everything a successful activation constructed. It is
// retained as the deactivation reference and discarded afterwards.
type Session struct {
	Host     host.Context
	Diag     host.OutputChannel
	Resolver *settings.Resolver
	Index    *codeindex.Manager
	Provider *ui.Provider
	Projects []projects.Summary
}

var (
	currentMu sync.Mutex
	current   *Session
)

// Current returns the live session, or nil outside an activation window.
func Current() *Session {
	currentMu.Lock()
	defer currentMu.Unlock()
	return current
}

// Activate runs the activation sequence against the host context.
//
// On success the session is retained for Deactivate. On failure the
// partially constructed state is left to Deactivate's teardowns, which
// tolerate subsystems that never came up.
func Activate(ctx context.Context, h host.Context, cfg *config.Config, logger *logging.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	meta := h.Metadata()
	diag := h.CreateOutputChannel(meta.Name)
	diag.AppendLine(fmt.Sprintf("%s extension activated - %s", meta.Name, meta.JSON()))

	if err := migration.New(logger).Run(ctx, h.GlobalState(), diag); err != nil {
		activations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("migrating settings: %w", err)
	}

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:         cfg.Telemetry.Enabled,
		Endpoint:        cfg.Telemetry.Endpoint,
		ServiceName:     cfg.Extension.Name,
		ServiceVersion:  cfg.Extension.Version,
		Insecure:        cfg.Telemetry.Insecure,
		ShutdownTimeout: cfg.Telemetry.ShutdownTimeout.Duration(),
	}); err != nil {
		activations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	if err := i18n.Init(cfg.Extension.Locale); err != nil {
		activations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("initializing locale %q: %w", cfg.Extension.Locale, err)
	}

	terminal.Default().Init()

	resolver, err := settings.ResolverFor(ctx, h, cfg)
	if err != nil {
		activations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolving settings: %w", err)
	}

	index := codeindex.For(h, cfg.Index, logger)
	if err := index.Initialize(ctx); err != nil {
		activations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("initializing code index: %w", err)
	}

	var fetcher projects.Fetcher
	if snap := resolver.Config(); snap.CurrentConfig != nil {
		fetcher = newFetcher(*snap.CurrentConfig)
	}
	list := projects.NewAcquisition(fetcher, logger).Acquire(ctx, resolver, h.GlobalState(), diag)

	provider := ui.NewProvider(h, diag, ui.ViewIDSidebar, resolver, index, list)
	if err := h.Views().Register(provider); err != nil {
		activations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("registering sidebar view: %w", err)
	}

	registrar := commands.NewRegistrar(h, diag, provider, terminal.Default(), resolver, index, logger)
	if err := registrar.RegisterAll(ctx); err != nil {
		activations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("registering commands: %w", err)
	}

	session := &Session{
		Host:     h,
		Diag:     diag,
		Resolver: resolver,
		Index:    index,
		Provider: provider,
		Projects: list,
	}

	currentMu.Lock()
	current = session
	currentMu.Unlock()

	activations.WithLabelValues("success").Inc()
	logger.Info(ctx, "extension activated",
		zap.String("name", meta.Name),
		zap.String("version", meta.Version),
		zap.Int("projects", len(list)))
	return session, nil
}

// Deactivate tears the extension down. Every teardown runs even when an
// earlier one fails; the joined error is advisory. Never panics, and a
// call without a prior activation is a harmless no-op for the
// session-scoped steps.
func Deactivate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(err, fmt.Errorf("panic during deactivation: %v", r))
		}
	}()

	deactivations.Inc()

	currentMu.Lock()
	session := current
	current = nil
	currentMu.Unlock()

	if session != nil {
		meta := session.Host.Metadata()
		session.Diag.AppendLine(fmt.Sprintf("%s extension deactivated", meta.Name))
	}

	var errs []error
	if cleanupErr := mcpCleanup(); cleanupErr != nil {
		errs = append(errs, fmt.Errorf("mcp cleanup: %w", cleanupErr))
	}
	if shutdownErr := telemetryShutdown(ctx); shutdownErr != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", shutdownErr))
	}
	if cleanupErr := terminalCleanup(); cleanupErr != nil {
		errs = append(errs, fmt.Errorf("terminal cleanup: %w", cleanupErr))
	}
	if session != nil && session.Index != nil {
		if closeErr := session.Index.Close(); closeErr != nil {
			errs = append(errs, fmt.Errorf("code index close: %w", closeErr))
		}
	}

	return errors.Join(errs...)
}
