// Package settings resolves the extension's effective configuration for a
// given host context.
//
// A Resolver merges the daemon configuration with per-host overrides kept
// in the host's state store. Downstream consumers ask the resolver whether
// an API configuration is currently selected; a nil CurrentConfig means no
// selection.
package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/host"
)

// stateKey is the state-store slot holding the per-host API selection.
const stateKey = "apiConfiguration"

// ProviderConfig describes a selected API configuration.
type ProviderConfig struct {
	ID      string        `json:"id"`
	BaseURL string        `json:"baseUrl"`
	Token   string        `json:"token,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Snapshot is a point-in-time view of the resolved settings.
type Snapshot struct {
	// CurrentConfig is nil when no API configuration is selected.
	CurrentConfig *ProviderConfig
	Locale        string
}

// Resolver resolves settings for one host context.
type Resolver struct {
	host host.Context

	mu       sync.RWMutex
	snapshot Snapshot
}

var (
	resolversMu sync.Mutex
	resolvers   = make(map[host.Context]*Resolver)
)

// ResolverFor returns the resolver singleton for h, creating it on first
// use. The initial snapshot comes from cfg, overridden by any selection
// persisted in the host's state store.
func ResolverFor(ctx context.Context, h host.Context, cfg *config.Config) (*Resolver, error) {
	resolversMu.Lock()
	defer resolversMu.Unlock()

	if r, ok := resolvers[h]; ok {
		return r, nil
	}

	r := &Resolver{host: h}
	r.snapshot.Locale = cfg.Extension.Locale

	if cfg.API.Provider != "" {
		r.snapshot.CurrentConfig = &ProviderConfig{
			ID:      cfg.API.Provider,
			BaseURL: cfg.API.BaseURL,
			Token:   cfg.API.Token,
			Timeout: cfg.API.Timeout.Duration(),
		}
	}

	var stored ProviderConfig
	found, err := h.GlobalState().Get(stateKey, &stored)
	if err != nil {
		return nil, fmt.Errorf("reading stored api configuration: %w", err)
	}
	if found && stored.ID != "" {
		r.snapshot.CurrentConfig = &stored
	}

	resolvers[h] = r
	return r, nil
}

// Config returns the current settings snapshot. The returned ProviderConfig
// is a copy; mutating it does not affect the resolver.
func (r *Resolver) Config() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := r.snapshot
	if snap.CurrentConfig != nil {
		pc := *snap.CurrentConfig
		snap.CurrentConfig = &pc
	}
	return snap
}

// SetCurrentConfig selects an API configuration and persists the selection.
func (r *Resolver) SetCurrentConfig(ctx context.Context, pc ProviderConfig) error {
	if pc.ID == "" {
		return fmt.Errorf("provider id is required")
	}

	if err := r.host.GlobalState().Update(stateKey, pc); err != nil {
		return fmt.Errorf("persisting api configuration: %w", err)
	}

	r.mu.Lock()
	r.snapshot.CurrentConfig = &pc
	r.mu.Unlock()
	return nil
}

// ClearCurrentConfig removes the API selection.
func (r *Resolver) ClearCurrentConfig(ctx context.Context) error {
	if err := r.host.GlobalState().Update(stateKey, nil); err != nil {
		return fmt.Errorf("clearing api configuration: %w", err)
	}

	r.mu.Lock()
	r.snapshot.CurrentConfig = nil
	r.mu.Unlock()
	return nil
}

// ResetForTesting drops all cached resolvers.
func ResetForTesting() {
	resolversMu.Lock()
	resolvers = make(map[host.Context]*Resolver)
	resolversMu.Unlock()
}
