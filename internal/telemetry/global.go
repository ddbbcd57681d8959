package telemetry

import (
	"context"
	"sync"
)

// Process-wide service. The lifecycle orchestrator may run more than once
// in tests; Init must be idempotent and Shutdown safe without Init.
var (
	globalMu sync.Mutex
	global   *Service
)

// Init initializes the process-wide telemetry service. Repeated calls
// return the existing service without touching provider state.
func Init(ctx context.Context, cfg *Config) (*Service, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return global, nil
	}

	s, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	global = s
	return s, nil
}

// Active returns the process-wide service, or nil before Init.
func Active() *Service {
	globalMu.Lock()
	defer globalMu.Unlock()
	return global
}

// Shutdown shuts down the process-wide service and clears it so a later
// Init starts fresh. A no-op when Init never ran.
func Shutdown(ctx context.Context) error {
	globalMu.Lock()
	s := global
	global = nil
	globalMu.Unlock()

	if s == nil {
		return nil
	}
	return s.Shutdown(ctx)
}
