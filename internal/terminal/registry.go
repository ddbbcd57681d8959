// Package terminal tracks the terminal instances the extension has
// created in the host.
//
// The registry is process-wide: initialization is idempotent and cleanup
// is safe to run without a prior Init, since deactivation may fire even
// when activation never completed.
package terminal

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTerminalNotFound is returned when a terminal ID is unknown.
var ErrTerminalNotFound = errors.New("terminal not found")

// Terminal is one registered terminal instance.
type Terminal struct {
	ID        string
	Name      string
	Dir       string
	CreatedAt time.Time

	seq     uint64
	closeFn func() error
}

// Close releases the terminal's underlying resources, if any.
func (t *Terminal) Close() error {
	if t.closeFn == nil {
		return nil
	}
	return t.closeFn()
}

// Registry holds the live terminal instances.
type Registry struct {
	mu          sync.Mutex
	terminals   map[string]*Terminal
	nextSeq     uint64
	initialized bool
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{terminals: make(map[string]*Terminal)}
}

// Init prepares the registry. Calling it twice is a no-op.
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return
	}
	if r.terminals == nil {
		r.terminals = make(map[string]*Terminal)
	}
	r.initialized = true
}

// Initialized reports whether Init has run since the last Cleanup.
func (r *Registry) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Register adds a terminal. closeFn may be nil for host-owned terminals.
func (r *Registry) Register(name, dir string, closeFn func() error) *Terminal {
	t := &Terminal{
		ID:        uuid.New().String(),
		Name:      name,
		Dir:       dir,
		CreatedAt: time.Now(),
		closeFn:   closeFn,
	}

	r.mu.Lock()
	t.seq = r.nextSeq
	r.nextSeq++
	r.terminals[t.ID] = t
	r.mu.Unlock()
	return t
}

// Get returns the terminal with the given ID.
func (r *Registry) Get(id string) (*Terminal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.terminals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTerminalNotFound, id)
	}
	return t, nil
}

// List returns all terminals in registration order.
func (r *Registry) List() []*Terminal {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Terminal, 0, len(r.terminals))
	for _, t := range r.terminals {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Cleanup closes every terminal and resets the registry. Safe to call
// without Init and safe to call more than once.
func (r *Registry) Cleanup() error {
	r.mu.Lock()
	terminals := r.terminals
	r.terminals = make(map[string]*Terminal)
	r.initialized = false
	r.mu.Unlock()

	var errs []error
	for _, t := range terminals {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing terminal %s: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}
