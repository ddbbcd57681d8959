package host

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// RuntimeOptions configures a Runtime.
type RuntimeOptions struct {
	Metadata      Metadata
	WorkspaceRoot string
	StorageDir    string

	// State is the backing store. Defaults to an in-memory store.
	State StateStore

	// Logger receives mirrored output channel lines. May be nil.
	Logger *zap.Logger
}

// Runtime is the concrete host Context used by the daemon and by tests.
type Runtime struct {
	meta          Metadata
	workspaceRoot string
	storageDir    string
	state         StateStore
	logger        *zap.Logger
	views         *ViewRegistry
	commands      *CommandRegistry

	mu       sync.Mutex
	channels map[string]*Channel
}

// NewRuntime creates a host runtime.
func NewRuntime(opts RuntimeOptions) (*Runtime, error) {
	if opts.Metadata.Name == "" {
		return nil, errors.New("extension name is required")
	}
	if opts.State == nil {
		opts.State = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Runtime{
		meta:          opts.Metadata,
		workspaceRoot: opts.WorkspaceRoot,
		storageDir:    opts.StorageDir,
		state:         opts.State,
		logger:        opts.Logger,
		views:         NewViewRegistry(),
		commands:      NewCommandRegistry(),
		channels:      make(map[string]*Channel),
	}, nil
}

func (r *Runtime) Metadata() Metadata      { return r.meta }
func (r *Runtime) WorkspaceRoot() string   { return r.workspaceRoot }
func (r *Runtime) StorageDir() string      { return r.storageDir }
func (r *Runtime) GlobalState() StateStore { return r.state }
func (r *Runtime) Views() *ViewRegistry    { return r.views }

func (r *Runtime) Commands() *CommandRegistry { return r.commands }

// CreateOutputChannel returns the channel registered under name, creating
// it on first use. Repeated calls with the same name share one channel so
// line ordering is preserved across callers.
func (r *Runtime) CreateOutputChannel(name string) OutputChannel {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.channels[name]; ok {
		return ch
	}
	ch := NewChannel(name, r.logger)
	r.channels[name] = ch
	return ch
}

// Channel returns the named channel if it exists. Test helper surface.
func (r *Runtime) Channel(name string) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[name]
	return ch, ok
}
