// Package host models the surface the loading host exposes to the
// extension: durable key/value state, ordered diagnostic output channels,
// and the view/command registration facilities.
//
// The extension core only depends on the interfaces in this package.
// Runtime is the daemon's concrete implementation; tests use Runtime with
// a MemoryStore.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
)

// Common errors.
var (
	ErrKeyNotFound        = errors.New("state key not found")
	ErrViewRegistered     = errors.New("view already registered")
	ErrCommandRegistered  = errors.New("command already registered")
	ErrCommandNotFound    = errors.New("command not found")
	ErrURIHandlerSet      = errors.New("uri handler already set")
	ErrNoURIHandler       = errors.New("no uri handler registered")
)

// Metadata identifies the extension to the host.
type Metadata struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Version     string `json:"version"`
	Publisher   string `json:"publisher"`
}

// JSON returns the full metadata rendering used in lifecycle banners.
func (m Metadata) JSON() string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// OutputChannel is an append-only, ordered log surface. Lines are written
// verbatim; downstream tooling may assert on exact text.
type OutputChannel interface {
	Name() string
	AppendLine(line string)
}

// StateStore is the host's durable key/value store.
//
// Get decodes the stored value for key into out and reports whether the
// key was present. Update overwrites the value for key; it may fail.
type StateStore interface {
	Get(key string, out any) (bool, error)
	Update(key string, value any) error
}

// CommandHandler executes a registered command.
type CommandHandler func(ctx context.Context, args ...any) (any, error)

// CodeAction is a single action offered for a document location.
type CodeAction struct {
	Title   string `json:"title"`
	Command string `json:"command"`
}

// CodeActionProvider supplies code actions for a document path.
type CodeActionProvider interface {
	Actions(ctx context.Context, path string) []CodeAction
}

// URIHandler handles callback URIs routed to the extension by the host.
type URIHandler interface {
	HandleURI(ctx context.Context, u *url.URL) error
}

// WebviewProvider is a view the host can render.
type WebviewProvider interface {
	ViewID() string
	Resolve(ctx context.Context) error
}

// Context is the host-provided context object handed to the extension at
// activation. It carries identity, storage, and registration facilities.
type Context interface {
	Metadata() Metadata
	WorkspaceRoot() string
	StorageDir() string
	GlobalState() StateStore
	CreateOutputChannel(name string) OutputChannel
	Views() *ViewRegistry
	Commands() *CommandRegistry
}
