package host

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// ViewRegistry tracks the webview providers registered with the host.
type ViewRegistry struct {
	mu        sync.RWMutex
	providers map[string]WebviewProvider
}

// NewViewRegistry creates an empty view registry.
func NewViewRegistry() *ViewRegistry {
	return &ViewRegistry{providers: make(map[string]WebviewProvider)}
}

// Register registers a provider under its view ID.
func (r *ViewRegistry) Register(p WebviewProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ViewID()
	if _, ok := r.providers[id]; ok {
		return fmt.Errorf("%w: %s", ErrViewRegistered, id)
	}
	r.providers[id] = p
	return nil
}

// Provider returns the provider registered under id.
func (r *ViewRegistry) Provider(id string) (WebviewProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	return p, ok
}

// CommandRegistry tracks command surfaces: plain commands, code action
// providers, terminal actions, and the single URI handler.
type CommandRegistry struct {
	mu              sync.RWMutex
	commands        map[string]CommandHandler
	codeActions     map[string]CodeActionProvider
	terminalActions map[string]CommandHandler
	uriHandler      URIHandler
}

// NewCommandRegistry creates an empty command registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands:        make(map[string]CommandHandler),
		codeActions:     make(map[string]CodeActionProvider),
		terminalActions: make(map[string]CommandHandler),
	}
}

// Register registers a command handler under id.
func (r *CommandRegistry) Register(id string, h CommandHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[id]; ok {
		return fmt.Errorf("%w: %s", ErrCommandRegistered, id)
	}
	r.commands[id] = h
	return nil
}

// RegisterCodeActions registers a code action provider under id.
func (r *CommandRegistry) RegisterCodeActions(id string, p CodeActionProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codeActions[id]; ok {
		return fmt.Errorf("%w: %s", ErrCommandRegistered, id)
	}
	r.codeActions[id] = p
	return nil
}

// RegisterTerminalAction registers a terminal action handler under id.
func (r *CommandRegistry) RegisterTerminalAction(id string, h CommandHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.terminalActions[id]; ok {
		return fmt.Errorf("%w: %s", ErrCommandRegistered, id)
	}
	r.terminalActions[id] = h
	return nil
}

// SetURIHandler installs the URI handler. Only one may be registered.
func (r *CommandRegistry) SetURIHandler(h URIHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.uriHandler != nil {
		return ErrURIHandlerSet
	}
	r.uriHandler = h
	return nil
}

// Execute runs the command registered under id.
func (r *CommandRegistry) Execute(ctx context.Context, id string, args ...any) (any, error) {
	r.mu.RLock()
	h, ok := r.commands[id]
	if !ok {
		h, ok = r.terminalActions[id]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, id)
	}
	return h(ctx, args...)
}

// CodeActionsFor collects actions from every registered provider.
func (r *CommandRegistry) CodeActionsFor(ctx context.Context, path string) []CodeAction {
	r.mu.RLock()
	providers := make([]CodeActionProvider, 0, len(r.codeActions))
	for _, p := range r.codeActions {
		providers = append(providers, p)
	}
	r.mu.RUnlock()

	var actions []CodeAction
	for _, p := range providers {
		actions = append(actions, p.Actions(ctx, path)...)
	}
	return actions
}

// HandleURI routes a callback URI to the registered handler.
func (r *CommandRegistry) HandleURI(ctx context.Context, u *url.URL) error {
	r.mu.RLock()
	h := r.uriHandler
	r.mu.RUnlock()

	if h == nil {
		return ErrNoURIHandler
	}
	return h.HandleURI(ctx, u)
}

// Counts reports how many commands, code action providers, and terminal
// actions are registered. Used by status surfaces.
func (r *CommandRegistry) Counts() (commands, codeActions, terminalActions int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands), len(r.codeActions), len(r.terminalActions)
}
