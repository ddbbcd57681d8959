// Package commands registers the extension's command palette entries,
// code actions, terminal actions, and the auth callback URI handler.
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/extd/internal/codeindex"
	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/i18n"
	"github.com/fyrsmithlabs/extd/internal/logging"
	"github.com/fyrsmithlabs/extd/internal/projects"
	"github.com/fyrsmithlabs/extd/internal/settings"
	"github.com/fyrsmithlabs/extd/internal/terminal"
	"github.com/fyrsmithlabs/extd/internal/ui"
)

// Command identifiers.
const (
	CmdFocusSidebar       = "extd.focusSidebar"
	CmdRefreshProjects    = "extd.refreshProjects"
	CmdOpenSettings       = "extd.openSettings"
	CmdTerminalNew        = "extd.terminal.new"
	CmdTerminalAddContext = "extd.terminal.addToContext"
)

// newFetcher builds the project fetcher for a refresh. Test seam.
var newFetcher = func(pc settings.ProviderConfig) projects.Fetcher {
	return projects.NewCloudFetcher(pc)
}

// Registrar wires command surfaces into the host registries.
type Registrar struct {
	hostCtx   host.Context
	diag      host.OutputChannel
	provider  *ui.Provider
	terminals *terminal.Registry
	resolver  *settings.Resolver
	index     *codeindex.Manager
	logger    *logging.Logger
}

// NewRegistrar creates a registrar over the activated subsystems.
func NewRegistrar(h host.Context, diag host.OutputChannel, provider *ui.Provider, terminals *terminal.Registry, resolver *settings.Resolver, index *codeindex.Manager, logger *logging.Logger) *Registrar {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registrar{
		hostCtx:   h,
		diag:      diag,
		provider:  provider,
		terminals: terminals,
		resolver:  resolver,
		index:     index,
		logger:    logger.Named("commands"),
	}
}

// RegisterAll installs every command surface. Registration is
// all-or-nothing from the caller's perspective: the first failure aborts.
func (r *Registrar) RegisterAll(ctx context.Context) error {
	reg := r.hostCtx.Commands()

	commands := map[string]host.CommandHandler{
		CmdFocusSidebar:    r.focusSidebar,
		CmdRefreshProjects: r.refreshProjects,
		CmdOpenSettings:    r.openSettings,
	}
	for id, handler := range commands {
		if err := reg.Register(id, handler); err != nil {
			return fmt.Errorf("registering %s: %w", id, err)
		}
	}

	if err := reg.RegisterCodeActions("extd.codeActions", &codeActionProvider{}); err != nil {
		return fmt.Errorf("registering code actions: %w", err)
	}

	terminalActions := map[string]host.CommandHandler{
		CmdTerminalNew:        r.terminalNew,
		CmdTerminalAddContext: r.terminalAddToContext,
	}
	for id, handler := range terminalActions {
		if err := reg.RegisterTerminalAction(id, handler); err != nil {
			return fmt.Errorf("registering %s: %w", id, err)
		}
	}

	if err := reg.SetURIHandler(&authCallbackHandler{resolver: r.resolver, logger: r.logger}); err != nil {
		return fmt.Errorf("registering uri handler: %w", err)
	}

	return nil
}

func (r *Registrar) focusSidebar(ctx context.Context, _ ...any) (any, error) {
	p, ok := r.hostCtx.Views().Provider(ui.ViewIDSidebar)
	if !ok {
		return nil, fmt.Errorf("sidebar view not registered")
	}
	if err := p.Resolve(ctx); err != nil {
		return nil, fmt.Errorf("resolving sidebar: %w", err)
	}
	return nil, nil
}

// refreshProjects re-runs acquisition on demand, with the same
// degrade-to-empty semantics as activation.
func (r *Registrar) refreshProjects(ctx context.Context, _ ...any) (any, error) {
	var fetcher projects.Fetcher
	if snap := r.resolver.Config(); snap.CurrentConfig != nil {
		fetcher = newFetcher(*snap.CurrentConfig)
	}

	acq := projects.NewAcquisition(fetcher, r.logger)
	list := acq.Acquire(ctx, r.resolver, r.hostCtx.GlobalState(), r.diag)
	r.provider.SetProjects(list)
	return list, nil
}

func (r *Registrar) openSettings(ctx context.Context, _ ...any) (any, error) {
	return r.resolver.Config(), nil
}

func (r *Registrar) terminalNew(ctx context.Context, args ...any) (any, error) {
	name := i18n.T("terminal.defaultName")
	if len(args) > 0 {
		if s, ok := args[0].(string); ok && s != "" {
			name = s
		}
	}
	t := r.terminals.Register(name, r.hostCtx.WorkspaceRoot(), nil)
	r.logger.Info(ctx, "terminal created", zap.String("id", t.ID), zap.String("name", t.Name))
	return t, nil
}

// terminalAddToContext indexes captured terminal output so it becomes
// searchable alongside workspace content.
func (r *Registrar) terminalAddToContext(ctx context.Context, args ...any) (any, error) {
	if len(args) < 2 {
		return nil, errors.New("terminal id and output are required")
	}
	id, ok := args[0].(string)
	if !ok {
		return nil, errors.New("terminal id must be a string")
	}
	output, ok := args[1].(string)
	if !ok {
		return nil, errors.New("terminal output must be a string")
	}

	term, err := r.terminals.Get(id)
	if err != nil {
		return nil, err
	}
	if r.index == nil || !r.index.Initialized() {
		return nil, codeindex.ErrNotInitialized
	}

	doc := codeindex.Document{
		ID:      "terminal-" + term.ID + "-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		Content: output,
		Metadata: map[string]string{
			"source":   "terminal",
			"terminal": term.Name,
		},
	}
	if err := r.index.Index(ctx, []codeindex.Document{doc}); err != nil {
		return nil, fmt.Errorf("indexing terminal output: %w", err)
	}
	return doc.ID, nil
}

// codeActionProvider offers the static selection actions.
type codeActionProvider struct{}

func (p *codeActionProvider) Actions(_ context.Context, path string) []host.CodeAction {
	if path == "" {
		return nil
	}
	return []host.CodeAction{
		{Title: i18n.T("codeAction.explain"), Command: CmdFocusSidebar},
		{Title: i18n.T("codeAction.improve"), Command: CmdFocusSidebar},
	}
}

// authCallbackHandler completes the sign-in flow started in the browser.
// The host routes extension URIs here; only /auth/callback is recognized.
type authCallbackHandler struct {
	resolver *settings.Resolver
	logger   *logging.Logger
}

func (h *authCallbackHandler) HandleURI(ctx context.Context, u *url.URL) error {
	if u.Path != "/auth/callback" {
		return fmt.Errorf("unsupported uri path %q", u.Path)
	}

	q := u.Query()
	pc := settings.ProviderConfig{
		ID:      q.Get("provider"),
		BaseURL: q.Get("baseUrl"),
		Token:   q.Get("token"),
	}
	if pc.ID == "" {
		return errors.New("auth callback missing provider")
	}
	if pc.BaseURL == "" {
		return errors.New("auth callback missing baseUrl")
	}

	if err := h.resolver.SetCurrentConfig(ctx, pc); err != nil {
		return fmt.Errorf("applying auth callback: %w", err)
	}
	h.logger.Info(ctx, "api configuration selected", zap.String("provider", pc.ID))
	return nil
}
