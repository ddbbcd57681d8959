// Package mcpserver exposes extension state to MCP clients.
//
// Each host context gets one Manager. The underlying server is built
// lazily on first use so activation stays cheap when no client ever
// connects. CleanupAll tears down every manager and is safe to call
// even when none were created.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/logging"
	"github.com/fyrsmithlabs/extd/internal/projects"
)

// Manager owns the MCP server for one host context.
type Manager struct {
	hostCtx host.Context
	logger  *logging.Logger

	mu      sync.Mutex
	server  *mcp.Server
	cancels []context.CancelFunc
	wg      sync.WaitGroup
}

var (
	managersMu sync.Mutex
	managers   = make(map[host.Context]*Manager)
)

// For returns the manager bound to h, creating it on first use.
func For(h host.Context, logger *logging.Logger) *Manager {
	managersMu.Lock()
	defer managersMu.Unlock()

	if m, ok := managers[h]; ok {
		return m
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{hostCtx: h, logger: logger.Named("mcp")}
	managers[h] = m
	return m
}

// projectListArgs is the (empty) input schema of the project_list tool.
type projectListArgs struct{}

type projectListResult struct {
	Projects []projects.Summary `json:"projects"`
}

// Server returns the MCP server, building it on first call.
func (m *Manager) Server() *mcp.Server {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		return m.server
	}

	meta := m.hostCtx.Metadata()
	server := mcp.NewServer(&mcp.Implementation{
		Name:    meta.Name,
		Version: meta.Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "project_list",
		Description: "List the projects known to the extension.",
	}, m.projectList)

	m.server = server
	return server
}

func (m *Manager) projectList(_ context.Context, _ *mcp.CallToolRequest, _ projectListArgs) (*mcp.CallToolResult, projectListResult, error) {
	var list []projects.Summary
	if _, err := m.hostCtx.GlobalState().Get(projects.StateKey, &list); err != nil {
		return nil, projectListResult{}, fmt.Errorf("reading project list: %w", err)
	}
	if list == nil {
		list = []projects.Summary{}
	}
	return nil, projectListResult{Projects: list}, nil
}

// Serve runs the server over transport until ctx is cancelled or Close
// is called. It does not block.
func (m *Manager) Serve(ctx context.Context, transport mcp.Transport) {
	server := m.Server()
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancels = append(m.cancels, cancel)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := server.Run(ctx, transport); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn(ctx, "mcp session ended", zap.Error(err))
		}
	}()
}

// Close stops all sessions and unbinds the manager from its host.
func (m *Manager) Close() error {
	m.mu.Lock()
	cancels := m.cancels
	m.cancels = nil
	m.server = nil
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	m.wg.Wait()

	managersMu.Lock()
	if managers[m.hostCtx] == m {
		delete(managers, m.hostCtx)
	}
	managersMu.Unlock()
	return nil
}

// CleanupAll closes every live manager. Safe when none exist.
func CleanupAll() error {
	managersMu.Lock()
	all := make([]*Manager, 0, len(managers))
	for _, m := range managers {
		all = append(all, m)
	}
	managersMu.Unlock()

	var errs []error
	for _, m := range all {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
