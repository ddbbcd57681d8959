// Package ui renders the extension's sidebar panel.
package ui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/extd/internal/codeindex"
	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/i18n"
	"github.com/fyrsmithlabs/extd/internal/projects"
	"github.com/fyrsmithlabs/extd/internal/settings"
)

// ViewIDSidebar is the host view slot the panel registers under.
const ViewIDSidebar = "sidebar"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	faintStyle = lipgloss.NewStyle().Faint(true)
	countStyle = lipgloss.NewStyle().Faint(true).PaddingLeft(2)
)

// Provider is the sidebar webview provider.
type Provider struct {
	hostCtx  host.Context
	diag     host.OutputChannel
	viewID   string
	resolver *settings.Resolver
	index    *codeindex.Manager

	mu       sync.RWMutex
	projects []projects.Summary
	resolved bool
}

// NewProvider creates the sidebar provider with its initial project list.
func NewProvider(h host.Context, diag host.OutputChannel, viewID string, resolver *settings.Resolver, index *codeindex.Manager, list []projects.Summary) *Provider {
	return &Provider{
		hostCtx:  h,
		diag:     diag,
		viewID:   viewID,
		resolver: resolver,
		index:    index,
		projects: list,
	}
}

// ViewID returns the host view slot.
func (p *Provider) ViewID() string { return p.viewID }

// Resolve is called by the host when the view becomes visible.
func (p *Provider) Resolve(ctx context.Context) error {
	p.mu.Lock()
	p.resolved = true
	p.mu.Unlock()
	return nil
}

// Resolved reports whether the host has resolved the view.
func (p *Provider) Resolved() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resolved
}

// Projects returns a copy of the displayed project list.
func (p *Provider) Projects() []projects.Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]projects.Summary, len(p.projects))
	copy(out, p.projects)
	return out
}

// SetProjects replaces the displayed project list.
func (p *Provider) SetProjects(list []projects.Summary) {
	p.mu.Lock()
	p.projects = list
	p.mu.Unlock()
}

// View renders the panel.
func (p *Provider) View() string {
	p.mu.RLock()
	list := p.projects
	p.mu.RUnlock()

	var b strings.Builder
	b.WriteString(titleStyle.Render(i18n.T("sidebar.title")))
	b.WriteString("\n")

	snap := p.resolver.Config()
	switch {
	case snap.CurrentConfig == nil:
		b.WriteString(faintStyle.Render(i18n.T("sidebar.noConfig")))
		b.WriteString("\n")
	case len(list) == 0:
		b.WriteString(faintStyle.Render(i18n.T("sidebar.empty")))
		b.WriteString("\n")
	default:
		for _, proj := range list {
			b.WriteString(itemStyle.Render(proj.Name))
			b.WriteString("\n")
		}
		b.WriteString(countStyle.Render(i18n.T("sidebar.projectCount", len(list))))
		b.WriteString("\n")
	}

	if p.index != nil && p.index.Dirty() {
		b.WriteString(faintStyle.Render("index out of date"))
		b.WriteString("\n")
	}
	return b.String()
}
