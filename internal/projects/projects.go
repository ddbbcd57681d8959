// Package projects implements project-list acquisition for the extension
// lifecycle.
//
// Acquire decides whether to fetch the remote project list, performs a
// single fetch attempt, persists the result, and guarantees a well-formed
// fallback on any failure. It never propagates an error to its caller:
// every failure degrades to an empty list surfaced only through the
// diagnostics channel.
package projects

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/logging"
	"github.com/fyrsmithlabs/extd/internal/settings"
)

// StateKey is the state-store slot holding the persisted project list.
// Exclusively owned by this package; after every completed acquisition it
// holds a valid (possibly empty) list, never null.
const StateKey = "projectListData"

// Summary identifies one remote project. Opaque to the lifecycle core:
// it is passed through and persisted, never interpreted.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Fetcher performs the remote project-listing call. A single attempt per
// activation; retry and backoff are the caller's concern, and no caller
// currently wants them.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Summary, error)
}

// Acquisition runs the conditional fetch-and-persist flow.
type Acquisition struct {
	fetcher Fetcher
	logger  *logging.Logger
}

// NewAcquisition creates an acquisition flow. fetcher may be nil when no
// API configuration is selected; it is only consulted on the fetch path.
func NewAcquisition(fetcher Fetcher, logger *logging.Logger) *Acquisition {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Acquisition{fetcher: fetcher, logger: logger}
}

// Acquire resolves the project list for one activation.
//
// The returned slice is always non-nil. The persisted entry under StateKey
// is overwritten with the in-memory result; if that write fails the
// failure is logged and the in-memory list is still returned, so durable
// state may lag runtime state until the next activation.
func (a *Acquisition) Acquire(ctx context.Context, resolver *settings.Resolver, store host.StateStore, diag host.OutputChannel) []Summary {
	list := make([]Summary, 0)

	if resolver.Config().CurrentConfig == nil {
		diag.AppendLine("No API configuration found. Skipping project list fetch.")
		fetchOutcomes.WithLabelValues("skipped").Inc()
	} else {
		diag.AppendLine("API configuration found. Fetching project list...")

		fetched, err := a.fetch(ctx)
		if err != nil {
			diag.AppendLine(fmt.Sprintf("Error fetching project list: %s", err.Error()))
			fetchOutcomes.WithLabelValues("error").Inc()
		} else {
			if fetched != nil {
				list = fetched
			}
			diag.AppendLine(fmt.Sprintf("Fetched %d projects.", len(list)))
			fetchOutcomes.WithLabelValues("success").Inc()
		}
	}

	if err := store.Update(StateKey, list); err != nil {
		a.logger.Warn(ctx, "failed to persist project list", zap.Error(err))
	}

	return list
}

func (a *Acquisition) fetch(ctx context.Context) ([]Summary, error) {
	if a.fetcher == nil {
		return nil, fmt.Errorf("no project fetcher configured")
	}
	return a.fetcher.Fetch(ctx)
}
