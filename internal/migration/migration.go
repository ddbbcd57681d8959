// Package migration upgrades persisted extension state between schema
// versions.
//
// Migrations run once per activation, before any subsystem reads the
// state store. Each step is applied at most once; the current version is
// tracked under the settingsSchemaVersion key.
package migration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/logging"
)

// VersionKey holds the schema version of the persisted state.
const VersionKey = "settingsSchemaVersion"

// CurrentVersion is the schema version this build writes.
const CurrentVersion = 2

// Step upgrades the store from version-1 to version.
type Step struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, store host.StateStore) error
}

// Migrator applies pending schema steps in order.
type Migrator struct {
	logger *logging.Logger
	steps  []Step
}

// New returns a migrator with the built-in step chain.
func New(logger *logging.Logger) *Migrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Migrator{
		logger: logger,
		steps: []Step{
			{Version: 1, Name: "rename project list key", Apply: renameProjectListKey},
			{Version: 2, Name: "normalize api configuration", Apply: normalizeAPIConfiguration},
		},
	}
}

// Run applies every step newer than the stored version. The first
// failing step aborts the run; the version is only advanced past steps
// that completed.
func (m *Migrator) Run(ctx context.Context, store host.StateStore, diag host.OutputChannel) error {
	var version int
	if _, err := store.Get(VersionKey, &version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if version >= CurrentVersion {
		return nil
	}

	for _, step := range m.steps {
		if step.Version <= version {
			continue
		}
		if diag != nil {
			diag.AppendLine(fmt.Sprintf("Migrating settings to v%d: %s", step.Version, step.Name))
		}
		if err := step.Apply(ctx, store); err != nil {
			return fmt.Errorf("migration v%d (%s): %w", step.Version, step.Name, err)
		}
		if err := store.Update(VersionKey, step.Version); err != nil {
			return fmt.Errorf("recording schema version %d: %w", step.Version, err)
		}
		version = step.Version
		m.logger.Info(ctx, "applied state migration",
			zap.Int("version", step.Version),
			zap.String("name", step.Name))
	}
	return nil
}

// v1: early builds persisted the project list under "projectList".
func renameProjectListKey(_ context.Context, store host.StateStore) error {
	const oldKey = "projectList"

	var raw []map[string]any
	ok, err := store.Get(oldKey, &raw)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := store.Update("projectListData", raw); err != nil {
		return err
	}
	return store.Update(oldKey, nil)
}

// v2: the stored API configuration gained an explicit ID field; older
// entries keyed the provider under "provider" instead.
func normalizeAPIConfiguration(_ context.Context, store host.StateStore) error {
	const key = "apiConfiguration"

	var raw map[string]any
	ok, err := store.Get(key, &raw)
	if err != nil {
		return err
	}
	if !ok || raw == nil {
		return nil
	}
	if _, hasID := raw["id"]; hasID {
		return nil
	}
	provider, ok := raw["provider"].(string)
	if !ok || provider == "" {
		return nil
	}
	raw["id"] = provider
	delete(raw, "provider")
	return store.Update(key, raw)
}
