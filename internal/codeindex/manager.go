// Package codeindex maintains a persistent semantic index of the
// workspace, backed by an embedded chromem-go database.
//
// One Manager exists per host context. Initialization is explicit and
// idempotent; Close releases the file watcher and drops the singleton so
// a later activation starts clean.
package codeindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	git "github.com/go-git/go-git/v5"
	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/logging"
)

var tracer = otel.Tracer("extd.codeindex")

// ErrNotInitialized is returned when the index is used before Initialize.
var ErrNotInitialized = errors.New("code index not initialized")

// Document is one indexable unit of workspace content.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// SearchResult is one similarity hit.
type SearchResult struct {
	ID      string
	Content string
	Score   float32
}

// Manager owns the workspace index for one host context.
type Manager struct {
	hostCtx  host.Context
	cfg      config.IndexConfig
	logger   *logging.Logger
	embedder Embedder

	mu          sync.Mutex
	db          *chromem.DB
	collection  *chromem.Collection
	watcher     *fsnotify.Watcher
	watchDone   chan struct{}
	branch      string
	initialized bool

	dirty atomic.Bool
}

var (
	managersMu sync.Mutex
	managers   = make(map[host.Context]*Manager)
)

// For returns the manager bound to h, creating it on first use.
func For(h host.Context, cfg config.IndexConfig, logger *logging.Logger) *Manager {
	managersMu.Lock()
	defer managersMu.Unlock()

	if m, ok := managers[h]; ok {
		return m
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		hostCtx:  h,
		cfg:      cfg,
		logger:   logger.Named("codeindex"),
		embedder: NewHTTPEmbedder(cfg.EmbeddingsBaseURL, cfg.EmbeddingsModel),
	}
	managers[h] = m
	return m
}

// SetEmbedder replaces the embedder. Must be called before Initialize.
func (m *Manager) SetEmbedder(e Embedder) {
	m.mu.Lock()
	m.embedder = e
	m.mu.Unlock()
}

// Initialize opens the persistent database and starts the workspace
// watcher. Calling it twice is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Manager.Initialize")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	path := m.cfg.Path
	if path == "" {
		path = filepath.Join(m.hostCtx.StorageDir(), "index")
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating index directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("opening index database: %w", err)
	}

	collection, err := db.GetOrCreateCollection(m.cfg.Collection, nil, m.embeddingFunc())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("opening collection %s: %w", m.cfg.Collection, err)
	}

	m.db = db
	m.collection = collection
	m.branch = detectBranch(m.hostCtx.WorkspaceRoot())

	if m.cfg.Watch {
		if err := m.startWatcherLocked(); err != nil {
			// The index still works without change detection.
			m.logger.Warn(ctx, "workspace watcher unavailable", zap.Error(err))
		}
	}

	m.initialized = true
	span.SetAttributes(
		attribute.String("collection", m.cfg.Collection),
		attribute.String("branch", m.branch),
	)
	m.logger.Info(ctx, "code index initialized",
		zap.String("path", path),
		zap.String("collection", m.cfg.Collection),
		zap.String("branch", m.branch))
	return nil
}

// Initialized reports whether Initialize has completed.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Branch returns the workspace branch detected at initialization, or ""
// when the workspace is not a git repository.
func (m *Manager) Branch() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.branch
}

// Dirty reports whether the workspace changed since the last Index call.
func (m *Manager) Dirty() bool { return m.dirty.Load() }

// Index embeds and stores docs, clearing the dirty flag on success.
func (m *Manager) Index(ctx context.Context, docs []Document) error {
	ctx, span := tracer.Start(ctx, "Manager.Index")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	m.mu.Lock()
	collection := m.collection
	embedder := m.embedder
	branch := m.branch
	m.mu.Unlock()

	if collection == nil {
		return ErrNotInitialized
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	embeddings, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("embedding documents: %w", err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		meta := make(map[string]string, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		if branch != "" {
			meta["branch"] = branch
		}
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  meta,
			Embedding: embeddings[i],
		}
	}

	if err := collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		return fmt.Errorf("storing documents: %w", err)
	}

	m.dirty.Store(false)
	return nil
}

// Search returns up to k similarity hits for query.
func (m *Manager) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Manager.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	m.mu.Lock()
	collection := m.collection
	m.mu.Unlock()

	if collection == nil {
		return nil, ErrNotInitialized
	}
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	// chromem requires nResults <= stored document count.
	count := collection.Count()
	if count == 0 {
		return []SearchResult{}, nil
	}
	if k > count {
		k = count
	}

	results, err := collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying index: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{ID: r.ID, Content: r.Content, Score: r.Similarity}
	}
	return out, nil
}

// Close stops the watcher and unbinds the manager from its host context.
// Safe to call without Initialize and safe to call twice.
func (m *Manager) Close() error {
	m.mu.Lock()
	watcher := m.watcher
	done := m.watchDone
	m.watcher = nil
	m.watchDone = nil
	m.db = nil
	m.collection = nil
	m.initialized = false
	m.mu.Unlock()

	managersMu.Lock()
	if managers[m.hostCtx] == m {
		delete(managers, m.hostCtx)
	}
	managersMu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	if done != nil {
		<-done
	}
	return err
}

// ResetForTesting drops all per-host managers.
func ResetForTesting() {
	managersMu.Lock()
	managers = make(map[host.Context]*Manager)
	managersMu.Unlock()
}

func (m *Manager) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		m.mu.Lock()
		embedder := m.embedder
		m.mu.Unlock()
		return embedder.EmbedQuery(ctx, text)
	}
}

// startWatcherLocked wires fsnotify on the workspace root. Caller holds m.mu.
func (m *Manager) startWatcherLocked() error {
	root := m.hostCtx.WorkspaceRoot()
	if root == "" {
		return errors.New("no workspace root")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					m.dirty.Store(true)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	m.watcher = watcher
	m.watchDone = done
	return nil
}

// detectBranch resolves the checked-out branch name, best effort.
func detectBranch(root string) string {
	if root == "" {
		return ""
	}
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	if !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}
