// Package forest builds the condensed primary navigation forest from a
// generated documentation set and caches it per generation.
//
// The forest is a short list of sections (Namespaces, Globals, Classes, ...)
// each holding flat entries cut from the generator's deep default tree.
// Builder.Build reuses the cached forest while the generation token is
// unchanged, so only the first load after a regeneration touches chunk
// scripts.
package forest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vanderheijden86/navplus/pkg/debug"
	"github.com/vanderheijden86/navplus/pkg/loader"
	"github.com/vanderheijden86/navplus/pkg/metrics"
	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/store"
)

// ErrNoSections is returned when the default tree yields no section at all.
// The empty forest is still stored.
var ErrNoSections = errors.New("forest: no navigation sections found")

// Resolver materializes deferred children of a tree.
type Resolver interface {
	Resolve(ctx context.Context, root []*navtree.Node) ([]*navtree.Node, *loader.Report)
}

// Result is the outcome of Build.
type Result struct {
	Forest   navtree.Forest
	Indented bool
	// FromCache is true when the forest was reused without loading.
	FromCache bool
	// Report describes chunk loading; nil for cache hits.
	Report *loader.Report
	// Default is the resolved default tree; nil for cache hits.
	Default []*navtree.Node
}

// Builder derives and caches the forest of one documentation set.
type Builder struct {
	project  *store.Project
	root     loader.RootFetcher
	resolver Resolver
	layout   Layout
	log      *zap.Logger
	timeout  time.Duration
	interval time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithLayout replaces the default section table.
func WithLayout(l Layout) Option {
	return func(b *Builder) { b.layout = l.Clone() }
}

// WithTimeout bounds the wait for the root script.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) { b.timeout = d }
}

// WithPollInterval sets the delay between root fetch attempts.
func WithPollInterval(d time.Duration) Option {
	return func(b *Builder) { b.interval = d }
}

// NewBuilder returns a builder that caches into project.
func NewBuilder(project *store.Project, root loader.RootFetcher, resolver Resolver, opts ...Option) *Builder {
	b := &Builder{
		project:  project,
		root:     root,
		resolver: resolver,
		layout:   DefaultLayout(),
		log:      zap.NewNop(),
		timeout:  loader.DefaultTimeout,
		interval: loader.DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the forest for the generation identified by token.
//
// The cached forest is reused, and its expiry refreshed, when the stored
// token matches and the stored forest is a non-empty list. Otherwise the
// default tree is loaded, resolved and cut into sections, and the token,
// forest and indentation flag are stored in one batch.
func (b *Builder) Build(ctx context.Context, token string) (Result, error) {
	defer metrics.Timer(metrics.ForestBuild)()
	defer debug.LogEnterExit("forest.Build")()

	if res, ok := b.cached(ctx, token); ok {
		metrics.ForestCache.Hit()
		return res, nil
	}
	metrics.ForestCache.Miss()

	tree, err := loader.WaitForRoot(ctx, b.root, b.timeout, b.interval)
	if err != nil {
		return Result{}, fmt.Errorf("loading navigation tree: %w", err)
	}
	resolved, report := b.resolver.Resolve(ctx, tree)
	if report == nil {
		report = &loader.Report{}
	}

	forest := Assemble(resolved, b.layout)
	res := Result{
		Forest:   forest,
		Indented: NeedsIndentation(forest),
		Report:   report,
		Default:  resolved,
	}
	if err := b.persist(ctx, token, forest, res.Indented, nil); err != nil {
		return res, err
	}

	b.log.Debug("forest built",
		zap.Strings("sections", forest.Names()),
		zap.Bool("indented", res.Indented),
		zap.Int("chunks", report.Fetched))
	if len(forest) == 0 {
		return res, ErrNoSections
	}
	return res, nil
}

// cached returns the stored forest when it belongs to token.
func (b *Builder) cached(ctx context.Context, token string) (Result, bool) {
	if b.project.LoadString(ctx, store.KeyGenData, "") != token {
		return Result{}, false
	}
	raw, ok, err := b.project.LoadRaw(ctx, store.KeyPriTree)
	if err != nil || !ok {
		return Result{}, false
	}
	nodes, err := navtree.Decode(raw)
	if err != nil {
		b.log.Warn("discarding cached forest", zap.Error(err))
		return Result{}, false
	}
	if len(nodes) == 0 {
		return Result{}, false
	}

	res := Result{
		Forest:    nodes,
		Indented:  b.project.LoadBool(ctx, store.KeyPriTreeIndented, false),
		FromCache: true,
	}
	if err := b.persist(ctx, token, nodes, res.Indented, raw); err != nil {
		b.log.Warn("refreshing cached forest", zap.Error(err))
	}
	return res, true
}

func (b *Builder) persist(ctx context.Context, token string, forest []*navtree.Node, indented bool, raw []byte) error {
	if raw == nil {
		var err error
		if raw, err = navtree.Encode(forest); err != nil {
			return fmt.Errorf("encoding forest: %w", err)
		}
	}
	err := b.project.SaveBatch(ctx,
		store.Value{Name: store.KeyGenData, Data: token},
		store.Value{Name: store.KeyPriTree, Raw: raw},
		store.Value{Name: store.KeyPriTreeIndented, Data: indented},
	)
	if err != nil {
		return fmt.Errorf("storing forest: %w", err)
	}
	return nil
}
