// Package loader turns the generator's navigation scripts into a fully
// materialized navigation tree.
//
// The root script declares NAVTREE. Any node whose children slot is a string
// names a chunk script that must be loaded to obtain those children, and
// chunks may defer further. Resolve walks the tree, fetching every deferred
// chunk concurrently per level, and returns a deep copy with no deferred
// children left.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/navplus/pkg/metrics"
	"github.com/vanderheijden86/navplus/pkg/navtree"
)

const (
	// DefaultConcurrency bounds sibling fetches per tree level.
	DefaultConcurrency = 32
	// DefaultMaxDepth stops runaway chunk chains that refer back to themselves.
	DefaultMaxDepth = 64
)

// ErrTooDeep is recorded for a chunk found below the maximum depth.
var ErrTooDeep = errors.New("loader: chunk nesting too deep")

// Loader resolves deferred children.
type Loader struct {
	fetch    ChunkFetcher
	log      *zap.Logger
	limit    int
	maxDepth int
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for fetch failures.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithConcurrency bounds concurrent fetches per level.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithMaxDepth sets the deepest level at which chunks are still fetched.
func WithMaxDepth(d int) Option {
	return func(l *Loader) {
		if d > 0 {
			l.maxDepth = d
		}
	}
}

// New returns a loader fetching chunks through f.
func New(f ChunkFetcher, opts ...Option) *Loader {
	l := &Loader{
		fetch:    f,
		log:      zap.NewNop(),
		limit:    DefaultConcurrency,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ChunkError is one failed chunk fetch.
type ChunkError struct {
	Chunk string
	Err   error
}

func (e ChunkError) Error() string { return fmt.Sprintf("chunk %s: %v", e.Chunk, e.Err) }

func (e ChunkError) Unwrap() error { return e.Err }

// Report summarizes one Resolve call.
type Report struct {
	mu      sync.Mutex
	Fetched int
	Failed  []ChunkError
}

func (r *Report) fetched() {
	r.mu.Lock()
	r.Fetched++
	r.mu.Unlock()
}

func (r *Report) failed(chunk string, err error) {
	r.mu.Lock()
	r.Failed = append(r.Failed, ChunkError{Chunk: chunk, Err: err})
	r.mu.Unlock()
}

// Err combines all fetch failures, or returns nil.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var err error
	for _, f := range r.Failed {
		err = multierr.Append(err, f)
	}
	return err
}

// Resolve returns a deep copy of root with every deferred child list
// replaced by the fetched chunk. root is not modified.
//
// A chunk that fails to load becomes an empty child list. Failures are
// logged and collected in the report, and never stop sibling fetches.
func (l *Loader) Resolve(ctx context.Context, root []*navtree.Node) ([]*navtree.Node, *Report) {
	defer metrics.Timer(metrics.TreeResolve)()

	out := navtree.CloneNodes(root)
	rep := &Report{}
	l.resolveLevel(ctx, out, 0, rep)

	sort.SliceStable(rep.Failed, func(i, j int) bool { return rep.Failed[i].Chunk < rep.Failed[j].Chunk })
	if err := rep.Err(); err != nil {
		l.log.Warn("some navigation chunks could not be loaded",
			zap.Int("failed", len(rep.Failed)),
			zap.Int("fetched", rep.Fetched),
			zap.Error(err))
	}
	return out, rep
}

// resolveLevel materializes the children of every node in level. Siblings
// run concurrently, each subtree on its own group, so nested levels never
// wait on a parent's slots.
func (l *Loader) resolveLevel(ctx context.Context, level []*navtree.Node, depth int, rep *Report) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)

	for _, n := range level {
		if n == nil {
			continue
		}
		switch n.Children.Kind() {
		case navtree.KindDeferred:
			g.Go(func() error {
				l.resolveDeferred(gctx, n, depth, rep)
				return nil
			})
		case navtree.KindList:
			kids := n.Children.Nodes()
			if len(kids) == 0 {
				continue
			}
			g.Go(func() error {
				l.resolveLevel(gctx, kids, depth+1, rep)
				return nil
			})
		case navtree.KindLeaf:
		}
	}
	_ = g.Wait() // goroutines never return errors
}

func (l *Loader) resolveDeferred(ctx context.Context, n *navtree.Node, depth int, rep *Report) {
	chunk := n.Children.Token()
	if depth >= l.maxDepth {
		n.Children = navtree.List()
		rep.failed(chunk, ErrTooDeep)
		return
	}

	kids, err := l.fetch.FetchChunk(ctx, chunk)
	if err != nil {
		n.Children = navtree.List()
		rep.failed(chunk, err)
		l.log.Debug("chunk fetch failed", zap.String("chunk", chunk), zap.Error(err))
		return
	}
	rep.fetched()

	kids = navtree.CloneNodes(kids)
	n.Children = navtree.List(kids...)
	l.resolveLevel(ctx, kids, depth+1, rep)
}
