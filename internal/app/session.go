package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vanderheijden86/navplus/pkg/config"
	"github.com/vanderheijden86/navplus/pkg/forest"
	"github.com/vanderheijden86/navplus/pkg/loader"
	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/pagescan"
	"github.com/vanderheijden86/navplus/pkg/store"
	"github.com/vanderheijden86/navplus/pkg/watcher"
	"github.com/vanderheijden86/navplus/pkg/widget"
)

// MemoryStore as the store path keeps all state in memory for one run.
const MemoryStore = ":memory:"

// Session is one documentation set opened against the store.
type Session struct {
	// Root is the absolute documentation directory.
	Root string
	// URLRoot prefixes every primary href: Root in slash form with a
	// trailing "/". The store namespace derives from it.
	URLRoot string

	Store   store.KeyStore
	Project *store.Project
	Fetcher *loader.ScriptFetcher
	Builder *forest.Builder

	resolver *loader.Loader
	cfg      config.Config
	log      *zap.Logger
}

// OpenStore opens the key-value store cfg names.
func OpenStore(cfg config.StoreConfig) (store.KeyStore, error) {
	if cfg.Path == MemoryStore {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(cfg.Path)
}

// Open locates the documentation directory (dir, else the configured or
// environment default) and opens a session over it with its own store.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger, dir string) (*Session, error) {
	kv, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	s, err := OpenWithStore(ctx, cfg, log, dir, kv)
	if err != nil {
		return nil, multierr.Append(err, kv.Close())
	}
	return s, nil
}

// OpenWithStore is Open over an already opened store. The session takes
// ownership of kv.
func OpenWithStore(ctx context.Context, cfg config.Config, log *zap.Logger, dir string, kv store.KeyStore) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == "" {
		dir = cfg.DocRoot
	}
	root, err := loader.FindDocRoot(dir)
	if err != nil {
		return nil, err
	}

	if res, err := store.PurgeDaily(ctx, kv, time.Now()); err != nil {
		log.Warn("purging expired entries", zap.Error(err))
	} else if res.Ran {
		log.Debug("purged expired entries", zap.Int("removed", res.Removed), zap.String("date", res.Date))
	}

	urlRoot := URLRoot(root)
	project := store.NewProject(kv, urlRoot, store.WithTTL(cfg.Store.TTL))
	fetcher := loader.NewDirFetcher(root)
	resolver := loader.New(fetcher,
		loader.WithLogger(log),
		loader.WithConcurrency(cfg.Loader.Concurrency))

	s := &Session{
		Root:    root,
		URLRoot: urlRoot,
		Store:   kv,
		Project: project,
		Fetcher: fetcher,
		Builder: forest.NewBuilder(project, fetcher, resolver,
			forest.WithLogger(log),
			forest.WithLayout(cfg.LayoutSpec()),
			forest.WithTimeout(cfg.Loader.Timeout),
			forest.WithPollInterval(cfg.Loader.PollInterval)),
		resolver: resolver,
		cfg:      cfg,
		log:      log.With(zap.String("namespace", project.Namespace())),
	}
	s.log.Debug("session opened", zap.String("root", root))
	return s, nil
}

// URLRoot returns the href prefix of the documentation directory root.
func URLRoot(root string) string {
	u := filepath.ToSlash(root)
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

// Build returns the primary forest of the current generation, cached while
// the generation token is unchanged.
func (s *Session) Build(ctx context.Context) (forest.Result, error) {
	token, err := s.Fetcher.Token()
	if err != nil {
		return forest.Result{}, fmt.Errorf("reading generation token: %w", err)
	}
	return s.Builder.Build(ctx, token)
}

// DefaultTree loads the generator's complete default tree, bypassing the
// forest cache. Chunk failures are returned alongside the partial tree.
func (s *Session) DefaultTree(ctx context.Context) ([]*navtree.Node, error) {
	tree, err := loader.WaitForRoot(ctx, s.Fetcher, s.cfg.Loader.Timeout, s.cfg.Loader.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("loading navigation tree: %w", err)
	}
	resolved, report := s.resolver.Resolve(ctx, tree)
	if report != nil {
		err = report.Err()
	}
	return resolved, err
}

// Page returns the member tree of the page at the slash-separated path
// relative to Root. Missing pages and pages out of scope have none.
func (s *Session) Page(ctx context.Context, page string) ([]*navtree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := strings.TrimPrefix(path.Clean("/"+page), "/")
	f, err := os.Open(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := pagescan.Scan(f, rel)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", rel, err)
	}
	s.log.Debug("page scanned",
		zap.String("page", rel),
		zap.String("remarks", res.Remarks),
		zap.Int("anchors", len(res.Anchors)))
	return res.Tree, nil
}

// Primary returns a primary tree engine persisting into the session.
func (s *Session) Primary(opts ...widget.Option) *widget.Engine {
	opts = append([]widget.Option{
		widget.WithDocRoot(s.URLRoot),
		widget.WithDebounce(s.cfg.Widget.SaveDebounce),
		widget.WithLogger(s.log),
	}, opts...)
	return widget.New(widget.KindPrimary, s.Project, opts...)
}

// StartLocation is where a fresh browser opens: the previously visited
// location when it still belongs to the forest, else the index page.
func (s *Session) StartLocation(ctx context.Context, f navtree.Forest) string {
	prev := s.Project.LoadString(ctx, store.KeyPrevURL, "")
	visit := forest.Visit{
		Fresh:     true,
		Type:      forest.NavNavigate,
		Path:      s.URLRoot,
		StoredURL: prev,
		DocRoot:   s.URLRoot,
	}
	if forest.ShouldRestore(f, visit) {
		return prev
	}
	return s.URLRoot + "index.html"
}

// Watch starts a watcher on the root navigation script that calls onChange
// after each regeneration.
func (s *Session) Watch(onChange func(), opts ...watcher.Option) (*watcher.Watcher, error) {
	opts = append([]watcher.Option{
		watcher.WithLogger(s.log),
		watcher.WithOnChange(onChange),
	}, opts...)
	w, err := watcher.NewWatcher(filepath.Join(s.Root, loader.RootScript), opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

// Log returns the session logger.
func (s *Session) Log() *zap.Logger { return s.log }

// Close closes the store.
func (s *Session) Close() error {
	return s.Store.Close()
}
