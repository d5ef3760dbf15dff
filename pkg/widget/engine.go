// Package widget keeps the interactive state of a navigation tree: which
// branches are expanded, which entry is current and which were visited. It
// persists expansion exceptions per project and leaves drawing to callers.
//
// An Engine is confined to one goroutine. Only the debounced save runs
// elsewhere, on a snapshot taken when it was scheduled.
package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vanderheijden86/navplus/pkg/metrics"
	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/store"
	"github.com/vanderheijden86/navplus/pkg/watcher"
)

// DefaultSaveDebounce is the quiet period before expansion state is stored.
const DefaultSaveDebounce = 500 * time.Millisecond

var (
	ErrUnknownItem = errors.New("widget: unknown item")
	// ErrNoPage is returned when a secondary tree has no page to key its
	// state by.
	ErrNoPage = errors.New("widget: secondary tree needs a page name")
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithDebounce sets the save debounce.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithDocRoot sets the prefix that turns primary refs into hrefs.
func WithDocRoot(root string) Option {
	return func(e *Engine) { e.docRoot = root }
}

// WithPageName sets the page a secondary tree belongs to. Its HTML name keys
// the stored collapse state.
func WithPageName(page string) Option {
	return func(e *Engine) { e.page = page }
}

// WithViewportHeight sets the number of rows the caller can show at once.
func WithViewportHeight(rows int) Option {
	return func(e *Engine) { e.height = rows }
}

// Engine drives one tree.
type Engine struct {
	kind     Kind
	project  *store.Project
	log      *zap.Logger
	debounce time.Duration
	docRoot  string
	page     string
	height   int

	roots   []*Item
	order   []*Item // pre-order, all items
	byID    map[string]*Item
	current *Item
	offset  int

	live     *exceptionSet
	rendered bool
	saver    *watcher.Debouncer

	mu      sync.Mutex
	pending []string
	dirty   bool
}

// New returns an engine for a tree of the given kind. State is loaded from
// and saved to project; a nil project disables persistence.
func New(kind Kind, project *store.Project, opts ...Option) *Engine {
	e := &Engine{
		kind:     kind,
		project:  project,
		log:      zap.NewNop(),
		debounce: DefaultSaveDebounce,
		byID:     make(map[string]*Item),
		live:     newExceptionSet(kind.DefaultOpen()),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.saver = watcher.NewDebouncer(e.debounce)
	return e
}

// Kind returns the tree kind.
func (e *Engine) Kind() Kind { return e.kind }

// StateKey is the project key the expansion exceptions are stored under.
func (e *Engine) StateKey() string {
	if e.kind == KindSecondary {
		return navtree.HTMLName(e.page)
	}
	return store.KeyPriNavExpandedNodes
}

// Render replaces the tree with forest. Each branch takes its stored
// expansion, or the kind's default, and the live exception set is rebuilt
// from the branches that exist now, so ids of vanished items are dropped on
// the next save. After the first render the live set is the stored state,
// including changes still waiting for their save, so a re-render keeps
// them. Visited and current marks start empty.
func (e *Engine) Render(ctx context.Context, forest []*navtree.Node) error {
	defer metrics.Timer(metrics.WidgetRender)()

	if e.kind == KindSecondary && e.StateKey() == "" {
		return ErrNoPage
	}

	e.roots, e.order, e.current, e.offset = nil, nil, nil, 0
	clear(e.byID)
	if len(forest) == 0 {
		return nil
	}

	var prev *exceptionSet
	if e.rendered {
		prev = newExceptionSet(e.kind.DefaultOpen(), e.live.snapshot()...)
	} else {
		prev = newExceptionSet(e.kind.DefaultOpen(), e.loadState(ctx)...)
	}
	e.live.clear()
	e.roots = e.build(forest, nil, nil, prev)
	e.rendered = true

	e.log.Debug("tree rendered",
		zap.Stringer("kind", e.kind),
		zap.Int("items", len(e.order)),
		zap.Int("exceptions", e.live.len()))
	e.scheduleSave()
	return nil
}

func (e *Engine) build(nodes []*navtree.Node, parent *Item, path []int, prev *exceptionSet) []*Item {
	items := make([]*Item, 0, len(nodes))
	for idx, n := range nodes {
		if n == nil {
			continue
		}
		p := append(path[:len(path):len(path)], idx)
		it := &Item{
			ID:     ItemID(e.kind, p, n.Ref),
			Label:  n.Label,
			Ref:    n.Ref,
			Href:   e.href(n.Ref),
			Parent: parent,
		}
		if parent != nil {
			it.Depth = parent.Depth + 1
		}
		e.order = append(e.order, it)
		e.byID[it.ID] = it

		if n.Children.HasNodes() {
			it.Expanded = prev.isOpen(it.ID)
			e.live.setOpen(it.ID, it.Expanded)
			it.Children = e.build(n.Children.Nodes(), it, p, prev)
		}
		items = append(items, it)
	}
	return items
}

func (e *Engine) href(ref *string) string {
	if ref == nil || *ref == "" {
		return ""
	}
	if e.kind == KindPrimary {
		return e.docRoot + *ref
	}
	return *ref
}

func (e *Engine) loadState(ctx context.Context) []string {
	if e.project == nil {
		return nil
	}
	var ids []string
	if _, err := e.project.Load(ctx, e.StateKey(), &ids); err != nil {
		e.log.Warn("ignoring stored tree state",
			zap.String("key", e.StateKey()), zap.Error(err))
		return nil
	}
	return ids
}

// Items returns the top-level items.
func (e *Engine) Items() []*Item { return e.roots }

// ByID returns the item with the given id.
func (e *Engine) ByID(id string) (*Item, bool) {
	it, ok := e.byID[id]
	return it, ok
}

// Current returns the current item, or nil.
func (e *Engine) Current() *Item { return e.current }

// MarkCurrent makes the first item whose href matches target current and
// visited, expands its ancestors and scrolls it into view. Primary trees
// match the target without its fragment, secondary trees match only the
// fragment. It reports whether an item matched. An empty target only clears
// the previous mark.
func (e *Engine) MarkCurrent(target string) bool {
	if e.current != nil {
		e.current.Current = false
		e.current = nil
	}

	if e.kind == KindPrimary {
		target = navtree.StripFragment(target)
	} else {
		target = navtree.Fragment(target)
	}
	if target == "" {
		return false
	}

	var found *Item
	for _, it := range e.order {
		if it.Href == target {
			found = it
			break
		}
	}
	if found != nil {
		found.Current, found.Visited = true, true
		e.current = found
		for p := found.Parent; p != nil; p = p.Parent {
			e.setExpanded(p, true)
		}
		e.scrollTo(found)
	}
	e.scheduleSave()
	return found != nil
}

// Toggle flips the expansion of one branch. Leaves are left alone.
func (e *Engine) Toggle(id string) error {
	it, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if !it.HasChildren() {
		return nil
	}
	e.setExpanded(it, !it.Expanded)
	e.scheduleSave()
	return nil
}

// ClickAffordance handles a click on the expand marker of id. It toggles that
// item only.
func (e *Engine) ClickAffordance(id string) error {
	return e.Toggle(id)
}

// ClickLink handles a click on the label of id. It marks the item visited and
// returns the href the caller should navigate to, empty for entries without
// one.
func (e *Engine) ClickLink(id string) (string, error) {
	it, ok := e.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if !it.HasHref() {
		return "", nil
	}
	it.Visited = true
	return it.Href, nil
}

func (e *Engine) setExpanded(it *Item, open bool) {
	it.Expanded = open
	e.live.setOpen(it.ID, open)
}

// Rows returns the items on screen in order: every item whose ancestors are
// all expanded.
func (e *Engine) Rows() []*Item {
	var rows []*Item
	var walk func(items []*Item)
	walk = func(items []*Item) {
		for _, it := range items {
			rows = append(rows, it)
			if it.Expanded {
				walk(it.Children)
			}
		}
	}
	walk(e.roots)
	return rows
}

// VisibleItems returns the rows that can take focus, those with an href.
func (e *Engine) VisibleItems() []*Item {
	var out []*Item
	for _, it := range e.Rows() {
		if it.HasHref() {
			out = append(out, it)
		}
	}
	return out
}

// SetViewportHeight changes the number of rows shown at once.
func (e *Engine) SetViewportHeight(rows int) {
	e.height = rows
	if e.current != nil {
		e.scrollTo(e.current)
	}
}

// ViewportOffset is the index into Rows of the first row shown.
func (e *Engine) ViewportOffset() int { return e.offset }

// scrollTo moves the viewport just far enough to show it.
func (e *Engine) scrollTo(it *Item) {
	if e.height <= 0 {
		return
	}
	rows := e.Rows()
	idx := -1
	for i, r := range rows {
		if r == it {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	if idx < e.offset {
		e.offset = idx
	}
	if idx >= e.offset+e.height {
		e.offset = idx - e.height + 1
	}
	maxOffset := max(len(rows)-e.height, 0)
	e.offset = min(max(e.offset, 0), maxOffset)
}

func (e *Engine) scheduleSave() {
	if e.project == nil {
		return
	}
	ids := e.live.snapshot()
	e.mu.Lock()
	e.pending, e.dirty = ids, true
	e.mu.Unlock()

	e.saver.Trigger(func() {
		if err := e.save(context.Background()); err != nil {
			e.log.Warn("saving tree state", zap.String("key", e.StateKey()), zap.Error(err))
		}
	})
}

func (e *Engine) save(ctx context.Context) error {
	e.mu.Lock()
	ids, dirty := e.pending, e.dirty
	e.pending, e.dirty = nil, false
	e.mu.Unlock()
	if !dirty {
		return nil
	}
	defer metrics.Timer(metrics.StateSave)()
	return e.project.Save(ctx, e.StateKey(), ids)
}

// Flush stores any state still waiting for its debounce.
func (e *Engine) Flush(ctx context.Context) error {
	e.saver.Cancel()
	if e.project == nil {
		return nil
	}
	return e.save(ctx)
}
