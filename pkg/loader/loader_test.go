package loader_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap/zaptest"

	"github.com/vanderheijden86/navplus/pkg/loader"
	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/testutil"
)

func TestParseScript_Globals(t *testing.T) {
	src := []byte("\xEF\xBB\xBF/* header */\n" +
		"var NAVTREE =\n[\n  [ \"Proj\", \"index.html\", [\n" +
		"    [ \"It's \\\"quoted\\\"\", null, \"chunk_a\" ],\n" +
		"    [ 'Caf\\u00e9', 'x.html#a', null ],\n" +
		"  ] ]\n];\n" +
		"var SYNCONMSG = 'click to disable';\n" +
		"var COUNT = 3;\n" +
		"function noop() { return [1, 2]; }\n" +
		"LATE = [\"a\"]\n")

	globals, err := loader.ParseScript(src)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if got := globals["SYNCONMSG"]; got != "click to disable" {
		t.Errorf("SYNCONMSG = %v", got)
	}
	if _, ok := globals["COUNT"]; ok {
		t.Error("numeric initializer should be skipped")
	}
	if late, ok := globals["LATE"].([]any); !ok || len(late) != 1 || late[0] != "a" {
		t.Errorf("LATE = %#v", globals["LATE"])
	}

	nodes, ok, err := loader.ParseScriptArray(src, loader.RootGlobal)
	if err != nil || !ok {
		t.Fatalf("ParseScriptArray = %v, %v", ok, err)
	}
	kids := nodes[0].Children.Nodes()
	if len(kids) != 2 {
		t.Fatalf("got %d children, want 2", len(kids))
	}
	if kids[0].Label != `It's "quoted"` || kids[0].HasRef() || kids[0].Children.Token() != "chunk_a" {
		t.Errorf("first child = %q %v %v", kids[0].Label, kids[0].Ref, kids[0].Children.Kind())
	}
	if kids[1].Label != "Café" || kids[1].RefString() != "x.html#a" || !kids[1].Children.IsLeaf() {
		t.Errorf("second child = %q %q", kids[1].Label, kids[1].RefString())
	}
}

func TestParseScriptArray_ShapeError(t *testing.T) {
	_, _, err := loader.ParseScriptArray([]byte(`var x = [["only", "two"]];`), "x")
	if !errors.Is(err, loader.ErrChunkShape) {
		t.Errorf("expected ErrChunkShape, got %v", err)
	}
	_, ok, err := loader.ParseScriptArray([]byte(`var y = "str";`), "y")
	if ok || err != nil {
		t.Errorf("non-array global: ok=%v err=%v", ok, err)
	}
}

func TestScriptFetcher_Token(t *testing.T) {
	plain := []byte(`var NAVTREE = [["Geo", "index.html", null]];`)
	f := loader.NewScriptFetcher(fstest.MapFS{loader.RootScript: {Data: plain}})
	got, err := f.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if want := fmt.Sprintf("xxh:%x", xxhash.Sum64(plain)); got != want {
		t.Errorf("Token = %q, want %q", got, want)
	}

	stamped := append([]byte("var DOXY_PLUS_DATE_TIME = \"2026-10-01 12:00\";\n"), plain...)
	f = loader.NewScriptFetcher(fstest.MapFS{loader.RootScript: {Data: stamped}})
	if got, err := f.Token(); err != nil || got != "2026-10-01 12:00" {
		t.Errorf("stamped Token = %q, %v", got, err)
	}

	_, err = loader.NewScriptFetcher(fstest.MapFS{}).Token()
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing root script: %v", err)
	}
}

func TestScriptFetcher_NameFallback(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"exact.js":      {Data: []byte(`var exact = [["A", "a.html", null]];`)},
		"dir/nested.js": {Data: []byte(`var nested = [["B", "b.html", null]];`)},
		"dir/other.js":  {Data: []byte(`var unrelated = [["C", "c.html", null]];`)},
		"dir/bad.js":    {Data: []byte(`var bad = [["x", ["not", "a", "ref"], null]];`)},
	}
	f := loader.NewScriptFetcher(fsys)

	got, err := f.FetchChunk(ctx, "exact")
	if err != nil || len(got) != 1 || got[0].Label != "A" {
		t.Errorf("exact = %v, %v", got, err)
	}
	got, err = f.FetchChunk(ctx, "dir/nested")
	if err != nil || len(got) != 1 || got[0].Label != "B" {
		t.Errorf("last segment = %v, %v", got, err)
	}
	got, err = f.FetchChunk(ctx, "dir/other")
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("undeclared global should yield an empty list, got %v, %v", got, err)
	}
	if _, err := f.FetchChunk(ctx, "missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing chunk: %v", err)
	}
	if _, err := f.FetchChunk(ctx, "dir/bad"); !errors.Is(err, loader.ErrChunkShape) {
		t.Errorf("bad chunk: %v", err)
	}
}

// spyFetcher serves chunks from a map and counts calls.
type spyFetcher struct {
	chunks map[string][]*navtree.Node
	fail   map[string]bool
	calls  atomic.Int32
}

func (s *spyFetcher) FetchChunk(_ context.Context, name string) ([]*navtree.Node, error) {
	s.calls.Add(1)
	if s.fail[name] {
		return nil, fmt.Errorf("chunk %s: load error", name)
	}
	return s.chunks[name], nil
}

func TestResolve_FailureIsolation(t *testing.T) {
	spy := &spyFetcher{
		chunks: map[string][]*navtree.Node{
			"ok":    {testutil.Leaf("one", "one.html"), testutil.Deferred("deeper", "d.html", "inner")},
			"inner": {testutil.Leaf("two", "two.html")},
		},
		fail: map[string]bool{"broken": true},
	}
	root := []*navtree.Node{
		testutil.Deferred("good", "g.html", "ok"),
		testutil.Deferred("bad", "b.html", "broken"),
		testutil.Branch("static", "", testutil.Deferred("nested", "", "inner")),
		testutil.Leaf("leaf", "l.html"),
	}
	before := navtree.CloneNodes(root)

	l := loader.New(spy, loader.WithLogger(zaptest.NewLogger(t)), loader.WithConcurrency(2))
	got, rep := l.Resolve(context.Background(), root)

	testutil.AssertNodesEqual(t, before, root)
	testutil.AssertNoDeferred(t, got)

	want := []*navtree.Node{
		testutil.Branch("good", "g.html",
			testutil.Leaf("one", "one.html"),
			testutil.Branch("deeper", "d.html", testutil.Leaf("two", "two.html")),
		),
		testutil.Branch("bad", "b.html"),
		testutil.Branch("static", "", testutil.Branch("nested", "", testutil.Leaf("two", "two.html"))),
		testutil.Leaf("leaf", "l.html"),
	}
	testutil.AssertNodesEqual(t, want, got)

	if spy.calls.Load() != 4 {
		t.Errorf("fetch calls = %d, want 4", spy.calls.Load())
	}
	if rep.Fetched != 3 || len(rep.Failed) != 1 || rep.Failed[0].Chunk != "broken" {
		t.Errorf("report = %+v", rep)
	}
	if rep.Err() == nil {
		t.Error("report should carry the failure")
	}
}

// gateFetcher holds every fetch until want fetches are running at once, or
// fails it after a timeout.
type gateFetcher struct {
	want     int32
	running  atomic.Int32
	peak     atomic.Int32
	open     chan struct{}
	openOnce sync.Once
}

func newGateFetcher(want int) *gateFetcher {
	return &gateFetcher{want: int32(want), open: make(chan struct{})}
}

func (g *gateFetcher) FetchChunk(ctx context.Context, name string) ([]*navtree.Node, error) {
	n := g.running.Add(1)
	defer g.running.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if n >= g.want {
		g.openOnce.Do(func() { close(g.open) })
	}
	select {
	case <-g.open:
		return []*navtree.Node{testutil.Leaf(name, name+".html")}, nil
	case <-time.After(2 * time.Second):
		return nil, fmt.Errorf("chunk %s: only %d fetches running", name, g.running.Load())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func deferredSiblings(n int) []*navtree.Node {
	out := make([]*navtree.Node, n)
	for i := range out {
		tok := fmt.Sprintf("c%d", i)
		out[i] = testutil.Deferred(tok, "", tok)
	}
	return out
}

func TestResolve_SiblingsFetchConcurrently(t *testing.T) {
	const siblings = 8
	g := newGateFetcher(siblings)
	l := loader.New(g, loader.WithLogger(zaptest.NewLogger(t)))

	got, rep := l.Resolve(context.Background(), deferredSiblings(siblings))
	if err := rep.Err(); err != nil {
		t.Fatalf("siblings were not fetched together: %v", err)
	}
	testutil.AssertNoDeferred(t, got)
	if rep.Fetched != siblings || g.peak.Load() != siblings {
		t.Errorf("fetched %d, peak %d, want %d", rep.Fetched, g.peak.Load(), siblings)
	}
}

func TestResolve_ConcurrencyLimit(t *testing.T) {
	const limit = 2
	g := newGateFetcher(limit)
	l := loader.New(g, loader.WithLogger(zaptest.NewLogger(t)), loader.WithConcurrency(limit))

	_, rep := l.Resolve(context.Background(), deferredSiblings(6))
	if err := rep.Err(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rep.Fetched != 6 {
		t.Errorf("fetched %d, want 6", rep.Fetched)
	}
	if p := g.peak.Load(); p != limit {
		t.Errorf("peak concurrent fetches = %d, want %d", p, limit)
	}
}

func TestResolve_SharedChunkNotAliased(t *testing.T) {
	shared := []*navtree.Node{testutil.Leaf("x", "x.html")}
	spy := &spyFetcher{chunks: map[string][]*navtree.Node{"s": shared}}
	root := []*navtree.Node{
		testutil.Deferred("a", "", "s"),
		testutil.Deferred("b", "", "s"),
	}
	got, _ := loader.New(spy).Resolve(context.Background(), root)
	got[0].Children.Nodes()[0].Label = "changed"
	if got[1].Children.Nodes()[0].Label != "x" || shared[0].Label != "x" {
		t.Error("resolved subtrees must not share nodes")
	}
}

func TestResolve_SelfReferenceStops(t *testing.T) {
	spy := &spyFetcher{chunks: map[string][]*navtree.Node{
		"loop": {testutil.Deferred("again", "", "loop")},
	}}
	root := []*navtree.Node{testutil.Deferred("start", "", "loop")}
	got, rep := loader.New(spy, loader.WithMaxDepth(5)).Resolve(context.Background(), root)

	testutil.AssertNoDeferred(t, got)
	if len(rep.Failed) != 1 || !errors.Is(rep.Failed[0], loader.ErrTooDeep) {
		t.Errorf("report = %+v", rep.Failed)
	}
}

func TestResolve_SampleSite(t *testing.T) {
	ctx := context.Background()
	f := loader.NewScriptFetcher(testutil.SampleSite().FS())

	tree, err := loader.WaitForRoot(ctx, f, time.Second, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForRoot: %v", err)
	}
	got, rep := loader.New(f).Resolve(ctx, tree)
	if err := rep.Err(); err != nil {
		t.Fatalf("resolve failures: %v", err)
	}
	testutil.AssertNodesEqual(t, testutil.SampleTree(), got)
}

func TestResolve_GeneratedSite(t *testing.T) {
	g := testutil.New(testutil.GeneratorConfig{Seed: 7, Depth: 4, Breadth: 5, DeferRatio: 0.6})
	tree := g.Tree()
	site, chunks := g.Site("Gen", tree)
	if chunks == 0 {
		t.Fatal("generator wrote no chunks")
	}

	ctx := context.Background()
	f := loader.NewScriptFetcher(site.FS())
	root, err := loader.WaitForRoot(ctx, f, time.Second, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	got, rep := loader.New(f, loader.WithConcurrency(3)).Resolve(ctx, root)
	if rep.Fetched != chunks {
		t.Errorf("fetched %d chunks, want %d", rep.Fetched, chunks)
	}
	testutil.AssertNodesEqual(t, tree, got)
}

type slowRoot struct {
	ready atomic.Bool
	tries atomic.Int32
}

func (s *slowRoot) FetchRoot(context.Context) ([]*navtree.Node, error) {
	if s.tries.Add(1) >= 3 {
		s.ready.Store(true)
	}
	if !s.ready.Load() {
		return nil, fs.ErrNotExist
	}
	return []*navtree.Node{testutil.Branch("Proj", "index.html", testutil.Leaf("a", "a.html"))}, nil
}

func TestWaitForRoot_PollsUntilAvailable(t *testing.T) {
	src := &slowRoot{}
	tree, err := loader.WaitForRoot(context.Background(), src, time.Second, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || tree[0].Label != "a" {
		t.Errorf("tree = %v", tree)
	}
	if src.tries.Load() < 3 {
		t.Errorf("tries = %d", src.tries.Load())
	}
}

func TestWaitForRoot_Timeout(t *testing.T) {
	f := loader.NewScriptFetcher(fstest.MapFS{})
	start := time.Now()
	_, err := loader.WaitForRoot(context.Background(), f, 30*time.Millisecond, 5*time.Millisecond)
	if !errors.Is(err, loader.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("last fetch error should be wrapped: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait took %v", elapsed)
	}
}

func TestWaitForRoot_WrongShape(t *testing.T) {
	f := loader.NewScriptFetcher(fstest.MapFS{
		"navtreedata.js": {Data: []byte(`var NAVTREE = [["Proj", "index.html", null]];`)},
	})
	_, err := loader.WaitForRoot(context.Background(), f, 20*time.Millisecond, 5*time.Millisecond)
	if !errors.Is(err, loader.ErrUnavailable) || !errors.Is(err, loader.ErrChunkShape) {
		t.Errorf("expected unavailable shape error, got %v", err)
	}
}

func TestFindDocRoot(t *testing.T) {
	dir := testutil.TempSite(t, testutil.SampleSite())
	got, err := loader.FindDocRoot(dir)
	if err != nil || got != dir {
		t.Errorf("FindDocRoot(dir) = %q, %v", got, err)
	}

	t.Setenv(loader.DocRootEnvVar, dir)
	if got, err := loader.FindDocRoot(""); err != nil || got != dir {
		t.Errorf("FindDocRoot from env = %q, %v", got, err)
	}

	if _, err := loader.FindDocRoot(t.TempDir()); err == nil {
		t.Error("directory without navtreedata.js should fail")
	}
}
