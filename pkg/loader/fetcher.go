package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/vanderheijden86/navplus/pkg/debug"
	"github.com/vanderheijden86/navplus/pkg/metrics"
	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// DocRootEnvVar is the name of the environment variable for the generated
// documentation directory.
const DocRootEnvVar = "NAVPLUS_DOC_ROOT"

// RootScript is the generator's navigation data file.
const RootScript = "navtreedata.js"

// RootGlobal is the global the root script assigns the navigation tree to.
const RootGlobal = "NAVTREE"

// StampGlobal is the generation timestamp some page headers inject. When the
// root script declares it, it is the generation token.
const StampGlobal = "DOXY_PLUS_DATE_TIME"

// ChunkFetcher loads the node list a deferred child token refers to.
type ChunkFetcher interface {
	FetchChunk(ctx context.Context, name string) ([]*navtree.Node, error)
}

// RootFetcher loads the complete root navigation array.
type RootFetcher interface {
	FetchRoot(ctx context.Context) ([]*navtree.Node, error)
}

// ScriptFetcher reads navigation scripts from a file system.
// It implements both ChunkFetcher and RootFetcher.
type ScriptFetcher struct {
	fsys fs.FS
}

// NewScriptFetcher returns a fetcher over fsys, rooted at the documentation
// directory.
func NewScriptFetcher(fsys fs.FS) *ScriptFetcher {
	return &ScriptFetcher{fsys: fsys}
}

// NewDirFetcher returns a fetcher over the documentation directory dir.
func NewDirFetcher(dir string) *ScriptFetcher {
	return NewScriptFetcher(os.DirFS(dir))
}

// FetchChunk loads "<name>.js" and returns the array it declares under name,
// or else under the last path segment of name. A script that declares
// neither yields an empty list.
func (f *ScriptFetcher) FetchChunk(ctx context.Context, name string) ([]*navtree.Node, error) {
	defer metrics.Timer(metrics.ChunkFetch)()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := f.read(name + ".js")
	if err != nil {
		return nil, err
	}
	nodes, ok, err := ParseScriptArray(src, name, path.Base(name))
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", name, err)
	}
	if !ok {
		debug.Log("chunk declares no array", zap.String("chunk", name))
		return []*navtree.Node{}, nil
	}
	debug.Log("chunk loaded", zap.String("chunk", name), zap.Int("entries", len(nodes)))
	return nodes, nil
}

// FetchRoot loads the root script and returns the whole NAVTREE array.
func (f *ScriptFetcher) FetchRoot(ctx context.Context) ([]*navtree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := f.read(RootScript)
	if err != nil {
		return nil, err
	}
	nodes, ok, err := ParseScriptArray(src, RootGlobal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RootScript, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s does not declare %s", ErrChunkShape, RootScript, RootGlobal)
	}
	return nodes, nil
}

// Token identifies one generation of the documentation set. It is the
// declared StampGlobal string when present, else a content hash of the root
// script, so a regenerated site invalidates any cached forest.
func (f *ScriptFetcher) Token() (string, error) {
	src, err := f.read(RootScript)
	if err != nil {
		return "", err
	}
	if globals, err := ParseScript(src); err == nil {
		if stamp, ok := globals[StampGlobal].(string); ok && stamp != "" {
			return stamp, nil
		}
	}
	return "xxh:" + strconv.FormatUint(xxhash.Sum64(src), 16), nil
}

func (f *ScriptFetcher) read(name string) ([]byte, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("invalid script path %q", name)
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// DefaultTree extracts NAVTREE[0][2], the children of the project node.
func DefaultTree(root []*navtree.Node) ([]*navtree.Node, bool) {
	if len(root) == 0 || root[0] == nil {
		return nil, false
	}
	if root[0].Children.Kind() != navtree.KindList {
		return nil, false
	}
	return root[0].Children.Nodes(), true
}

// FindDocRoot returns the documentation directory: dir when given, else
// $NAVPLUS_DOC_ROOT, else the working directory. The directory must hold the
// root script.
func FindDocRoot(dir string) (string, error) {
	if dir == "" {
		dir = os.Getenv(DocRootEnvVar)
	}
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if _, err := os.Stat(filepath.Join(abs, RootScript)); err != nil {
		return "", fmt.Errorf("no %s in %s: %w", RootScript, abs, err)
	}
	return abs, nil
}
