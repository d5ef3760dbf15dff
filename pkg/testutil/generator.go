package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// GeneratorConfig controls random tree generation.
type GeneratorConfig struct {
	Seed        int64   // Random seed for determinism (0 = 42)
	Depth       int     // Levels below the top level
	Breadth     int     // Maximum children per branch
	DeferRatio  float64 // Share of branches moved to chunk scripts
	AnchorRatio float64 // Share of refs pointing into a page
	NullRatio   float64 // Share of grouping nodes without a ref
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42,
		Depth:       3,
		Breadth:     4,
		DeferRatio:  0.5,
		AnchorRatio: 0.2,
		NullRatio:   0.1,
	}
}

// Generator creates deterministic navigation trees and the chunked sites
// that serve them.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	seq int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Breadth <= 0 {
		cfg.Breadth = 1
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

var pagePrefixes = []string{"class", "struct", "namespace", "concept", "group", "_2src_2", "dir_"}

// Tree returns a resolved random tree.
func (g *Generator) Tree() []*navtree.Node {
	return g.level(g.cfg.Depth, "")
}

func (g *Generator) level(depth int, prefix string) []*navtree.Node {
	n := 1 + g.rng.Intn(g.cfg.Breadth)
	out := make([]*navtree.Node, 0, n)
	for i := 0; i < n; i++ {
		g.seq++
		label := fmt.Sprintf("%sn%d", prefix, g.seq)
		ref := g.ref()
		if depth > 0 && g.rng.Intn(3) > 0 {
			if g.rng.Float64() < g.cfg.NullRatio {
				ref = ""
			}
			out = append(out, Branch(label, ref, g.level(depth-1, "")...))
			continue
		}
		out = append(out, Leaf(label, ref))
	}
	return out
}

func (g *Generator) ref() string {
	p := pagePrefixes[g.rng.Intn(len(pagePrefixes))]
	page := fmt.Sprintf("d%d/d%02d/%sitem%d.html", g.rng.Intn(10), g.rng.Intn(100), p, g.seq)
	if g.rng.Float64() < g.cfg.AnchorRatio {
		page += fmt.Sprintf("#a%d", g.seq)
	}
	return page
}

// Site moves random branches of tree into chunk scripts, possibly nested,
// and returns the site together with the number of chunks written. tree is
// not modified.
func (g *Generator) Site(project string, tree []*navtree.Node) (Site, int) {
	s := Site{}
	root := navtree.CloneNodes(tree)
	chunks := 0
	var walk func([]*navtree.Node)
	walk = func(nodes []*navtree.Node) {
		for _, n := range nodes {
			kids := n.Children.Nodes()
			if len(kids) == 0 {
				continue
			}
			walk(kids)
			if g.rng.Float64() < g.cfg.DeferRatio {
				chunks++
				name := fmt.Sprintf("chunk%03d", chunks)
				if chunks%3 == 0 {
					name = "sub/" + name
				}
				s.AddChunk(name, kids...)
				n.Children = navtree.Deferred(name)
			}
		}
	}
	walk(root)
	return s.Add("navtreedata.js", RootScript(project, root)), chunks
}
