package testutil_test

import (
	"testing"

	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/testutil"
)

func TestDeterminism(t *testing.T) {
	a := testutil.NewDefault().Tree()
	b := testutil.NewDefault().Tree()
	testutil.AssertNodesEqual(t, a, b)
	if testutil.CountNodes(a) == 0 {
		t.Fatal("generated an empty tree")
	}
}

func TestSite_DefersWithoutMutatingTree(t *testing.T) {
	g := testutil.NewDefault()
	tree := g.Tree()
	before := navtree.CloneNodes(tree)

	site, chunks := g.Site("Proj", tree)
	testutil.AssertNodesEqual(t, before, tree)

	if _, ok := site["navtreedata.js"]; !ok {
		t.Fatal("site has no navtreedata.js")
	}
	if got := len(site) - 1; got != chunks {
		t.Errorf("site has %d chunk files, reported %d", got, chunks)
	}
}

func TestSampleSite_Chunks(t *testing.T) {
	site := testutil.SampleSite()
	for _, name := range []string{
		"navtreedata.js",
		"namespaces_dup.js",
		"concepts.js",
		"annotated_dup.js",
		"files_dup.js",
		"functions_dup.js",
		"namespacemembers_dup.js",
		"d9/globals_dup.js",
	} {
		if _, ok := site[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}
}

func TestFindPath(t *testing.T) {
	tree := testutil.SampleTree()
	n := testutil.FindPath(tree, "Classes", "Class List")
	if n == nil || n.RefString() != "annotated.html" {
		t.Fatalf("FindPath(Classes, Class List) = %v", n)
	}
	if testutil.FindPath(tree, "Classes", "Nope") != nil {
		t.Error("missing label should yield nil")
	}
}
