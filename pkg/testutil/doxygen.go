// Package testutil provides Doxygen-shaped navigation fixtures and assertion
// helpers shared by the package tests.
package testutil

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// Leaf builds a node without children. An empty ref is stored as nil.
func Leaf(label, ref string) *navtree.Node {
	return navtree.New(label, navtree.Ref(ref), navtree.Leaf())
}

// Branch builds a node with materialized children.
func Branch(label, ref string, kids ...*navtree.Node) *navtree.Node {
	return navtree.New(label, navtree.Ref(ref), navtree.List(kids...))
}

// Deferred builds a node whose children live in the named chunk.
func Deferred(label, ref, chunk string) *navtree.Node {
	return navtree.New(label, navtree.Ref(ref), navtree.Deferred(chunk))
}

// Script renders nodes as a generator chunk script declaring global.
func Script(global string, nodes []*navtree.Node) string {
	data, err := navtree.Encode(nodes)
	if err != nil {
		panic(fmt.Sprintf("testutil: encoding %s: %v", global, err))
	}
	return fmt.Sprintf("var %s =\n%s;\n", global, data)
}

// RootScript renders a navtreedata.js declaring NAVTREE with a single project
// node holding kids, followed by the extra globals the generator emits.
func RootScript(project string, kids []*navtree.Node) string {
	var sb strings.Builder
	sb.WriteString("/*\n @licstart  generated\n*/\n")
	sb.WriteString(Script("NAVTREE", []*navtree.Node{Branch(project, "index.html", kids...)}))
	sb.WriteString("\nvar NAVTREEINDEX =\n[\n\"annotated.html\"\n];\n\n")
	sb.WriteString("var SYNCONMSG = 'click to disable panel synchronization';\n")
	sb.WriteString("var SYNCOFFMSG = 'click to enable panel synchronization';\n")
	return sb.String()
}

// Site is a documentation directory in memory.
type Site fstest.MapFS

// Add stores a file.
func (s Site) Add(name, content string) Site {
	s[name] = &fstest.MapFile{Data: []byte(content)}
	return s
}

// AddChunk stores "<name>.js" declaring the last path segment of name.
func (s Site) AddChunk(name string, nodes ...*navtree.Node) Site {
	return s.Add(name+".js", Script(path.Base(name), nodes))
}

// FS returns the site as an fs.FS.
func (s Site) FS() fstest.MapFS { return fstest.MapFS(s) }

// Write stores the site under dir.
func (s Site) Write(t *testing.T, dir string) {
	t.Helper()
	for name, f := range s {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, f.Data, 0o644); err != nil {
			t.Fatalf("writing %s: %v", full, err)
		}
	}
}

// TempSite writes s to a fresh temporary directory and returns it.
func TempSite(t *testing.T, s Site) string {
	t.Helper()
	dir := t.TempDir()
	s.Write(t, dir)
	return dir
}

// SampleTree is the resolved NAVTREE[0][2] of SampleSite. Its primary forest
// is SampleForest.
func SampleTree() []*navtree.Node {
	return []*navtree.Node{
		Leaf("Main Page", "index.html"),
		Branch("Namespaces", "namespaces.html",
			Branch("Namespace List", "namespaces.html",
				Branch("geo", "d1/d00/namespacegeo.html",
					Leaf("anonymous_namespace{mesh.cpp}", "d1/d01/namespacegeo_1_1anonymous__namespace_02mesh_8cpp_03.html"),
					Leaf("Point", "d1/d02/structgeo_1_1Point.html"),
				),
				Leaf("anonymous_namespace{main.cpp}", "d1/d03/namespaceanonymous__namespace_02main_8cpp_03.html"),
				Leaf("io", "d1/d04/namespaceio.html"),
			),
			Branch("Namespace Members", "namespacemembers.html",
				Branch("All", "namespacemembers.html",
					Leaf("a", "namespacemembers.html#index_a"),
				),
				Leaf("Functions", "namespacemembers_func.html"),
				Leaf("Variables", "namespacemembers_vars.html"),
			),
		),
		Branch("Concepts", "concepts.html",
			Branch("geo", "d1/d00/namespacegeo.html",
				Leaf("Shape", "d2/d00/conceptgeo_1_1Shape.html"),
			),
		),
		Branch("Classes", "annotated.html",
			Branch("Class List", "annotated.html",
				Branch("geo", "d1/d00/namespacegeo.html",
					Leaf("Mesh", "d3/d00/classgeo_1_1Mesh.html"),
					Leaf("Point", "d1/d02/structgeo_1_1Point.html"),
				),
				Leaf("Widget", "d3/d01/classWidget.html"),
			),
			Leaf("Class Index", "classes.html"),
			Leaf("Class Hierarchy", "hierarchy.html"),
			Branch("Class Members", "functions.html",
				Branch("All", "functions.html",
					Leaf("a", "functions.html#index_a"),
				),
				Leaf("Functions", "functions_func.html"),
			),
		),
		Branch("Files", "files.html",
			Branch("File List", "files.html",
				Branch("src", "dir_68267d1309a1af8e8297ef4c3efbcdba.html",
					Leaf("main.cpp", "d4/d00/_2src_2main_8cpp.html"),
					Leaf("mesh.cpp", "d4/d01/_2src_2mesh_8cpp.html"),
				),
				Leaf("README.md", "d4/d02/md_README.html"),
			),
			Branch("File Members", "globals.html",
				Branch("All", "globals.html",
					Leaf("m", "globals.html#index_m"),
				),
			),
		),
	}
}

// SampleSite is a small generated documentation set whose NAVTREE defers
// most listings to chunk scripts, as the generator does. The resolved
// default tree equals SampleTree.
func SampleSite() Site {
	tree := SampleTree()
	s := Site{}

	// Each chunk holds the children of one listing node.
	deferTo := func(path []string, chunk string) {
		n := FindPath(tree, path...)
		s.AddChunk(chunk, n.Children.Nodes()...)
		n.Children = navtree.Deferred(chunk)
	}
	deferTo([]string{"Namespaces", "Namespace List"}, "namespaces_dup")
	deferTo([]string{"Concepts"}, "concepts")
	deferTo([]string{"Classes", "Class List"}, "annotated_dup")
	deferTo([]string{"Files", "File List"}, "files_dup")
	deferTo([]string{"Classes", "Class Members", "All"}, "functions_dup")
	deferTo([]string{"Namespaces", "Namespace Members", "All"}, "namespacemembers_dup")

	// Chunk names may carry a directory; the script declares the base name.
	n := FindPath(tree, "Files", "File Members", "All")
	s.AddChunk("d9/globals_dup", n.Children.Nodes()...)
	n.Children = navtree.Deferred("d9/globals_dup")

	return s.Add("navtreedata.js", RootScript("Geo Project", tree))
}

// FindPath follows exact labels from nodes and returns the node reached.
func FindPath(nodes []*navtree.Node, labels ...string) *navtree.Node {
	var found *navtree.Node
	for _, label := range labels {
		found = nil
		for _, n := range nodes {
			if n.Label == label {
				found = n
				break
			}
		}
		if found == nil {
			return nil
		}
		nodes = found.Children.Nodes()
	}
	return found
}

// SampleForest is the primary forest derived from SampleTree with the default
// layout. File Members is absent: its only page is the lifted "All" entry.
func SampleForest() []*navtree.Node {
	return []*navtree.Node{
		Branch("Namespaces", "namespaces.html",
			Leaf("geo", "d1/d00/namespacegeo.html"),
			Leaf("io", "d1/d04/namespaceio.html"),
			Leaf("-- ANONYMOUS --", ""),
			Leaf("main.cpp", "d1/d03/namespaceanonymous__namespace_02main_8cpp_03.html"),
			Leaf("mesh.cpp (geo::)", "d1/d01/namespacegeo_1_1anonymous__namespace_02mesh_8cpp_03.html"),
		),
		Branch("Globals", "namespacemembers.html",
			Leaf("Functions", "namespacemembers_func.html"),
			Leaf("Variables", "namespacemembers_vars.html"),
		),
		Branch("Concepts", "concepts.html",
			Leaf("geo::Shape", "d2/d00/conceptgeo_1_1Shape.html"),
		),
		Branch("Classes", "annotated.html",
			Leaf("geo::Mesh", "d3/d00/classgeo_1_1Mesh.html"),
			Leaf("geo::Point", "d1/d02/structgeo_1_1Point.html"),
			Leaf("Widget", "d3/d01/classWidget.html"),
			Leaf("[Hierarchy]", "hierarchy.html"),
			Leaf("[Index]", "classes.html"),
		),
		Branch("Class Members", "functions.html",
			Leaf("Functions", "functions_func.html"),
		),
		Branch("Files", "files.html",
			Leaf("src", "dir_68267d1309a1af8e8297ef4c3efbcdba.html"),
			Leaf("src/main.cpp", "d4/d00/_2src_2main_8cpp.html"),
			Leaf("src/mesh.cpp", "d4/d01/_2src_2mesh_8cpp.html"),
		),
	}
}
