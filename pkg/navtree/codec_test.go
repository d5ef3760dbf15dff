package navtree_test

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

func TestDecode_TupleVariants(t *testing.T) {
	data := []byte(`[
		["Main", "index.html", [
			["Intro", "index.html#intro", null],
			["Classes", null, "annotated_dup"],
			["Empty", "empty.html", []]
		]]
	]`)

	nodes, err := navtree.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 root, got %d", len(nodes))
	}
	root := nodes[0]
	if root.RefString() != "index.html" {
		t.Errorf("root ref = %q", root.RefString())
	}
	kids := root.Children.Nodes()
	if len(kids) != 3 {
		t.Fatalf("expected 3 children, got %d", len(kids))
	}
	if !kids[0].Children.IsLeaf() {
		t.Errorf("Intro should be a leaf, got %v", kids[0].Children.Kind())
	}
	if kids[1].HasRef() {
		t.Errorf("Classes should have a nil ref")
	}
	if kids[1].Children.Kind() != navtree.KindDeferred || kids[1].Children.Token() != "annotated_dup" {
		t.Errorf("Classes should be deferred to annotated_dup, got %v %q", kids[1].Children.Kind(), kids[1].Children.Token())
	}
	if kids[2].Children.Kind() != navtree.KindList || kids[2].Children.HasNodes() {
		t.Errorf("Empty should be an empty list, got %v", kids[2].Children.Kind())
	}
	if !navtree.HasDeferred(nodes) {
		t.Error("HasDeferred should see the deferred token")
	}
}

func TestDecode_ShapeMismatch(t *testing.T) {
	cases := map[string]string{
		"object":      `{"a":1}`,
		"short tuple": `[["x", null]]`,
		"number kids": `[["x", null, 5]]`,
		"ref number":  `[["x", 3, null]]`,
		"null node":   `[null]`,
		"nested null": `[["x", null, [null]]]`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := navtree.Decode([]byte(in))
			if !errors.Is(err, navtree.ErrShape) {
				t.Errorf("expected ErrShape, got %v", err)
			}
		})
	}
}

func TestEncode_NilIsEmptyArray(t *testing.T) {
	data, err := navtree.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("expected [], got %s", data)
	}
}

func genNode(depth int) *rapid.Generator[*navtree.Node] {
	return rapid.Custom(func(t *rapid.T) *navtree.Node {
		label := rapid.StringMatching(`[A-Za-z_:{}. ]{0,12}`).Draw(t, "label")
		var ref *string
		if rapid.Bool().Draw(t, "hasRef") {
			s := rapid.StringMatching(`[a-z/_]{1,8}\.html(#[a-z]{1,4})?`).Draw(t, "ref")
			ref = &s
		}
		kind := rapid.IntRange(0, 2).Draw(t, "kind")
		if depth <= 0 {
			kind = 0
		}
		switch kind {
		case 1:
			kids := rapid.SliceOfN(genNode(depth-1), 0, 3).Draw(t, "kids")
			return navtree.New(label, ref, navtree.List(kids...))
		case 2:
			return navtree.New(label, ref, navtree.Deferred(rapid.StringMatching(`[a-z_/]{1,10}`).Draw(t, "token")))
		default:
			return navtree.New(label, ref, navtree.Leaf())
		}
	})
}

func TestCodec_PreservesStructure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes := rapid.SliceOfN(genNode(3), 0, 4).Draw(t, "nodes")
		data, err := navtree.Encode(nodes)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		back, err := navtree.Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !navtree.Equal(nodes, back) {
			t.Fatalf("structure changed through codec: %s", data)
		}
	})
}

func TestClone_IsDeep(t *testing.T) {
	orig := []*navtree.Node{
		navtree.New("A", navtree.Ref("a.html"), navtree.List(navtree.Entry("B", "b.html"))),
	}
	cp := navtree.CloneNodes(orig)
	cp[0].Children.Nodes()[0].Label = "changed"
	*cp[0].Ref = "z.html"

	if orig[0].Children.Nodes()[0].Label != "B" {
		t.Error("clone shares child nodes with original")
	}
	if orig[0].RefString() != "a.html" {
		t.Error("clone shares ref storage with original")
	}
}
