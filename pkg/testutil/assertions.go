package testutil

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// AssertNodesEqual verifies two node lists are structurally equal and prints
// both encodings on mismatch.
func AssertNodesEqual(t *testing.T, expected, actual []*navtree.Node) {
	t.Helper()
	if navtree.Equal(expected, actual) {
		return
	}
	want, _ := navtree.Encode(expected)
	got, _ := navtree.Encode(actual)
	t.Errorf("trees differ:\nexpected: %s\nactual:   %s", want, got)
}

// AssertLabels verifies the labels of nodes, in order.
func AssertLabels(t *testing.T, nodes []*navtree.Node, expected ...string) {
	t.Helper()
	got := make([]string, 0, len(nodes))
	for _, n := range nodes {
		got = append(got, n.Label)
	}
	if strings.Join(got, "\x00") != strings.Join(expected, "\x00") {
		t.Errorf("labels = %q, want %q", got, expected)
	}
}

// AssertNoDeferred verifies no node carries deferred children.
func AssertNoDeferred(t *testing.T, nodes []*navtree.Node) {
	t.Helper()
	navtree.Walk(nodes, func(n *navtree.Node, _ int) {
		if n.Children.Kind() == navtree.KindDeferred {
			t.Errorf("node %q still defers to %q", n.Label, n.Children.Token())
		}
	})
}

// AssertFlat verifies every node is a leaf whose ref, when present, has no
// in-page anchor.
func AssertFlat(t *testing.T, nodes []*navtree.Node) {
	t.Helper()
	for _, n := range nodes {
		if !n.Children.IsLeaf() {
			t.Errorf("entry %q has children", n.Label)
		}
		if strings.Contains(n.RefString(), navtree.AnchorMarker) {
			t.Errorf("entry %q has anchored ref %q", n.Label, n.RefString())
		}
	}
}

// AssertJSONEqual compares two values after JSON encoding.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// CountNodes returns the number of nodes reachable through materialized
// children.
func CountNodes(nodes []*navtree.Node) int {
	n := 0
	navtree.Walk(nodes, func(*navtree.Node, int) { n++ })
	return n
}
