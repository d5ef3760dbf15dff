// Package projector derives flat, display-ready sections from a resolved
// navigation tree.
//
// Project walks a subtree and keeps every node that points at a whole page,
// relabelled with its ancestor path. LiftEntry and SiphonAnonymous are the two
// extraction rules applied to projected lists before they become sections.
package projector

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/navplus/pkg/debug"
	"github.com/vanderheijden86/navplus/pkg/metrics"
	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// AnonymousHeader precedes the siphoned anonymous-namespace entries.
const AnonymousHeader = "-- ANONYMOUS --"

// LiftLabel is the entry lifted out of member indexes.
const LiftLabel = "All"

var anonymousScope = regexp.MustCompile(`anonymous_namespace\{([^}]+)\}$`)

// Project flattens subtree into leaf entries. A node contributes an entry
// when its ref's final path segment is a page without an anchor, and, when
// filters are given, that segment starts with one of them. The entry label
// joins ancestor labels with sep. Children are always searched, whether or
// not their parent contributed.
func Project(subtree []*navtree.Node, sep string, filters ...string) []*navtree.Node {
	defer metrics.Timer(metrics.Projection)()

	out := []*navtree.Node{}
	var collect func(branch []*navtree.Node, prefix string)
	collect = func(branch []*navtree.Node, prefix string) {
		for _, n := range branch {
			if n == nil {
				continue
			}
			label := n.Label
			if prefix != "" {
				label = prefix + sep + n.Label
			}
			if n.HasRef() && accept(*n.Ref, filters) {
				out = append(out, navtree.New(label, navtree.Ref(*n.Ref), navtree.Leaf()))
			}
			if kids := n.Children.Nodes(); len(kids) > 0 {
				collect(kids, label)
			}
		}
	}
	collect(subtree, "")
	return out
}

func accept(ref string, filters []string) bool {
	if !navtree.IsPlainPage(ref) {
		return false
	}
	if len(filters) == 0 {
		return true
	}
	seg := navtree.LastSegment(ref)
	for _, f := range filters {
		if strings.HasPrefix(seg, f) {
			return true
		}
	}
	return false
}

// LiftEntry removes the first entry labelled label and returns its ref as
// the section ref. ok is false when no such entry exists, when its ref is
// not a page, or when nothing remains; the caller then drops the section.
// entries is not modified.
func LiftEntry(entries []*navtree.Node, label string) (ref string, rest []*navtree.Node, ok bool) {
	idx := -1
	for i, e := range entries {
		if e.Label == label {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", entries, false
	}

	rest = make([]*navtree.Node, 0, len(entries)-1)
	rest = append(rest, entries[:idx]...)
	rest = append(rest, entries[idx+1:]...)

	lifted := entries[idx]
	if !lifted.HasRef() || !navtree.IsPage(*lifted.Ref) || len(rest) == 0 {
		return lifted.RefString(), rest, false
	}
	return *lifted.Ref, rest, true
}

// SiphonAnonymous moves anonymous-namespace entries out of entries.
// "ns::anonymous_namespace{b.cpp}" becomes "b.cpp (ns::)" and
// "anonymous_namespace{a.cpp}" becomes "a.cpp". The siphoned entries are
// sorted case-insensitively, ties broken by ref. entries is not modified.
func SiphonAnonymous(entries []*navtree.Node) (main, anon []*navtree.Node) {
	main = make([]*navtree.Node, 0, len(entries))
	anon = []*navtree.Node{}

	// Scan in reverse, as removal in place would.
	keep := make([]bool, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		m := anonymousScope.FindStringSubmatchIndex(e.Label)
		if m == nil {
			keep[i] = true
			continue
		}
		file := e.Label[m[2]:m[3]]
		label := file
		if prefix := e.Label[:m[0]]; prefix != "" {
			label = file + " (" + prefix + ")"
		}
		anon = append(anon, navtree.New(label, cloneRef(e.Ref), navtree.Leaf()))
	}
	for i, e := range entries {
		if keep[i] {
			main = append(main, e)
		}
	}

	sort.SliceStable(anon, func(i, j int) bool {
		a, b := strings.ToLower(anon[i].Label), strings.ToLower(anon[j].Label)
		if a != b {
			return a < b
		}
		return anon[i].RefString() < anon[j].RefString()
	})
	return main, anon
}

// AppendAnonymous appends the header and anon to main when anon is not
// empty.
func AppendAnonymous(main, anon []*navtree.Node) []*navtree.Node {
	if len(anon) == 0 {
		return main
	}
	out := make([]*navtree.Node, 0, len(main)+1+len(anon))
	out = append(out, main...)
	out = append(out, navtree.New(AnonymousHeader, nil, navtree.Leaf()))
	return append(out, anon...)
}

// FindByLabels follows exact label matches from tree and returns the node
// reached, or nil.
func FindByLabels(tree []*navtree.Node, labels ...string) *navtree.Node {
	if len(labels) == 0 {
		return nil
	}
	level := tree
	var node *navtree.Node
	for _, label := range labels {
		node = nil
		for _, n := range level {
			if n != nil && n.Label == label {
				node = n
				break
			}
		}
		if node == nil {
			return nil
		}
		level = node.Children.Nodes()
	}
	return node
}

// Timed runs Project and reports its duration through the debug log.
func Timed(name string, subtree []*navtree.Node, sep string, filters ...string) []*navtree.Node {
	start := time.Now()
	out := Project(subtree, sep, filters...)
	debug.LogTiming("project "+name, time.Since(start))
	return out
}

func cloneRef(r *string) *string {
	if r == nil {
		return nil
	}
	s := *r
	return &s
}
