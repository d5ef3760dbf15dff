package forest

import (
	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/projector"
)

// Assemble cuts the forest out of a resolved default tree. Sections appear
// in layout order; a section whose source is missing or yields no entries is
// omitted. tree is not modified.
func Assemble(tree []*navtree.Node, layout Layout) navtree.Forest {
	lift := layout.LiftLabel
	if lift == "" {
		lift = projector.LiftLabel
	}

	forest := navtree.Forest{}
	for _, sec := range layout.Sections {
		src := projector.FindByLabels(tree, sec.Path...)
		if src == nil {
			continue
		}
		section, ok := assembleSection(src, sec, lift)
		if !ok {
			continue
		}
		if sec.Name == layout.ExtrasOf {
			section = withExtras(section, tree, layout.Extras)
		}
		forest = append(forest, section)
	}
	return forest
}

func assembleSection(src *navtree.Node, sec Section, lift string) (*navtree.Node, bool) {
	switch sec.Rule {
	case RuleSiphon:
		if !src.HasRef() || !navtree.IsPage(*src.Ref) || src.Children.Kind() != navtree.KindList {
			return nil, false
		}
		entries := projector.Timed(sec.Name, src.Children.Nodes(), sec.Sep, sec.Filters...)
		entries = projector.AppendAnonymous(projector.SiphonAnonymous(entries))
		if len(entries) == 0 {
			return nil, false
		}
		return section(sec.Name, *src.Ref, entries), true

	case RuleLift:
		if !src.Children.HasNodes() {
			return nil, false
		}
		entries := projector.Timed(sec.Name, src.Children.Nodes(), sec.Sep, sec.Filters...)
		ref, rest, ok := projector.LiftEntry(entries, lift)
		if !ok {
			return nil, false
		}
		return section(sec.Name, ref, rest), true

	default:
		if !src.HasRef() || !navtree.IsPage(*src.Ref) {
			return nil, false
		}
		entries := projector.Timed(sec.Name, src.Children.Nodes(), sec.Sep, sec.Filters...)
		if len(entries) == 0 {
			return nil, false
		}
		return section(sec.Name, *src.Ref, entries), true
	}
}

func withExtras(sec *navtree.Node, tree []*navtree.Node, extras []Extra) *navtree.Node {
	kids := sec.Children.Nodes()
	for _, e := range extras {
		n := projector.FindByLabels(tree, e.Path...)
		if n == nil || !n.HasRef() || !navtree.IsPage(*n.Ref) {
			continue
		}
		kids = append(kids, navtree.Entry(e.Name, *n.Ref))
	}
	sec.Children = navtree.List(kids...)
	return sec
}

func section(name, ref string, entries []*navtree.Node) *navtree.Node {
	return navtree.New(name, navtree.Ref(ref), navtree.List(entries...))
}

// NeedsIndentation reports whether the forest needs room for expand
// affordances. It is false only when every section has entries and no entry
// has children of its own. An empty forest needs indentation.
func NeedsIndentation(forest []*navtree.Node) bool {
	if len(forest) == 0 {
		return true
	}
	for _, sec := range forest {
		if sec == nil || !sec.Children.HasNodes() {
			return true
		}
		for _, kid := range sec.Children.Nodes() {
			if kid != nil && !kid.Children.IsLeaf() {
				return true
			}
		}
	}
	return false
}
