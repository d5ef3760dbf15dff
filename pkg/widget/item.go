package widget

import (
	"strconv"
	"strings"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// Kind selects which of the two navigation trees an Engine drives.
type Kind uint8

const (
	// KindPrimary is the site-wide tree. Its links are whole pages and its
	// branches start collapsed.
	KindPrimary Kind = iota
	// KindSecondary is the per-page tree of in-page targets. Its branches
	// start expanded and it answers keyboard navigation.
	KindSecondary
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindSecondary:
		return "secondary"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Prefix is the item id prefix of the kind.
func (k Kind) Prefix() string {
	if k == KindSecondary {
		return "S:"
	}
	return "P:"
}

// DefaultOpen is the expansion state of a branch that has no stored
// exception.
func (k Kind) DefaultOpen() bool { return k == KindSecondary }

// ItemID returns the stable id of the item at path, the sibling indices from
// the root. The id ends in the page base name for primary trees and in the
// whole ref for secondary trees, so ids survive regeneration as long as
// structure and targets do. A nil or empty ref ends the id in "null".
func ItemID(kind Kind, path []int, ref *string) string {
	var b strings.Builder
	b.WriteString(kind.Prefix())
	for i, idx := range path {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	b.WriteByte('.')
	b.WriteString(fileBase(kind, ref))
	return b.String()
}

func fileBase(kind Kind, ref *string) string {
	if ref == nil || *ref == "" {
		return "null"
	}
	if kind == KindSecondary {
		return *ref
	}
	base := navtree.LastSegment(*ref)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// Item is one rendered tree entry.
type Item struct {
	ID    string
	Label string
	Ref   *string
	// Href is the navigation target, empty for entries without a ref.
	Href string

	Expanded bool
	Visited  bool
	Current  bool

	Depth    int
	Parent   *Item
	Children []*Item
}

// HasChildren reports whether the item is a branch. Leaves have an inert
// expand affordance.
func (it *Item) HasChildren() bool { return len(it.Children) > 0 }

// HasHref reports whether the item can be activated.
func (it *Item) HasHref() bool { return it.Href != "" }
