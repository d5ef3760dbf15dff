// Package navtree defines the navigation tree model shared by the loader,
// projector, forest builder and widget engine.
//
// A node is the triple (label, ref, children). The children slot is a tagged
// union: a leaf, a materialized list, or a deferred token naming a chunk that
// still has to be fetched. Resolved trees never contain deferred children.
package navtree

// Kind discriminates the Children union.
type Kind uint8

const (
	// KindLeaf marks a node without children (the JSON null slot).
	KindLeaf Kind = iota
	// KindList marks a node with a materialized, possibly empty, child list.
	KindList
	// KindDeferred marks children that exist but must be fetched by token.
	KindDeferred
)

// String returns a short name for logging.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindList:
		return "list"
	case KindDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Children is the third slot of a node.
// The zero value is a leaf.
type Children struct {
	kind  Kind
	nodes []*Node
	token string
}

// Leaf returns leaf children.
func Leaf() Children { return Children{kind: KindLeaf} }

// List returns materialized children. List() with no arguments is an empty
// list, which is distinct from a leaf.
func List(nodes ...*Node) Children {
	if nodes == nil {
		nodes = []*Node{}
	}
	return Children{kind: KindList, nodes: nodes}
}

// Deferred returns children that must be loaded from the named chunk.
func Deferred(token string) Children { return Children{kind: KindDeferred, token: token} }

// Kind reports which variant is held.
func (c Children) Kind() Kind { return c.kind }

// Nodes returns the child list, or nil unless the kind is KindList.
func (c Children) Nodes() []*Node {
	if c.kind != KindList {
		return nil
	}
	return c.nodes
}

// Token returns the chunk name of deferred children.
func (c Children) Token() string { return c.token }

// IsLeaf reports whether there is no child slot at all.
func (c Children) IsLeaf() bool { return c.kind == KindLeaf }

// HasNodes reports whether there is at least one materialized child.
func (c Children) HasNodes() bool { return c.kind == KindList && len(c.nodes) > 0 }

// Node is one navigation tree node.
type Node struct {
	Label    string
	Ref      *string
	Children Children
}

// New builds a node.
func New(label string, ref *string, children Children) *Node {
	return &Node{Label: label, Ref: ref, Children: children}
}

// Entry builds a flat leaf entry with the given ref. An empty ref is stored
// as a nil ref.
func Entry(label, ref string) *Node {
	return &Node{Label: label, Ref: Ref(ref), Children: Leaf()}
}

// Ref returns a pointer to s, or nil for the empty string.
func Ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// HasRef reports whether the node carries a navigational target.
func (n *Node) HasRef() bool { return n != nil && n.Ref != nil }

// RefString returns the ref or "" when absent.
func (n *Node) RefString() string {
	if n == nil || n.Ref == nil {
		return ""
	}
	return *n.Ref
}

// Clone returns a deep copy of the node and its materialized children.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Label: n.Label}
	if n.Ref != nil {
		ref := *n.Ref
		out.Ref = &ref
	}
	switch n.Children.kind {
	case KindList:
		out.Children = List(CloneNodes(n.Children.nodes)...)
	case KindDeferred:
		out.Children = Deferred(n.Children.token)
	default:
		out.Children = Leaf()
	}
	return out
}

// CloneNodes deep-copies a node list. The result is never nil.
func CloneNodes(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Clone())
	}
	return out
}

// Forest is the ordered list of top-level navigation sections.
type Forest []*Node

// Clone deep-copies the forest.
func (f Forest) Clone() Forest { return CloneNodes(f) }

// Names returns the top-level section labels in order.
func (f Forest) Names() []string {
	names := make([]string, 0, len(f))
	for _, s := range f {
		names = append(names, s.Label)
	}
	return names
}

// Section returns the top-level section with the given label, or nil.
func (f Forest) Section(name string) *Node {
	for _, s := range f {
		if s.Label == name {
			return s
		}
	}
	return nil
}

// Walk visits nodes depth-first in document order. Deferred and leaf children
// are not descended. The depth of top-level nodes is 0.
func Walk(nodes []*Node, fn func(n *Node, depth int)) {
	var walk func([]*Node, int)
	walk = func(level []*Node, depth int) {
		for _, n := range level {
			if n == nil {
				continue
			}
			fn(n, depth)
			walk(n.Children.Nodes(), depth+1)
		}
	}
	walk(nodes, 0)
}

// Equal reports whether two node lists have the same labels, refs and
// children, recursively.
func Equal(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x == nil || y == nil {
			if x != y {
				return false
			}
			continue
		}
		if x.Label != y.Label || x.HasRef() != y.HasRef() || x.RefString() != y.RefString() {
			return false
		}
		if x.Children.kind != y.Children.kind || x.Children.token != y.Children.token {
			return false
		}
		if !Equal(x.Children.Nodes(), y.Children.Nodes()) {
			return false
		}
	}
	return true
}

// HasDeferred reports whether any node still carries deferred children.
func HasDeferred(nodes []*Node) bool {
	found := false
	Walk(nodes, func(n *Node, _ int) {
		if n.Children.kind == KindDeferred {
			found = true
		}
	})
	return found
}
