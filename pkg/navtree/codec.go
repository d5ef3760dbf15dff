package navtree

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrShape is returned when encoded data is not a list of
// [label, ref|null, children] tuples.
var ErrShape = errors.New("navtree: unexpected shape")

// MarshalJSON encodes the node as [label, ref|null, null|[...]|"token"].
func (n *Node) MarshalJSON() ([]byte, error) {
	var kids any
	switch n.Children.kind {
	case KindList:
		kids = n.Children.nodes
	case KindDeferred:
		kids = n.Children.token
	default:
		kids = nil
	}
	return json.Marshal([]any{n.Label, n.Ref, kids})
}

// UnmarshalJSON decodes the tuple form written by MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("%w: node is not an array: %v", ErrShape, err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("%w: node has %d slots, want 3", ErrShape, len(parts))
	}

	var label string
	if err := json.Unmarshal(parts[0], &label); err != nil {
		return fmt.Errorf("%w: label: %v", ErrShape, err)
	}

	var ref *string
	if !isNull(parts[1]) {
		var s string
		if err := json.Unmarshal(parts[1], &s); err != nil {
			return fmt.Errorf("%w: ref: %v", ErrShape, err)
		}
		ref = &s
	}

	kids, err := decodeChildren(parts[2])
	if err != nil {
		return err
	}

	*n = Node{Label: label, Ref: ref, Children: kids}
	return nil
}

func decodeChildren(raw json.RawMessage) (Children, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || isNull(trimmed) {
		return Leaf(), nil
	}
	switch trimmed[0] {
	case '[':
		var nodes []*Node
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return Children{}, err
		}
		return List(nodes...), nil
	case '"':
		var token string
		if err := json.Unmarshal(trimmed, &token); err != nil {
			return Children{}, fmt.Errorf("%w: deferred token: %v", ErrShape, err)
		}
		return Deferred(token), nil
	default:
		return Children{}, fmt.Errorf("%w: children slot %q", ErrShape, string(trimmed))
	}
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Encode serializes a node list.
func Encode(nodes []*Node) ([]byte, error) {
	if nodes == nil {
		nodes = []*Node{}
	}
	return json.Marshal(nodes)
}

// Decode parses a node list. Any structural problem is reported as ErrShape.
func Decode(data []byte) ([]*Node, error) {
	var nodes []*Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		if errors.Is(err, ErrShape) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if !allPresent(nodes) {
		return nil, fmt.Errorf("%w: null node", ErrShape)
	}
	return nodes, nil
}

func allPresent(nodes []*Node) bool {
	for _, n := range nodes {
		if n == nil || !allPresent(n.Children.Nodes()) {
			return false
		}
	}
	return true
}
