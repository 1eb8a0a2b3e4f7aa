// Package tsnode adapts tree-sitter nodes to syntax.Node so a tree-sitter
// parse of a grammar file can anchor symbols directly.
package tsnode

import (
	"grammarsym/internal/engine/syntax"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Node wraps a tree-sitter node. Byte offsets stand in for token indices:
// they nest exactly like the tree does, which is all containment needs.
type Node struct {
	node   *sitter.Node
	source []byte
}

// Wrap returns nil for a nil node so callers can test the interface directly.
func Wrap(node *sitter.Node, source []byte) syntax.Node {
	if node == nil {
		return nil
	}
	return &Node{node: node, source: source}
}

// IsNil reports a nil wrapper or a wrapper around no node.
func (n *Node) IsNil() bool {
	return n == nil || n.node == nil
}

func (n *Node) Interval() syntax.Interval {
	start, end := int(n.node.StartByte()), int(n.node.EndByte())
	if end <= start {
		return syntax.InvalidInterval
	}
	return syntax.Interval{Start: start, Stop: end - 1}
}

func (n *Node) Range() syntax.Range {
	sp, ep := n.node.StartPosition(), n.node.EndPosition()
	return syntax.Range{
		Start: syntax.Position{Row: int(sp.Row), Column: int(sp.Column)},
		End:   syntax.Position{Row: int(ep.Row), Column: int(ep.Column)},
	}
}

func (n *Node) Text() string {
	start, end := n.node.StartByte(), n.node.EndByte()
	if end > uint(len(n.source)) || start > end {
		return ""
	}
	return string(n.source[start:end])
}

func (n *Node) ChildCount() int {
	return int(n.node.ChildCount())
}

func (n *Node) Child(i int) syntax.Node {
	if i < 0 || i >= n.ChildCount() {
		return nil
	}
	return Wrap(n.node.Child(uint(i)), n.source)
}

// Kind is the tree-sitter grammar kind, handy when a walker decides which
// symbol a node declares.
func (n *Node) Kind() string {
	return n.node.Kind()
}

// Raw exposes the wrapped node.
func (n *Node) Raw() *sitter.Node {
	return n.node
}

// Find returns the first node in depth-first order whose kind matches.
func Find(root syntax.Node, kind string) *Node {
	if syntax.IsNil(root) {
		return nil
	}
	if n, ok := root.(*Node); ok && n.Kind() == kind {
		return n
	}
	for i := 0; i < root.ChildCount(); i++ {
		if found := Find(root.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}
