package symbols

import "grammarsym/internal/engine/syntax"

// Symbol is one declared or referenced entity. It belongs to exactly one
// table; Node, when set, is the syntax node it came from and is never owned.
type Symbol struct {
	Name string
	Kind Kind
	Node syntax.Node
	// Index is the evaluation index of a predicate, -1 for everything else.
	Index int

	table    *Table
	parent   *Symbol
	children []*Symbol
}

func newSymbol(t *Table, parent *Symbol, kind Kind, name string, node syntax.Node) *Symbol {
	return &Symbol{
		Name:   name,
		Kind:   kind,
		Node:   node,
		Index:  -1,
		table:  t,
		parent: parent,
	}
}

// Table is the table the symbol was defined in. It is nil once that table
// has been cleared.
func (s *Symbol) Table() *Table {
	return s.table
}

// Parent is the enclosing scoped symbol, nil at the top level.
func (s *Symbol) Parent() *Symbol {
	return s.parent
}

func (s *Symbol) Children() []*Symbol {
	return append([]*Symbol(nil), s.children...)
}

// Scoped reports whether containment queries should descend into s.
func (s *Symbol) Scoped() bool {
	return s.Kind.Scoped() || len(s.children) > 0
}

// Anchored reports whether s came from user source rather than the runtime.
func (s *Symbol) Anchored() bool {
	return !syntax.IsNil(s.Node)
}

// Nested returns every descendant named name, depth first.
func (s *Symbol) Nested(name string) []*Symbol {
	var out []*Symbol
	s.walk(0, func(child *Symbol) {
		if child.Name == name {
			out = append(out, child)
		}
	})
	return out
}

func (s *Symbol) walk(depth int, visit func(*Symbol)) {
	if depth >= maxScopeDepth {
		return
	}
	for _, child := range s.children {
		visit(child)
		child.walk(depth+1, visit)
	}
}

func (s *Symbol) String() string {
	return s.Kind.String() + " " + s.Name
}
