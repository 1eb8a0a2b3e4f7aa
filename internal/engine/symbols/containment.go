package symbols

import "grammarsym/internal/engine/syntax"

// SymbolContainingContext returns the most deeply nested symbol whose anchor
// properly contains node. Only the first containing sibling at each level is
// explored, so the walk is proportional to nesting depth.
func (t *Table) SymbolContainingContext(node syntax.Node) *Symbol {
	if syntax.IsNil(node) {
		return nil
	}
	target := node.Interval()
	return innermost(t.children, 0, func(s *Symbol) bool {
		return s.Node.Interval().ProperlyContains(target)
	})
}

// SymbolAtPosition is the same walk driven by a row/column position, for
// callers that only have a cursor.
func (t *Table) SymbolAtPosition(pos syntax.Position) *Symbol {
	return innermost(t.children, 0, func(s *Symbol) bool {
		return s.Node.Range().Contains(pos)
	})
}

func innermost(children []*Symbol, depth int, contains func(*Symbol) bool) *Symbol {
	for _, sym := range children {
		if !sym.Anchored() || !contains(sym) {
			continue
		}
		if sym.Scoped() && depth < maxScopeDepth {
			if inner := innermost(sym.children, depth+1, contains); inner != nil {
				return inner
			}
		}
		return sym
	}
	return nil
}

// SymbolWithNode returns the symbol anchored at node. Anchors are matched by
// identity first; adapters that rewrap nodes on every access are matched by
// identical interval instead.
func (t *Table) SymbolWithNode(node syntax.Node) *Symbol {
	if syntax.IsNil(node) {
		return nil
	}
	var byIdentity, byInterval *Symbol
	target := node.Interval()
	t.walk(func(s *Symbol) {
		if byIdentity != nil || !s.Anchored() {
			return
		}
		if s.Node == node {
			byIdentity = s
			return
		}
		if byInterval == nil && target.Valid() && s.Node.Interval() == target {
			byInterval = s
		}
	})
	if byIdentity != nil {
		return byIdentity
	}
	return byInterval
}
