package symbols

import (
	"grammarsym/internal/engine/syntax"
	"grammarsym/internal/shared/observability"
)

type matcher func(*Symbol) bool

func ofKind(kind Kind) matcher {
	return func(s *Symbol) bool { return s.Kind == kind }
}

func inGroup(group Group) matcher {
	return func(s *Symbol) bool { return group.Has(s.Kind) }
}

func anyKind(*Symbol) bool { return true }

// resolveLocal returns the first top-level symbol named name that matches.
func (t *Table) resolveLocal(name string, match matcher) *Symbol {
	for _, sym := range t.byName[name] {
		if match(sym) {
			return sym
		}
	}
	return nil
}

// resolveScoped looks in this table and, unless localOnly, in its outer
// scopes. It never crosses into dependencies.
func (t *Table) resolveScoped(name string, localOnly bool, match matcher) *Symbol {
	if sym := t.resolveLocal(name, match); sym != nil || localOnly {
		return sym
	}
	scope := t.outer
	for depth := 0; scope != nil && scope != t && depth < maxScopeDepth; depth++ {
		if sym := scope.resolveLocal(name, match); sym != nil {
			return sym
		}
		scope = scope.outer
	}
	return nil
}

// SymbolOfType returns the first symbol of exactly kind named name, or nil.
func (t *Table) SymbolOfType(name string, kind Kind, localOnly bool) *Symbol {
	sym := t.resolveScoped(name, localOnly, ofKind(kind))
	observability.SymbolLookups.WithLabelValues(observability.Outcome(sym != nil)).Inc()
	return sym
}

func (t *Table) SymbolExists(name string, kind Kind, localOnly bool) bool {
	return t.SymbolOfType(name, kind, localOnly) != nil
}

// SymbolExistsInGroup reports whether name resolves to any kind in group.
// Unless localOnly, direct dependencies are searched after the local and
// outer scopes, because a token used here is often declared in an imported
// grammar.
func (t *Table) SymbolExistsInGroup(name string, group Group, localOnly bool) bool {
	return t.SymbolInGroup(name, group, localOnly) != nil
}

func (t *Table) SymbolInGroup(name string, group Group, localOnly bool) *Symbol {
	match := inGroup(group)
	sym := t.resolveScoped(name, localOnly, match)
	if sym == nil && !localOnly {
		sym, _ = t.firstDependencyMatch(name, match)
	}
	observability.SymbolLookups.WithLabelValues(observability.Outcome(sym != nil)).Inc()
	return sym
}

// ContextForSymbol returns the syntax anchor of the symbol of kind named
// name, or nil when there is no such symbol or it has no anchor.
func (t *Table) ContextForSymbol(name string, kind Kind, localOnly bool) syntax.Node {
	sym := t.SymbolOfType(name, kind, localOnly)
	if sym == nil || !sym.Anchored() {
		return nil
	}
	return sym.Node
}

// Resolve finds name regardless of kind: locally, then in outer scopes, then
// (unless localOnly) in direct dependencies.
func (t *Table) Resolve(name string, localOnly bool) *Symbol {
	if sym := t.resolveScoped(name, localOnly, anyKind); sym != nil || localOnly {
		return sym
	}
	sym, _ := t.firstDependencyMatch(name, anyKind)
	return sym
}

// AllSymbols returns top-level symbols: this table's, then (unless
// localOnly) its outer scopes' and its direct dependencies'. Each symbol
// appears once.
func (t *Table) AllSymbols(localOnly bool) []*Symbol {
	return t.collect(localOnly, anyKind)
}

func (t *Table) collect(localOnly bool, match matcher) []*Symbol {
	var out []*Symbol
	seen := make(map[*Symbol]bool)
	add := func(from *Table) {
		for _, sym := range from.children {
			if match(sym) && !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}
	add(t)
	if localOnly {
		return out
	}
	scope := t.outer
	for depth := 0; scope != nil && scope != t && depth < maxScopeDepth; depth++ {
		add(scope)
		scope = scope.outer
	}
	for _, dep := range t.dependencies {
		add(dep)
	}
	return out
}

// NestedSymbolsOfKind walks every symbol in the table, depth first, and
// returns those of kind.
func (t *Table) NestedSymbolsOfKind(kind Kind) []*Symbol {
	var out []*Symbol
	t.walk(func(s *Symbol) {
		if s.Kind == kind {
			out = append(out, s)
		}
	})
	return out
}

func (t *Table) walk(visit func(*Symbol)) {
	for _, sym := range t.children {
		visit(sym)
		sym.walk(1, visit)
	}
}
