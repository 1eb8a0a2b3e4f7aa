package symbols

import (
	"strings"

	"grammarsym/internal/shared/observability"
)

// firstDependencyMatch is the cross-file resolver. It asks each direct
// dependency, in the order they were added, for a top-level symbol named
// name and returns the first hit with the table it came from.
//
// This is a heuristic: when several dependencies declare the name, the
// earliest one wins and no ambiguity is reported. It is also one hop only;
// a declaration two imports away is not found. A strict mode (transitive
// closure with ambiguity reporting) belongs next to this function, not in
// place of it.
func (t *Table) firstDependencyMatch(name string, match matcher) (*Symbol, *Table) {
	for _, dep := range t.dependencies {
		if sym := dep.resolveLocal(name, match); sym != nil {
			observability.DependencyResolutions.WithLabelValues(observability.OutcomeHit).Inc()
			return sym, dep
		}
	}
	observability.DependencyResolutions.WithLabelValues(observability.OutcomeMiss).Inc()
	return nil, nil
}

// bestDependencyMatch picks the direct dependency whose file identifier
// contains name. Like firstDependencyMatch it is a best match, not an exact
// contract: "Expr" matches both ExprLexer and ExprParser and the first
// dependency wins.
func (t *Table) bestDependencyMatch(name string) *Table {
	if name == "" {
		return nil
	}
	for _, dep := range t.dependencies {
		if strings.Contains(dep.SourceID(), name) {
			return dep
		}
	}
	return nil
}

// DeclaringTable reports which table a name resolves to when looked up from
// t: t itself, an outer scope, or a direct dependency. nil if unresolved.
func (t *Table) DeclaringTable(name string) *Table {
	sym := t.Resolve(name, false)
	if sym == nil {
		return nil
	}
	return sym.table
}
