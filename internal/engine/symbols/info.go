package symbols

import "grammarsym/internal/engine/syntax"

// RuntimeSource is reported as the source of symbols that have no syntax
// anchor: the built-ins every grammar sees.
const RuntimeSource = "ANTLR runtime"

// SymbolInfo is the record handed to presentation layers (outlines, find
// references, hovers).
type SymbolInfo struct {
	Kind        Kind               `json:"kind"`
	Name        string             `json:"name"`
	Source      string             `json:"source"`
	Definition  *syntax.Definition `json:"definition,omitempty"`
	Description string             `json:"description,omitempty"`
}

// SymbolInfo describes sym as seen from t.
//
// Imports and token vocabularies are attributed to the dependency whose file
// identifier contains the symbol name (best match, see bestDependencyMatch).
// A terminal is replaced by the same-named symbol from the first direct
// dependency that declares it, since terminals usually name tokens declared
// in an imported grammar.
func (t *Table) SymbolInfo(sym *Symbol) *SymbolInfo {
	if sym == nil {
		return nil
	}
	switch sym.Kind {
	case TokenVocab, Import:
		if dep := t.bestDependencyMatch(sym.Name); dep != nil {
			return &SymbolInfo{
				Kind:       sym.Kind,
				Name:       sym.Name,
				Source:     dep.SourceName(),
				Definition: syntax.DefinitionFor(dep.tree),
			}
		}
	case Terminal:
		if declared, _ := t.firstDependencyMatch(sym.Name, anyKind); declared != nil {
			sym = declared
		}
	}
	return describe(sym)
}

// SymbolInfoByName resolves name first; an unresolvable name yields nil.
func (t *Table) SymbolInfoByName(name string) *SymbolInfo {
	sym := t.Resolve(name, false)
	if sym == nil {
		return nil
	}
	return t.SymbolInfo(sym)
}

func describe(sym *Symbol) *SymbolInfo {
	info := &SymbolInfo{
		Kind:   sym.Kind,
		Name:   sym.Name,
		Source: RuntimeSource,
	}
	if sym.Anchored() {
		// A cleared table leaves its symbols detached; they have no file.
		info.Source = ""
		if sym.table != nil {
			info.Source = sym.table.SourceName()
		}
		info.Definition = syntax.DefinitionFor(sym.Node)
	}
	return info
}
