package symbols

import "grammarsym/internal/engine/syntax"

// topLevelOrder is the outline order after the token vocabulary.
var topLevelOrder = []Kind{
	Import,
	BuiltInLexerToken,
	VirtualLexerToken,
	FragmentLexerToken,
	LexerRule,
	BuiltInMode,
	LexerMode,
	BuiltInChannel,
	TokenChannel,
	ParserRule,
}

// ListTopLevelSymbols returns outline records in a fixed category order,
// independent of declaration order: token vocabulary, imports, built-in,
// virtual and fragment tokens, tokens, built-in modes, modes, built-in
// channels, channels, rules. Within a category symbols keep insertion order.
func (t *Table) ListTopLevelSymbols(localOnly bool) []SymbolInfo {
	var result []SymbolInfo
	if vocab := t.TokenVocabSymbol(); vocab != nil {
		result = append(result, *t.SymbolInfo(vocab))
	}
	for _, kind := range topLevelOrder {
		for _, sym := range t.collect(localOnly, ofKind(kind)) {
			result = append(result, *t.SymbolInfo(sym))
		}
	}
	return result
}

// TokenVocabSymbol finds the tokenVocab option, either declared at the top
// level or inside the grammar's options block.
func (t *Table) TokenVocabSymbol() *Symbol {
	for _, sym := range t.children {
		switch {
		case sym.Kind == TokenVocab:
			return sym
		case sym.Kind == Option && sym.Name == OptionsBlock:
			for _, opt := range sym.children {
				if opt.Kind == TokenVocab {
					return opt
				}
			}
		}
	}
	return nil
}

// OptionsBlock is the name of the scoped Option symbol holding grammar
// options.
const OptionsBlock = "options"

// SymbolOccurrences lists every declaration of and reference to name:
// top-level symbols plus everything nested inside scoped symbols. Unless
// localOnly, direct dependencies are searched too. Declarations point at
// their identifier rather than the whole declaration.
func (t *Table) SymbolOccurrences(name string, localOnly bool) []SymbolInfo {
	tables := []*Table{t}
	if !localOnly {
		tables = append(tables, t.dependencies...)
	}

	var result []SymbolInfo
	for _, tbl := range tables {
		source := tbl.SourceName()
		for _, sym := range tbl.children {
			if sym.Name == name && sym.Anchored() {
				result = append(result, SymbolInfo{
					Kind:       sym.Kind,
					Name:       name,
					Source:     source,
					Definition: syntax.DefinitionFor(identifierNode(sym)),
				})
			}
			for _, ref := range sym.Nested(name) {
				result = append(result, SymbolInfo{
					Kind:       ref.Kind,
					Name:       name,
					Source:     source,
					Definition: syntax.DefinitionFor(ref.Node),
				})
			}
		}
	}
	return result
}

// identifierNode narrows a declaration to its name token: the second child
// of a fragment declaration (after the "fragment" keyword), the first child
// of a token or rule declaration.
func identifierNode(sym *Symbol) syntax.Node {
	var child syntax.Node
	switch sym.Kind {
	case FragmentLexerToken:
		child = sym.Node.Child(1)
	case LexerRule, ParserRule:
		child = sym.Node.Child(0)
	}
	if syntax.IsNil(child) {
		return sym.Node
	}
	return child
}
