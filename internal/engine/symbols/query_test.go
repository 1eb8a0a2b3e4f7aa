package symbols

import (
	"testing"

	"grammarsym/internal/engine/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolInfo_CrossFileProvenance(t *testing.T) {
	f := newFixture()
	t1 := f.table("ExprParser")
	t2 := f.table("ExprLexer")
	f.link(t1, t2)

	plusDecl, _ := f.rule("PLUS", "'+'")
	t2.AddSymbol(nil, LexerRule, "PLUS", plusDecl)

	exprDecl, refs := f.rule("expr", "term", "PLUS", "term")
	expr := t1.AddSymbol(nil, ParserRule, "expr", exprDecl)
	t1.AddSymbol(expr, RuleReference, "term", refs[0])
	plusRef := t1.AddSymbol(expr, Terminal, "PLUS", refs[1])

	info := t1.SymbolInfoByName("PLUS")
	require.NotNil(t, info)
	assert.Equal(t, "ExprLexer.g4", info.Source)
	assert.Equal(t, LexerRule, info.Kind)
	assert.Equal(t, plusDecl.Range(), info.Definition.Range)

	// A terminal reference is replaced by the dependency's declaration.
	info = t1.SymbolInfo(plusRef)
	require.NotNil(t, info)
	assert.Equal(t, LexerRule, info.Kind)
	assert.Equal(t, "ExprLexer.g4", info.Source)

	local := t1.SymbolInfoByName("expr")
	require.NotNil(t, local)
	assert.Equal(t, "ExprParser.g4", local.Source)
	assert.Equal(t, ParserRule, local.Kind)

	assert.Nil(t, t1.SymbolInfoByName("nothing"))
	assert.Nil(t, t1.SymbolInfo(nil))
	assert.Same(t, t2, t1.DeclaringTable("PLUS"))
	assert.Nil(t, t1.DeclaringTable("nothing"))
}

func TestSymbolInfo_TerminalWithoutDependencyStaysLocal(t *testing.T) {
	f := newFixture()
	table := f.table("Expr")
	decl, refs := f.rule("expr", "'+'")
	expr := table.AddSymbol(nil, ParserRule, "expr", decl)
	lit := table.AddSymbol(expr, Terminal, "'+'", refs[0])

	info := table.SymbolInfo(lit)
	assert.Equal(t, Terminal, info.Kind)
	assert.Equal(t, "Expr.g4", info.Source)
}

func TestSymbolInfo_RuntimeSymbols(t *testing.T) {
	f := newFixture()
	table := f.table("Expr")

	info := table.SymbolInfoByName("EOF")
	require.NotNil(t, info)
	assert.Equal(t, BuiltInLexerToken, info.Kind)
	assert.Equal(t, RuntimeSource, info.Source)
	assert.Nil(t, info.Definition)
}

func TestSymbolInfo_ImportAndTokenVocabUseBestMatch(t *testing.T) {
	f := newFixture()
	parser := f.table("ExprParser")
	lexer := f.table("ExprLexer")
	common := f.table("Common")
	f.link(parser, common)
	f.link(parser, lexer)

	lexerRoot := f.tb.Node(f.tb.Token("lexer"), f.tb.Token("grammar"), f.tb.Token("ExprLexer"), f.tb.Token(";"))
	lexer.SetTree(lexerRoot)

	vocab := parser.AddSymbol(nil, TokenVocab, "ExprLexer", f.tb.Token("ExprLexer"))
	imp := parser.AddSymbol(nil, Import, "Common", f.tb.Token("Common"))

	info := parser.SymbolInfo(vocab)
	assert.Equal(t, "ExprLexer.g4", info.Source)
	require.NotNil(t, info.Definition)
	assert.Equal(t, lexerRoot.Range(), info.Definition.Range)

	info = parser.SymbolInfo(imp)
	assert.Equal(t, "Common.g4", info.Source)
	assert.Nil(t, info.Definition, "Common has no tree yet")

	// Without a matching dependency the symbol reports itself.
	orphan := parser.AddSymbol(nil, Import, "Missing", f.tb.Token("Missing"))
	info = parser.SymbolInfo(orphan)
	assert.Equal(t, "ExprParser.g4", info.Source)
}

func TestListTopLevelSymbols_FixedCategoryOrder(t *testing.T) {
	f := newFixture()
	table := f.table("Expr")
	lexer := f.table("ExprLexer")
	f.link(table, lexer)

	// Declared deliberately out of outline order.
	add := func(kind Kind, name string) {
		node, _ := f.rule(name)
		table.AddSymbol(nil, kind, name, node)
	}
	add(ParserRule, "expr")
	add(TokenChannel, "COMMENTS")
	add(LexerMode, "STR")
	add(LexerRule, "INT")
	add(FragmentLexerToken, "DIGIT")
	add(VirtualLexerToken, "INDENT")
	add(Import, "Common")
	add(ParserRule, "term")
	add(LexerRule, "ID")
	options := table.AddSymbol(nil, Option, OptionsBlock, f.tb.Token("options"))
	table.AddSymbol(options, TokenVocab, "ExprLexer", f.tb.Token("ExprLexer"))

	names := func(infos []SymbolInfo) []string {
		out := make([]string, 0, len(infos))
		for _, i := range infos {
			out = append(out, i.Name)
		}
		return out
	}

	local := table.ListTopLevelSymbols(true)
	assert.Equal(t, []string{"ExprLexer", "Common", "INDENT", "DIGIT", "INT", "ID", "STR", "COMMENTS", "expr", "term"}, names(local))
	assert.Equal(t, TokenVocab, local[0].Kind)
	assert.Equal(t, "ExprLexer.g4", local[0].Source)

	all := table.ListTopLevelSymbols(false)
	assert.Equal(t, []string{
		"ExprLexer", "Common", "EOF", "INDENT", "DIGIT", "INT", "ID",
		"DEFAULT_MODE", "STR", "DEFAULT_TOKEN_CHANNEL", "HIDDEN", "COMMENTS", "expr", "term",
	}, names(all))
}

func TestListTopLevelSymbols_DeduplicatesSharedOuterScope(t *testing.T) {
	f := newFixture()
	table := f.table("P")
	lexer := f.table("L")
	f.link(table, lexer)
	// The runtime table is reachable both as outer scope and as a dependency.
	lexer.AddDependencies(f.runtime)
	table.AddDependencies(f.runtime)

	count := 0
	for _, info := range table.ListTopLevelSymbols(false) {
		if info.Name == "EOF" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestListActions_SkipSpanWorkaround(t *testing.T) {
	f := newFixture()
	table := f.table("ExprLexer")

	skipNode := syntax.NewBasic(
		syntax.Interval{Start: 7, Stop: 7},
		syntax.Range{Start: syntax.Position{Row: 2, Column: 4}, End: syntax.Position{Row: 2, Column: 5}},
		"skip",
	)
	skip := table.AddSymbol(nil, LexerCommand, "Skip", skipNode)
	table.DefineLexerAction(skip)
	other := table.AddSymbol(nil, LexerAction, "{count++;}", f.tb.TokenAt("{count++;}", 3, 10))
	table.DefineLexerAction(other)

	list := table.ListActions(LexerActions)
	require.False(t, list.Degraded())
	require.Len(t, list.Entries, 2)

	got := list.Entries[0].Definition.Range
	assert.Equal(t, 4, got.Start.Column)
	assert.Equal(t, got.Start.Column+3, got.End.Column)
	assert.Equal(t, "skip", list.Entries[0].Description)
	assert.Equal(t, "ExprLexer.g4", list.Entries[0].Source)
	assert.Equal(t, 5, skipNode.Range().End.Column, "the anchor itself is untouched")

	assert.Equal(t, 20, list.Entries[1].Definition.Range.End.Column)

	kept := NewTable("K", Options{KeepSkipSpan: true})
	kept.DefineLexerAction(kept.AddSymbol(nil, LexerCommand, "skip", skipNode))
	assert.Equal(t, 5, kept.ListActions(LexerActions).Entries[0].Definition.Range.End.Column)

	wide := NewTable("W", Options{SkipWidth: 4})
	wide.DefineLexerAction(wide.AddSymbol(nil, LexerCommand, "skip", skipNode))
	assert.Equal(t, 8, wide.ListActions(LexerActions).Entries[0].Definition.Range.End.Column)
}

type panickingNode struct{ *syntax.Basic }

func (panickingNode) Text() string { panic("text unavailable") }

func TestListActions_DegradesToSingleErrorRecord(t *testing.T) {
	f := newFixture()
	table := f.table("Expr")

	good := table.AddSymbol(nil, ParserAction, "{ok}", f.tb.Token("{ok}"))
	table.DefineParserAction(good)
	bad := table.AddSymbol(nil, ParserAction, "{bad}", panickingNode{f.tb.Token("{bad}")})
	table.DefineParserAction(bad)

	list := table.ListActions(ParserActions)
	require.True(t, list.Degraded())
	require.Len(t, list.Entries, 1)
	assert.Equal(t, Unknown, list.Entries[0].Kind)
	assert.Equal(t, "Internal error", list.Entries[0].Name)
	assert.Contains(t, list.Entries[0].Description, "text unavailable")

	unanchored := NewTable("U", Options{})
	unanchored.DefineParserAction(unanchored.AddSymbol(nil, ParserAction, "{x}", nil))
	list = unanchored.ListActions(ParserActions)
	require.True(t, list.Degraded())
	assert.Len(t, list.Entries, 1)

	empty := table.ListActions(LexerPredicates)
	assert.False(t, empty.Degraded())
	assert.Empty(t, empty.Entries)
}

func TestSymbolOccurrences_NarrowsDeclarations(t *testing.T) {
	f := newFixture()
	table := f.table("Expr")
	lexer := f.table("ExprLexer")
	f.link(table, lexer)

	// fragment DIGIT : [0-9] ;
	fragKw := f.tb.Token("fragment")
	fragName := f.tb.Token("DIGIT")
	fragDecl := f.tb.Node(fragKw, fragName, f.tb.Token(":"), f.tb.Token("[0-9]"), f.tb.Token(";"))
	f.tb.Newline()
	table.AddSymbol(nil, FragmentLexerToken, "DIGIT", fragDecl)

	intDecl, intRefs := f.rule("INT", "DIGIT")
	intSym := table.AddSymbol(nil, LexerRule, "INT", intDecl)
	table.AddSymbol(intSym, TokenReference, "DIGIT", intRefs[0])

	exprDecl, exprRefs := f.rule("expr", "INT", "expr")
	expr := table.AddSymbol(nil, ParserRule, "expr", exprDecl)
	table.AddSymbol(expr, TokenReference, "INT", exprRefs[0])
	table.AddSymbol(expr, RuleReference, "expr", exprRefs[1])

	lexDecl, _ := f.rule("INT", "[0-9]+")
	lexer.AddSymbol(nil, LexerRule, "INT", lexDecl)

	digits := table.SymbolOccurrences("DIGIT", true)
	require.Len(t, digits, 2)
	assert.Equal(t, FragmentLexerToken, digits[0].Kind)
	assert.Equal(t, fragName.Range(), digits[0].Definition.Range)
	assert.Equal(t, TokenReference, digits[1].Kind)
	assert.Equal(t, intRefs[0].Range(), digits[1].Definition.Range)

	exprs := table.SymbolOccurrences("expr", true)
	require.Len(t, exprs, 2)
	assert.Equal(t, exprDecl.Child(0).Range(), exprs[0].Definition.Range)
	assert.Equal(t, RuleReference, exprs[1].Kind)

	ints := table.SymbolOccurrences("INT", true)
	require.Len(t, ints, 2)
	assert.Equal(t, intDecl.Child(0).Range(), ints[0].Definition.Range)

	all := table.SymbolOccurrences("INT", false)
	require.Len(t, all, 3)
	assert.Equal(t, "ExprLexer.g4", all[2].Source)

	assert.Empty(t, table.SymbolOccurrences("EOF", false), "built-ins have no occurrences")
}

func TestSymbolContainingContext_Innermost(t *testing.T) {
	f := newFixture()
	table := f.table("Expr")
	tb := f.tb

	// A ⊃ B ⊃ target
	before, _ := f.rule("before", "x")
	table.AddSymbol(nil, ParserRule, "before", before)

	aName := tb.Token("a")
	colon := tb.Token(":")
	lparen := tb.Token("(")
	target := tb.Token("target")
	bNode := tb.Node(lparen, target, tb.Token(")"))
	aNode := tb.Node(aName, colon, bNode, tb.Token(";"))
	a := table.AddSymbol(nil, ParserRule, "a", aNode)
	b := table.AddSymbol(a, LocalNamedAction, "b", bNode)
	leaf := table.AddSymbol(b, RuleReference, "target", target)

	assert.Same(t, b, table.SymbolContainingContext(target))
	assert.Same(t, a, table.SymbolContainingContext(bNode), "containment is strict")
	assert.Same(t, a, table.SymbolContainingContext(aName))
	assert.Nil(t, table.SymbolContainingContext(aNode))
	assert.Nil(t, table.SymbolContainingContext(nil))

	outside := tb.Token("outside")
	assert.Nil(t, table.SymbolContainingContext(outside))

	assert.Same(t, leaf, table.SymbolWithNode(target))
	assert.Same(t, b, table.SymbolWithNode(bNode))
	rewrapped := syntax.NewBasic(bNode.Interval(), bNode.Range(), "")
	assert.Same(t, b, table.SymbolWithNode(rewrapped))
	assert.Nil(t, table.SymbolWithNode(outside))
}

func TestSymbolAtPosition(t *testing.T) {
	f := newFixture()
	table := f.table("Expr")

	decl, refs := f.rule("expr", "term", "PLUS", "term")
	expr := table.AddSymbol(nil, ParserRule, "expr", decl)
	plus := table.AddSymbol(expr, Terminal, "PLUS", refs[1])

	start := refs[1].Range().Start
	assert.Same(t, plus, table.SymbolAtPosition(start))
	assert.Same(t, expr, table.SymbolAtPosition(decl.Range().Start))
	assert.Nil(t, table.SymbolAtPosition(syntax.Position{Row: 40, Column: 0}))
}

func TestNestedSymbolsOfKind(t *testing.T) {
	f := newFixture()
	table := f.table("Expr")
	decl, refs := f.rule("expr", "INT", "term", "INT")
	expr := table.AddSymbol(nil, ParserRule, "expr", decl)
	table.AddSymbol(expr, TokenReference, "INT", refs[0])
	table.AddSymbol(expr, RuleReference, "term", refs[1])
	table.AddSymbol(expr, TokenReference, "INT", refs[2])

	got := table.NestedSymbolsOfKind(TokenReference)
	require.Len(t, got, 2)
	assert.Same(t, expr, got[0].Parent())
	assert.Len(t, table.NestedSymbolsOfKind(ParserRule), 1)
}

func TestKind_TextRoundTrip(t *testing.T) {
	for k := Unknown; k < kindCount; k++ {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var back Kind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("nope")))

	at, ok := ParseActionType("LEXERPREDICATE")
	assert.True(t, ok)
	assert.Equal(t, LexerPredicates, at)
}
