package tsnode

import (
	"testing"

	"grammarsym/internal/engine/symbols"
	"grammarsym/internal/engine/syntax"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `package demo

func expr() int {
	return term()
}
`

func parse(t *testing.T, src []byte) (*sitter.Tree, func()) {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(sitter.NewLanguage(tree_sitter_go.Language()))
	tree := parser.Parse(src, nil)
	require.NotNil(t, tree)
	return tree, func() {
		tree.Close()
		parser.Close()
	}
}

func TestWrap_IntervalsNest(t *testing.T) {
	src := []byte(source)
	tree, done := parse(t, src)
	defer done()

	root := Wrap(tree.RootNode(), src)
	fn := Find(root, "function_declaration")
	require.NotNil(t, fn)
	call := Find(fn, "call_expression")
	require.NotNil(t, call)

	assert.True(t, root.Interval().ProperlyContains(fn.Interval()))
	assert.True(t, fn.Interval().ProperlyContains(call.Interval()))
	assert.Equal(t, "term()", call.Text())
	assert.Equal(t, syntax.Position{Row: 3, Column: 8}, call.Range().Start)
	assert.Nil(t, fn.Child(fn.ChildCount()))
}

func TestWrap_AnchorsSymbols(t *testing.T) {
	src := []byte(source)
	tree, done := parse(t, src)
	defer done()

	root := Wrap(tree.RootNode(), src)
	fn := Find(root, "function_declaration")
	call := Find(fn, "call_expression")
	require.NotNil(t, call)

	table := symbols.NewTable("demo", symbols.Options{})
	table.SetTree(root)
	rule := table.AddSymbol(nil, symbols.ParserRule, "expr", fn)
	table.AddSymbol(rule, symbols.RuleReference, "term", call)

	assert.Same(t, rule, table.SymbolContainingContext(call))
	assert.Nil(t, table.SymbolContainingContext(root))
	assert.Same(t, rule, table.SymbolWithNode(fn))
}

func TestWrap_NilNodesAreUnanchored(t *testing.T) {
	src := []byte(source)
	tree, done := parse(t, src)
	defer done()

	root := Wrap(tree.RootNode(), src)
	fn := Find(root, "function_declaration")
	call := Find(fn, "call_expression")
	require.NotNil(t, call)

	var missing *Node
	assert.True(t, syntax.IsNil(missing))
	assert.True(t, syntax.IsNil(&Node{}))
	assert.Nil(t, Find(missing, "call_expression"))

	table := symbols.NewTable("demo", symbols.Options{})
	table.SetTree(root)
	table.AddSymbol(nil, symbols.ParserRule, "ghost", missing)
	table.AddSymbol(nil, symbols.ParserRule, "empty", &Node{})
	rule := table.AddSymbol(nil, symbols.ParserRule, "expr", fn)

	assert.NotPanics(t, func() {
		assert.Same(t, rule, table.SymbolContainingContext(call))
		assert.Nil(t, table.SymbolContainingContext(missing))
		assert.Nil(t, table.SymbolWithNode(missing))
	})
}
