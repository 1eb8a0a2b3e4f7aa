package manifest

import (
	"sort"
	"strings"

	"grammarsym/internal/engine/symbols"
	"grammarsym/internal/engine/syntax"
)

const tokenVocabOption = "tokenVocab"

// Build validates g, synthesizes its syntax tree and populates table with
// the symbols a tree walker would record for it. The table is expected to be
// empty; rebuilds Clear it first. The tree is also installed on the table.
func Build(g *Grammar, table *symbols.Table) (syntax.Node, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}
	b := &builder{
		g:     g,
		table: table,
		tb:    syntax.NewTreeBuilder(),
		root:  syntax.NewBasic(syntax.InvalidInterval, syntax.Range{}, ""),
	}
	b.header()
	b.options()
	b.imports()
	b.block("tokens", g.Tokens, symbols.VirtualLexerToken)
	b.block("channels", g.Channels, symbols.TokenChannel)
	b.namedActions()
	for _, r := range g.Rules {
		b.parserRule(r)
	}
	for _, r := range g.LexerRules {
		b.lexerRule(r, false)
	}
	for _, r := range g.Fragments {
		b.lexerRule(r, true)
	}
	for _, m := range g.Modes {
		b.mode(m)
	}
	table.SetTree(b.root)
	return b.root, nil
}

type builder struct {
	g     *Grammar
	table *symbols.Table
	tb    *syntax.TreeBuilder
	root  *syntax.Basic
}

type element struct {
	kind elementKind
	text string
	node *syntax.Basic
}

// emit appends a top-level construct and starts a new line.
func (b *builder) emit(n *syntax.Basic) {
	b.root.Add(n)
	b.tb.Newline()
}

func (b *builder) header() {
	var parts []*syntax.Basic
	if b.g.Type != Combined {
		parts = append(parts, b.tb.Token(string(b.g.Type)))
	}
	parts = append(parts, b.tb.Token("grammar"), b.tb.Token(b.g.Name), b.tb.Token(";"))
	b.emit(b.tb.Node(parts...))
}

func (b *builder) options() {
	if b.g.TokenVocab == "" && len(b.g.Options) == 0 {
		return
	}
	type option struct {
		key   string
		value *syntax.Basic
		node  *syntax.Basic
	}
	parts := []*syntax.Basic{b.tb.Token("options"), b.tb.Token("{")}
	var opts []option
	add := func(key, value string) {
		k, eq, v, semi := b.tb.Token(key), b.tb.Token("="), b.tb.Token(value), b.tb.Token(";")
		o := option{key: key, value: v, node: b.tb.Node(k, eq, v, semi)}
		opts = append(opts, o)
		parts = append(parts, o.node)
	}
	if b.g.TokenVocab != "" {
		add(tokenVocabOption, b.g.TokenVocab)
	}
	keys := make([]string, 0, len(b.g.Options))
	for k := range b.g.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, b.g.Options[k])
	}
	parts = append(parts, b.tb.Token("}"))
	block := b.tb.Node(parts...)
	b.emit(block)

	sym := b.table.AddSymbol(nil, symbols.Option, symbols.OptionsBlock, block)
	for _, o := range opts {
		if o.key == tokenVocabOption {
			b.table.AddSymbol(sym, symbols.TokenVocab, b.g.TokenVocab, o.value)
			continue
		}
		b.table.AddSymbol(sym, symbols.Option, o.key, o.node)
	}
}

func (b *builder) imports() {
	if len(b.g.Imports) == 0 {
		return
	}
	parts := []*syntax.Basic{b.tb.Token("import")}
	names := make([]*syntax.Basic, 0, len(b.g.Imports))
	for _, imp := range b.g.Imports {
		n := b.tb.Token(strings.TrimSpace(imp))
		names = append(names, n)
		parts = append(parts, n)
	}
	parts = append(parts, b.tb.Token(";"))
	b.emit(b.tb.Node(parts...))
	for _, n := range names {
		b.table.AddSymbol(nil, symbols.Import, n.Text(), n)
	}
}

// block emits "keyword { A B }" and declares each name as kind.
func (b *builder) block(keyword string, names []string, kind symbols.Kind) {
	if len(names) == 0 {
		return
	}
	parts := []*syntax.Basic{b.tb.Token(keyword), b.tb.Token("{")}
	decls := make([]*syntax.Basic, 0, len(names))
	for _, name := range names {
		n := b.tb.Token(name)
		decls = append(decls, n)
		parts = append(parts, n)
	}
	parts = append(parts, b.tb.Token("}"))
	b.emit(b.tb.Node(parts...))
	for _, n := range decls {
		b.table.AddSymbol(nil, kind, n.Text(), n)
	}
}

func (b *builder) namedActions() {
	for _, a := range b.g.Actions {
		node := b.namedAction(a)
		b.emit(node)
		b.table.DefineNamedAction(b.table.AddSymbol(nil, symbols.GlobalNamedAction, a.Name, node))
	}
}

func (b *builder) namedAction(a NamedAction) *syntax.Basic {
	return b.tb.Node(b.tb.Token("@"+a.Name), b.tb.Token(braced(a.Code)))
}

func (b *builder) elements(body []string) []element {
	out := make([]element, 0, len(body))
	for _, raw := range body {
		text := strings.TrimSpace(raw)
		out = append(out, element{kind: classify(text), text: text, node: b.tb.Token(text)})
	}
	return out
}

func (b *builder) parserRule(r ParserRule) {
	name := b.tb.Token(r.Name)
	parts := []*syntax.Basic{name}
	var args *syntax.Basic
	if strings.TrimSpace(r.Arguments) != "" {
		args = b.tb.Token(bracketed(r.Arguments))
		parts = append(parts, args)
	}
	locals := make([]*syntax.Basic, 0, len(r.Actions))
	for _, a := range r.Actions {
		n := b.namedAction(a)
		locals = append(locals, n)
		parts = append(parts, n)
	}
	parts = append(parts, b.tb.Token(":"))
	body := b.elements(r.Body)
	for _, e := range body {
		parts = append(parts, e.node)
	}
	parts = append(parts, b.tb.Token(";"))
	catches := make([]*syntax.Basic, 0, len(r.Catch))
	for _, c := range r.Catch {
		n := b.tb.Node(b.tb.Token("catch"), b.tb.Token(handler(c)))
		catches = append(catches, n)
		parts = append(parts, n)
	}
	var finally *syntax.Basic
	if strings.TrimSpace(r.Finally) != "" {
		finally = b.tb.Node(b.tb.Token("finally"), b.tb.Token(braced(r.Finally)))
		parts = append(parts, finally)
	}
	node := b.tb.Node(parts...)
	b.emit(node)

	rule := b.table.AddSymbol(nil, symbols.ParserRule, r.Name, node)
	if args != nil {
		b.table.AddSymbol(rule, symbols.Arguments, args.Text(), args)
	}
	for i, a := range r.Actions {
		b.table.DefineNamedAction(b.table.AddSymbol(rule, symbols.LocalNamedAction, a.Name, locals[i]))
	}
	b.bodySymbols(rule, body, true)
	for _, n := range catches {
		b.table.DefineParserAction(b.table.AddSymbol(rule, symbols.ExceptionAction, n.Child(1).Text(), n))
	}
	if finally != nil {
		b.table.DefineParserAction(b.table.AddSymbol(rule, symbols.FinallyAction, finally.Child(1).Text(), finally))
	}
}

func (b *builder) lexerRule(r LexerRule, fragment bool) {
	type command struct {
		name string
		arg  string
		node *syntax.Basic
	}

	var parts []*syntax.Basic
	if fragment {
		parts = append(parts, b.tb.Token("fragment"))
	}
	parts = append(parts, b.tb.Token(r.Name), b.tb.Token(":"))
	body := b.elements(r.Body)
	for _, e := range body {
		parts = append(parts, e.node)
	}
	var commands []command
	if len(r.Commands) > 0 {
		parts = append(parts, b.tb.Token("->"))
		for _, c := range r.Commands {
			// Validate already accepted every command.
			name, arg, _ := parseCommand(b.g, r.Name, c)
			cmd := command{name: name, arg: arg, node: b.tb.Token(strings.TrimSpace(c))}
			commands = append(commands, cmd)
			parts = append(parts, cmd.node)
		}
	}
	parts = append(parts, b.tb.Token(";"))
	node := b.tb.Node(parts...)
	b.emit(node)

	kind := symbols.LexerRule
	if fragment {
		kind = symbols.FragmentLexerToken
	}
	rule := b.table.AddSymbol(nil, kind, r.Name, node)
	b.bodySymbols(rule, body, false)
	for _, c := range commands {
		b.table.DefineLexerAction(b.table.AddSymbol(rule, symbols.LexerCommand, c.name, c.node))
		if c.arg != "" {
			b.table.IncrementSymbolRefCount(c.arg)
		}
	}
}

func (b *builder) mode(m Mode) {
	node := b.tb.Node(b.tb.Token("mode"), b.tb.Token(m.Name), b.tb.Token(";"))
	b.emit(node)
	b.table.AddSymbol(nil, symbols.LexerMode, m.Name, node)
	for _, r := range m.Rules {
		b.lexerRule(r, false)
	}
}

func (b *builder) bodySymbols(parent *symbols.Symbol, body []element, parser bool) {
	for _, e := range body {
		switch e.kind {
		case elementTokenRef:
			b.table.AddSymbol(parent, symbols.TokenReference, e.text, e.node)
			b.table.IncrementSymbolRefCount(e.text)
		case elementRuleRef:
			b.table.AddSymbol(parent, symbols.RuleReference, e.text, e.node)
			b.table.IncrementSymbolRefCount(e.text)
		case elementLiteral:
			if parser {
				b.table.AddSymbol(parent, symbols.Terminal, e.text, e.node)
			}
		case elementAction:
			if parser {
				b.table.DefineParserAction(b.table.AddSymbol(parent, symbols.ParserAction, e.text, e.node))
			} else {
				b.table.DefineLexerAction(b.table.AddSymbol(parent, symbols.LexerAction, e.text, e.node))
			}
		case elementPredicate:
			kind := symbols.LexerPredicate
			if parser {
				kind = symbols.ParserPredicate
			}
			b.table.DefinePredicate(b.table.AddSymbol(parent, kind, e.text, e.node))
		}
	}
}

func braced(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "{") && strings.HasSuffix(code, "}") {
		return code
	}
	return "{" + code + "}"
}

// handler keeps "[Exception e] {...}" as written and braces bare code.
func handler(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasSuffix(code, "}") {
		return code
	}
	return braced(code)
}

func bracketed(args string) string {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, "[") && strings.HasSuffix(args, "]") {
		return args
	}
	return "[" + args + "]"
}
