// Package manifest reads declarative grammar descriptions and builds symbol
// tables from them the way a parse-tree walker would.
package manifest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	domainerrors "grammarsym/internal/core/errors"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type GrammarType string

const (
	Combined GrammarType = "combined"
	Lexer    GrammarType = "lexer"
	Parser   GrammarType = "parser"
)

// Grammar describes one grammar file.
type Grammar struct {
	Name       string            `toml:"name" yaml:"name"`
	Type       GrammarType       `toml:"type" yaml:"type"`
	File       string            `toml:"file" yaml:"file"`
	TokenVocab string            `toml:"token_vocab" yaml:"token_vocab"`
	Imports    []string          `toml:"imports" yaml:"imports"`
	Options    map[string]string `toml:"options" yaml:"options"`
	Tokens     []string          `toml:"tokens" yaml:"tokens"`
	Channels   []string          `toml:"channels" yaml:"channels"`
	Actions    []NamedAction     `toml:"actions" yaml:"actions"`
	Rules      []ParserRule      `toml:"rules" yaml:"rules"`
	LexerRules []LexerRule       `toml:"lexer_rules" yaml:"lexer_rules"`
	Fragments  []LexerRule       `toml:"fragments" yaml:"fragments"`
	Modes      []Mode            `toml:"modes" yaml:"modes"`

	path string
}

// NamedAction is an @name { code } block, global or inside a rule.
type NamedAction struct {
	Name string `toml:"name" yaml:"name"`
	Code string `toml:"code" yaml:"code"`
}

// ParserRule body elements are written as they appear in the grammar:
// lower-case names reference rules, upper-case names reference tokens,
// quoted strings are literals, {...} is an action and {...}? a predicate.
// Anything else (operators, parentheses) is kept as plain text.
type ParserRule struct {
	Name      string        `toml:"name" yaml:"name"`
	Arguments string        `toml:"arguments" yaml:"arguments"`
	Actions   []NamedAction `toml:"actions" yaml:"actions"`
	Body      []string      `toml:"body" yaml:"body"`
	Catch     []string      `toml:"catch" yaml:"catch"`
	Finally   string        `toml:"finally" yaml:"finally"`
}

// LexerRule commands are written without the arrow, e.g. "skip" or
// "channel(HIDDEN)".
type LexerRule struct {
	Name     string   `toml:"name" yaml:"name"`
	Body     []string `toml:"body" yaml:"body"`
	Commands []string `toml:"commands" yaml:"commands"`
}

type Mode struct {
	Name  string      `toml:"name" yaml:"name"`
	Rules []LexerRule `toml:"rules" yaml:"rules"`
}

func Load(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeNotFound, "read grammar manifest"),
			domainerrors.CtxPath, path)
	}
	decode := Decode
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decode = DecodeYAML
	}
	g, err := decode(data)
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	g.path = path
	return g, nil
}

// Decode parses a manifest and fills in defaults. Unknown keys are rejected
// so typos do not silently drop declarations.
func Decode(data []byte) (*Grammar, error) {
	var g Grammar
	md, err := toml.Decode(string(data), &g)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "decode grammar manifest")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "unknown manifest keys"),
			"keys", strings.Join(keys, ", "))
	}
	finish(&g)
	return &g, nil
}

// DecodeYAML is Decode for the YAML form of a manifest. Keys are the same as
// in TOML.
func DecodeYAML(data []byte) (*Grammar, error) {
	var g Grammar
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil && !errors.Is(err, io.EOF) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "decode grammar manifest")
	}
	finish(&g)
	return &g, nil
}

func finish(g *Grammar) {
	g.Name = strings.TrimSpace(g.Name)
	g.TokenVocab = strings.TrimSpace(g.TokenVocab)
	if vocab, ok := g.Options[tokenVocabOption]; ok {
		if g.TokenVocab == "" {
			g.TokenVocab = strings.TrimSpace(vocab)
		}
		delete(g.Options, tokenVocabOption)
	}
	if g.Type == "" {
		g.Type = Combined
	}
	if strings.TrimSpace(g.File) == "" && g.Name != "" {
		g.File = g.Name + ".g4"
	}
}

// Path is the manifest location, empty for decoded documents.
func (g *Grammar) Path() string { return g.path }

// Dependencies lists the grammars this one needs, token vocabulary first,
// without duplicates.
func (g *Grammar) Dependencies() []string {
	seen := make(map[string]bool)
	var deps []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || name == g.Name || seen[name] {
			return
		}
		seen[name] = true
		deps = append(deps, name)
	}
	add(g.TokenVocab)
	for _, imp := range g.Imports {
		add(imp)
	}
	return deps
}
