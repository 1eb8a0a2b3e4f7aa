package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/engine/symbols"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lexerManifest = `
name = "ExprLexer"
type = "lexer"

[[lexer_rules]]
name = "PLUS"
body = ["'+'"]

[[lexer_rules]]
name = "INT"
body = ["DIGIT", "+"]

[[lexer_rules]]
name = "WS"
body = ["[ \\t]+"]
commands = ["skip"]

[[fragments]]
name = "DIGIT"
body = ["[0-9]"]
`

const parserManifest = `
name = "ExprParser"
type = "parser"
token_vocab = "ExprLexer"
imports = ["Common"]

[[rules]]
name = "expr"
body = ["term", "PLUS", "term"]

[[rules]]
name = "term"
body = ["INT", "|", "atom"]
`

const commonManifest = `
name = "Common"
type = "parser"

[[rules]]
name = "atom"
body = ["INT"]
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func load(t *testing.T, dir string) *Workspace {
	t.Helper()
	w, err := New(Options{Exclude: []string{"testdata"}})
	require.NoError(t, err)
	paths, err := w.Discover(dir)
	require.NoError(t, err)
	require.NoError(t, w.LoadFiles(context.Background(), paths))
	return w
}

func fixture(t *testing.T) (string, *Workspace) {
	dir := t.TempDir()
	write(t, dir, "ExprLexer.grammar.toml", lexerManifest)
	write(t, dir, "parser/ExprParser.grammar.toml", parserManifest)
	write(t, dir, "parser/Common.grammar.toml", commonManifest)
	write(t, dir, "testdata/Broken.grammar.toml", "name = ")
	write(t, dir, "README.toml", "ignored = true")
	return dir, load(t, dir)
}

func TestWorkspace_DiscoverSkipsExcluded(t *testing.T) {
	dir, w := fixture(t)
	paths, err := w.Discover(dir, dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, []string{"Common", "ExprLexer", "ExprParser"}, w.Names())
}

func TestWorkspace_LinksDependencies(t *testing.T) {
	_, w := fixture(t)

	err := w.Query("ExprParser", func(f *File) error {
		deps := f.Table.Dependencies()
		require.Len(t, deps, 2)
		assert.Equal(t, "ExprLexer", deps[0].Name(), "token vocabulary comes first")
		assert.Equal(t, "Common", deps[1].Name())

		info := f.Table.SymbolInfoByName("PLUS")
		require.NotNil(t, info)
		assert.Equal(t, "ExprLexer.g4", info.Source)
		assert.Equal(t, symbols.LexerRule, info.Kind)

		assert.True(t, f.Table.SymbolExistsInGroup("INT", symbols.TokenRef, false))
		assert.False(t, f.Table.SymbolExistsInGroup("INT", symbols.TokenRef, true))
		assert.True(t, f.Table.SymbolExists("EOF", symbols.BuiltInLexerToken, false))

		vocab := f.Table.SymbolInfo(f.Table.TokenVocabSymbol())
		assert.Equal(t, "ExprLexer.g4", vocab.Source)
		return nil
	})
	require.NoError(t, err)

	g := w.Graph()
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Empty(t, w.Cycles())
}

func TestWorkspace_RebuildRelinks(t *testing.T) {
	dir, w := fixture(t)
	parserPath := filepath.Join(dir, "parser", "ExprParser.grammar.toml")

	write(t, dir, "parser/ExprParser.grammar.toml", parserManifest+`
[[rules]]
name = "unused"
body = ["expr"]
`)
	require.NoError(t, w.Rebuild(context.Background(), parserPath))

	err := w.Query("ExprParser", func(f *File) error {
		assert.Len(t, f.Table.Dependencies(), 2)
		assert.Equal(t, []string{"unused"}, f.Table.UnreferencedSymbols())
		assert.True(t, w.Graph().HasDependency(f.ID, f.Table.Dependencies()[0].Owner()))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, w.Graph().EdgeCount())

	// Rebuilding a dependency keeps dependents pointed at the same table.
	lexerPath := filepath.Join(dir, "ExprLexer.grammar.toml")
	write(t, dir, "ExprLexer.grammar.toml", `
name = "ExprLexer"
type = "lexer"

[[lexer_rules]]
name = "INT"
body = ["[0-9]+"]
`)
	require.NoError(t, w.Rebuild(context.Background(), lexerPath))
	err = w.Query("ExprParser", func(f *File) error {
		assert.Nil(t, f.Table.SymbolInfoByName("PLUS"))
		assert.NotNil(t, f.Table.SymbolInfoByName("INT"))
		return nil
	})
	require.NoError(t, err)
}

func TestWorkspace_InvalidRebuildKeepsTable(t *testing.T) {
	dir, w := fixture(t)
	lexerPath := filepath.Join(dir, "ExprLexer.grammar.toml")

	write(t, dir, "ExprLexer.grammar.toml", lexerManifest+`
[[rules]]
name = "expr"
body = ["INT"]
`)
	err := w.Rebuild(context.Background(), lexerPath)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))

	err = w.Query("ExprLexer", func(f *File) error {
		assert.True(t, f.Table.SymbolExists("PLUS", symbols.LexerRule, true))
		assert.Empty(t, f.Table.NestedSymbolsOfKind(symbols.ParserRule))
		return nil
	})
	require.NoError(t, err)
	err = w.Query("ExprParser", func(f *File) error {
		assert.True(t, f.Table.SymbolExistsInGroup("PLUS", symbols.TokenRef, false))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, w.Graph().EdgeCount())
	assert.Equal(t, []string{"Common", "ExprLexer", "ExprParser"}, w.Names())
}

func TestWorkspace_RemoveUnlinksDependents(t *testing.T) {
	dir, w := fixture(t)
	require.NoError(t, w.Remove(filepath.Join(dir, "parser", "Common.grammar.toml")))

	err := w.Query("ExprParser", func(f *File) error {
		deps := f.Table.Dependencies()
		require.Len(t, deps, 1)
		assert.Equal(t, "ExprLexer", deps[0].Name())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, w.Graph().Len())
	assert.Equal(t, 1, w.Graph().EdgeCount())

	err = w.Query("Common", func(*File) error { return nil })
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
	assert.True(t, domainerrors.IsCode(w.Remove(filepath.Join(dir, "missing.grammar.toml")), domainerrors.CodeNotFound))
}

func TestWorkspace_LateDependencyIsLinked(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "ExprParser.grammar.toml", parserManifest)
	w := load(t, dir)

	err := w.Query("ExprParser", func(f *File) error {
		assert.Empty(t, f.Table.Dependencies())
		return nil
	})
	require.NoError(t, err)

	lexerPath := write(t, dir, "ExprLexer.grammar.toml", lexerManifest)
	require.NoError(t, w.Apply(context.Background(), []string{lexerPath, filepath.Join(dir, "notes.txt")}))

	err = w.Query("ExprParser", func(f *File) error {
		require.Len(t, f.Table.Dependencies(), 1)
		assert.NotNil(t, f.Table.SymbolInfoByName("PLUS"))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, os.Remove(lexerPath))
	require.NoError(t, w.Apply(context.Background(), []string{lexerPath}))
	assert.Equal(t, []string{"ExprParser"}, w.Names())
}

func TestWorkspace_DuplicateGrammarName(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a/Common.grammar.toml", commonManifest)
	write(t, dir, "b/Common.grammar.toml", commonManifest)

	w, err := New(Options{})
	require.NoError(t, err)
	paths, err := w.Discover(dir)
	require.NoError(t, err)

	err = w.LoadFiles(context.Background(), paths)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeConflict))
	assert.Equal(t, []string{"Common"}, w.Names())
}

func TestWorkspace_DecodeFailureLoadsNothing(t *testing.T) {
	dir := t.TempDir()
	good := write(t, dir, "Common.grammar.toml", commonManifest)
	bad := write(t, dir, "Broken.grammar.toml", "name = ")

	w, err := New(Options{})
	require.NoError(t, err)
	require.Error(t, w.LoadFiles(context.Background(), []string{good, bad}))
	assert.Empty(t, w.Names())
}

func TestWorkspace_Cycles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "A.grammar.toml", "name = \"A\"\nimports = [\"B\"]\n")
	write(t, dir, "B.grammar.toml", "name = \"B\"\nimports = [\"A\"]\n")
	w := load(t, dir)

	cycles := w.Cycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"A", "B"}, cycles[0])

	// Lookups across the cycle stay one hop deep.
	err := w.Query("A", func(f *File) error {
		assert.Nil(t, f.Table.Resolve("missing", false))
		return nil
	})
	require.NoError(t, err)
}

func TestWorkspace_Watch(t *testing.T) {
	dir := t.TempDir()
	w := load(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, []string{dir}, 20*time.Millisecond, func(paths []string, err error) {
			if err == nil {
				updates <- paths
			}
		})
	}()
	time.Sleep(100 * time.Millisecond)

	write(t, dir, "Common.grammar.toml", commonManifest)
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for manifest update")
	}
	assert.Equal(t, []string{"Common"}, w.Names())

	cancel()
	require.NoError(t, <-done)
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)
	assert.True(t, w.Runtime().SymbolExists("HIDDEN", symbols.BuiltInChannel, true))
	assert.True(t, w.Matches("/x/Expr.grammar.toml"))
	assert.False(t, w.Matches("/x/Expr.g4"))

	_, err = New(Options{Pattern: "["})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
}
