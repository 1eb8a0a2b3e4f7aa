// Package symbols is the semantic symbol table for grammar files: one Table
// per file, holding declarations and references, action and predicate
// indexes, reference counts, and one-hop links to the tables it depends on.
//
// A Table is built by a single writer (the tree walker) and read afterwards.
// It is not safe for concurrent mutation and query.
package symbols

import (
	"log/slog"

	"grammarsym/internal/engine/sourcectx"
	"grammarsym/internal/engine/syntax"
	"grammarsym/internal/shared/observability"
)

// maxScopeDepth bounds walks over outer scopes and nested symbols. Real
// grammars nest a handful of levels; anything deeper is a cycle somebody
// introduced by hand.
const maxScopeDepth = 64

// Owners is the part of the source-context registry a table talks to. It is
// satisfied by *sourcectx.Graph.
type Owners interface {
	FileName(id sourcectx.ContextID) (string, bool)
	SourceID(id sourcectx.ContextID) (string, bool)
	RemoveDependency(from, to sourcectx.ContextID)
}

type Options struct {
	// Owner is the source context this table belongs to, NoContext if none.
	Owner sourcectx.ContextID
	// Owners resolves Owner to file names and receives edge removals on Clear.
	Owners Owners
	// Outer is the enclosing scope consulted by non-local lookups, normally
	// the shared runtime table holding built-in symbols.
	Outer *Table
	// KeepSkipSpan turns off the "skip" action span widening in ListActions.
	KeepSkipSpan bool
	// SkipWidth overrides the widened "skip" span; zero means the keyword
	// length.
	SkipWidth int
	Logger    *slog.Logger
}

type Table struct {
	name     string
	owner    sourcectx.ContextID
	owners   Owners
	outer    *Table
	tree     syntax.Node
	keepSkip bool
	skipSpan int
	logger   *slog.Logger

	children []*Symbol
	byName   map[string][]*Symbol

	dependencies []*Table

	namedActions     []*Symbol
	parserActions    []*Symbol
	lexerActions     []*Symbol
	parserPredicates []*Symbol
	lexerPredicates  []*Symbol

	refs *ReferenceCounter
}

func NewTable(name string, opts Options) *Table {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	skipSpan := opts.SkipWidth
	if skipSpan <= 0 {
		skipSpan = skipActionWidth
	}
	observability.TablesCreated.Inc()
	return &Table{
		name:     name,
		owner:    opts.Owner,
		owners:   opts.Owners,
		outer:    opts.Outer,
		keepSkip: opts.KeepSkipSpan,
		skipSpan: skipSpan,
		logger:   logger.With("grammar", name),
		byName:   make(map[string][]*Symbol),
		refs:     NewReferenceCounter(),
	}
}

func (t *Table) Name() string { return t.name }
func (t *Table) Owner() sourcectx.ContextID { return t.owner }
func (t *Table) Outer() *Table { return t.outer }
func (t *Table) Tree() syntax.Node { return t.tree }
func (t *Table) SetTree(root syntax.Node) { t.tree = root }
func (t *Table) References() *ReferenceCounter { return t.refs }

// SourceName is the display file name used as provenance: the owner's file
// name when the owner is known, the table name otherwise.
func (t *Table) SourceName() string {
	if t.owner != sourcectx.NoContext && t.owners != nil {
		if name, ok := t.owners.FileName(t.owner); ok {
			return name
		}
	}
	return t.name
}

// SourceID is the stable file identifier, falling back to the table name.
func (t *Table) SourceID() string {
	if t.owner != sourcectx.NoContext && t.owners != nil {
		if id, ok := t.owners.SourceID(t.owner); ok {
			return id
		}
	}
	return t.name
}

// AddSymbol creates a symbol under parent, or at the top level when parent is
// nil. Duplicate names are allowed; each occupies its own slot.
func (t *Table) AddSymbol(parent *Symbol, kind Kind, name string, node syntax.Node) *Symbol {
	if parent != nil && parent.table != t {
		parent = nil
	}
	sym := newSymbol(t, parent, kind, name, node)
	if parent == nil {
		t.children = append(t.children, sym)
		t.byName[name] = append(t.byName[name], sym)
		if kind.Declaration() {
			t.refs.Declare(name)
		}
		return sym
	}
	parent.children = append(parent.children, sym)
	return sym
}

// Symbols returns the top-level symbols in insertion order.
func (t *Table) Symbols() []*Symbol {
	return append([]*Symbol(nil), t.children...)
}

func (t *Table) Len() int {
	return len(t.children)
}

// AddDependencies links tables this one imports or takes its token
// vocabulary from. Order is kept; nil, self and repeated tables are skipped.
func (t *Table) AddDependencies(tables ...*Table) {
	for _, dep := range tables {
		if dep == nil || dep == t || t.dependsOn(dep) {
			continue
		}
		t.dependencies = append(t.dependencies, dep)
	}
}

func (t *Table) RemoveDependency(dep *Table) {
	for i, d := range t.dependencies {
		if d == dep {
			t.dependencies = append(t.dependencies[:i], t.dependencies[i+1:]...)
			return
		}
	}
}

func (t *Table) Dependencies() []*Table {
	return append([]*Table(nil), t.dependencies...)
}

func (t *Table) dependsOn(dep *Table) bool {
	for _, d := range t.dependencies {
		if d == dep {
			return true
		}
	}
	return false
}

// Clear empties the table. Before dropping its dependency links it tells the
// owner registry to remove the matching edges, so the file graph never keeps
// a dependent that no longer exists. Clearing an empty table does nothing.
func (t *Table) Clear() {
	if t.owner != sourcectx.NoContext && t.owners != nil {
		for _, dep := range t.dependencies {
			if dep.owner == sourcectx.NoContext {
				continue
			}
			t.owners.RemoveDependency(t.owner, dep.owner)
			observability.DependencyNotifications.Inc()
		}
	}
	if len(t.children) > 0 || len(t.dependencies) > 0 {
		t.logger.Debug("clearing symbol table", "symbols", len(t.children), "dependencies", len(t.dependencies))
	}

	for _, sym := range t.children {
		detach(sym, 0)
	}
	t.children = nil
	t.byName = make(map[string][]*Symbol)
	t.dependencies = nil
	t.namedActions = nil
	t.parserActions = nil
	t.lexerActions = nil
	t.parserPredicates = nil
	t.lexerPredicates = nil
	t.refs.Reset()
	t.tree = nil
	observability.TableClears.Inc()
}

func detach(sym *Symbol, depth int) {
	sym.table = nil
	if depth >= maxScopeDepth {
		return
	}
	for _, child := range sym.children {
		detach(child, depth+1)
	}
}
