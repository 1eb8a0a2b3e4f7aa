// Package workspace loads a set of grammar manifests, builds one symbol table
// per grammar and keeps the tables linked as files change.
package workspace

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"grammarsym/internal/core/config"
	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/engine/sourcectx"
	"grammarsym/internal/engine/symbols"
	"grammarsym/internal/manifest"
	"grammarsym/internal/shared/observability"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Runtime      symbols.Builtins
	KeepSkipSpan bool
	SkipWidth    int
	// Pattern selects manifest files by base name.
	Pattern string
	// Exclude skips directories and files whose base name matches.
	Exclude []string
	Logger  *slog.Logger
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Runtime: symbols.Builtins{
			Tokens:   cfg.Runtime.Tokens,
			Modes:    cfg.Runtime.Modes,
			Channels: cfg.Runtime.Channels,
		},
		KeepSkipSpan: !cfg.Compat.WidenSkip(),
		SkipWidth:    cfg.Compat.SkipWidth,
		Pattern:      cfg.Workspace.Pattern,
		Exclude:      cfg.Workspace.Exclude,
	}
}

// File is one loaded grammar.
type File struct {
	Path    string
	Grammar *manifest.Grammar
	Table   *symbols.Table
	ID      sourcectx.ContextID
}

// Workspace is safe for concurrent use. Tables it hands out through Query
// must not be retained past the callback, since a rebuild mutates them.
type Workspace struct {
	mu      sync.RWMutex
	opts    Options
	logger  *slog.Logger
	pattern glob.Glob
	exclude []glob.Glob
	graph   *sourcectx.Graph
	runtime *symbols.Table
	byPath  map[string]*File
	byName  map[string]*File
}

func New(opts Options) (*Workspace, error) {
	if opts.Pattern == "" {
		opts.Pattern = config.DefaultManifestGlob
	}
	pattern, err := glob.Compile(opts.Pattern)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "manifest pattern")
	}
	if len(opts.Runtime.Tokens)+len(opts.Runtime.Modes)+len(opts.Runtime.Channels) == 0 {
		opts.Runtime = symbols.DefaultBuiltins()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exclude := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "exclude pattern "+pattern)
		}
		exclude = append(exclude, g)
	}

	return &Workspace{
		opts:    opts,
		logger:  logger.With("component", "workspace"),
		pattern: pattern,
		exclude: exclude,
		graph:   sourcectx.NewGraph(),
		runtime: symbols.NewRuntimeTable(opts.Runtime),
		byPath:  make(map[string]*File),
		byName:  make(map[string]*File),
	}, nil
}

func (w *Workspace) Graph() *sourcectx.Graph { return w.graph }

// Runtime is the shared outer scope holding built-in symbols.
func (w *Workspace) Runtime() *symbols.Table { return w.runtime }

func (w *Workspace) excluded(name string) bool {
	for _, g := range w.exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Matches reports whether path names a manifest this workspace would load.
func (w *Workspace) Matches(path string) bool {
	base := filepath.Base(path)
	return w.pattern.Match(base) && !w.excluded(base)
}

// Discover walks roots for manifest files, sorted and without duplicates.
func (w *Workspace) Discover(roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && w.excluded(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !w.Matches(path) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if !seen[abs] {
				seen[abs] = true
				paths = append(paths, abs)
			}
			return nil
		})
		if err != nil {
			return nil, domainerrors.AddContext(
				domainerrors.Wrap(err, domainerrors.CodeNotFound, "discover manifests"),
				domainerrors.CtxPath, root)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadFiles decodes the manifests concurrently, then builds and links their
// tables. Nothing is added if any manifest fails to decode.
func (w *Workspace) LoadFiles(ctx context.Context, paths []string) error {
	grammars := make([]*manifest.Grammar, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			grammar, err := manifest.Load(path)
			if err != nil {
				return err
			}
			grammars[i] = grammar
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	var errs []error
	for i, grammar := range grammars {
		if _, err := w.addLocked(paths[i], grammar); err != nil {
			errs = append(errs, err)
		}
	}
	w.relinkLocked()
	observability.BuildDuration.Observe(time.Since(start).Seconds())
	w.logger.Debug("workspace loaded", "files", len(w.byPath), "edges", w.graph.EdgeCount())
	return errors.Join(errs...)
}

func (w *Workspace) addLocked(path string, grammar *manifest.Grammar) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if existing, ok := w.byPath[abs]; ok {
		w.removeLocked(existing)
	}
	if other, ok := w.byName[grammar.Name]; ok && other.Path != abs {
		err := domainerrors.Newf(domainerrors.CodeConflict, "grammar %s is already loaded from %s", grammar.Name, other.Path)
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, abs)
	}

	id := w.graph.Register(abs, grammar.File)
	table := symbols.NewTable(grammar.Name, symbols.Options{
		Owner:        id,
		Owners:       w.graph,
		Outer:        w.runtime,
		KeepSkipSpan: w.opts.KeepSkipSpan,
		SkipWidth:    w.opts.SkipWidth,
		Logger:       w.opts.Logger,
	})
	if _, err := manifest.Build(grammar, table); err != nil {
		w.graph.Remove(id)
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, abs)
	}

	f := &File{Path: abs, Grammar: grammar, Table: table, ID: id}
	w.byPath[abs] = f
	w.byName[grammar.Name] = f
	return f, nil
}

func (w *Workspace) relinkLocked() {
	for _, f := range w.sortedLocked() {
		w.linkLocked(f)
	}
}

// linkLocked wires f's token vocabulary and imports to loaded grammars, both
// in the symbol table and in the context graph. Missing grammars are skipped;
// they are linked once they appear.
func (w *Workspace) linkLocked(f *File) {
	for _, name := range f.Grammar.Dependencies() {
		target, ok := w.byName[name]
		if !ok {
			w.logger.Debug("unresolved grammar dependency", "grammar", f.Grammar.Name, "dependency", name)
			continue
		}
		f.Table.AddDependencies(target.Table)
		if err := w.graph.AddDependency(f.ID, target.ID); err != nil {
			w.logger.Warn("cannot record grammar dependency", "grammar", f.Grammar.Name, "dependency", name, "error", err)
		}
	}
}

func (w *Workspace) sortedLocked() []*File {
	files := make([]*File, 0, len(w.byName))
	for _, f := range w.byName {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Grammar.Name < files[j].Grammar.Name
	})
	return files
}

// Rebuild reloads one manifest. The file's table is cleared, which drops its
// outgoing graph edges, then rebuilt and relinked. Grammars depending on it
// keep their link because the table object survives. A file not loaded yet is
// added.
func (w *Workspace) Rebuild(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	grammar, err := manifest.Load(path)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// The table is cleared in place below, so a manifest that fails
	// validation must leave the loaded table untouched.
	if err := manifest.Validate(grammar); err != nil {
		return domainerrors.AddContext(err, domainerrors.CtxPath, abs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.byPath[abs]
	if ok && f.Grammar.Name != grammar.Name {
		w.removeLocked(f)
		ok = false
	}
	if !ok {
		if _, err := w.addLocked(abs, grammar); err != nil {
			return err
		}
		w.relinkLocked()
		return nil
	}

	f.Table.Clear()
	if _, err := manifest.Build(grammar, f.Table); err != nil {
		return domainerrors.AddContext(err, domainerrors.CtxPath, abs)
	}
	f.Grammar = grammar
	w.graph.Register(abs, grammar.File)
	w.linkLocked(f)
	w.logger.Debug("grammar rebuilt", "grammar", grammar.Name, "dependents", len(w.graph.Dependents(f.ID)))
	return nil
}

// Remove drops a loaded manifest and unlinks it from its dependents.
func (w *Workspace) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.byPath[abs]
	if !ok {
		return domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "manifest not loaded"),
			domainerrors.CtxPath, abs)
	}
	w.removeLocked(f)
	return nil
}

func (w *Workspace) removeLocked(f *File) {
	for _, id := range w.graph.Dependents(f.ID) {
		for _, other := range w.byPath {
			if other.ID == id {
				other.Table.RemoveDependency(f.Table)
			}
		}
	}
	f.Table.Clear()
	w.graph.Remove(f.ID)
	delete(w.byPath, f.Path)
	if w.byName[f.Grammar.Name] == f {
		delete(w.byName, f.Grammar.Name)
	}
}

// Apply brings the workspace in line with a batch of changed paths, as
// reported by the watcher: existing manifests are rebuilt, vanished ones
// removed.
func (w *Workspace) Apply(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if !w.Matches(path) {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if w.tracked(path) {
				errs = append(errs, w.Remove(path))
			}
			continue
		}
		errs = append(errs, w.Rebuild(ctx, path))
	}
	return errors.Join(errs...)
}

func (w *Workspace) tracked(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.byPath[abs]
	return ok
}

// Query runs fn against the named grammar's table under the read lock.
func (w *Workspace) Query(name string, fn func(*File) error) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.byName[name]
	if !ok {
		return domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "grammar not loaded"),
			domainerrors.CtxGrammar, name)
	}
	return fn(f)
}

// Each runs fn for every loaded grammar in name order under the read lock,
// stopping at the first error.
func (w *Workspace) Each(fn func(*File) error) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, f := range w.sortedLocked() {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Names lists loaded grammars in name order.
func (w *Workspace) Names() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	files := w.sortedLocked()
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Grammar.Name)
	}
	return names
}

// Cycles reports grammar dependency cycles by name.
func (w *Workspace) Cycles() [][]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	byID := make(map[sourcectx.ContextID]string, len(w.byPath))
	for _, f := range w.byPath {
		byID[f.ID] = f.Grammar.Name
	}
	var out [][]string
	for _, cycle := range w.graph.DetectCycles() {
		names := make([]string, 0, len(cycle))
		for _, id := range cycle {
			names = append(names, byID[id])
		}
		out = append(out, names)
	}
	return out
}
