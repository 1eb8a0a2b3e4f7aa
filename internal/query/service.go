// Package query answers symbol questions about the grammars loaded in a
// workspace. Every call is traced and timed.
package query

import (
	"context"
	"sort"
	"strings"
	"time"

	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/engine/sourcectx"
	"grammarsym/internal/engine/symbols"
	"grammarsym/internal/engine/syntax"
	"grammarsym/internal/shared/observability"
	"grammarsym/internal/workspace"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Service struct {
	ws     *workspace.Workspace
	ignore []glob.Glob
}

// NewService compiles ignore, the patterns of symbol names Unreferenced
// leaves out.
func NewService(ws *workspace.Workspace, ignore []string) (*Service, error) {
	s := &Service{ws: ws}
	for _, pattern := range ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid ignore pattern "+pattern)
		}
		s.ignore = append(s.ignore, g)
	}
	return s, nil
}

// span starts the trace span and latency sample for one query. The returned
// func ends both and records err on the span.
func (s *Service) span(ctx context.Context, op, grammar string) (context.Context, func(err error)) {
	ctx, span := observability.Tracer.Start(ctx, "query."+op,
		trace.WithAttributes(attribute.String("grammar", grammar)))
	start := time.Now()
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		span.End()
	}
}

func (s *Service) Outline(ctx context.Context, grammar string, localOnly bool) (out []symbols.SymbolInfo, err error) {
	ctx, end := s.span(ctx, "outline", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = f.Table.ListTopLevelSymbols(localOnly)
		return nil
	})
	return out, err
}

// Actions lists one action category. A listing that fell back to the single
// internal-error entry is returned as is; the caller checks Degraded.
func (s *Service) Actions(ctx context.Context, grammar string, at symbols.ActionType) (out symbols.ActionList, err error) {
	ctx, end := s.span(ctx, "actions", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return out, err
	}
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = f.Table.ListActions(at)
		return nil
	})
	return out, err
}

func (s *Service) Counts(ctx context.Context, grammar string) (out symbols.ActionCounts, err error) {
	ctx, end := s.span(ctx, "counts", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return out, err
	}
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = f.Table.ActionCounts()
		return nil
	})
	return out, err
}

func (s *Service) Occurrences(ctx context.Context, grammar, name string, localOnly bool) (out []symbols.SymbolInfo, err error) {
	ctx, end := s.span(ctx, "occurrences", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = f.Table.SymbolOccurrences(name, localOnly)
		return nil
	})
	return out, err
}

// SymbolAt describes the innermost symbol whose context contains node.
func (s *Service) SymbolAt(ctx context.Context, grammar string, node syntax.Node) (out *symbols.SymbolInfo, err error) {
	ctx, end := s.span(ctx, "symbol_at", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = f.Table.SymbolInfo(f.Table.SymbolContainingContext(node))
		if out == nil {
			return notFound(grammar, "no symbol contains the node")
		}
		return nil
	})
	return out, err
}

func (s *Service) SymbolAtPosition(ctx context.Context, grammar string, pos syntax.Position) (out *symbols.SymbolInfo, err error) {
	ctx, end := s.span(ctx, "symbol_at_position", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = f.Table.SymbolInfo(f.Table.SymbolAtPosition(pos))
		if out == nil {
			return notFound(grammar, "no symbol at position")
		}
		return nil
	})
	return out, err
}

func (s *Service) Info(ctx context.Context, grammar, name string) (out *symbols.SymbolInfo, err error) {
	ctx, end := s.span(ctx, "info", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = f.Table.SymbolInfoByName(name)
		if out == nil {
			return domainerrors.AddContext(notFound(grammar, "symbol not resolvable"), domainerrors.CtxSymbol, name)
		}
		return nil
	})
	return out, err
}

// Unreferenced lists declared names that nothing references, minus those
// matching an ignore pattern.
func (s *Service) Unreferenced(ctx context.Context, grammar string) (out []string, err error) {
	ctx, end := s.span(ctx, "unreferenced", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = s.filter(f.Table.UnreferencedSymbols())
		return nil
	})
	return out, err
}

func (s *Service) filter(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !s.ignored(name) {
			out = append(out, name)
		}
	}
	return out
}

func (s *Service) ignored(name string) bool {
	for _, g := range s.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ListGrammars summarizes loaded grammars whose name contains filter
// (case-insensitive), in name order, keeping at most limit rows when limit
// is positive.
func (s *Service) ListGrammars(ctx context.Context, filter string, limit int) (rows []GrammarSummary, err error) {
	ctx, end := s.span(ctx, "list_grammars", "")
	defer func() { end(err) }()

	graph := s.ws.Graph()
	filter = strings.ToLower(strings.TrimSpace(filter))
	err = s.ws.Each(func(f *workspace.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if filter != "" && !strings.Contains(strings.ToLower(f.Grammar.Name), filter) {
			return nil
		}
		counts := f.Table.ActionCounts()
		rows = append(rows, GrammarSummary{
			Name:            f.Grammar.Name,
			Type:            f.Grammar.Type,
			File:            f.Grammar.File,
			SymbolCount:     len(f.Table.AllSymbols(true)),
			ActionCount:     counts.GlobalNamed + counts.LocalNamed + counts.ParserActions + counts.LexerActions + counts.ParserPredicates + counts.LexerPredicates,
			DependencyCount: len(graph.Dependencies(f.ID)),
			DependentCount:  len(graph.Dependents(f.ID)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Service) GrammarDetails(ctx context.Context, grammar string) (out GrammarDetails, err error) {
	ctx, end := s.span(ctx, "grammar_details", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return out, err
	}

	names := s.contextNames()
	graph := s.ws.Graph()
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out = GrammarDetails{
			Name:         f.Grammar.Name,
			Type:         f.Grammar.Type,
			Path:         f.Path,
			File:         f.Grammar.File,
			Dependencies: namesOf(names, graph.Dependencies(f.ID)),
			Dependents:   namesOf(names, graph.Dependents(f.ID)),
			Counts:       f.Table.ActionCounts(),
			Unreferenced: s.filter(f.Table.UnreferencedSymbols()),
		}
		linked := make(map[string]bool, len(out.Dependencies))
		for _, dep := range out.Dependencies {
			linked[dep] = true
		}
		for _, dep := range f.Grammar.Dependencies() {
			if !linked[dep] {
				out.Missing = append(out.Missing, dep)
			}
		}
		return nil
	})
	return out, err
}

// Impact reports the grammars that depend on grammar directly and through
// other grammars.
func (s *Service) Impact(ctx context.Context, grammar string) (out ImpactResult, err error) {
	ctx, end := s.span(ctx, "impact", grammar)
	defer func() { end(err) }()
	if err = ctx.Err(); err != nil {
		return out, err
	}

	names := s.contextNames()
	graph := s.ws.Graph()
	err = s.ws.Query(grammar, func(f *workspace.File) error {
		out.Grammar = f.Grammar.Name
		out.Direct = namesOf(names, graph.Dependents(f.ID))
		direct := make(map[string]bool, len(out.Direct))
		for _, name := range out.Direct {
			direct[name] = true
		}
		for _, name := range namesOf(names, graph.TransitiveDependents(f.ID)) {
			if !direct[name] {
				out.Indirect = append(out.Indirect, name)
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) contextNames() map[sourcectx.ContextID]string {
	names := make(map[sourcectx.ContextID]string)
	_ = s.ws.Each(func(f *workspace.File) error {
		names[f.ID] = f.Grammar.Name
		return nil
	})
	return names
}

func namesOf(names map[sourcectx.ContextID]string, ids []sourcectx.ContextID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func notFound(grammar, msg string) error {
	return domainerrors.AddContext(domainerrors.New(domainerrors.CodeNotFound, msg), domainerrors.CtxGrammar, grammar)
}
