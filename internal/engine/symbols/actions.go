package symbols

import (
	"fmt"
	"strings"

	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/engine/syntax"
	"grammarsym/internal/shared/observability"
)

// skipActionWidth is the reported width of a "skip" lexer command. The
// upstream parser gives that keyword a one-character span; the listing
// widens it back to the keyword length.
const skipActionWidth = 3

func (t *Table) DefineNamedAction(action *Symbol) {
	t.namedActions = append(t.namedActions, action)
}

// DefineParserAction indexes parser-side code: plain actions as well as
// exception and finally blocks.
func (t *Table) DefineParserAction(action *Symbol) {
	t.parserActions = append(t.parserActions, action)
}

// DefineLexerAction indexes lexer actions and lexer commands.
func (t *Table) DefineLexerAction(action *Symbol) {
	t.lexerActions = append(t.lexerActions, action)
}

// DefinePredicate appends to the parser or lexer predicate index, chosen by
// the symbol's kind, and assigns the predicate its evaluation index: its
// position in that index. The index never changes afterwards.
func (t *Table) DefinePredicate(predicate *Symbol) {
	if predicate.Kind == LexerPredicate {
		predicate.Index = len(t.lexerPredicates)
		t.lexerPredicates = append(t.lexerPredicates, predicate)
		return
	}
	predicate.Index = len(t.parserPredicates)
	t.parserPredicates = append(t.parserPredicates, predicate)
}

func (t *Table) NamedActions() []*Symbol { return append([]*Symbol(nil), t.namedActions...) }
func (t *Table) ParserActions() []*Symbol { return append([]*Symbol(nil), t.parserActions...) }
func (t *Table) LexerActions() []*Symbol { return append([]*Symbol(nil), t.lexerActions...) }

// Predicates returns the parser or lexer predicate index in evaluation order.
func (t *Table) Predicates(kind Kind) []*Symbol {
	if kind == LexerPredicate {
		return append([]*Symbol(nil), t.lexerPredicates...)
	}
	return append([]*Symbol(nil), t.parserPredicates...)
}

func (t *Table) actionsOf(at ActionType) []*Symbol {
	switch at {
	case GlobalNamedActions:
		return filterKind(t.namedActions, GlobalNamedAction)
	case LocalNamedActions:
		return filterKind(t.namedActions, LocalNamedAction)
	case ParserActions:
		return t.parserActions
	case LexerActions:
		return t.lexerActions
	case ParserPredicates:
		return t.parserPredicates
	case LexerPredicates:
		return t.lexerPredicates
	}
	return nil
}

func filterKind(list []*Symbol, kind Kind) []*Symbol {
	var out []*Symbol
	for _, s := range list {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

type ActionCounts struct {
	GlobalNamed      int `json:"globalNamed"`
	LocalNamed       int `json:"localNamed"`
	ParserActions    int `json:"parserActions"`
	LexerActions     int `json:"lexerActions"`
	ParserPredicates int `json:"parserPredicates"`
	LexerPredicates  int `json:"lexerPredicates"`
}

func (c ActionCounts) Get(at ActionType) int {
	switch at {
	case GlobalNamedActions:
		return c.GlobalNamed
	case LocalNamedActions:
		return c.LocalNamed
	case ParserActions:
		return c.ParserActions
	case LexerActions:
		return c.LexerActions
	case ParserPredicates:
		return c.ParserPredicates
	case LexerPredicates:
		return c.LexerPredicates
	}
	return 0
}

func (t *Table) ActionCounts() ActionCounts {
	counts := ActionCounts{
		ParserActions:    len(t.parserActions),
		LexerActions:     len(t.lexerActions),
		ParserPredicates: len(t.parserPredicates),
		LexerPredicates:  len(t.lexerPredicates),
	}
	for _, a := range t.namedActions {
		switch a.Kind {
		case GlobalNamedAction:
			counts.GlobalNamed++
		case LocalNamedAction:
			counts.LocalNamed++
		}
	}
	return counts
}

// ActionList is the result of ListActions. Either Entries describes every
// action of the requested type, or formatting one of them failed: then
// Entries holds a single "Internal error" record and Err the cause.
type ActionList struct {
	Entries []SymbolInfo
	Err     error
}

func (l ActionList) Degraded() bool {
	return l.Err != nil
}

const internalErrorName = "Internal error"

// ListActions describes the actions or predicates of one category. It never
// fails: a formatting problem with any entry degrades the whole listing.
func (t *Table) ListActions(at ActionType) ActionList {
	entries, err := t.describeActions(t.actionsOf(at))
	if err != nil {
		observability.ActionListDegraded.Inc()
		t.logger.Warn("action listing degraded", "type", at.String(), "error", err)
		return ActionList{
			Entries: []SymbolInfo{{Kind: Unknown, Name: internalErrorName, Description: err.Error()}},
			Err:     err,
		}
	}
	return ActionList{Entries: entries}
}

func (t *Table) describeActions(actions []*Symbol) (entries []SymbolInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = domainerrors.AddContext(
				domainerrors.New(domainerrors.CodeInternal, fmt.Sprintf("describe action: %v", r)),
				domainerrors.CtxGrammar, t.name)
		}
	}()

	source := t.SourceName()
	entries = make([]SymbolInfo, 0, len(actions))
	for _, action := range actions {
		if !action.Anchored() {
			missing := domainerrors.New(domainerrors.CodeInternal, "action has no syntax anchor")
			missing = domainerrors.AddContext(missing, domainerrors.CtxSymbol, action.Name)
			return nil, domainerrors.AddContext(missing, domainerrors.CtxKind, action.Kind.String())
		}
		def := syntax.DefinitionFor(action.Node)
		// Workaround: the parser reports "skip" with a one-character span.
		if !t.keepSkip && strings.EqualFold(action.Name, "skip") {
			def.Range.End.Column = def.Range.Start.Column + t.skipSpan
		}
		entries = append(entries, SymbolInfo{
			Kind:        action.Kind,
			Name:        action.Name,
			Source:      source,
			Definition:  def,
			Description: action.Node.Text(),
		})
	}
	return entries, nil
}
