package symbols

import (
	"fmt"
	"strings"
)

// Kind is the closed set of things a grammar file can declare or reference.
// Action and predicate symbols are classified by their Kind alone.
type Kind uint8

const (
	Unknown Kind = iota
	Terminal
	Keyword
	TokenVocab
	Import
	BuiltInLexerToken
	VirtualLexerToken
	FragmentLexerToken
	LexerRule
	BuiltInMode
	LexerMode
	BuiltInChannel
	TokenChannel
	ParserRule
	Operator
	Option
	TokenReference
	RuleReference
	LexerCommand
	GlobalNamedAction
	LocalNamedAction
	ExceptionAction
	FinallyAction
	ParserAction
	LexerAction
	ParserPredicate
	LexerPredicate
	Arguments

	kindCount
)

var kindNames = [...]string{
	Unknown:            "unknown",
	Terminal:           "terminal",
	Keyword:            "keyword",
	TokenVocab:         "tokenVocab",
	Import:             "import",
	BuiltInLexerToken:  "builtInLexerToken",
	VirtualLexerToken:  "virtualLexerToken",
	FragmentLexerToken: "fragmentLexerToken",
	LexerRule:          "lexerRule",
	BuiltInMode:        "builtInMode",
	LexerMode:          "lexerMode",
	BuiltInChannel:     "builtInChannel",
	TokenChannel:       "tokenChannel",
	ParserRule:         "parserRule",
	Operator:           "operator",
	Option:             "option",
	TokenReference:     "tokenReference",
	RuleReference:      "ruleReference",
	LexerCommand:       "lexerCommand",
	GlobalNamedAction:  "globalNamedAction",
	LocalNamedAction:   "localNamedAction",
	ExceptionAction:    "exceptionAction",
	FinallyAction:      "finallyAction",
	ParserAction:       "parserAction",
	LexerAction:        "lexerAction",
	ParserPredicate:    "parserPredicate",
	LexerPredicate:     "lexerPredicate",
	Arguments:          "arguments",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	kind, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown symbol kind %q", text)
	}
	*k = kind
	return nil
}

// ParseKind is case-insensitive.
func ParseKind(s string) (Kind, bool) {
	for k := Unknown; k < kindCount; k++ {
		if strings.EqualFold(kindNames[k], s) {
			return k, true
		}
	}
	return Unknown, false
}

// Scoped reports whether symbols of this kind open a scope for nested
// symbols (references, actions, arguments).
func (k Kind) Scoped() bool {
	switch k {
	case ParserRule, LexerRule, FragmentLexerToken, Option, GlobalNamedAction, LocalNamedAction, LexerMode:
		return true
	}
	return false
}

// Declaration reports whether a top-level symbol of this kind is a user
// declaration whose uses are reference-counted.
func (k Kind) Declaration() bool {
	switch k {
	case VirtualLexerToken, FragmentLexerToken, LexerRule, LexerMode, TokenChannel, ParserRule:
		return true
	}
	return false
}

// Group is a set of kinds that a bare identifier may resolve to.
type Group uint8

const (
	TokenRef Group = iota
	RuleRef
	ModeRef
	ChannelRef
)

func (g Group) String() string {
	switch g {
	case TokenRef:
		return "tokenRef"
	case RuleRef:
		return "ruleRef"
	case ModeRef:
		return "modeRef"
	case ChannelRef:
		return "channelRef"
	default:
		return fmt.Sprintf("Group(%d)", uint8(g))
	}
}

func (g Group) Has(k Kind) bool {
	switch g {
	case TokenRef:
		return k == BuiltInLexerToken || k == VirtualLexerToken || k == FragmentLexerToken || k == LexerRule
	case RuleRef:
		return k == ParserRule
	case ModeRef:
		return k == BuiltInMode || k == LexerMode
	case ChannelRef:
		return k == BuiltInChannel || k == TokenChannel
	}
	return false
}

// ActionType selects one of the action/predicate categories a table indexes.
type ActionType uint8

const (
	GlobalNamedActions ActionType = iota
	LocalNamedActions
	ParserActions
	LexerActions
	ParserPredicates
	LexerPredicates
)

func (a ActionType) String() string {
	switch a {
	case GlobalNamedActions:
		return "globalNamed"
	case LocalNamedActions:
		return "localNamed"
	case ParserActions:
		return "parserAction"
	case LexerActions:
		return "lexerAction"
	case ParserPredicates:
		return "parserPredicate"
	case LexerPredicates:
		return "lexerPredicate"
	default:
		return fmt.Sprintf("ActionType(%d)", uint8(a))
	}
}

// ParseActionType accepts the String form, case-insensitively.
func ParseActionType(s string) (ActionType, bool) {
	for a := GlobalNamedActions; a <= LexerPredicates; a++ {
		if strings.EqualFold(a.String(), s) {
			return a, true
		}
	}
	return 0, false
}
