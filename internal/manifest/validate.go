package manifest

import (
	"regexp"
	"strings"
	"unicode"

	domainerrors "grammarsym/internal/core/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// lexerCommands maps each command to whether it takes an argument.
var lexerCommands = map[string]bool{
	"skip":     false,
	"more":     false,
	"popMode":  false,
	"type":     true,
	"channel":  true,
	"mode":     true,
	"pushMode": true,
}

func invalid(g *Grammar, format string, args ...any) error {
	err := domainerrors.Newf(domainerrors.CodeValidationError, format, args...)
	return domainerrors.AddContext(err, domainerrors.CtxGrammar, g.Name)
}

// Validate checks names and the rule shapes allowed by the grammar type.
func Validate(g *Grammar) error {
	if !identifierPattern.MatchString(g.Name) {
		return invalid(g, "grammar name %q is not an identifier", g.Name)
	}
	switch g.Type {
	case Combined, Lexer, Parser:
	default:
		return invalid(g, "grammar type must be one of: combined, lexer, parser")
	}
	if g.Type == Lexer && len(g.Rules) > 0 {
		return invalid(g, "lexer grammar %s declares parser rules", g.Name)
	}
	if g.Type == Parser && (len(g.LexerRules) > 0 || len(g.Fragments) > 0 || len(g.Modes) > 0 || len(g.Channels) > 0) {
		return invalid(g, "parser grammar %s declares lexer rules, modes or channels", g.Name)
	}
	if g.TokenVocab != "" && !identifierPattern.MatchString(g.TokenVocab) {
		return invalid(g, "token_vocab %q is not an identifier", g.TokenVocab)
	}
	for i, imp := range g.Imports {
		if !identifierPattern.MatchString(strings.TrimSpace(imp)) {
			return invalid(g, "imports[%d] %q is not an identifier", i, imp)
		}
	}
	for key := range g.Options {
		if !identifierPattern.MatchString(key) {
			return invalid(g, "option name %q is not an identifier", key)
		}
	}
	for i, a := range g.Actions {
		if !identifierPattern.MatchString(a.Name) {
			return invalid(g, "actions[%d] name %q is not an identifier", i, a.Name)
		}
	}

	d := declarations{g: g, seen: make(map[string]string)}
	for _, name := range g.Tokens {
		if err := d.add("tokens", name, tokenName); err != nil {
			return err
		}
	}
	for _, name := range g.Channels {
		if err := d.add("channels", name, tokenName); err != nil {
			return err
		}
	}
	for _, r := range g.Rules {
		if err := d.add("rules", r.Name, ruleName); err != nil {
			return err
		}
		if err := validateBody(g, r.Name, r.Body, true); err != nil {
			return err
		}
		for i, a := range r.Actions {
			if !identifierPattern.MatchString(a.Name) {
				return invalid(g, "rule %s: actions[%d] name %q is not an identifier", r.Name, i, a.Name)
			}
		}
	}
	lexerRules := append(append([]LexerRule(nil), g.LexerRules...), g.Fragments...)
	for _, m := range g.Modes {
		if err := d.add("modes", m.Name, anyName); err != nil {
			return err
		}
		lexerRules = append(lexerRules, m.Rules...)
	}
	for _, r := range lexerRules {
		if err := d.add("lexer_rules", r.Name, tokenName); err != nil {
			return err
		}
		if err := validateBody(g, r.Name, r.Body, false); err != nil {
			return err
		}
		for _, cmd := range r.Commands {
			if _, _, err := parseCommand(g, r.Name, cmd); err != nil {
				return err
			}
		}
	}
	return nil
}

type nameRule int

const (
	anyName nameRule = iota
	tokenName
	ruleName
)

type declarations struct {
	g    *Grammar
	seen map[string]string
}

func (d declarations) add(section, name string, rule nameRule) error {
	if !identifierPattern.MatchString(name) {
		return invalid(d.g, "%s: %q is not an identifier", section, name)
	}
	upper := unicode.IsUpper(rune(name[0]))
	switch {
	case rule == tokenName && !upper:
		return invalid(d.g, "%s: %q must start with an upper-case letter", section, name)
	case rule == ruleName && upper:
		return invalid(d.g, "%s: %q must start with a lower-case letter", section, name)
	}
	if prev, ok := d.seen[name]; ok {
		err := domainerrors.Newf(domainerrors.CodeConflict, "%s: %q is already declared in %s", section, name, prev)
		return domainerrors.AddContext(err, domainerrors.CtxGrammar, d.g.Name)
	}
	d.seen[name] = section
	return nil
}

func validateBody(g *Grammar, rule string, body []string, parser bool) error {
	for i, element := range body {
		kind := classify(element)
		switch {
		case kind == elementInvalid:
			return invalid(g, "rule %s: body[%d] must not be empty", rule, i)
		case kind == elementRuleRef && !parser:
			return invalid(g, "lexer rule %s: body[%d] references parser rule %q", rule, i, element)
		}
	}
	return nil
}

// parseCommand splits "channel(HIDDEN)" into name and argument.
func parseCommand(g *Grammar, rule, cmd string) (string, string, error) {
	cmd = strings.TrimSpace(cmd)
	name, arg := cmd, ""
	if open := strings.IndexByte(cmd, '('); open >= 0 {
		if !strings.HasSuffix(cmd, ")") {
			return "", "", invalid(g, "lexer rule %s: malformed command %q", rule, cmd)
		}
		name, arg = cmd[:open], strings.TrimSpace(cmd[open+1:len(cmd)-1])
	}
	takesArg, known := lexerCommands[name]
	if !known {
		return "", "", invalid(g, "lexer rule %s: unknown command %q", rule, name)
	}
	if takesArg != (arg != "") {
		return "", "", invalid(g, "lexer rule %s: command %s %s", rule, name, argumentHint(takesArg))
	}
	return name, arg, nil
}

func argumentHint(takesArg bool) string {
	if takesArg {
		return "needs an argument"
	}
	return "takes no argument"
}

type elementKind int

const (
	elementInvalid elementKind = iota
	elementText
	elementLiteral
	elementTokenRef
	elementRuleRef
	elementAction
	elementPredicate
)

func classify(element string) elementKind {
	element = strings.TrimSpace(element)
	switch {
	case element == "":
		return elementInvalid
	case strings.HasPrefix(element, "{") && strings.HasSuffix(element, "}?"):
		return elementPredicate
	case strings.HasPrefix(element, "{") && strings.HasSuffix(element, "}"):
		return elementAction
	case len(element) >= 2 && strings.HasPrefix(element, "'") && strings.HasSuffix(element, "'"):
		return elementLiteral
	case identifierPattern.MatchString(element):
		if unicode.IsUpper(rune(element[0])) {
			return elementTokenRef
		}
		return elementRuleRef
	}
	return elementText
}
