package symbols

// Builtins lists the names every grammar can use without declaring them.
type Builtins struct {
	Tokens   []string
	Modes    []string
	Channels []string
}

func DefaultBuiltins() Builtins {
	return Builtins{
		Tokens:   []string{"EOF"},
		Modes:    []string{"DEFAULT_MODE"},
		Channels: []string{"DEFAULT_TOKEN_CHANNEL", "HIDDEN"},
	}
}

// NewRuntimeTable builds the shared table of built-in symbols. It has no
// owner and no anchors, so its symbols report RuntimeSource. Pass it as
// Options.Outer to every grammar table.
func NewRuntimeTable(b Builtins) *Table {
	t := NewTable("runtime", Options{})
	for _, name := range b.Tokens {
		t.AddSymbol(nil, BuiltInLexerToken, name, nil)
	}
	for _, name := range b.Modes {
		t.AddSymbol(nil, BuiltInMode, name, nil)
	}
	for _, name := range b.Channels {
		t.AddSymbol(nil, BuiltInChannel, name, nil)
	}
	return t
}
