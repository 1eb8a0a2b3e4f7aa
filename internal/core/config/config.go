package config

import "time"

type Config struct {
	Version   int       `toml:"version"`
	Paths     Paths     `toml:"paths"`
	Runtime   Runtime   `toml:"runtime"`
	Compat    Compat    `toml:"compat"`
	Report    Report    `toml:"report"`
	Workspace Workspace `toml:"workspace"`
	Watch     Watch     `toml:"watch"`
	Logging   Logging   `toml:"logging"`
	Metrics   Metrics   `toml:"metrics"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
}

// Runtime lists the built-in symbols every grammar sees without declaring
// them.
type Runtime struct {
	Tokens   []string `toml:"tokens"`
	Modes    []string `toml:"modes"`
	Channels []string `toml:"channels"`
}

type Compat struct {
	// WidenSkipAction restores the keyword width of "skip" lexer commands in
	// action listings.
	WidenSkipAction *bool `toml:"widen_skip_action"`
	SkipWidth       int   `toml:"skip_width"`
}

type Report struct {
	IgnoreUnreferenced []string `toml:"ignore_unreferenced"` // glob patterns
}

type Workspace struct {
	Paths   []string `toml:"paths"`
	Pattern string   `toml:"pattern"`
	Exclude []string `toml:"exclude"` // base-name globs for directories and files
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Logging struct {
	Level string `toml:"level"`
}

type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// DefaultConfig is what an empty config file decodes to.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func (c Compat) WidenSkip() bool {
	if c.WidenSkipAction == nil {
		return true
	}
	return *c.WidenSkipAction
}
