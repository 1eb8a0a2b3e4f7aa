package config

import (
	"os"
	"strings"
	"time"

	domainerrors "grammarsym/internal/core/errors"

	"github.com/BurntSushi/toml"
)

const (
	DefaultFileName       = "grammarsym.toml"
	DefaultManifestGlob   = "*.grammar.{toml,yaml,yml}"
	DefaultMetricsAddress = "127.0.0.1:9464"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeNotFound, "read config"),
			domainerrors.CtxPath, path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates a config document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "decode config")
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateRuntime(&cfg); err != nil {
		return nil, err
	}
	if err := validateCompat(&cfg); err != nil {
		return nil, err
	}
	if err := validateReport(&cfg); err != nil {
		return nil, err
	}
	if err := validateWorkspace(&cfg); err != nil {
		return nil, err
	}
	if err := validateLogging(&cfg); err != nil {
		return nil, err
	}
	if err := validateMetrics(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Runtime.Tokens) == 0 {
		cfg.Runtime.Tokens = []string{"EOF"}
	}
	if len(cfg.Runtime.Modes) == 0 {
		cfg.Runtime.Modes = []string{"DEFAULT_MODE"}
	}
	if len(cfg.Runtime.Channels) == 0 {
		cfg.Runtime.Channels = []string{"DEFAULT_TOKEN_CHANNEL", "HIDDEN"}
	}

	if cfg.Compat.WidenSkipAction == nil {
		enabled := true
		cfg.Compat.WidenSkipAction = &enabled
	}
	if cfg.Compat.SkipWidth == 0 {
		cfg.Compat.SkipWidth = 3
	}

	if len(cfg.Workspace.Paths) == 0 {
		cfg.Workspace.Paths = []string{"."}
	}
	if strings.TrimSpace(cfg.Workspace.Pattern) == "" {
		cfg.Workspace.Pattern = DefaultManifestGlob
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}

	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Metrics.Address) == "" {
		cfg.Metrics.Address = DefaultMetricsAddress
	}
}

func normalize(cfg *Config) {
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	cfg.Runtime.Tokens = trimAll(cfg.Runtime.Tokens)
	cfg.Runtime.Modes = trimAll(cfg.Runtime.Modes)
	cfg.Runtime.Channels = trimAll(cfg.Runtime.Channels)
	cfg.Report.IgnoreUnreferenced = trimAll(cfg.Report.IgnoreUnreferenced)
	cfg.Workspace.Paths = trimAll(cfg.Workspace.Paths)
	cfg.Workspace.Pattern = strings.TrimSpace(cfg.Workspace.Pattern)
	cfg.Workspace.Exclude = trimAll(cfg.Workspace.Exclude)
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Metrics.Address = strings.TrimSpace(cfg.Metrics.Address)
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
