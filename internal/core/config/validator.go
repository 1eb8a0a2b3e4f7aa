package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strings"

	domainerrors "grammarsym/internal/core/errors"

	"github.com/gobwas/glob"
)

var builtinNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func invalid(format string, args ...any) error {
	return domainerrors.Newf(domainerrors.CodeValidationError, format, args...)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return invalid("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateRuntime(cfg *Config) error {
	seen := make(map[string]string)
	sections := []struct {
		key   string
		names []string
	}{
		{"runtime.tokens", cfg.Runtime.Tokens},
		{"runtime.modes", cfg.Runtime.Modes},
		{"runtime.channels", cfg.Runtime.Channels},
	}
	for _, section := range sections {
		for i, name := range section.names {
			ref := fmt.Sprintf("%s[%d]", section.key, i)
			if !builtinNamePattern.MatchString(name) {
				return invalid("%s must be an identifier, got %q", ref, name)
			}
			if prev, ok := seen[name]; ok {
				return invalid("%s duplicates %s (%q)", ref, prev, name)
			}
			seen[name] = ref
		}
	}
	return nil
}

func validateCompat(cfg *Config) error {
	if cfg.Compat.SkipWidth < 1 || cfg.Compat.SkipWidth > 64 {
		return invalid("compat.skip_width must be between 1 and 64, got %d", cfg.Compat.SkipWidth)
	}
	return nil
}

func validateReport(cfg *Config) error {
	for i, pattern := range cfg.Report.IgnoreUnreferenced {
		if pattern == "" {
			return invalid("report.ignore_unreferenced[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeValidationError,
				fmt.Sprintf("report.ignore_unreferenced[%d] is not a valid glob", i))
		}
	}
	return nil
}

func validateWorkspace(cfg *Config) error {
	for i, p := range cfg.Workspace.Paths {
		if p == "" {
			return invalid("workspace.paths[%d] must not be empty", i)
		}
	}
	// Patterns match base names, so a separator can never match.
	if strings.Contains(cfg.Workspace.Pattern, "/") {
		return invalid("workspace.pattern %q must match file names, not paths", cfg.Workspace.Pattern)
	}
	if _, err := glob.Compile(cfg.Workspace.Pattern); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidationError, "workspace.pattern is not a valid glob")
	}
	for i, pattern := range cfg.Workspace.Exclude {
		if _, err := glob.Compile(pattern); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeValidationError,
				fmt.Sprintf("workspace.exclude[%d] is not a valid glob", i))
		}
	}
	if cfg.Watch.Debounce < 0 {
		return invalid("watch.debounce must not be negative")
	}
	return nil
}

func validateLogging(cfg *Config) error {
	if _, err := ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}
	return nil
}

func validateMetrics(cfg *Config) error {
	if !cfg.Metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Metrics.Address); err != nil {
		return invalid("metrics.address %q must be host:port", cfg.Metrics.Address)
	}
	return nil
}

// ParseLevel maps logging.level to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, invalid("logging.level must be one of: debug, info, warn, error")
}

// Validate runs every check and also inspects the filesystem, collecting all
// problems instead of stopping at the first. Load only runs the static checks.
func Validate(cfg *Config) []error {
	var errs []error
	checks := []func(*Config) error{
		validateVersion,
		validateRuntime,
		validateCompat,
		validateReport,
		validateWorkspace,
		validateLogging,
		validateMetrics,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	for i, p := range cfg.Workspace.Paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("workspace.paths[%d] %q does not exist", i, p))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("workspace.paths[%d] %q is not a directory", i, p))
		}
	}
	return errs
}
