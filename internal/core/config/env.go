package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: GRAMMARSYM_[SECTION]_[KEY] (e.g., GRAMMARSYM_METRICS_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Paths.ProjectRoot, "GRAMMARSYM_PATHS_PROJECT_ROOT")

	setEnvBoolPtr(&cfg.Compat.WidenSkipAction, "GRAMMARSYM_COMPAT_WIDEN_SKIP_ACTION")
	setEnvInt(&cfg.Compat.SkipWidth, "GRAMMARSYM_COMPAT_SKIP_WIDTH")

	setEnvList(&cfg.Workspace.Paths, "GRAMMARSYM_WORKSPACE_PATHS")
	setEnvDuration(&cfg.Watch.Debounce, "GRAMMARSYM_WATCH_DEBOUNCE")

	setEnvString(&cfg.Logging.Level, "GRAMMARSYM_LOGGING_LEVEL")

	setEnvBool(&cfg.Metrics.Enabled, "GRAMMARSYM_METRICS_ENABLED")
	setEnvString(&cfg.Metrics.Address, "GRAMMARSYM_METRICS_ADDRESS")
}

func applied(key, val string) {
	slog.Debug("applying env override", "key", key, "value", val)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		applied(key, val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		var list []string
		for _, part := range strings.Split(val, string(os.PathListSeparator)) {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		if len(list) > 0 {
			applied(key, val)
			*target = list
		}
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			applied(key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			applied(key, val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			applied(key, val)
			*target = &b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			applied(key, val)
			*target = d
		}
	}
}
