package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"grammarsym/internal/core/config"
	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/query"
	"grammarsym/internal/workspace"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "./" + config.DefaultFileName

type session struct {
	cfg        *config.Config
	configPath string
	roots      []string
	ws         *workspace.Workspace
	svc        *query.Service
	out        *printer
}

// loadConfig falls back to defaults only when the default config file is
// absent; an explicit --config must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if explicit || !domainerrors.IsCode(err, domainerrors.CodeNotFound) {
			return nil, err
		}
		cfg = config.DefaultConfig()
	}
	config.ApplyEnvOverrides(cfg)
	return cfg, nil
}

// logLevel is shared by every logger derived from the default one, so a
// config reload changes the level everywhere.
var (
	logLevel      = new(slog.LevelVar)
	installLogger sync.Once
)

func setupLogging(cfg *config.Config, verbose bool) error {
	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	logLevel.Set(level)
	installLogger.Do(func() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	})
	return nil
}

// openSession loads config, resolves the workspace roots and builds every
// grammar found under them. Grammars that fail to load are logged and left
// out; the rest stay queryable.
func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	flags := cmd.Root().PersistentFlags()
	configPath, _ := flags.GetString("config")
	verbose, _ := flags.GetBool("verbose")

	cfg, err := loadConfig(configPath, flags.Changed("config"))
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg, verbose); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	resolved, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, err
	}
	cfg.Workspace.Paths = resolved.Workspace
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("invalid configuration", "error", e)
		}
		return nil, domainerrors.Newf(domainerrors.CodeValidationError, "%d configuration problem(s)", len(errs))
	}

	out, err := newPrinter(cmd)
	if err != nil {
		return nil, err
	}

	opts := workspace.OptionsFromConfig(cfg)
	opts.Logger = slog.Default().With("component", "workspace")
	ws, err := workspace.New(opts)
	if err != nil {
		return nil, err
	}
	paths, err := ws.Discover(resolved.Workspace...)
	if err != nil {
		return nil, err
	}
	if err := ws.LoadFiles(ctx, paths); err != nil {
		slog.Warn("some grammars failed to load", "error", err)
	}
	slog.Debug("workspace ready", "root", resolved.ProjectRoot, "manifests", len(paths), "grammars", len(ws.Names()))

	svc, err := query.NewService(ws, cfg.Report.IgnoreUnreferenced)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:        cfg,
		configPath: configPath,
		roots:      resolved.Workspace,
		ws:         ws,
		svc:        svc,
		out:        out,
	}, nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", errorColor.Sprint("error:"), err)
}
