package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"grammarsym/internal/core/config"
	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/query"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep grammar tables up to date as manifests change",
	Long: `watch rebuilds a grammar's table whenever its manifest changes and
relinks the grammars that depend on it. Changes to the config file update the
log level and the unreferenced ignore patterns.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	svc := s.svc
	current := func() *query.Service {
		mu.Lock()
		defer mu.Unlock()
		return svc
	}

	if s.cfg.Metrics.Enabled {
		srv := newObservabilityServer(s.cfg.Metrics.Address, func(ctx context.Context) query.HealthStatus {
			return current().Health(ctx)
		})
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				slog.Warn("stopping observability server", "error", err)
			}
		}()
	}

	cw := config.NewWatcher(s.configPath, 0, func(r config.Reload) {
		if r.Err != nil {
			warnColor.Fprintf(cmd.ErrOrStderr(), "config reload failed, keeping previous settings: %v\n", r.Err)
			return
		}
		verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
		if err := setupLogging(r.Config, verbose); err != nil {
			slog.Warn("config reload: keeping log level", "error", err)
		}
		next, err := query.NewService(s.ws, r.Config.Report.IgnoreUnreferenced)
		if err != nil {
			warnColor.Fprintf(cmd.ErrOrStderr(), "config reload: keeping ignore patterns: %v\n", err)
			return
		}
		mu.Lock()
		svc = next
		mu.Unlock()
		slog.Info("config reloaded", "path", r.Path)
	})
	switch err := cw.Start(ctx); {
	case err == nil:
		defer cw.Stop()
	case domainerrors.IsCode(err, domainerrors.CodeNotFound):
		slog.Debug("no config file to watch", "path", s.configPath)
	default:
		return err
	}

	s.out.health(current().Health(ctx))
	return s.ws.Watch(ctx, s.roots, s.cfg.Watch.Debounce, func(paths []string, err error) {
		if err != nil {
			printError(cmd.ErrOrStderr(), err)
		}
		headingColor.Fprintf(s.out.w, "%s rebuilt %d manifest(s)\n", time.Now().Format(time.TimeOnly), len(paths))
		for _, p := range paths {
			fmt.Fprintf(s.out.w, "  %s\n", p)
		}
		s.out.health(current().Health(ctx))
	})
}
