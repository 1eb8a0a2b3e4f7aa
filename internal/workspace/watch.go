package workspace

import (
	"context"
	"time"

	"grammarsym/internal/core/watcher"
)

// Watch keeps the workspace in sync with manifest changes under roots until
// ctx is done. onUpdate, if set, runs after each applied batch.
func (w *Workspace) Watch(ctx context.Context, roots []string, debounce time.Duration, onUpdate func(paths []string, err error)) error {
	fw, err := watcher.NewWatcher(debounce, w.opts.Exclude, w.opts.Exclude, func(paths []string) {
		err := w.Apply(ctx, paths)
		if err != nil {
			w.logger.Warn("applying manifest changes", "paths", len(paths), "error", err)
		}
		if onUpdate != nil {
			onUpdate(paths, err)
		}
	})
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.SetIncludePatterns([]string{w.opts.Pattern}); err != nil {
		return err
	}
	if err := fw.Watch(roots); err != nil {
		return err
	}
	w.logger.Info("watching grammar manifests", "roots", roots, "debounce", debounce)

	<-ctx.Done()
	return nil
}
