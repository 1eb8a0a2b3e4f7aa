package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	domainerrors "grammarsym/internal/core/errors"

	"github.com/fsnotify/fsnotify"
)

const defaultReloadDebounce = 100 * time.Millisecond

// Reload is one attempt to re-read the config file. Exactly one of Config and
// Err is set. A successful Config already carries the environment overrides.
type Reload struct {
	Path   string
	Config *Config
	Err    error
}

// Watcher re-reads a config file when its content changes and hands every
// attempt, failed or not, to the callback. Saves that leave the bytes
// unchanged are dropped.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload func(Reload)
	logger   *slog.Logger

	mu       sync.Mutex
	lastHash [sha256.Size]byte
	timer    *time.Timer

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher watches path. A zero debounce uses 100ms.
func NewWatcher(path string, debounce time.Duration, onReload func(Reload)) *Watcher {
	if debounce <= 0 {
		debounce = defaultReloadDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onReload: onReload,
		logger:   slog.Default().With("component", "config-watcher"),
		stop:     make(chan struct{}),
	}
}

// Start records the current content and begins watching. A missing file is a
// NOT_FOUND error; there is nothing to reload.
func (w *Watcher) Start(ctx context.Context) error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeNotFound, "watch config"),
			domainerrors.CtxPath, w.path)
	}
	w.lastHash = sha256.Sum256(data)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "watch config")
	}
	// The directory, not the file: editors that save by rename replace the
	// watched inode.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeInternal, "watch config"),
			domainerrors.CtxPath, w.path)
	}

	w.wg.Add(1)
	go w.loop(ctx, fsw)
	w.logger.Debug("watching config", "path", w.path, "debounce", w.debounce)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()
	defer w.cancelPending()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Stop ends the watch. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// Mid-rename; the Create that follows schedules another attempt.
		if os.IsNotExist(err) {
			return
		}
		w.deliver(Reload{Path: w.path, Err: domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeNotFound, "read config"),
			domainerrors.CtxPath, w.path)})
		return
	}

	sum := sha256.Sum256(data)
	w.mu.Lock()
	unchanged := bytes.Equal(sum[:], w.lastHash[:])
	w.lastHash = sum
	w.mu.Unlock()
	if unchanged {
		return
	}

	cfg, err := Parse(data)
	if err != nil {
		w.deliver(Reload{Path: w.path, Err: domainerrors.AddContext(err, domainerrors.CtxPath, w.path)})
		return
	}
	ApplyEnvOverrides(cfg)
	w.deliver(Reload{Path: w.path, Config: cfg})
}

func (w *Watcher) deliver(r Reload) {
	select {
	case <-w.stop:
		return
	default:
	}
	if w.onReload != nil {
		w.onReload(r)
	}
}
