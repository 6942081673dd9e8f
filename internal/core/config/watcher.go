package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands the
// result to a callback. Invalid edits are logged and skipped; the last
// good config stays in effect.
type Watcher struct {
	configPath string
	dataDir    string
	onReload   func(*Config)
	log        zerolog.Logger

	fsw *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(configPath, dataDir string, onReload func(*Config), log zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace files on save,
	// which drops a file-level watch.
	if err := fsw.Add(filepath.Dir(configPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return &Watcher{
		configPath: configPath,
		dataDir:    dataDir,
		onReload:   onReload,
		log:        log,
		fsw:        fsw,
	}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, w.reload)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("config watcher error")
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) reload() {
	cfg, err := Load(w.configPath, w.dataDir)
	if err != nil {
		w.log.Warn().Err(err).Msg("config reload skipped: file is invalid")
		return
	}

	w.log.Info().Str("path", w.configPath).Msg("config reloaded")
	w.onReload(cfg)
}
