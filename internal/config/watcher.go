package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the config file when it changes on disk, so thresholds and
// vocabularies can be adjusted without restarting the process. Reloads that
// fail validation are dropped and the previous config stays active.
type Watcher struct {
	watcher  *fsnotify.Watcher
	loader   *Loader
	logger   zerolog.Logger
	onReload func(*Config)
	debounce time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	stopCh   chan struct{}
}

// NewWatcher creates a watcher for the loader's config file. onReload is
// called with each successfully loaded config.
func NewWatcher(loader *Loader, logger zerolog.Logger, onReload func(*Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsWatcher,
		loader:   loader,
		logger:   logger.With().Str("component", "config-watcher").Logger(),
		onReload: onReload,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}

	configPath, err := loader.Path()
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	// Watch the directory: editors replace files on save, which drops
	// watches on the file itself
	if err := fsWatcher.Add(filepath.Dir(configPath)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.run(configPath)

	return w, nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.watcher.Close()
}

func (w *Watcher) run(configPath string) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Config change detected")

				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Config watcher error")

		case <-w.stopCh:
			return
		}
	}
}

// scheduleReload debounces the reload
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Warn().Err(err).Msg("Config reload failed, keeping previous config")
		return
	}

	w.logger.Info().Msg("Config reloaded")
	w.onReload(cfg)
}
