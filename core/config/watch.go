package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of events editors emit on save.
const debounceWindow = 250 * time.Millisecond

// Watch reloads the configuration whenever the file changes. It watches the
// parent directory so atomic-rename saves are seen too. Returns immediately;
// the watcher goroutine runs until Close.
func (m *Manager) Watch(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if m.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go m.watchLoop(watcher, logger)
	return nil
}

func (m *Manager) watchLoop(watcher *fsnotify.Watcher, logger *slog.Logger) {
	defer watcher.Close()

	var timer *time.Timer
	reload := func() {
		if err := m.Reload(); err != nil {
			logger.Error("config reload failed", "path", m.path, "error", err)
			return
		}
		logger.Info("configuration reloaded", "path", m.path)
	}

	for {
		select {
		case <-m.stopWatch:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(m.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
