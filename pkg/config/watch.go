package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// WatchFile watches path for writes and renames (the common pattern
// for editors that replace-on-save) and invokes onChange after each
// one settles. It runs until stop is closed.
func WatchFile(path string, stop <-chan struct{}, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					onChange()
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config file watch error", "path", path, "error", watchErr)
			}
		}
	}()

	return nil
}
