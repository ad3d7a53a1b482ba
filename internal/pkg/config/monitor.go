package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/xela-labs/automidireset/internal/pkg/logger"
)

var log = logger.GetLogger()

// DetectChanges emits a freshly loaded Config whenever the file at path is
// rewritten. The returned channel closes when ctx is cancelled or the
// watcher cannot be created.
func DetectChanges(ctx context.Context, path string) <-chan Config {
	var change = make(chan Config)

	go func() {
		defer close(change)
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return
		}

		go func() {
			<-ctx.Done()
			err := watcher.Close()
			if err != nil {
				log.Info(fmt.Sprintf("closing config watcher failed: %v", err), logger.Debug)
			}
		}()

		// watching the directory, editors replace the file on save
		err = watcher.Add(filepath.Dir(path))
		if err != nil {
			log.Info(fmt.Sprintf("cannot watch config directory: %v", err), logger.Debug)
			return
		}

		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}

			c, err := Load(path)
			if err != nil {
				log.Info(fmt.Sprintf("config reload failed: %v", err), logger.Warning)
				continue
			}
			log.Info(fmt.Sprintf("config change detected: %s", event.Name), logger.Info)
			change <- c
		}
	}()

	return change
}
