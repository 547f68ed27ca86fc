package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchDir switches the engine to templates under dir and reloads them on
// every change until ctx is cancelled. Development convenience: the
// embedded set keeps serving whenever a reload fails to parse.
func (e *Engine) WatchDir(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "templates")); err != nil {
		return fmt.Errorf("template override dir: %w", err)
	}

	if err := e.loadFrom(os.DirFS(dir)); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	if err := watcher.Add(filepath.Join(dir, "templates")); err != nil {
		watcher.Close()
		return fmt.Errorf("watch template dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(event.Name, ".gohtml") {
					continue
				}
				if err := e.loadFrom(os.DirFS(dir)); err != nil {
					e.logger.Warn("Template reload failed, keeping previous set", "error", err)
					continue
				}
				e.logger.Info("Templates reloaded", "trigger", event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				e.logger.Warn("Template watcher error", "error", err)
			}
		}
	}()

	e.logger.Info("Watching template overrides", "dir", dir)
	return nil
}
