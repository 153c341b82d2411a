package prefixes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ErrNoUserFile means the registry has no user file location to watch.
var ErrNoUserFile = errors.New("prefixes: no user registry file configured")

// Watch reloads the registry whenever the user file changes. It watches the
// parent directory so the file may be created after Watch starts. Watch
// blocks until ctx is cancelled; run it in its own goroutine.
func (r *Registry) Watch(ctx context.Context) error {
	if r.userPath == "" {
		return ErrNoUserFile
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("prefixes: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(r.userPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("prefixes: watch %s: %w", dir, err)
	}

	target := filepath.Clean(r.userPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				r.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return fmt.Errorf("prefixes: watcher: %w", err)
			}
		}
	}
}
