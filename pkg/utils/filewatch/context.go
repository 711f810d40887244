// Package filewatch turns file modification into context cancellation.
package filewatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext returns a context that is canceled
// when one of targets is modified (= written, created, removed, or renamed).
//
// A target can be a file or a directory. For a file, its parent directory is watched
// and events are filtered by name, so replacing the file by rename (as editors and
// config map mounts do) is noticed too. Empty targets are ignored.
//
// # Returns
//
// - context.Context: context that is canceled when one of targets is modified.
// context.Cause tells which.
//
// - func(): cancel function.
//
// - error: error caused when it fails to start watching files.
// If error is not nil, both of the the context and the cancel function are nil.
func UntilModifyContext(ctx context.Context, targets ...string) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	// watched path -> names of interest. nil means "anything".
	watches := map[string]map[string]struct{}{}
	for _, t := range targets {
		if t == "" {
			continue
		}
		abs, err := filepath.Abs(t)
		if err != nil {
			w.Close()
			cancel(err)
			return nil, nil, err
		}
		stat, err := os.Stat(abs)
		if err != nil {
			w.Close()
			cancel(err)
			return nil, nil, err
		}
		if stat.IsDir() {
			watches[abs] = nil
			continue
		}

		dir := filepath.Dir(abs)
		names, ok := watches[dir]
		if ok && names == nil {
			continue
		}
		if names == nil {
			names = map[string]struct{}{}
			watches[dir] = names
		}
		names[abs] = struct{}{}
	}

	for path := range watches {
		if err := w.Add(path); err != nil {
			w.Close()
			cancel(err)
			return nil, nil, err
		}
	}

	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(fmt.Errorf("watching files failed: %w", err))
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op == fsnotify.Chmod {
					continue
				}
				if names := watches[filepath.Dir(event.Name)]; names != nil {
					if _, ok := names[event.Name]; !ok {
						if _, isDir := watches[event.Name]; !isDir {
							continue
						}
					}
				}
				cancel(fmt.Errorf("%s is updated (%s)", event.Name, event.Op.String()))
				return
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
