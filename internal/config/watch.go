// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events an editor save produces.
const DefaultWatchDebounce = 150 * time.Millisecond

// Watch reloads the config file whenever it changes and passes the result
// to fn. A reload that fails to parse or validate is passed as an error;
// the caller keeps its previous config. Watch returns once the watcher is
// running and stops when ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	return Loader{Path: path}.Watch(ctx, DefaultWatchDebounce, fn)
}

// Watch is Watch with this loader's sources.
func (l Loader) Watch(ctx context.Context, debounce time.Duration, fn func(*Config, error)) error {
	path, err := l.path()
	if err != nil {
		return err
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors and Save replace the file by rename,
	// which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	go l.watchLoop(ctx, watcher, path, debounce, fn)
	return nil
}

func (l Loader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, debounce time.Duration, fn func(*Config, error)) {
	defer watcher.Close()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(debounce)
			}

		case <-timer.C:
			fn(l.Load())

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fn(nil, fmt.Errorf("config watcher: %w", err))
		}
	}
}
