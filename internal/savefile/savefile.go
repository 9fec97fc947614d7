// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package savefile writes user content (saved code blocks, exports, the
// config file) to disk atomically.
package savefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// link is os.Link, replaceable in tests.
var link = os.Link

// ErrExists is returned when the target exists and overwriting was not confirmed.
var ErrExists = errors.New("file already exists")

// Options controls a save.
type Options struct {
	// Overwrite replaces an existing file. Without it, Save returns ErrExists.
	Overwrite bool
	// Perm is the file mode of the result (default 0644).
	Perm os.FileMode
	// DirPerm is used for missing parent directories (default 0755).
	DirPerm os.FileMode
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Save writes content to path. The data goes to a temp file in the same
// directory, is synced, then moved into place, so readers see either the
// old file or the complete new one.
func Save(path string, content []byte, opts Options) error {
	if opts.Perm == 0 {
		opts.Perm = 0o644
	}
	if opts.DirPerm == 0 {
		opts.DirPerm = 0o755
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if !opts.Overwrite && Exists(absPath) {
		return fmt.Errorf("%s: %w", absPath, ErrExists)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, opts.DirPerm); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Same directory as the target so the rename stays on one filesystem.
	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}
	// Close before rename; Windows refuses to move open files.
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, opts.Perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if opts.Overwrite {
		if err := os.Rename(tempPath, absPath); err != nil {
			return fmt.Errorf("failed to rename temp file: %w", err)
		}
	} else {
		// Link fails if the target appeared since the check above.
		if err := link(tempPath, absPath); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%s: %w", absPath, ErrExists)
			}
			// No hard links here; an exclusive create still refuses to clobber.
			if err := writeExclusive(absPath, content, opts.Perm); err != nil {
				return err
			}
		}
		os.Remove(tempPath)
	}

	success = true
	return nil
}

// writeExclusive creates path with O_EXCL and writes content to it.
func writeExclusive(path string, content []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}
	return f.Close()
}

// SaveString is Save for text.
func SaveString(path, content string, opts Options) error {
	return Save(path, []byte(content), opts)
}
