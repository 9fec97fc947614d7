// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package savefile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestSave_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go_1.go")
	if err := SaveString(path, "package main\n", Options{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != "package main\n" {
		t.Errorf("Content mismatch: got %q", content)
	}
}

func TestSave_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "deep", "out.txt")
	if err := SaveString(path, "data", Options{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !Exists(path) {
		t.Fatal("file not created")
	}
}

func TestSave_RefusesExistingWithoutOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.txt")
	if err := SaveString(path, "original", Options{}); err != nil {
		t.Fatal(err)
	}

	err := SaveString(path, "replacement", Options{})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Save error = %v, want ErrExists", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "original" {
		t.Errorf("file changed to %q", content)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestSave_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code.py")
	if err := SaveString(path, "v1", Options{}); err != nil {
		t.Fatal(err)
	}
	if err := SaveString(path, "v2", Options{Overwrite: true}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "v2" {
		t.Errorf("content = %q, want v2", content)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestSave_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveString(path, "x", Options{Perm: 0o600}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestSave_EmptyContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := Save(path, nil, Options{}); err != nil {
		t.Fatal(err)
	}
	info, _ := os.Stat(path)
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

// withoutHardLinks makes link fail the way it does on filesystems that
// have no hard links, running before first when set.
func withoutHardLinks(t *testing.T, before func(newname string)) {
	t.Helper()
	orig := link
	link = func(_, newname string) error {
		if before != nil {
			before(newname)
		}
		return &os.LinkError{Op: "link", New: newname, Err: errors.New("operation not supported")}
	}
	t.Cleanup(func() { link = orig })
}

func TestSave_NoHardLinks(t *testing.T) {
	withoutHardLinks(t, nil)
	path := filepath.Join(t.TempDir(), "go_1.go")

	if err := SaveString(path, "package main\n", Options{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "package main\n" {
		t.Errorf("Content mismatch: got %q", content)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestSave_NoHardLinksKeepsLateTarget(t *testing.T) {
	// Another writer creates the target after the existence check.
	withoutHardLinks(t, func(newname string) {
		if err := os.WriteFile(newname, []byte("theirs"), 0o644); err != nil {
			t.Fatal(err)
		}
	})
	path := filepath.Join(t.TempDir(), "go_1.go")

	err := SaveString(path, "ours", Options{})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Save error = %v, want ErrExists", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "theirs" {
		t.Errorf("file changed to %q", content)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
