// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// isolated returns a loader that sees only the given files and variables.
func isolated(t *testing.T, path string, env map[string]string) Loader {
	t.Helper()
	return Loader{
		Path:      path,
		DotEnv:    filepath.Join(t.TempDir(), "missing.env"),
		LookupEnv: envMap(env),
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Ollama.URL != "http://localhost:11434" {
		t.Errorf("Ollama.URL = %q", cfg.Ollama.URL)
	}
	if cfg.Extract.PageSegMode != 6 || cfg.Extract.PDFDPI != 144 {
		t.Errorf("Extract = %+v", cfg.Extract)
	}
	if cfg.FeedbackDelay() != 2*time.Second {
		t.Errorf("FeedbackDelay() = %v", cfg.FeedbackDelay())
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := isolated(t, filepath.Join(t.TempDir(), "config.toml"), nil).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ollama.Model != Default().Ollama.Model {
		t.Errorf("Model = %q, want default", cfg.Ollama.Model)
	}
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[ollama]
url = "http://gpu-box:11434/"
model = "llama3"

[ui]
theme = "Dark"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := isolated(t, path, map[string]string{EnvTesseract: "/opt/bin/tesseract"}).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ollama.URL != "http://gpu-box:11434" {
		t.Errorf("URL = %q, want trailing slash trimmed", cfg.Ollama.URL)
	}
	if cfg.Ollama.Model != "llama3" {
		t.Errorf("Model = %q", cfg.Ollama.Model)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	if cfg.Extract.TesseractPath != "/opt/bin/tesseract" {
		t.Errorf("TesseractPath = %q", cfg.Extract.TesseractPath)
	}
	// Untouched sections keep their defaults.
	if cfg.Extract.PDFDPI != 144 {
		t.Errorf("PDFDPI = %d", cfg.Extract.PDFDPI)
	}
}

func TestLoad_DotEnvBelowProcessEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("OCRCHAT_MODEL=from-dotenv\nOCRCHAT_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := Loader{
		Path:      filepath.Join(dir, "config.toml"),
		DotEnv:    dotenv,
		LookupEnv: envMap(map[string]string{EnvModel: "from-env"}),
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ollama.Model != "from-env" {
		t.Errorf("Model = %q, want process env to win", cfg.Ollama.Model)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want value from .env", cfg.Log.Level)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[ollama]\nurl = \"ftp://nowhere\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := isolated(t, path, nil).Load()
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Load() error = %v, want ValidateErrors", err)
	}
	if verrs[0].Field != "ollama.url" {
		t.Errorf("Field = %q", verrs[0].Field)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.Ollama.URL = "localhost" }, "ollama.url"},
		{"empty model", func(c *Config) { c.Ollama.Model = " " }, "ollama.model"},
		{"temperature", func(c *Config) { c.Ollama.Temperature = 3 }, "ollama.temperature"},
		{"dpi", func(c *Config) { c.Extract.PDFDPI = 10 }, "extract.pdf_dpi"},
		{"psm", func(c *Config) { c.Extract.PageSegMode = 14 }, "extract.page_seg_mode"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"delay", func(c *Config) { c.UI.FeedbackDelayMS = -1 }, "ui.feedback_delay_ms"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			err := cfg.Validate()
			var verrs ValidateErrors
			if !errors.As(err, &verrs) || len(verrs) != 1 {
				t.Fatalf("Validate() = %v, want one error", err)
			}
			if verrs[0].Field != tc.field {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tc.field)
			}
		})
	}
}

func TestInitAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := Init(path); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second Init() = %v, want ErrConfigExists", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %o, want 600", info.Mode().Perm())
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# ocrchat configuration file") {
		t.Errorf("missing header:\n%s", data)
	}

	cfg := Default()
	cfg.Ollama.Model = "mistral"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := isolated(t, path, nil).Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Ollama.Model != "mistral" {
		t.Errorf("Model = %q after save", loaded.Ollama.Model)
	}
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("ollama.model", "phi3"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("extract.pdf_dpi", "200"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("ollama.temperature", "0.4"); err != nil {
		t.Fatal(err)
	}

	if v, _ := cfg.Get("ollama.model"); v != "phi3" {
		t.Errorf("Get(ollama.model) = %v", v)
	}
	if v, _ := cfg.Get("extract.pdf_dpi"); v != 200 {
		t.Errorf("Get(extract.pdf_dpi) = %v", v)
	}
	if cfg.Ollama.Temperature != 0.4 {
		t.Errorf("Temperature = %v", cfg.Ollama.Temperature)
	}

	if err := cfg.Set("extract.pdf_dpi", "lots"); err == nil {
		t.Error("Set with bad integer should fail")
	}
	if _, err := cfg.Get("nope.model"); err == nil {
		t.Error("Get of unknown section should fail")
	}
	if _, err := cfg.Get("model"); err == nil {
		t.Error("Get without section should fail")
	}

	keys := Keys()
	if len(keys) != 14 || keys[0] != "ollama.url" || keys[len(keys)-1] != "log.file" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[ollama]\nmodel = \"first\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 8)
	err := isolated(t, path, nil).Watch(ctx, 20*time.Millisecond, func(c *Config, err error) {
		if err == nil {
			got <- c
		}
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("[ollama]\nmodel = \"second\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Ollama.Model == "second" {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
