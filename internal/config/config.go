// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ocrchat/internal/savefile"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ocrchat configuration.
type Config struct {
	Ollama  OllamaConfig  `toml:"ollama"`
	Extract ExtractConfig `toml:"extract"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// OllamaConfig selects the server and model.
type OllamaConfig struct {
	// URL is the Ollama API base URL
	URL string `toml:"url"`
	// Model is sent with every generate request
	Model string `toml:"model"`
	// System is an optional system prompt
	System string `toml:"system"`
	// Temperature is passed as a model option; 0 leaves the server default
	Temperature float64 `toml:"temperature"`
}

// ExtractConfig controls OCR and PDF text extraction.
type ExtractConfig struct {
	OCRLanguage   string `toml:"ocr_language"`
	TesseractPath string `toml:"tesseract_path"`
	PdftoppmPath  string `toml:"pdftoppm_path"`
	// PDFDPI is the resolution scanned pages are rasterized at before OCR
	PDFDPI      int `toml:"pdf_dpi"`
	PageSegMode int `toml:"page_seg_mode"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme"`
	// FeedbackDelayMS is how long "Copied!"/"Saved!" labels stay visible
	FeedbackDelayMS int `toml:"feedback_delay_ms"`
	// SaveDir is where code blocks are saved when no path is given
	SaveDir string `toml:"save_dir"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	// File receives JSON log lines; empty means ~/.ocrchat/ocrchat.log
	File string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:   "http://localhost:11434",
			Model: "gemma2:2b",
		},
		Extract: ExtractConfig{
			OCRLanguage:   "eng",
			TesseractPath: "tesseract",
			PdftoppmPath:  "pdftoppm",
			PDFDPI:        144,
			PageSegMode:   6,
		},
		UI: UIConfig{
			Theme:           "auto",
			FeedbackDelayMS: 2000,
			SaveDir:         ".",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// FeedbackDelay returns UI.FeedbackDelayMS as a duration.
func (c *Config) FeedbackDelay() time.Duration {
	return time.Duration(c.UI.FeedbackDelayMS) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the ocrchat configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ocrchat"), nil
}

// DefaultPath returns the path to the TOML config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogFile returns the log file used when log.file is empty.
func DefaultLogFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ocrchat.log"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Environment variables consulted by Load.
const (
	EnvOllamaURL = "OCRCHAT_OLLAMA_URL"
	EnvModel     = "OCRCHAT_MODEL"
	EnvLogLevel  = "OCRCHAT_LOG_LEVEL"
	EnvTesseract = "OCRCHAT_TESSERACT"
	EnvPdftoppm  = "OCRCHAT_PDFTOPPM"
)

// Loader reads the configuration. Sources are applied in order: defaults,
// the TOML file, then the environment, where a variable set in the process
// wins over the same variable in the .env file.
type Loader struct {
	// Path is the config file; empty uses DefaultPath. A missing file is not an error.
	Path string
	// DotEnv is the .env file; empty uses ".env" in the working directory.
	DotEnv string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// SkipEnv loads the file alone, e.g. to edit and save it.
	SkipEnv bool
}

// Load loads configuration from path (empty for the default location).
func Load(path string) (*Config, error) {
	return Loader{Path: path}.Load()
}

// Load runs the loader.
func (l Loader) Load() (*Config, error) {
	path, err := l.path()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML file %s: %w", path, err)
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", statErr)
	}

	if !l.SkipEnv {
		lookup, err := l.lookup()
		if err != nil {
			return nil, err
		}
		cfg.ApplyEnv(lookup)
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (l Loader) path() (string, error) {
	if l.Path != "" {
		return l.Path, nil
	}
	return DefaultPath()
}

// lookup layers the process environment over the .env file.
func (l Loader) lookup() (func(string) (string, bool), error) {
	envLookup := l.LookupEnv
	if envLookup == nil {
		envLookup = os.LookupEnv
	}

	dotPath := l.DotEnv
	if dotPath == "" {
		dotPath = ".env"
	}
	dot := map[string]string{}
	if _, err := os.Stat(dotPath); err == nil {
		dot, err = godotenv.Read(dotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dotPath, err)
		}
	}

	return func(key string) (string, bool) {
		if v, ok := envLookup(key); ok {
			return v, true
		}
		v, ok := dot[key]
		return v, ok
	}, nil
}

// ApplyEnv applies environment overrides.
//
// Supported environment variables:
//   - OCRCHAT_OLLAMA_URL: overrides ollama.url
//   - OCRCHAT_MODEL: overrides ollama.model
//   - OCRCHAT_LOG_LEVEL: overrides log.level
//   - OCRCHAT_TESSERACT: overrides extract.tesseract_path
//   - OCRCHAT_PDFTOPPM: overrides extract.pdftoppm_path
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvOllamaURL, &c.Ollama.URL},
		{EnvModel, &c.Ollama.Model},
		{EnvLogLevel, &c.Log.Level},
		{EnvTesseract, &c.Extract.TesseractPath},
		{EnvPdftoppm, &c.Extract.PdftoppmPath},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && strings.TrimSpace(v) != "" {
			*o.target = strings.TrimSpace(v)
		}
	}
}

// SetDefaults fills zero values left empty by the file.
func (c *Config) SetDefaults() {
	d := Default()
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&c.Ollama.URL, d.Ollama.URL)
	fill(&c.Ollama.Model, d.Ollama.Model)
	fill(&c.Extract.OCRLanguage, d.Extract.OCRLanguage)
	fill(&c.Extract.TesseractPath, d.Extract.TesseractPath)
	fill(&c.Extract.PdftoppmPath, d.Extract.PdftoppmPath)
	fill(&c.UI.Theme, d.UI.Theme)
	fill(&c.UI.SaveDir, d.UI.SaveDir)
	fill(&c.Log.Level, d.Log.Level)

	if c.Extract.PDFDPI == 0 {
		c.Extract.PDFDPI = d.Extract.PDFDPI
	}
	if c.UI.FeedbackDelayMS == 0 {
		c.UI.FeedbackDelayMS = d.UI.FeedbackDelayMS
	}
	c.Ollama.URL = strings.TrimRight(c.Ollama.URL, "/")
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	c.Log.Level = strings.ToLower(c.Log.Level)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// ErrConfigExists is returned by Init when a config file is already present.
var ErrConfigExists = errors.New("config file already exists")

const fileHeader = `# ocrchat configuration file
#
# Environment variables override these values:
#   OCRCHAT_OLLAMA_URL, OCRCHAT_MODEL, OCRCHAT_LOG_LEVEL,
#   OCRCHAT_TESSERACT, OCRCHAT_PDFTOPPM

`

// Encode returns the TOML form of cfg with the file header.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(cfg *Config, path string) error {
	return write(cfg, path, true)
}

// Init writes the default configuration to path. It refuses to replace an
// existing file.
func Init(path string) error {
	err := write(Default(), path, false)
	if errors.Is(err, savefile.ErrExists) {
		return fmt.Errorf("%s: %w", path, ErrConfigExists)
	}
	return err
}

func write(cfg *Config, path string, overwrite bool) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	return savefile.Save(path, data, savefile.Options{
		Overwrite: overwrite,
		Perm:      0o600,
		DirPerm:   0o700,
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Ollama
	if u, err := url.Parse(c.Ollama.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("ollama.url", "invalid URL '%s', must be http(s)://host[:port]", c.Ollama.URL)
	}
	if strings.TrimSpace(c.Ollama.Model) == "" {
		add("ollama.model", "must not be empty")
	}
	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		add("ollama.temperature", "%.2f out of range, must be between 0 and 2", c.Ollama.Temperature)
	}

	// Extraction
	if c.Extract.PDFDPI < 36 || c.Extract.PDFDPI > 600 {
		add("extract.pdf_dpi", "%d out of range, must be between 36 and 600", c.Extract.PDFDPI)
	}
	if c.Extract.PageSegMode < 0 || c.Extract.PageSegMode > 13 {
		add("extract.page_seg_mode", "%d out of range, must be between 0 and 13", c.Extract.PageSegMode)
	}

	// UI
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}
	if c.UI.FeedbackDelayMS < 0 || c.UI.FeedbackDelayMS > 60000 {
		add("ui.feedback_delay_ms", "%d out of range, must be between 0 and 60000", c.UI.FeedbackDelayMS)
	}

	// Log
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "invalid level '%s'", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys returns all configuration keys in dot notation, e.g. "ollama.model".
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("toml")+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// Get retrieves a value by its dotted TOML key.
func (c *Config) Get(key string) (any, error) {
	field, err := c.field(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value into the field named by key.
func (c *Config) Set(key, value string) error {
	field, err := c.field(key)
	if err != nil {
		return err
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer value: %w", key, err)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid float value: %w", key, err)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("%s: unsupported type %s", key, field.Type())
	}
	return nil
}

func (c *Config) field(key string) (reflect.Value, error) {
	section, name, ok := strings.Cut(strings.ToLower(strings.TrimSpace(key)), ".")
	if !ok || section == "" || name == "" {
		return reflect.Value{}, fmt.Errorf("invalid key '%s', expected section.name", key)
	}
	v, ok := byTag(reflect.ValueOf(c).Elem(), section)
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown section: %s", section)
	}
	f, ok := byTag(v, name)
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown field: %s", key)
	}
	return f, nil
}

func byTag(v reflect.Value, tag string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == tag {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// String returns the TOML form of the config without the file header.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err.Error()
	}
	return buf.String()
}
