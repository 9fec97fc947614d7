// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/clipboard"
	"github.com/jeranaias/ocrchat/internal/config"
	"github.com/jeranaias/ocrchat/internal/extract"
	"github.com/jeranaias/ocrchat/internal/logging"
	"github.com/jeranaias/ocrchat/internal/ollama"
	"github.com/jeranaias/ocrchat/internal/render"
	"github.com/jeranaias/ocrchat/internal/util"
)

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	model      string
	url        string
	logLevel   string
}

// App holds the components built from the configuration.
type App struct {
	Config     *config.Config
	ConfigPath string
	Log        *logging.Logger

	Client    *ollama.Client
	Extractor *extract.Service
	Renderer  *render.Renderer
}

// loadConfig reads the config file and applies the command line flags on top.
func loadConfig(flags *globalFlags) (*config.Config, string, error) {
	path := util.ExpandHome(flags.configPath)
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	applyFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func applyFlags(cfg *config.Config, flags *globalFlags) {
	if flags.model != "" {
		cfg.Ollama.Model = flags.model
	}
	if flags.url != "" {
		cfg.Ollama.URL = strings.TrimRight(flags.url, "/")
	}
	if flags.logLevel != "" {
		cfg.Log.Level = strings.ToLower(flags.logLevel)
	}
}

// newApp wires every component. logOut, when set, replaces the log file;
// the one-shot commands log to stderr while the TUI keeps the terminal clean.
func newApp(flags *globalFlags, logOut io.Writer) (*App, error) {
	cfg, path, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	opts := logging.Options{Level: cfg.Log.Level, Output: logOut}
	if logOut != nil {
		opts.Format = logging.FormatText
	} else {
		opts.File = util.ExpandHome(cfg.Log.File)
		if opts.File == "" {
			if opts.File, err = config.DefaultLogFile(); err != nil {
				return nil, err
			}
		}
	}
	log, err := logging.New(opts)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		ConfigPath: path,
		Log:        log,
		Renderer:   render.New(),
	}
	a.Client = ollama.NewClientWithConfig(clientConfig(cfg, log.Component("ollama")))
	a.Extractor = extract.NewService(extract.Options{
		OCRLanguage:   cfg.Extract.OCRLanguage,
		PageSegMode:   cfg.Extract.PageSegMode,
		TesseractPath: cfg.Extract.TesseractPath,
		PdftoppmPath:  cfg.Extract.PdftoppmPath,
		PDFDPI:        cfg.Extract.PDFDPI,
	}, logrus.NewEntry(log.Logger))

	log.WithFields(logrus.Fields{
		"config": path,
		"model":  cfg.Ollama.Model,
		"url":    cfg.Ollama.URL,
	}).Debug("configuration loaded")
	if !ollama.IsLocalURL(cfg.Ollama.URL) {
		log.WithField("url", cfg.Ollama.URL).Warn("Ollama server is not on this machine; attachment text will be sent to it")
	}
	return a, nil
}

func clientConfig(cfg *config.Config, log *logrus.Entry) *ollama.ClientConfig {
	cc := &ollama.ClientConfig{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.Model,
		System:  cfg.Ollama.System,
		Logger:  log,
	}
	if cfg.Ollama.Temperature > 0 {
		cc.Options = &ollama.Options{Temperature: cfg.Ollama.Temperature}
	}
	return cc
}

// Reconfigure swaps in a reloaded configuration. Only settings that are
// safe to change between turns take effect: model, server, system prompt.
func (a *App) Reconfigure(cfg *config.Config) {
	a.Config = cfg
	a.Client = ollama.NewClientWithConfig(clientConfig(cfg, a.Log.Component("ollama")))
}

// NewSession starts an empty conversation against the configured model.
func (a *App) NewSession() *chat.Session {
	return chat.NewSession(a.Generator(), a.Renderer, logrus.NewEntry(a.Log.Logger))
}

// Generator returns the model connection for the current client.
func (a *App) Generator() chat.Generator {
	return chat.OllamaGenerator{Client: a.Client}
}

// NewDispatcher connects a session to extraction, the clipboard and disk.
func (a *App) NewDispatcher(sess *chat.Session, cb clipboard.Writer) *chat.Dispatcher {
	if cb == nil {
		cb = clipboard.System{}
	}
	fb := chat.NewFeedback(a.Config.FeedbackDelay(), nil)
	return chat.NewDispatcher(sess, a.Extractor, cb, fb, util.ExpandHome(a.Config.UI.SaveDir))
}

// Close releases the log file.
func (a *App) Close() {
	if a.Log != nil {
		a.Log.Close()
	}
}

// stderrIfVerbose returns the writer one-shot commands log to.
func stderrIfVerbose(flags *globalFlags) io.Writer {
	if flags.logLevel != "" {
		return os.Stderr
	}
	return nil
}
