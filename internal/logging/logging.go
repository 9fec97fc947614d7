// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the logrus logger shared by all components.
//
// The TUI owns the terminal, so by default log lines go to a file as JSON.
// Non-interactive commands may log text to stderr instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format selects the log line encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures New.
type Options struct {
	// Level is a logrus level name; unknown or empty means info.
	Level string
	// Format defaults to JSON.
	Format Format
	// File is opened for append. Ignored when Output is set.
	File string
	// Output overrides File, e.g. os.Stderr.
	Output io.Writer
}

// Logger is a logrus logger that may own its output file.
type Logger struct {
	*logrus.Logger
	closer io.Closer
}

// New creates a logger. With neither File nor Output set, logs are discarded.
func New(opts Options) (*Logger, error) {
	log := logrus.New()
	log.SetLevel(ParseLevel(opts.Level))

	switch opts.Format {
	case FormatText:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	l := &Logger{Logger: log}
	switch {
	case opts.Output != nil:
		log.SetOutput(opts.Output)
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(f)
		l.closer = f
	default:
		log.SetOutput(io.Discard)
	}
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l, _ := New(Options{})
	return l
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Component returns an entry tagged with the component name.
func (l *Logger) Component(name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Close closes the log file, if New opened one.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
