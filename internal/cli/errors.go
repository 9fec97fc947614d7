// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by all commands.
//
// Commands always return errors; Execute prints them once and picks the
// exit code.

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/config"
	"github.com/jeranaias/ocrchat/internal/extract"
	"github.com/jeranaias/ocrchat/internal/ollama"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates Ollama could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a missing file, model or external tool
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError represents invalid command usage.
type UsageError struct {
	Command string
	Reason  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// NewUsageError creates a usage error for command.
func NewUsageError(command, reason string) error {
	return &UsageError{Command: command, Reason: reason}
}

// ExitCode maps an error onto a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var ttyErr *TTYRequiredError
	var validateErrs config.ValidateErrors
	switch {
	case errors.As(err, &usageErr), errors.As(err, &ttyErr), attachment.IsValidationError(err):
		return ExitUsageError
	case errors.As(err, &validateErrs):
		return ExitConfigError
	case ollama.IsModelNotFound(err), errors.Is(err, extract.ErrToolMissing):
		return ExitNotFoundError
	case ollama.IsNotRunning(err):
		return ExitNetworkError
	}
	return ExitGeneralError
}

// messageError shows a user-facing message while keeping the cause for ExitCode.
type messageError struct {
	msg string
	err error
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.err }

// withMessage pairs a cause with the text the user should see.
func withMessage(msg string, err error) error {
	if err == nil {
		return errors.New(msg)
	}
	return &messageError{msg: msg, err: err}
}
