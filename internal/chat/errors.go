// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/extract"
	"github.com/jeranaias/ocrchat/internal/ollama"
)

var (
	// ErrNothingToSend is returned when the input and every attachment are empty.
	ErrNothingToSend = errors.New("nothing to send")
	// ErrBusy is returned while a reply is streaming or an attachment is being extracted.
	ErrBusy = errors.New("busy: wait for the current operation to finish")
	// ErrNoSuchBlock is returned for a copy or save of an unknown code block.
	ErrNoSuchBlock = errors.New("no such code block")
)

// ErrorClass groups errors by how the UI reacts to them.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	// ClassValidation: wrong file type. Blocking notice, no state change.
	ClassValidation
	// ClassExtraction: OCR or PDF parsing failed. Blocking notice.
	ClassExtraction
	// ClassTransport: connectivity, HTTP status or in-stream error. Error entry.
	ClassTransport
	// ClassMalformed: undecodable response data. Logged only.
	ClassMalformed
	// ClassInternal: anything else.
	ClassInternal
)

// String returns the class name.
func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassValidation:
		return "validation"
	case ClassExtraction:
		return "extraction"
	case ClassTransport:
		return "transport"
	case ClassMalformed:
		return "malformed"
	default:
		return "internal"
	}
}

// Classify maps err onto the error taxonomy.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if attachment.IsValidationError(err) {
		return ClassValidation
	}
	if extract.IsError(err) {
		return ClassExtraction
	}
	var clientErr *ollama.ClientError
	if errors.As(err, &clientErr) {
		if clientErr.Type == ollama.ErrTypeInvalidResponse {
			return ClassMalformed
		}
		return ClassTransport
	}
	return ClassInternal
}

// ConnectMessage is the error entry text for an unreachable server.
const ConnectMessage = "Error: Could not connect to Ollama. Make sure Ollama is running."

// UserMessage returns the text shown to the user for err: an error entry for
// transport failures, a notice for everything else.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var valErr *attachment.ValidationError
	if errors.As(err, &valErr) {
		return fmt.Sprintf("Please select %s file.", article(valErr.Kind))
	}
	var exErr *extract.Error
	if errors.As(err, &exErr) {
		return exErr.UserMessage()
	}

	var clientErr *ollama.ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case ollama.ErrTypeNotRunning:
			return ConnectMessage
		case ollama.ErrTypeCanceled:
			return "Error: Request canceled."
		case ollama.ErrTypeHTTPStatus:
			if clientErr.Detail != "" {
				return fmt.Sprintf("Error: HTTP error! status: %d (%s)", clientErr.StatusCode, clientErr.Detail)
			}
			return fmt.Sprintf("Error: HTTP error! status: %d", clientErr.StatusCode)
		case ollama.ErrTypeStream:
			return "Error: " + clientErr.Detail
		default:
			return "Error: " + clientErr.Message
		}
	}

	switch {
	case errors.Is(err, ErrBusy):
		return "Please wait for the current operation to finish."
	case errors.Is(err, ErrNoSuchBlock):
		return "That code block does not exist."
	}
	return "Error: " + err.Error()
}

func article(k attachment.Kind) string {
	if k == attachment.KindImage {
		return "an image"
	}
	return "a PDF"
}
