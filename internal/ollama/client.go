// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int    // set for ErrTypeHTTPStatus
	Detail     string // server-provided error text, if any
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type so that errors.Is(err, ErrNotRunning)
// holds for any not-running error regardless of its cause.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.StatusCode == 0 && t.Cause == nil
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeCanceled
	ErrTypeHTTPStatus
	ErrTypeStream
	ErrTypeInvalidResponse
	ErrTypeRequest
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotRunning:
		return "not_running"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeHTTPStatus:
		return "http_status"
	case ErrTypeStream:
		return "stream"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrNotRunning = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrCanceled   = &ClientError{Type: ErrTypeCanceled, Message: "request canceled"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is the address of a stock local Ollama install.
	DefaultBaseURL = "http://localhost:11434"
	// DefaultModel is the model requested when none is configured.
	DefaultModel = "gemma2:2b"

	generatePath = "/api/generate"
	tagsPath     = "/api/tags"
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434)
	BaseURL string

	// Model is sent with every generate request (default: gemma2:2b)
	Model string

	// System is an optional system prompt.
	System string

	// Options are optional model parameters.
	Options *Options

	// Timeout applies to non-streaming requests (health check, model list).
	// Streams are bounded only by their context.
	Timeout time.Duration

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client

	// Logger receives malformed-line warnings. Defaults to the standard logrus logger.
	Logger *logrus.Entry
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Timeout: 10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API.
// The Client is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
	log          *logrus.Entry
}

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config

	// Fill in defaults for any zero values
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	c := &Client{
		config: &cfg,
		log:    log.WithField("component", "ollama"),
	}
	if cfg.HTTPClient != nil {
		c.httpClient = cfg.HTTPClient
		c.streamClient = cfg.HTTPClient
	} else {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
		// No overall timeout on streams; a long answer is not a failure.
		c.streamClient = &http.Client{}
	}
	return c
}

// Model returns the model sent with generate requests.
func (c *Client) Model() string {
	return c.config.Model
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that Ollama is reachable and running.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:       ErrTypeHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    "unexpected status from Ollama: " + resp.Status,
		}
	}
	return nil
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// ListModels retrieves all available models from Ollama.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+tagsPath, nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, "failed to list models")
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return result.Models, nil
}

// =============================================================================
// STREAMING GENERATE
// =============================================================================

// GenerateStream issues one streaming POST to /api/generate and returns the
// response as a DeltaStream. A non-2xx status fails immediately and no
// deltas are produced. The caller must Close the stream.
func (c *Client) GenerateStream(ctx context.Context, prompt string) (*DeltaStream, error) {
	reqBody := GenerateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		Stream:  true,
		System:  c.config.System,
		Options: c.config.Options,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drainAndClose(resp.Body)
		return nil, statusError(resp, "generate request failed")
	}

	c.log.WithFields(logrus.Fields{
		"model":      c.config.Model,
		"prompt_len": len(prompt),
	}).Debug("stream opened")

	return newDeltaStream(resp.Body, c.log), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// transportError maps an http.Client.Do failure onto the error taxonomy.
func transportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running", Cause: err}
}

// statusError builds an ErrTypeHTTPStatus error, preferring the server's own message.
func statusError(resp *http.Response, prefix string) error {
	msg := fmt.Sprintf("%s: HTTP %d", prefix, resp.StatusCode)
	var body apiError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error != "" {
		msg = fmt.Sprintf("%s (%s)", msg, body.Error)
	}
	return &ClientError{Type: ErrTypeHTTPStatus, StatusCode: resp.StatusCode, Message: msg, Detail: body.Error}
}

// IsNotRunning checks if an error indicates Ollama is not reachable.
func IsNotRunning(err error) bool {
	return hasType(err, ErrTypeNotRunning)
}

// IsCanceled checks if an error came from a cancelled context.
func IsCanceled(err error) bool {
	return hasType(err, ErrTypeCanceled)
}

// IsModelNotFound checks if the server rejected the configured model.
func IsModelNotFound(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeHTTPStatus && clientErr.StatusCode == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode
	}
	return 0
}

func hasType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
