// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// LINE VARIANTS
// =============================================================================

// Line is the decoded form of one line of a streamed response body.
// Exactly one of DeltaLine, ControlLine, ErrorLine or MalformedLine.
type Line interface {
	isLine()
}

// DeltaLine is a line carrying a "response" field.
type DeltaLine struct {
	Text  string
	Done  bool
	Stats *StreamStats // only set on the final line
}

// ControlLine is well-formed JSON without a "response" field.
type ControlLine struct {
	Done  bool
	Stats *StreamStats
}

// ErrorLine is the server reporting a failure in the middle of a stream.
type ErrorLine struct {
	Message string
}

// MalformedLine is a line that could not be decoded as JSON.
type MalformedLine struct {
	Raw string
	Err error
}

func (DeltaLine) isLine()     {}
func (ControlLine) isLine()   {}
func (ErrorLine) isLine()     {}
func (MalformedLine) isLine() {}

// DecodeLine decodes a single non-blank stream line.
func DecodeLine(raw []byte) Line {
	var g generateLine
	if err := json.Unmarshal(raw, &g); err != nil {
		return MalformedLine{Raw: string(raw), Err: err}
	}
	if g.Error != "" {
		return ErrorLine{Message: g.Error}
	}

	var stats *StreamStats
	if g.Done {
		stats = &StreamStats{
			Model:              g.Model,
			DoneReason:         g.DoneReason,
			TotalDuration:      time.Duration(g.TotalDuration),
			LoadDuration:       time.Duration(g.LoadDuration),
			PromptEvalDuration: time.Duration(g.PromptEvalDuration),
			EvalDuration:       time.Duration(g.EvalDuration),
			PromptTokens:       g.PromptEvalCount,
			CompletionTokens:   g.EvalCount,
		}
		if stats.EvalDuration > 0 {
			stats.TokensPerSecond = float64(stats.CompletionTokens) / stats.EvalDuration.Seconds()
		}
	}

	if g.Response == nil {
		return ControlLine{Done: g.Done, Stats: stats}
	}
	return DeltaLine{Text: *g.Response, Done: g.Done, Stats: stats}
}

// =============================================================================
// DELTA STREAM
// =============================================================================

// DeltaStream is a lazy, finite sequence of response deltas read from a
// newline-delimited JSON body. It is not safe for concurrent use except for
// Close, which may be called from any goroutine to abort a read.
type DeltaStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	log    *logrus.Entry

	started    time.Time
	firstToken time.Time
	stats      StreamStats
	deltas     int
	malformed  int
	err        error // sticky terminal state, io.EOF on clean end

	closeOnce sync.Once
}

func newDeltaStream(body io.ReadCloser, log *logrus.Entry) *DeltaStream {
	return &DeltaStream{
		body:    body,
		reader:  bufio.NewReader(body),
		log:     log,
		started: time.Now(),
	}
}

// NewDeltaStream wraps an arbitrary NDJSON body, e.g. a recorded response.
func NewDeltaStream(body io.ReadCloser) *DeltaStream {
	return newDeltaStream(body, logrus.NewEntry(logrus.StandardLogger()).WithField("component", "ollama"))
}

// Next returns the next delta. It returns io.EOF once the body ends.
// Any other error is terminal and repeats on later calls.
func (s *DeltaStream) Next() (string, error) {
	for s.err == nil {
		raw, readErr := s.reader.ReadBytes('\n')
		if line := bytes.TrimSpace(raw); len(line) > 0 {
			if delta, ok := s.handle(line); ok {
				return delta, nil
			}
		}
		if readErr != nil && s.err == nil {
			if errors.Is(readErr, io.EOF) {
				s.err = io.EOF
			} else {
				s.err = transportError(readErr)
			}
		}
	}
	return "", s.err
}

// handle applies one decoded line. It reports whether a delta was produced.
func (s *DeltaStream) handle(raw []byte) (string, bool) {
	switch line := DecodeLine(raw).(type) {
	case DeltaLine:
		s.record(line.Stats)
		s.deltas++
		if s.firstToken.IsZero() && line.Text != "" {
			s.firstToken = time.Now()
		}
		return line.Text, true
	case ControlLine:
		s.record(line.Stats)
		return "", false
	case ErrorLine:
		s.err = &ClientError{Type: ErrTypeStream, Message: "stream failed: " + line.Message, Detail: line.Message}
		return "", false
	case MalformedLine:
		s.malformed++
		s.log.WithFields(logrus.Fields{
			"line":  truncate(line.Raw, 200),
			"error": line.Err,
		}).Warn("dropping malformed stream line")
		return "", false
	default:
		panic(fmt.Sprintf("ollama: unhandled line type %T", line))
	}
}

func (s *DeltaStream) record(stats *StreamStats) {
	if stats != nil {
		s.stats = *stats
	}
}

// All adapts the stream to a range-over-func sequence. Iteration stops after
// the first error is yielded; a clean end of body yields nothing further.
func (s *DeltaStream) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			delta, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(delta, nil) {
				return
			}
		}
	}
}

// Close releases the response body.
func (s *DeltaStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

// Stats returns statistics for the stream so far. Server-side timings are
// only populated once the final "done" line has been read.
func (s *DeltaStream) Stats() StreamStats {
	stats := s.stats
	stats.Deltas = s.deltas
	stats.Malformed = s.malformed
	if !s.firstToken.IsZero() {
		stats.TTFT = s.firstToken.Sub(s.started)
	}
	return stats
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// StreamStats holds statistics collected during streaming.
type StreamStats struct {
	Model      string
	DoneReason string

	// Durations (from Ollama response)
	TotalDuration      time.Duration
	LoadDuration       time.Duration
	PromptEvalDuration time.Duration
	EvalDuration       time.Duration

	// Token counts
	PromptTokens     int
	CompletionTokens int

	// Computed client-side
	TTFT            time.Duration
	TokensPerSecond float64
	Deltas          int
	Malformed       int
}

// Format returns a one-line summary, e.g. "2.5s | 128 tokens | 51.2 tok/s | TTFT 234ms".
func (s StreamStats) Format() string {
	total := s.TotalDuration
	var totalStr string
	if total < time.Second {
		totalStr = fmt.Sprintf("%dms", total.Milliseconds())
	} else {
		totalStr = fmt.Sprintf("%.1fs", total.Seconds())
	}
	return fmt.Sprintf("%s | %d tokens | %.1f tok/s | TTFT %dms",
		totalStr, s.CompletionTokens, s.TokensPerSecond, s.TTFT.Milliseconds())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
