// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want func(t *testing.T, l Line)
	}{
		{
			name: "delta",
			raw:  `{"model":"m","response":"abc","done":false}`,
			want: func(t *testing.T, l Line) {
				d, ok := l.(DeltaLine)
				if !ok || d.Text != "abc" || d.Done || d.Stats != nil {
					t.Errorf("got %#v, want DeltaLine{Text:abc}", l)
				}
			},
		},
		{
			name: "empty response is still a delta",
			raw:  `{"response":""}`,
			want: func(t *testing.T, l Line) {
				if d, ok := l.(DeltaLine); !ok || d.Text != "" {
					t.Errorf("got %#v, want empty DeltaLine", l)
				}
			},
		},
		{
			name: "control",
			raw:  `{"model":"m","created_at":"2024-01-01T00:00:00Z"}`,
			want: func(t *testing.T, l Line) {
				if _, ok := l.(ControlLine); !ok {
					t.Errorf("got %#v, want ControlLine", l)
				}
			},
		},
		{
			name: "done with stats",
			raw:  `{"response":"","done":true,"done_reason":"stop","eval_count":4,"eval_duration":2000000000,"prompt_eval_count":7}`,
			want: func(t *testing.T, l Line) {
				d, ok := l.(DeltaLine)
				if !ok || !d.Done || d.Stats == nil {
					t.Fatalf("got %#v, want final DeltaLine with stats", l)
				}
				if d.Stats.CompletionTokens != 4 || d.Stats.PromptTokens != 7 || d.Stats.DoneReason != "stop" {
					t.Errorf("stats = %#v", d.Stats)
				}
				if d.Stats.EvalDuration != 2*time.Second || d.Stats.TokensPerSecond != 2 {
					t.Errorf("eval = %v / %f", d.Stats.EvalDuration, d.Stats.TokensPerSecond)
				}
			},
		},
		{
			name: "error",
			raw:  `{"error":"out of memory"}`,
			want: func(t *testing.T, l Line) {
				if e, ok := l.(ErrorLine); !ok || e.Message != "out of memory" {
					t.Errorf("got %#v, want ErrorLine", l)
				}
			},
		},
		{
			name: "malformed",
			raw:  `{"response":`,
			want: func(t *testing.T, l Line) {
				m, ok := l.(MalformedLine)
				if !ok || m.Err == nil || m.Raw != `{"response":` {
					t.Errorf("got %#v, want MalformedLine", l)
				}
			},
		},
		{
			name: "not an object",
			raw:  `"just a string"`,
			want: func(t *testing.T, l Line) {
				if _, ok := l.(MalformedLine); !ok {
					t.Errorf("got %#v, want MalformedLine", l)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.want(t, DecodeLine([]byte(tc.raw)))
		})
	}
}

func TestDeltaStream_TrailingLineWithoutNewline(t *testing.T) {
	body := io.NopCloser(strings.NewReader(`{"response":"a"}` + "\n" + `{"response":"b"}`))
	s := NewDeltaStream(body)

	var got []string
	for {
		d, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, d)
	}
	if strings.Join(got, "") != "ab" {
		t.Errorf("deltas = %q, want a, b", got)
	}

	// EOF is sticky.
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestDeltaStream_ReadFailure(t *testing.T) {
	body := io.NopCloser(io.MultiReader(strings.NewReader(`{"response":"a"}`+"\n"), errReader{io.ErrUnexpectedEOF}))
	s := NewDeltaStream(body)

	d, err := s.Next()
	if err != nil || d != "a" {
		t.Fatalf("Next() = %q, %v; want a, nil", d, err)
	}
	_, err = s.Next()
	if !IsNotRunning(err) {
		t.Errorf("Next() error = %v, want connectivity error", err)
	}
}

func TestDeltaStream_CloseIdempotent(t *testing.T) {
	s := NewDeltaStream(io.NopCloser(strings.NewReader("")))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestStreamStats_Format(t *testing.T) {
	s := StreamStats{
		TotalDuration:    2500 * time.Millisecond,
		CompletionTokens: 128,
		TokensPerSecond:  51.2,
		TTFT:             234 * time.Millisecond,
	}
	want := "2.5s | 128 tokens | 51.2 tok/s | TTFT 234ms"
	if got := s.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	s.TotalDuration = 800 * time.Millisecond
	if got := s.Format(); !strings.HasPrefix(got, "800ms") {
		t.Errorf("Format() = %q, want ms prefix", got)
	}
}
