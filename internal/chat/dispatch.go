// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/clipboard"
	"github.com/jeranaias/ocrchat/internal/export"
	"github.com/jeranaias/ocrchat/internal/savefile"
)

// =============================================================================
// INTENTS
// =============================================================================

// IntentKind names an intent for the dispatch table.
type IntentKind int

const (
	IntentSend IntentKind = iota + 1
	IntentAttach
	IntentClear
	IntentCopy
	IntentSave
	IntentExport
)

// Intent is a user request coming from a front end.
type Intent interface {
	intentKind() IntentKind
}

// SendIntent sends the typed input with the pending attachments.
type SendIntent struct{ Input string }

// AttachIntent extracts a file and stores it as the pending attachment of its kind.
type AttachIntent struct {
	Kind attachment.Kind
	Path string
}

// ClearIntent removes a pending attachment. Kind 0 clears all.
type ClearIntent struct{ Kind attachment.Kind }

// CopyIntent copies a code block to the clipboard.
type CopyIntent struct {
	EntryID int64
	Index   int
}

// SaveIntent saves a code block. An empty Path uses the suggested file name
// in the save directory.
type SaveIntent struct {
	EntryID   int64
	Index     int
	Path      string
	Overwrite bool
}

// ExportIntent writes the transcript to Path (.html or .md).
type ExportIntent struct{ Path string }

func (SendIntent) intentKind() IntentKind   { return IntentSend }
func (AttachIntent) intentKind() IntentKind { return IntentAttach }
func (ClearIntent) intentKind() IntentKind  { return IntentClear }
func (CopyIntent) intentKind() IntentKind   { return IntentCopy }
func (SaveIntent) intentKind() IntentKind   { return IntentSave }
func (ExportIntent) intentKind() IntentKind { return IntentExport }

// =============================================================================
// RESULT
// =============================================================================

// Result is what a handler asks the front end to show.
type Result struct {
	// Notice is a blocking message for the user, if any.
	Notice string
	// Feedback identifies the action button whose label changed.
	Feedback *FeedbackKey
	// Turn is set by a successful send; the caller drives the stream.
	Turn *Turn
	// Attachment is set by a successful attach.
	Attachment *attachment.Attachment
	// ConfirmPath is set when a save needs overwrite confirmation.
	ConfirmPath string
	// Err is the underlying failure, if any.
	Err error
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Extractor produces attachments from files.
type Extractor interface {
	Extract(ctx context.Context, kind attachment.Kind, path string) (*attachment.Attachment, error)
}

// Handler processes one intent.
type Handler func(ctx context.Context, in Intent) Result

// Dispatcher routes intents to handlers through a table keyed by kind.
type Dispatcher struct {
	Session   *Session
	Extractor Extractor
	Clipboard clipboard.Writer
	Feedback  *Feedback
	// SaveDir is where code blocks are saved when no path is given.
	SaveDir string

	handlers map[IntentKind]Handler
	log      *logrus.Entry
}

// NewDispatcher builds the dispatch table.
func NewDispatcher(sess *Session, ex Extractor, cb clipboard.Writer, fb *Feedback, saveDir string) *Dispatcher {
	if fb == nil {
		fb = NewFeedback(0, nil)
	}
	d := &Dispatcher{
		Session:   sess,
		Extractor: ex,
		Clipboard: cb,
		Feedback:  fb,
		SaveDir:   saveDir,
		log:       sess.log.WithField("component", "dispatch"),
	}
	d.handlers = map[IntentKind]Handler{
		IntentSend:   d.send,
		IntentAttach: d.attach,
		IntentClear:  d.clear,
		IntentCopy:   d.copyBlock,
		IntentSave:   d.saveBlock,
		IntentExport: d.export,
	}
	return d
}

// Handle replaces the handler for kind.
func (d *Dispatcher) Handle(kind IntentKind, h Handler) {
	d.handlers[kind] = h
}

// Dispatch runs the handler registered for the intent's kind.
func (d *Dispatcher) Dispatch(ctx context.Context, in Intent) Result {
	h, ok := d.handlers[in.intentKind()]
	if !ok {
		err := fmt.Errorf("no handler for intent %T", in)
		return Result{Notice: UserMessage(err), Err: err}
	}
	return h(ctx, in)
}

// =============================================================================
// HANDLERS
// =============================================================================

func (d *Dispatcher) send(_ context.Context, in Intent) Result {
	turn, err := d.Session.Prepare(in.(SendIntent).Input)
	switch {
	case errors.Is(err, ErrNothingToSend):
		// Silent no-op.
		return Result{Err: err}
	case err != nil:
		return Result{Notice: UserMessage(err), Err: err}
	}
	return Result{Turn: turn}
}

func (d *Dispatcher) attach(ctx context.Context, in Intent) Result {
	ai := in.(AttachIntent)
	if d.Extractor == nil {
		err := errors.New("attachments are not available")
		return Result{Notice: UserMessage(err), Err: err}
	}

	release, err := d.Session.BeginExtraction()
	if err != nil {
		return Result{Notice: UserMessage(err), Err: err}
	}
	defer release()

	att, err := d.Extractor.Extract(ctx, ai.Kind, ai.Path)
	if err != nil {
		if Classify(err) == ClassExtraction {
			// A failed extraction leaves no attachment of that kind behind.
			d.Session.Pending.Clear(ai.Kind)
		}
		return Result{Notice: UserMessage(err), Err: err}
	}
	// The new file replaces the old one even when it has no text.
	d.Session.Pending.Set(att)
	if !att.HasText() {
		return Result{
			Notice:     fmt.Sprintf("No text could be extracted from the %s. Please try another file.", ai.Kind.Label()),
			Attachment: att,
		}
	}

	d.log.WithFields(logrus.Fields{"kind": att.Kind.String(), "file": att.Name}).Info("attachment ready")
	return Result{Attachment: att}
}

func (d *Dispatcher) clear(_ context.Context, in Intent) Result {
	ci := in.(ClearIntent)
	if ci.Kind == 0 {
		d.Session.Pending.ClearAll()
		return Result{}
	}
	d.Session.Pending.Clear(ci.Kind)
	return Result{}
}

func (d *Dispatcher) copyBlock(_ context.Context, in Intent) Result {
	ci := in.(CopyIntent)
	key := FeedbackKey{EntryID: ci.EntryID, Index: ci.Index, Action: ActionCopy}

	code, err := d.lookup(ci.EntryID, ci.Index)
	if err == nil {
		if d.Clipboard == nil {
			err = clipboard.ErrUnsupported
		} else {
			err = d.Clipboard.WriteText(code)
		}
	}
	if err != nil {
		d.Feedback.Error(key)
		d.log.WithError(err).Warn("copy failed")
		return Result{Feedback: &key, Err: err}
	}
	d.Feedback.Success(key)
	return Result{Feedback: &key}
}

func (d *Dispatcher) saveBlock(_ context.Context, in Intent) Result {
	si := in.(SaveIntent)
	key := FeedbackKey{EntryID: si.EntryID, Index: si.Index, Action: ActionSave}

	e, ok := d.Session.Transcript.Get(si.EntryID)
	if !ok {
		d.Feedback.Error(key)
		return Result{Feedback: &key, Err: ErrNoSuchBlock}
	}
	block, ok := e.Block(si.Index)
	if !ok {
		d.Feedback.Error(key)
		return Result{Feedback: &key, Err: ErrNoSuchBlock}
	}

	path := si.Path
	if path == "" {
		path = filepath.Join(d.SaveDir, block.Filename())
	}

	err := savefile.SaveString(path, block.Code, savefile.Options{Overwrite: si.Overwrite})
	if errors.Is(err, savefile.ErrExists) {
		// Not a failure yet: the front end asks before replacing.
		return Result{ConfirmPath: path, Err: err}
	}
	if err != nil {
		d.Feedback.Error(key)
		d.log.WithError(err).WithField("path", path).Warn("save failed")
		return Result{Feedback: &key, Err: err}
	}

	d.Feedback.Success(key)
	d.log.WithField("path", path).Info("code block saved")
	return Result{Feedback: &key, Notice: "Saved " + path}
}

func (d *Dispatcher) export(_ context.Context, in Intent) Result {
	path := in.(ExportIntent).Path
	err := export.ToFile(d.Session.Transcript.Entries(), path, export.Options{CSS: d.Session.Renderer().CSS()})
	if err != nil {
		return Result{Notice: UserMessage(err), Err: err}
	}
	return Result{Notice: "Exported conversation to " + path}
}

func (d *Dispatcher) lookup(entryID int64, index int) (string, error) {
	e, ok := d.Session.Transcript.Get(entryID)
	if !ok {
		return "", ErrNoSuchBlock
	}
	b, ok := e.Block(index)
	if !ok {
		return "", ErrNoSuchBlock
	}
	return b.Code, nil
}
