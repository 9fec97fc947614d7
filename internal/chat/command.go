// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/transcript"
	"github.com/jeranaias/ocrchat/internal/util"
)

// ErrUnknownCommand is returned for a slash command nobody handles.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a parsed slash command, e.g. "/save 2 main.go".
type Command struct {
	Name string
	Args []string
}

// CommandHelp lists the slash commands shared by the front ends.
var CommandHelp = []struct{ Usage, Description string }{
	{"/image PATH", "attach an image (text is read with OCR)"},
	{"/pdf PATH", "attach a PDF"},
	{"/clear [image|pdf]", "remove pending attachments"},
	{"/copy N", "copy code block N of the last reply"},
	{"/save N [PATH]", "save code block N of the last reply"},
	{"/export PATH", "write the conversation to .html, .md or .json"},
	{"/help", "show this help"},
	{"/quit", "exit"},
}

// ParseCommand splits a line starting with "/" into a command. Lines that
// are not commands report false.
func ParseCommand(line string) (Command, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) == 1 {
		return Command{}, false
	}
	name, rest, _ := strings.Cut(trimmed[1:], " ")
	cmd := Command{Name: strings.ToLower(name)}

	switch cmd.Name {
	case "image", "img", "pdf", "export":
		// Paths may contain spaces.
		if rest = strings.TrimSpace(rest); rest != "" {
			cmd.Args = []string{rest}
		}
	case "save":
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			cmd.Args = append(cmd.Args, fields[0])
			if path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), fields[0])); path != "" {
				cmd.Args = append(cmd.Args, path)
			}
		}
	default:
		if fields := strings.Fields(rest); len(fields) > 0 {
			cmd.Args = fields
		}
	}
	return cmd, true
}

// Intent turns a line of input into an intent: plain text is sent, slash
// commands are resolved against the session. Front ends handle "help" and
// "quit" themselves before calling this.
func (s *Session) Intent(line string) (Intent, error) {
	cmd, ok := ParseCommand(line)
	if !ok {
		return SendIntent{Input: line}, nil
	}

	switch cmd.Name {
	case "image", "img":
		return attachIntent(attachment.KindImage, cmd)
	case "pdf":
		return attachIntent(attachment.KindPDF, cmd)

	case "clear":
		if len(cmd.Args) == 0 || cmd.Args[0] == "all" {
			return ClearIntent{}, nil
		}
		kind, ok := attachment.ParseKind(strings.ToLower(cmd.Args[0]))
		if !ok {
			return nil, errors.New("usage: /clear [image|pdf]")
		}
		return ClearIntent{Kind: kind}, nil

	case "copy", "save":
		if len(cmd.Args) == 0 {
			return nil, fmt.Errorf("usage: /%s N", cmd.Name)
		}
		index, err := strconv.Atoi(cmd.Args[0])
		if err != nil || index < 1 {
			return nil, fmt.Errorf("invalid code block number %q", cmd.Args[0])
		}
		entry, ok := s.lastReply()
		if !ok {
			return nil, ErrNoSuchBlock
		}
		if cmd.Name == "copy" {
			return CopyIntent{EntryID: entry.ID, Index: index}, nil
		}
		si := SaveIntent{EntryID: entry.ID, Index: index}
		if len(cmd.Args) > 1 {
			si.Path = util.ExpandHome(cmd.Args[1])
		}
		return si, nil

	case "export":
		if len(cmd.Args) == 0 {
			return nil, errors.New("usage: /export PATH")
		}
		return ExportIntent{Path: util.ExpandHome(cmd.Args[0])}, nil
	}
	return nil, fmt.Errorf("%w: /%s", ErrUnknownCommand, cmd.Name)
}

func attachIntent(kind attachment.Kind, cmd Command) (Intent, error) {
	if len(cmd.Args) == 0 {
		return nil, fmt.Errorf("usage: /%s PATH", cmd.Name)
	}
	return AttachIntent{Kind: kind, Path: util.ExpandHome(cmd.Args[0])}, nil
}

// lastReply returns the most recent finished assistant entry.
func (s *Session) lastReply() (transcript.Entry, bool) {
	e, ok := s.Transcript.Last(transcript.RoleAssistant)
	if !ok || e.State != transcript.StateFinal {
		return transcript.Entry{}, false
	}
	return e, true
}
