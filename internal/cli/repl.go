// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/config"
	"github.com/jeranaias/ocrchat/internal/transcript"
)

func newReplCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Line-based chat without the full-screen UI",
		Long: `Start a line-based chat session with history and line editing.

Interactive Commands:
  /image PATH, /pdf PATH   attach a file
  /clear [image|pdf]       drop pending attachments
  /copy N, /save N [PATH]  act on code block N of the last reply
  /export PATH             write the conversation to a file
  /help, /quit
  Ctrl+C                   cancel the current reply
  Ctrl+D                   exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTTY("run the repl"); err != nil {
				return err
			}
			app, err := newApp(flags, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			return runRepl(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

// =============================================================================
// LINE EDITING
// =============================================================================

// lineReader provides input history and line editing.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &lineReader{line: line, historyFile: filepath.Join(dir, "repl_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *lineReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *lineReader) Close() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, h := range chat.CommandHelp {
		name, _, _ := strings.Cut(h.Usage, " ")
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	return out
}

// =============================================================================
// REPL LOOP
// =============================================================================

func runRepl(ctx context.Context, app *App, out io.Writer) error {
	sess := app.NewSession()
	disp := app.NewDispatcher(sess, nil)
	in := newLineReader()
	defer in.Close()

	fmt.Fprintln(out, TitleStyle.Render("ocrchat")+DimStyle.Render(" model "+app.Client.Model()+" · /help for commands"))

	for {
		line, err := in.Prompt(promptFor(sess))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or a closed stdin.
			fmt.Fprintln(out)
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if cmd, ok := chat.ParseCommand(line); ok {
			switch cmd.Name {
			case "quit", "exit", "q":
				return nil
			case "help", "h":
				printHelp(out)
				continue
			}
		}

		intent, err := sess.Intent(line)
		if err != nil {
			fmt.Fprintln(out, ErrorStyle.Render("[Error]")+" "+chat.UserMessage(err))
			continue
		}
		res := disp.Dispatch(ctx, intent)

		if res.ConfirmPath != "" {
			answer, _ := in.Prompt(fmt.Sprintf("%s exists. Overwrite? [y/N] ", res.ConfirmPath))
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				continue
			}
			si := intent.(chat.SaveIntent)
			si.Path, si.Overwrite = res.ConfirmPath, true
			res = disp.Dispatch(ctx, si)
		}

		if res.Turn != nil {
			streamTurn(ctx, res.Turn, out)
			continue
		}
		printResult(out, disp, res)
	}
}

func promptFor(sess *chat.Session) string {
	p := "ocrchat"
	if tag := sess.Pending.Snapshot(); !tag.Empty() {
		var parts []string
		if tag.ImageText() != "" {
			parts = append(parts, "📎")
		}
		if tag.PDFText() != "" {
			parts = append(parts, "📄")
		}
		p += " " + strings.Join(parts, "")
	}
	return p + "> "
}

// streamTurn prints a reply as it arrives. Ctrl+C cancels the reply
// without leaving the repl.
func streamTurn(ctx context.Context, turn *chat.Turn, out io.Writer) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := turn.Run(turnCtx, func(delta string) { io.WriteString(out, delta) })
	fmt.Fprintln(out)
	if err != nil {
		fmt.Fprintln(out, ErrorStyle.Render(chat.UserMessage(err)))
		return
	}
	printBlocks(out, turn)
}

// printBlocks lists the code blocks of a finished reply.
func printBlocks(out io.Writer, turn *chat.Turn) {
	entry, ok := turn.Entry()
	if !ok || entry.State != transcript.StateFinal || len(entry.Blocks) == 0 {
		return
	}
	var parts []string
	for _, b := range entry.Blocks {
		parts = append(parts, fmt.Sprintf("[%d] %s", b.Index, b.Language))
	}
	fmt.Fprintln(out, DimStyle.Render(strings.Join(parts, "  ")+" · /copy N, /save N"))
}

func printResult(out io.Writer, disp *chat.Dispatcher, res chat.Result) {
	if res.Feedback != nil {
		label := disp.Feedback.Label(*res.Feedback)
		style := SuccessStyle
		if res.Err != nil {
			style = ErrorStyle
			label += " " + chat.UserMessage(res.Err)
		}
		fmt.Fprintln(out, style.Render(label))
	}
	switch {
	case res.Attachment != nil && res.Notice == "":
		fmt.Fprintln(out, SuccessStyle.Render(fmt.Sprintf("%s %s attached", res.Attachment.Kind.Glyph(), res.Attachment.Name)))
	case res.Notice != "" && res.Err != nil && !errors.Is(res.Err, chat.ErrNothingToSend):
		fmt.Fprintln(out, ErrorStyle.Render(res.Notice))
	case res.Notice != "":
		fmt.Fprintln(out, DimStyle.Render(res.Notice))
	}
}

func printHelp(out io.Writer) {
	for _, h := range chat.CommandHelp {
		fmt.Fprintln(out, Field(h.Usage, h.Description))
	}
}
