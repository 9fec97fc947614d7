// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/render"
	"github.com/jeranaias/ocrchat/internal/util"
)

type askOptions struct {
	image string
	pdf   string
	raw   bool
	stats bool
}

func newAskCommand(flags *globalFlags) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and stream the answer",
		Long: `Ask one question, optionally about an image or a PDF, and print the answer.

On a terminal the answer is rendered as markdown once complete; when output
is piped the raw text is streamed as it arrives.

Examples:
  ocrchat ask "What is the capital of France?"
  ocrchat ask "What does this receipt total?" --image receipt.jpg
  ocrchat ask "List the action items" --pdf minutes.pdf
  cat notes.txt | ocrchat ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, flags, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.image, "image", "i", "", "image to attach")
	cmd.Flags().StringVarP(&opts.pdf, "pdf", "p", "", "PDF to attach")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "stream raw text even on a terminal")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print stream statistics to stderr")
	return cmd
}

func runAsk(cmd *cobra.Command, flags *globalFlags, opts *askOptions, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	prompt := strings.Join(args, " ")
	if prompt == "" && !stdinIsTerminal() {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}

	app, err := newApp(flags, stderrIfVerbose(flags))
	if err != nil {
		return err
	}
	defer app.Close()

	sess := app.NewSession()
	disp := app.NewDispatcher(sess, nil)

	for _, a := range []struct {
		kind attachment.Kind
		path string
	}{{attachment.KindImage, opts.image}, {attachment.KindPDF, opts.pdf}} {
		if a.path == "" {
			continue
		}
		res := disp.Dispatch(ctx, chat.AttachIntent{Kind: a.kind, Path: util.ExpandHome(a.path)})
		if res.Notice != "" {
			return withMessage(res.Notice, res.Err)
		}
	}

	rendered := !opts.raw && isWriterTTY(out)
	var onDelta func(string)
	if !rendered {
		onDelta = func(delta string) { io.WriteString(out, delta) }
	}

	turn, err := sess.Send(ctx, prompt, onDelta)
	if errors.Is(err, chat.ErrNothingToSend) {
		return NewUsageError("ask", "nothing to send: give a question, --image or --pdf")
	}
	if err != nil {
		if !rendered {
			fmt.Fprintln(out)
		}
		return withMessage(chat.UserMessage(err), err)
	}

	if rendered {
		tr := render.NewTerminalRenderer(app.Config.UI.Theme, outputWidth())
		fmt.Fprint(out, tr.Render(turn.Text()))
	} else if !strings.HasSuffix(turn.Text(), "\n") {
		fmt.Fprintln(out)
	}

	if opts.stats {
		fmt.Fprintln(errOut, DimStyle.Render(turn.Stats().Format()))
	}
	return nil
}
