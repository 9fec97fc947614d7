// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ocrchat/internal/config"
	"github.com/jeranaias/ocrchat/internal/ollama"
	uichat "github.com/jeranaias/ocrchat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree. Output goes to out and errOut so
// tests can capture it.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "ocrchat",
		Short: "Chat with a local Ollama model about your images and PDFs",
		Long: `ocrchat is a terminal chat client for a local Ollama server.

Attach an image or a PDF and its text (read with OCR when needed) is sent
along with your question. Code blocks in replies can be copied or saved.

Examples:
  ocrchat                                   # start the chat UI
  ocrchat ask "summarize this" --pdf report.pdf
  ocrchat extract --image receipt.png       # print the OCR text
  ocrchat models                            # list installed models
  ocrchat config init                       # write ~/.ocrchat/config.toml`,
		Version:           fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildDate),
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTTY("start the chat UI"); err != nil {
				return err
			}
			app, err := newApp(flags, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			return runTUI(cmd.Context(), app, flags)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.ocrchat/config.toml)")
	pf.StringVarP(&flags.model, "model", "m", "", "Ollama model to use")
	pf.StringVar(&flags.url, "url", "", "Ollama server URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newAskCommand(flags),
		newReplCommand(flags),
		newExtractCommand(flags),
		newModelsCommand(flags),
		newConfigCommand(flags),
	)
	return root
}

func runTUI(ctx context.Context, app *App, flags *globalFlags) error {
	sess := app.NewSession()
	return uichat.Run(ctx, uichat.Deps{
		Session:    sess,
		Dispatcher: app.NewDispatcher(sess, nil),
		Client:     app.Client,
		Theme:      app.Config.UI.Theme,
		ConfigPath: app.ConfigPath,
		OnConfig: func(cfg *config.Config) *ollama.Client {
			// Command line overrides outlive a reload of the file.
			applyFlags(cfg, flags)
			app.Reconfigure(cfg)
			sess.SetGenerator(app.Generator())
			return app.Client
		},
		Log: app.Log.Component("ui"),
	})
}

// Execute runs the CLI and exits with a status derived from the error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		msg := strings.TrimPrefix(err.Error(), "Error: ")
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:")+" "+msg)
		stop()
		os.Exit(ExitCode(err))
	}
}
