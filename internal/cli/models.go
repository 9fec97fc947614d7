// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/ollama"
	"github.com/jeranaias/ocrchat/internal/util"
)

func newModelsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models installed in Ollama",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags, stderrIfVerbose(flags))
			if err != nil {
				return err
			}
			defer app.Close()

			models, err := app.Client.ListModels(cmd.Context())
			if err != nil {
				return withMessage(chat.UserMessage(err), err)
			}
			printModels(cmd.OutOrStdout(), models, app.Client.Model())
			return nil
		},
	}
}

// printModels writes an aligned table, marking the configured model.
func printModels(out io.Writer, models []ollama.ModelInfo, current string) {
	if len(models) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No models installed. Try: ollama pull "+ollama.DefaultModel))
		return
	}

	width := len("NAME")
	for _, m := range models {
		width = max(width, util.StringWidth(m.Name))
	}

	fmt.Fprintln(out, "  "+util.PadRight("NAME", width)+"  SIZE")
	for _, m := range models {
		mark := "  "
		if m.Name == current {
			mark = "* "
		}
		fmt.Fprintln(out, mark+util.PadRight(m.Name, width)+"  "+m.FormatSize())
	}
}
