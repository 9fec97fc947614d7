// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/util"
)

func newExtractCommand(flags *globalFlags) *cobra.Command {
	var image, pdf string
	cmd := &cobra.Command{
		Use:   "extract (--image PATH | --pdf PATH)",
		Short: "Print the text that would be attached for a file",
		Long: `Run the same extraction the chat uses and print the result.

Images are read with tesseract. PDFs use their text layer, and pages without
one are rasterized with pdftoppm and read with tesseract.

Examples:
  ocrchat extract --image receipt.png
  ocrchat extract --pdf scan.pdf > scan.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind attachment.Kind
			var path string
			switch {
			case image != "" && pdf != "":
				return NewUsageError("extract", "give either --image or --pdf, not both")
			case image != "":
				kind, path = attachment.KindImage, image
			case pdf != "":
				kind, path = attachment.KindPDF, pdf
			default:
				return NewUsageError("extract", "--image or --pdf is required")
			}

			app, err := newApp(flags, stderrIfVerbose(flags))
			if err != nil {
				return err
			}
			defer app.Close()

			att, err := app.Extractor.Extract(cmd.Context(), kind, util.ExpandHome(path))
			if err != nil {
				return withMessage(chat.UserMessage(err), err)
			}
			if !att.HasText() {
				return errors.New("no text could be extracted from the " + kind.Label())
			}
			fmt.Fprintln(cmd.OutOrStdout(), att.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&image, "image", "i", "", "image file")
	cmd.Flags().StringVarP(&pdf, "pdf", "p", "", "PDF file")
	return cmd
}
