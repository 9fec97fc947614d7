// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract turns attached files into plain text.
//
// Images go through an OCR engine. PDFs use their embedded text layer page
// by page; pages without one are rasterized and OCR'd. The OCR engine and the
// rasterizer are external programs behind the Recognizer and Rasterizer
// interfaces:
//
//	svc := extract.NewService(extract.Options{OCRLanguage: "eng"}, log)
//	att, err := svc.Extract(ctx, attachment.KindPDF, "/tmp/report.pdf")
//	if err != nil {
//	    var exErr *extract.Error
//	    if errors.As(err, &exErr) {
//	        fmt.Println(exErr.UserMessage())
//	    }
//	}
package extract
