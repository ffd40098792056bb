// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

var (
	headerColor = color.New(color.Bold, color.FgCyan)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed, color.Bold)
	dimColor    = color.New(color.Faint)
)

func printError(err error) {
	errColor.Fprint(os.Stderr, "error: ")
	fmt.Fprintln(os.Stderr, err)
}

func printWarning(format string, args ...any) {
	warnColor.Fprint(os.Stderr, "warning: ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func printSkipped(skipped []types.SkippedEntry) {
	for _, s := range skipped {
		id := s.ID
		if id == "" {
			id = "(no id)"
		}
		printWarning("skipped %s: %s", id, s.Reason)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
