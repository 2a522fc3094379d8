package main

import (
	"fmt"
	"path/filepath"

	"github.com/oukeidos/capt/internal/captions"
	"github.com/oukeidos/capt/internal/library"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <folder>",
		Short: "List media files and their caption status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("media folder is required")
			}
			return runList(cmd, args[0])
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func runList(cmd *cobra.Command, dir string) error {
	items, err := library.Scan(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No media files found.")
		return nil
	}

	captioned := 0
	fmt.Fprintf(out, "Media in %s:\n", dir)
	for _, item := range items {
		status := " "
		if captions.Exists(item.Path) {
			status = "*"
			captioned++
		}
		rel, err := filepath.Rel(dir, item.Path)
		if err != nil {
			rel = item.Path
		}
		fmt.Fprintf(out, "  %s [%-5s] %s\n", status, item.Kind, rel)
	}
	fmt.Fprintf(out, "\n%d media files, %d captioned (* = has caption)\n", len(items), captioned)
	return nil
}
