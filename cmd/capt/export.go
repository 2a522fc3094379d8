package main

import (
	"fmt"
	"os"

	"github.com/oukeidos/capt/internal/captions"
	"github.com/oukeidos/capt/internal/library"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <video-file-or-folder>",
		Short: "Export video captions as subtitle files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("video file or folder is required")
			}
			return runExport(cmd, args[0], format)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&format, "format", captions.FormatSRT, "Subtitle format (srt or vtt)")
	return cmd
}

func runExport(cmd *cobra.Command, mediaPath, format string) error {
	if info, err := os.Stat(mediaPath); err == nil && info.IsDir() {
		return runExportFolder(cmd, mediaPath, format)
	}

	kind, ok := library.KindForPath(mediaPath)
	if !ok {
		return fmt.Errorf("unsupported media file: %s", mediaPath)
	}
	if kind != library.KindVideo {
		return fmt.Errorf("subtitle export is for video files, got %s: %s", kind, mediaPath)
	}

	caption, err := captions.Load(mediaPath)
	if err != nil {
		return err
	}
	if caption == "" {
		return fmt.Errorf("no caption found for %s; write one first", mediaPath)
	}

	outPath, err := captions.ExportSubtitle(mediaPath, caption, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", outPath)
	return nil
}

// runExportFolder exports a subtitle file for every captioned video in the
// folder. Videos without a caption are skipped.
func runExportFolder(cmd *cobra.Command, dir, format string) error {
	items, err := library.Scan(dir)
	if err != nil {
		return err
	}
	videos := library.Videos(items)
	if len(videos) == 0 {
		return fmt.Errorf("no video files found in %s", dir)
	}

	exported := 0
	skipped := 0
	for _, video := range videos {
		caption, err := captions.Load(video.Path)
		if err != nil {
			return err
		}
		if caption == "" {
			skipped++
			continue
		}
		outPath, err := captions.ExportSubtitle(video.Path, caption, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", outPath)
		exported++
	}
	if exported == 0 {
		return fmt.Errorf("none of the %d videos in %s have captions; write them first", len(videos), dir)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d videos (%d without captions)\n", exported, len(videos), skipped)
	return nil
}
