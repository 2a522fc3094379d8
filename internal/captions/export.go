package captions

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
	"github.com/oukeidos/capt/internal/files"
)

// Subtitle export formats.
const (
	FormatSRT = "srt"
	FormatVTT = "vtt"
)

// DefaultCueDuration is how long an exported caption cue stays on screen.
const DefaultCueDuration = 5 * time.Second

// ExportSubtitle writes the caption as a single-cue subtitle file next to
// the media file and returns the path written. Empty captions are skipped.
func ExportSubtitle(mediaPath, caption, format string) (string, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return "", fmt.Errorf("caption is empty")
	}

	subs := astisub.NewSubtitles()
	item := &astisub.Item{
		StartAt: 0,
		EndAt:   DefaultCueDuration,
	}
	for _, line := range strings.Split(caption, "\n") {
		item.Lines = append(item.Lines, astisub.Line{
			Items: []astisub.LineItem{{Text: line}},
		})
	}
	subs.Items = append(subs.Items, item)

	var buf bytes.Buffer
	switch format {
	case FormatSRT:
		if err := subs.WriteToSRT(&buf); err != nil {
			return "", fmt.Errorf("failed to encode srt: %w", err)
		}
	case FormatVTT:
		if err := subs.WriteToWebVTT(&buf); err != nil {
			return "", fmt.Errorf("failed to encode vtt: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported subtitle format: %s (use srt or vtt)", format)
	}

	ext := filepath.Ext(mediaPath)
	outPath := strings.TrimSuffix(mediaPath, ext) + "." + format
	if err := files.AtomicWrite(outPath, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}
