package captions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportSubtitle(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "clip.mp4")

	t.Run("SRT", func(t *testing.T) {
		out, err := ExportSubtitle(media, "two people talking\nin a kitchen", FormatSRT)
		if err != nil {
			t.Fatalf("ExportSubtitle: %v", err)
		}
		if out != filepath.Join(dir, "clip.srt") {
			t.Fatalf("output path = %q", out)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		text := string(data)
		if !strings.Contains(text, "two people talking") || !strings.Contains(text, "in a kitchen") {
			t.Fatalf("srt missing caption lines: %q", text)
		}
		if !strings.Contains(text, "-->") {
			t.Fatalf("srt missing timing line: %q", text)
		}
	})

	t.Run("VTT", func(t *testing.T) {
		out, err := ExportSubtitle(media, "two people talking", FormatVTT)
		if err != nil {
			t.Fatalf("ExportSubtitle: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !strings.HasPrefix(string(data), "WEBVTT") {
			t.Fatalf("vtt missing header: %q", string(data))
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := ExportSubtitle(media, "text", "ass"); err == nil {
			t.Fatal("expected error for unsupported format")
		}
	})

	t.Run("EmptyCaption", func(t *testing.T) {
		if _, err := ExportSubtitle(media, "  ", FormatSRT); err == nil {
			t.Fatal("expected error for empty caption")
		}
	})
}
