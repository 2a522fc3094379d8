package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("img"), 0644)
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a red barn\n"), 0644)
	os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("vid"), 0644)

	out, err := executeCommand(t, "list", dir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "a.jpg") || !strings.Contains(out, "clip.mp4") {
		t.Fatalf("missing media entries: %s", out)
	}
	if !strings.Contains(out, "3 media files, 1 captioned") {
		t.Fatalf("missing summary line: %s", out)
	}
}

func TestListCommand_EmptyFolder(t *testing.T) {
	out, err := executeCommand(t, "list", t.TempDir())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No media files found.") {
		t.Fatalf("expected empty message, got: %s", out)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	os.WriteFile(video, []byte("vid"), 0644)
	os.WriteFile(filepath.Join(dir, "clip.txt"), []byte("A train leaves the station.\n"), 0644)

	out, err := executeCommand(t, "export", video, "--format", "vtt")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "clip.vtt") {
		t.Fatalf("expected exported path in output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.vtt")); err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
}

func TestExportCommand_Folder(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("vid"), 0644)
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("A train leaves the station.\n"), 0644)
	os.WriteFile(filepath.Join(dir, "b.mkv"), []byte("vid"), 0644)
	os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte("img"), 0644)

	out, err := executeCommand(t, "export", dir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "a.srt") {
		t.Fatalf("expected exported path in output: %s", out)
	}
	if !strings.Contains(out, "Exported 1 of 2 videos (1 without captions)") {
		t.Fatalf("missing summary line: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.srt")); err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.srt")); !os.IsNotExist(err) {
		t.Fatalf("uncaptioned video exported: %v", err)
	}
}

func TestExportCommand_FolderWithoutVideos(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte("img"), 0644)

	_, err := executeCommand(t, "export", dir)
	if err == nil || !strings.Contains(err.Error(), "no video files") {
		t.Fatalf("expected no-videos error, got %v", err)
	}
}

func TestExportCommand_RejectsImages(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.jpg")
	os.WriteFile(img, []byte("img"), 0644)

	_, err := executeCommand(t, "export", img)
	if err == nil || !strings.Contains(err.Error(), "video files") {
		t.Fatalf("expected video-only error, got %v", err)
	}
}

func TestExportCommand_MissingCaption(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	os.WriteFile(video, []byte("vid"), 0644)

	_, err := executeCommand(t, "export", video)
	if err == nil || !strings.Contains(err.Error(), "no caption found") {
		t.Fatalf("expected missing caption error, got %v", err)
	}
}
