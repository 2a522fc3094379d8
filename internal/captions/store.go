package captions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oukeidos/capt/internal/files"
	"github.com/rivo/uniseg"
)

// SidecarPath returns the caption sidecar path for a media file:
// photo.jpg -> photo.txt.
func SidecarPath(mediaPath string) string {
	ext := filepath.Ext(mediaPath)
	return strings.TrimSuffix(mediaPath, ext) + ".txt"
}

// Load reads the caption for a media file. A missing sidecar is an empty
// caption, not an error.
func Load(mediaPath string) (string, error) {
	data, err := os.ReadFile(SidecarPath(mediaPath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read caption: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// Save writes the caption sidecar atomically. Saving an empty caption
// removes the sidecar so the folder stays clean.
func Save(mediaPath, caption string) error {
	path := SidecarPath(mediaPath)
	if strings.TrimSpace(caption) == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove empty caption: %w", err)
		}
		return nil
	}
	data := []byte(strings.TrimRight(caption, "\n") + "\n")
	return files.AtomicWrite(path, data, 0o644)
}

// Exists reports whether a non-empty caption sidecar is present.
func Exists(mediaPath string) bool {
	info, err := os.Stat(SidecarPath(mediaPath))
	return err == nil && info.Size() > 0
}

// Length counts user-perceived characters (grapheme clusters), so emoji
// and combining marks count as one.
func Length(caption string) int {
	return uniseg.GraphemeClusterCount(caption)
}
