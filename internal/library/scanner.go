package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oukeidos/capt/internal/logger"
)

// Kind distinguishes still images from video files.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Item is one media file found in a scanned folder.
type Item struct {
	Path    string
	Kind    Kind
	Size    int64
	ModTime time.Time
}

var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".webm": true,
	".avi":  true,
}

// KindForPath reports the media kind of a path by extension.
func KindForPath(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExts[ext]; ok {
		return KindImage, true
	}
	if videoExts[ext] {
		return KindVideo, true
	}
	return "", false
}

// MIMEForPath returns the image MIME type for a path, or "" for non-images.
func MIMEForPath(path string) string {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Scan walks dir recursively and returns all media files sorted by path.
// Hidden directories and files (dot-prefixed) are skipped.
func Scan(dir string) ([]Item, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a folder: %s", dir)
	}

	var items []Item
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		kind, ok := KindForPath(path)
		if !ok {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			logger.Warn("Skipping entry without file info", "path", path, "error", err)
			return nil
		}
		items = append(items, Item{
			Path:    path,
			Kind:    kind,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// Images filters a scan result down to still images.
func Images(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Kind == KindImage {
			out = append(out, it)
		}
	}
	return out
}

// Videos filters a scan result down to video files.
func Videos(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Kind == KindVideo {
			out = append(out, it)
		}
	}
	return out
}
