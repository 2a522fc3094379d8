package main

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/capt/internal/captions"
	"github.com/oukeidos/capt/internal/library"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/viewer"
)

const (
	thumbCacheEntries = 256
	thumbMaxEdge      = 96
	thumbCellEdge     = float32(72)
)

// buildBrowseView assembles the studio layout: thumbnail list on the left,
// viewer in the center, caption bar at the bottom.
func (a *captApp) buildBrowseView() fyne.CanvasObject {
	a.thumbRowPaths = make(map[*canvas.Image]string)

	a.thumbList = widget.NewList(
		func() int { return len(a.items) },
		func() fyne.CanvasObject {
			img := canvas.NewImageFromResource(theme.FileImageIcon())
			img.FillMode = canvas.ImageFillContain
			name := widget.NewLabel("")
			name.Truncation = fyne.TextTruncateEllipsis
			mark := widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
			return container.NewBorder(nil, nil,
				container.NewGridWrap(fyne.NewSize(thumbCellEdge, thumbCellEdge), img), nil,
				container.NewVBox(name, mark))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			a.updateListEntry(id, obj)
		},
	)
	a.thumbList.OnSelected = func(id widget.ListItemID) {
		a.selectItem(id)
	}

	a.view = newViewerArea(a)

	a.captionEntry = widget.NewMultiLineEntry()
	a.captionEntry.SetPlaceHolder("No caption yet. Type one, or press Generate.")
	a.captionEntry.Wrapping = fyne.TextWrapWord
	a.captionEntry.SetMinRowsVisible(3)
	a.captionEntry.OnChanged = func(s string) {
		a.dirty = true
		a.countLabel.SetText(captionCountText(s))
	}

	a.countLabel = widget.NewLabelWithStyle("", fyne.TextAlignTrailing, fyne.TextStyle{Italic: true})
	a.statusLabel = widget.NewLabel("")
	a.statusLabel.Truncation = fyne.TextTruncateEllipsis

	saveBtn := widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() {
		a.saveCurrentCaption()
	})
	a.generateBtn = widget.NewButtonWithIcon("Generate", theme.MediaPlayIcon(), func() {
		a.startCaptionSelected()
	})
	a.captionFolderBtn = widget.NewButtonWithIcon("Caption Folder", theme.FolderIcon(), func() {
		a.confirmCaptionFolder()
	})

	captionBar := container.NewBorder(
		container.NewBorder(nil, nil, a.statusLabel, a.countLabel),
		nil, nil,
		container.NewVBox(saveBtn, a.generateBtn, a.captionFolderBtn),
		a.captionEntry,
	)

	split := container.NewHSplit(
		a.thumbList,
		container.NewBorder(nil, container.NewPadded(captionBar), nil, nil, a.viewerArea),
	)
	split.SetOffset(0.22)
	return split
}

// newViewerArea wires the viewer widget and its zoom HUD, storing the
// composed area on the app.
func newViewerArea(a *captApp) *viewer.Widget {
	v := viewer.NewWidget()
	a.zoomLabel = widget.NewLabelWithStyle("Fit", fyne.TextAlignTrailing, fyne.TextStyle{Monospace: true})
	resetBtn := newTappableIcon(theme.ZoomFitIcon(), func() {
		v.ResetView()
	}, fyne.NewSize(24, 24))

	v.OnZoomChange(func(zoom float64) {
		a.zoomLabel.SetText(zoomLabelText(zoom))
	})
	v.OnError(func(path string, err error) {
		a.statusLabel.SetText(fmt.Sprintf("Could not display %s", filepath.Base(path)))
	})
	v.OnLoaded(func(path string) {
		a.statusLabel.SetText("")
	})

	hud := container.NewHBox(layout.NewSpacer(), a.zoomLabel, container.NewPadded(resetBtn))
	a.viewerArea = container.NewStack(v, container.NewBorder(hud, nil, nil, nil))
	return v
}

// updateListEntry fills one recycled row. Thumbnails decode off the UI
// thread; a row recycled before the decode lands is left alone.
func (a *captApp) updateListEntry(id widget.ListItemID, obj fyne.CanvasObject) {
	if id < 0 || id >= len(a.items) {
		return
	}
	item := a.items[id]

	row := obj.(*fyne.Container)
	var img *canvas.Image
	var labels *fyne.Container
	for _, o := range row.Objects {
		if c, ok := o.(*fyne.Container); ok {
			if len(c.Objects) == 1 {
				if i, ok := c.Objects[0].(*canvas.Image); ok {
					img = i
					continue
				}
			}
			labels = c
		}
	}
	if img == nil || labels == nil {
		return
	}
	name := labels.Objects[0].(*widget.Label)
	mark := labels.Objects[1].(*widget.Label)

	name.SetText(filepath.Base(item.Path))
	if captions.Exists(item.Path) {
		mark.SetText("captioned")
	} else {
		mark.SetText("")
	}

	a.thumbRowPaths[img] = item.Path
	if item.Kind == library.KindVideo {
		img.Image = nil
		img.Resource = theme.MediaVideoIcon()
		img.Refresh()
		return
	}
	if cached, ok := a.thumbCache.Get(item.Path, item.ModTime); ok {
		img.Resource = nil
		img.Image = cached
		img.Refresh()
		return
	}
	img.Image = nil
	img.Resource = theme.FileImageIcon()
	img.Refresh()

	path := item.Path
	modTime := item.ModTime
	a.safeGo("browse.thumbnail", func() {
		thumb, err := a.thumbCache.Thumbnail(path, modTime)
		if err != nil {
			logger.Warn("Thumbnail decode failed", "path", path, "error", err)
			return
		}
		a.safeDo("browse.thumbnail.set", func() {
			if a.thumbRowPaths[img] != path {
				return
			}
			img.Resource = nil
			img.Image = thumb
			img.Refresh()
		})
	})
}

// openFolder scans a folder and shows its media in the list.
func (a *captApp) openFolder(path string) {
	a.saveCurrentCaption()

	items, err := library.Scan(path)
	if err != nil {
		logger.Error("Folder scan failed", "path", path, "error", err)
		a.flashRed()
		return
	}

	a.folder = path
	a.items = items
	a.selected = -1
	a.config.LastFolder = path
	a.saveConfig()

	a.safeDo("browse.open_folder", func() {
		a.folderLabel.SetText(path)
		a.folderLabel.TextStyle = fyne.TextStyle{}
		a.thumbList.UnselectAll()
		a.thumbList.Refresh()
		a.captionEntry.SetText("")
		a.dirty = false
		a.view.SetMedia("")
		if len(items) == 0 {
			a.statusLabel.SetText("No media files found in this folder.")
		} else {
			a.statusLabel.SetText(fmt.Sprintf("%d media files", len(items)))
		}
	})
	a.setState(StateIdle)

	if len(items) > 0 {
		a.safeDo("browse.select_first", func() {
			a.thumbList.Select(0)
		})
	}
}

// selectPath selects the list entry for an exact media path, if present.
func (a *captApp) selectPath(path string) {
	for i, item := range a.items {
		if item.Path == path {
			a.safeDo("browse.select_path", func() {
				a.thumbList.Select(i)
			})
			return
		}
	}
}

// selectItem switches the viewer and caption bar to one media item, saving
// the previous caption first if it was edited.
func (a *captApp) selectItem(id int) {
	if id < 0 || id >= len(a.items) {
		return
	}
	a.saveCurrentCaption()
	a.selected = id
	item := a.items[id]

	caption, err := captions.Load(item.Path)
	if err != nil {
		logger.Error("Caption load failed", "path", item.Path, "error", err)
		a.statusLabel.SetText(fmt.Sprintf("Could not read caption for %s", filepath.Base(item.Path)))
		caption = ""
	}
	a.captionEntry.SetText(caption)
	a.countLabel.SetText(captionCountText(caption))
	a.dirty = false

	if item.Kind == library.KindImage {
		a.view.SetMedia(item.Path)
		a.generateBtn.Enable()
	} else {
		// Videos have no frame decoder; captions are still editable.
		a.view.SetMedia("")
		a.statusLabel.SetText(fmt.Sprintf("%s is a video; preview is not available", filepath.Base(item.Path)))
		a.generateBtn.Disable()
	}
}

// saveCurrentCaption persists the caption entry for the selected item if it
// was edited. Safe to call with nothing selected.
func (a *captApp) saveCurrentCaption() {
	if !a.dirty || a.selected < 0 || a.selected >= len(a.items) {
		return
	}
	item := a.items[a.selected]
	if !isPathWithinDir(item.Path, a.folder) {
		logger.Error("Refusing to write caption outside the open folder", "path", item.Path, "folder", a.folder)
		return
	}
	if err := captions.Save(item.Path, a.captionEntry.Text); err != nil {
		logger.Error("Caption save failed", "path", item.Path, "error", err)
		a.statusLabel.SetText(fmt.Sprintf("Could not save caption for %s", filepath.Base(item.Path)))
		return
	}
	a.dirty = false
	a.thumbList.Refresh()
}

// setCurrentCaption replaces the entry content with a generated caption and
// persists it.
func (a *captApp) setCurrentCaption(path, caption string) {
	if a.selected < 0 || a.selected >= len(a.items) || a.items[a.selected].Path != path {
		return
	}
	a.captionEntry.SetText(caption)
	a.countLabel.SetText(captionCountText(caption))
	if err := captions.Save(path, caption); err != nil {
		logger.Error("Caption save failed", "path", path, "error", err)
		a.statusLabel.SetText(fmt.Sprintf("Could not save caption for %s", filepath.Base(path)))
		return
	}
	a.dirty = false
	a.thumbList.Refresh()
}

// refreshAfterBatch re-reads caption state after a batch run and reloads the
// selected item's caption.
func (a *captApp) refreshAfterBatch() {
	a.safeDo("browse.refresh_after_batch", func() {
		a.thumbList.Refresh()
		if a.selected >= 0 && a.selected < len(a.items) {
			item := a.items[a.selected]
			caption, err := captions.Load(item.Path)
			if err == nil {
				a.captionEntry.SetText(caption)
				a.countLabel.SetText(captionCountText(caption))
				a.dirty = false
			}
		}
	})
}

func captionCountText(caption string) string {
	n := captions.Length(caption)
	if n == 0 {
		return ""
	}
	if n == 1 {
		return "1 char"
	}
	return fmt.Sprintf("%d chars", n)
}

func zoomLabelText(zoom float64) string {
	if zoom <= 1.0 {
		return "Fit"
	}
	return fmt.Sprintf("%.2fx", zoom)
}
