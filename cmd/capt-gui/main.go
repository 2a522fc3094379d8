package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/capt/internal/auth"
	"github.com/oukeidos/capt/internal/library"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/thumbs"
	"github.com/oukeidos/capt/internal/viewer"
)

// largeTheme bumps the base text size for comfortable caption editing.
type largeTheme struct{ fyne.Theme }

func (m largeTheme) Size(n fyne.ThemeSizeName) float32 {
	if n == theme.SizeNameText {
		return 16
	}
	if n == theme.SizeNameCaptionText {
		return 13
	}
	return theme.DefaultTheme().Size(n)
}

type AppState int

const (
	StateIdle AppState = iota
	StateProcessing
	StateSuccess
	StateFailure
	StatePartialSuccess
	StateCanceled
	StateNoKey
)

type captApp struct {
	window  fyne.Window
	state   AppState
	content *fyne.Container

	// UI Components
	emptyView         fyne.CanvasObject
	browseView        fyne.CanvasObject
	processingOverlay fyne.CanvasObject
	successOverlay    fyne.CanvasObject
	failureOverlay    fyne.CanvasObject
	partialOverlay    fyne.CanvasObject
	canceledOverlay   fyne.CanvasObject
	apiKeyView        fyne.CanvasObject
	errorOverlay      *canvas.Rectangle

	// Browse components (built in browse.go)
	thumbList        *widget.List
	view             *viewer.Widget
	viewerArea       fyne.CanvasObject
	thumbRowPaths    map[*canvas.Image]string
	captionEntry     *widget.Entry
	countLabel       *widget.Label
	statusLabel      *widget.Label
	zoomLabel        *widget.Label
	progressLabel    *widget.Label
	folderLabel      *widget.Label
	generateBtn      *widget.Button
	captionFolderBtn *widget.Button

	// Runtime data
	isAnimating        bool
	sessionKey         string
	folder             string
	items              []library.Item
	selected           int
	thumbCache         *thumbs.Cache
	dirty              bool
	lastInputPath      string
	lastSessionLogPath string
	lastWasResume      bool
	lastOverwrite      bool
	currentConfirmWin  fyne.Window
	currentSettingsWin fyne.Window
	config             AppConfig
	cancelMu           sync.Mutex
	activeCancel       context.CancelFunc
	activeCancelID     uint64
	presetErrOnce      sync.Once
	panicNoticeOnce    sync.Once

	// Settings entries for syncing
	settingsGeminiEntry  *widget.Entry
	settingsOpenaiEntry  *widget.Entry
	settingsGeminiStatus *widget.Label
	settingsOpenaiStatus *widget.Label
}

func newCaptApp(w fyne.Window) *captApp {
	a := &captApp{window: w, selected: -1}
	a.loadConfig()
	a.thumbCache = thumbs.New(thumbCacheEntries, thumbMaxEdge, viewer.DecodeFile)
	a.setupUI()

	if a.config.LastFolder != "" {
		if info, err := os.Stat(a.config.LastFolder); err == nil && info.IsDir() {
			a.openFolder(a.config.LastFolder)
		}
	}
	a.setState(StateIdle)

	return a
}

func (a *captApp) setActiveCancel(cancel context.CancelFunc) uint64 {
	a.cancelMu.Lock()
	if a.activeCancel != nil {
		a.activeCancel()
	}
	a.activeCancel = cancel
	a.activeCancelID++
	id := a.activeCancelID
	a.cancelMu.Unlock()
	return id
}

func (a *captApp) clearActiveCancel(id uint64) {
	a.cancelMu.Lock()
	if a.activeCancelID == id {
		a.activeCancel = nil
	}
	a.cancelMu.Unlock()
}

func (a *captApp) cancelActive(reason string) {
	a.cancelMu.Lock()
	cancel := a.activeCancel
	a.activeCancel = nil
	a.cancelMu.Unlock()
	if cancel != nil {
		logger.Warn("Cancellation requested", "reason", reason)
		cancel()
	}
}

// syncMainKeyState leaves the key overlay once a key is available.
func (a *captApp) syncMainKeyState() {
	if a.state != StateNoKey {
		return
	}
	key, _ := auth.GetKey(a.config.Provider, false)
	if key != "" || a.sessionKey != "" {
		a.setState(StateIdle)
	}
}

func (a *captApp) refreshSettingsEntries() {
	if a.currentSettingsWin == nil {
		return
	}
	gk, _ := auth.GetKey("gemini", false)
	ok, _ := auth.GetKey("openai", false)

	if a.settingsGeminiEntry != nil {
		a.settingsGeminiEntry.SetText("")
		a.settingsGeminiEntry.SetPlaceHolder("Enter new key")
	}
	if a.settingsOpenaiEntry != nil {
		a.settingsOpenaiEntry.SetText("")
		a.settingsOpenaiEntry.SetPlaceHolder("Enter new key")
	}
	if a.settingsGeminiStatus != nil {
		if gk != "" {
			a.settingsGeminiStatus.SetText("Saved in keychain")
		} else {
			a.settingsGeminiStatus.SetText("Not saved")
		}
	}
	if a.settingsOpenaiStatus != nil {
		if ok != "" {
			a.settingsOpenaiStatus.SetText("Saved in keychain")
		} else {
			a.settingsOpenaiStatus.SetText("Not saved")
		}
	}
}

// newOverlay dims the browse view behind a centered panel.
func newOverlay(inner fyne.CanvasObject) fyne.CanvasObject {
	dim := canvas.NewRectangle(color.NRGBA{A: 160})
	return container.NewStack(dim, container.NewCenter(inner))
}

func (a *captApp) setupUI() {
	a.emptyView = container.NewCenter(newDropZone(a.showFolderPicker))
	a.browseView = a.buildBrowseView()

	a.progressLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{})
	a.processingOverlay = newOverlay(container.NewVBox(
		container.NewCenter(newLargeSpinner()),
		a.progressLabel,
		container.NewCenter(widget.NewButton("Cancel", func() {
			a.cancelActive("user pressed cancel")
		})),
	))

	a.successOverlay = newOverlay(newColoredIcon(theme.ConfirmIcon(), theme.ColorNameSuccess, func() {
		a.setState(StateIdle)
	}))
	a.failureOverlay = newOverlay(newColoredIcon(theme.CancelIcon(), theme.ColorNameError, func() {
		a.showConfirmWindow("Retry", "The last run failed. Would you like to retry?", func() {
			if a.lastWasResume {
				go a.startResume(a.lastInputPath)
			} else {
				go a.startCaptionFolder(a.lastInputPath, a.lastOverwrite)
			}
		}, nil)
	}))
	a.partialOverlay = newOverlay(newColoredIcon(theme.WarningIcon(), theme.ColorNameWarning, func() {
		logPath := a.partialSuccessResumeLogPath()
		if logPath == "" {
			a.setState(StateIdle)
			return
		}
		a.showConfirmWindow("Resume Session", "Some files failed. Would you like to retry them now?", func() {
			go a.startResume(logPath)
		}, nil)
	}))
	a.canceledOverlay = newOverlay(newColoredIcon(theme.MediaStopIcon(), theme.ColorNameWarning, func() {
		a.setState(StateIdle)
	}))
	a.apiKeyView = newOverlay(a.createApiKeyView())

	// Toolbar (shared between empty and browse views)
	openBtn := newTappableIcon(theme.FolderOpenIcon(), a.showFolderPicker, fyne.NewSize(24, 24))
	settingsBtn := newTappableIcon(theme.MoreVerticalIcon(), a.showSettingsWindow, fyne.NewSize(24, 24))
	a.folderLabel = widget.NewLabelWithStyle("No folder open", fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
	toolbar := container.NewHBox(
		container.NewPadded(openBtn),
		a.folderLabel,
		layout.NewSpacer(),
		container.NewPadded(settingsBtn),
	)

	a.errorOverlay = canvas.NewRectangle(color.Transparent)
	a.errorOverlay.Hide()

	views := container.NewStack(
		a.emptyView,
		a.browseView,
		a.processingOverlay,
		a.successOverlay,
		a.failureOverlay,
		a.partialOverlay,
		a.canceledOverlay,
		a.apiKeyView,
	)

	a.content = container.NewStack(
		container.NewBorder(toolbar, nil, nil, nil, views),
		a.errorOverlay,
	)

	a.window.SetContent(a.content)
}

func (a *captApp) setState(s AppState) {
	a.safeDo("app.set_state", func() {
		a.state = s
		a.processingOverlay.Hide()
		a.successOverlay.Hide()
		a.failureOverlay.Hide()
		a.partialOverlay.Hide()
		a.canceledOverlay.Hide()
		a.apiKeyView.Hide()

		if a.folder == "" {
			a.browseView.Hide()
			a.emptyView.Show()
		} else {
			a.emptyView.Hide()
			a.browseView.Show()
		}

		switch s {
		case StateIdle:
			// Browse or empty view only.
		case StateProcessing:
			a.processingOverlay.Show()
		case StateNoKey:
			a.apiKeyView.Show()
		case StateSuccess:
			a.successOverlay.Show()
		case StatePartialSuccess:
			a.partialOverlay.Show()
		case StateFailure:
			a.failureOverlay.Show()
		case StateCanceled:
			a.canceledOverlay.Show()
		}

		a.content.Refresh()
	})
}

func (a *captApp) flashRed() {
	if a.isAnimating {
		return
	}
	a.isAnimating = true

	a.safeDo("app.flash_red.start", func() {
		a.errorOverlay.Show()
		a.content.Refresh()
	})

	a.safeGo("app.flash_red.animate", func() {
		steps := 10
		duration := 150 * time.Millisecond
		sleep := duration / time.Duration(steps)

		// Fade in
		for i := 1; i <= steps; i++ {
			alpha := uint8(120 * float32(i) / float32(steps))
			a.safeDo("app.flash_red.fade_in", func() {
				a.errorOverlay.FillColor = color.NRGBA{R: 255, G: 0, B: 0, A: alpha}
				canvas.Refresh(a.errorOverlay)
			})
			time.Sleep(sleep)
		}
		// Fade out
		for i := steps; i >= 0; i-- {
			alpha := uint8(120 * float32(i) / float32(steps))
			a.safeDo("app.flash_red.fade_out", func() {
				a.errorOverlay.FillColor = color.NRGBA{R: 255, G: 0, B: 0, A: alpha}
				canvas.Refresh(a.errorOverlay)
			})
			time.Sleep(sleep)
		}

		a.safeDo("app.flash_red.end", func() {
			a.errorOverlay.FillColor = color.Transparent
			a.errorOverlay.Hide()
			a.isAnimating = false
			a.content.Refresh()
		})
	})
}

// showConfirmWindow asks a YES/NO question in its own small window. A nil
// onNo falls back to the idle state.
func (a *captApp) showConfirmWindow(title, message string, onYes, onNo func()) {
	if a.currentConfirmWin != nil {
		a.currentConfirmWin.RequestFocus()
		return
	}

	confirmWin := fyne.CurrentApp().NewWindow(title)
	a.currentConfirmWin = confirmWin
	confirmWin.SetOnClosed(func() {
		a.currentConfirmWin = nil
	})

	msg := canvas.NewText(message, color.Black)
	msg.TextSize = 20
	msg.TextStyle = fyne.TextStyle{Bold: true}
	msg.Alignment = fyne.TextAlignCenter

	accent := theme.Color(theme.ColorNamePrimary)
	yesBtn := newHugeButton("YES", accent, func() {
		confirmWin.Close()
		onYes()
	})

	noBtn := newHugeButton("NO", color.NRGBA{R: 200, G: 200, B: 200, A: 255}, func() {
		confirmWin.Close()
		if onNo != nil {
			onNo()
			return
		}
		a.setState(StateIdle)
	})

	btns := container.NewGridWithColumns(2, yesBtn, noBtn)

	card := container.NewVBox(
		container.NewPadded(container.NewCenter(msg)),
		container.NewPadded(btns),
	)

	confirmWin.SetContent(container.NewCenter(container.NewPadded(card)))
	confirmWin.Resize(fyne.NewSize(450, 200))
	confirmWin.CenterOnScreen()
	confirmWin.Show()
}

// handleDropped routes window drops: a folder opens the library, a session
// log starts a resume, a media file opens its parent folder and selects it.
func (a *captApp) handleDropped(uri fyne.URI) {
	if a.state == StateProcessing {
		return
	}

	path := uri.Path()
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		a.openFolder(path)
		return
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		go a.startResume(path)
		return
	}
	if _, ok := library.KindForPath(path); ok {
		a.openFolder(filepath.Dir(path))
		a.selectPath(path)
		return
	}
	a.flashRed()
}

func (a *captApp) partialSuccessResumeLogPath() string {
	if a.lastWasResume {
		return a.lastInputPath
	}
	return a.lastSessionLogPath
}

func (a *captApp) showFolderPicker() {
	fd := dialog.NewFolderOpen(func(list fyne.ListableURI, err error) {
		if err != nil || list == nil {
			return
		}
		a.openFolder(list.Path())
	}, a.window)
	fd.Resize(fyne.NewSize(900, 700))
	fd.Show()
}

func isPathWithinDir(path, dir string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return false
	}
	return true
}

func main() {
	// Initialize logger for debug/error tracing
	logger.Init(logger.LevelInfo, nil)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unrecovered GUI panic", "scope", "main", "panic", fmt.Sprint(r))
			os.Exit(1)
		}
	}()

	myApp := app.NewWithID("com.capt.app")
	myApp.Settings().SetTheme(largeTheme{Theme: theme.DefaultTheme()})
	myApp.SetIcon(appIcon())

	w := myApp.NewWindow("capt")
	w.SetIcon(appIcon())
	w.SetMaster()
	w.Resize(fyne.NewSize(1200, 800))
	w.CenterOnScreen()

	ca := newCaptApp(w)
	w.SetCloseIntercept(func() {
		ca.cancelActive("window closed")
		ca.saveCurrentCaption()
		ca.sessionKey = ""
		w.SetCloseIntercept(nil)
		w.Close()
	})

	w.SetOnDropped(func(pos fyne.Position, uris []fyne.URI) {
		if len(uris) > 0 {
			ca.handleDropped(uris[0])
		}
	})

	w.ShowAndRun()
}
