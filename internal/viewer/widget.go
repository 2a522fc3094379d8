package viewer

import (
	"image"
	"image/color"
	stddraw "image/draw"
	"math"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"github.com/oukeidos/capt/internal/logger"
)

var background = color.RGBA{R: 18, G: 18, B: 18, A: 255}

// Widget is the canvas image viewer: a raster surface that letterboxes the
// current image and lets the user wheel-zoom (anchored at the cursor) and
// drag-pan within image bounds.
//
// All state lives on the UI thread. Decodes run on their own goroutine and
// commit back through fyne.Do, guarded by a generation counter so a slow
// stale decode can never overwrite a newer image.
type Widget struct {
	widget.BaseWidget

	vp     *Viewport
	raster *fynecanvas.Raster

	img  image.Image
	path string

	generation uint64
	loading    bool
	failed     bool
	dragging   bool
	destroyed  bool

	// pendingPath holds a load requested before the surface had a size.
	pendingPath string

	loader       Loader
	onError      func(path string, err error)
	onZoomChange func(zoom float64)
	onLoaded     func(path string)

	widgetSize fyne.Size // logical size from the last Layout
	pixelW     int       // native raster size from the last draw
	pixelH     int
}

// NewWidget creates a viewer with the default file decoder.
func NewWidget() *Widget {
	w := &Widget{
		vp:     NewViewport(),
		loader: DecodeFile,
	}
	w.raster = fynecanvas.NewRaster(w.draw)
	w.ExtendBaseWidget(w)
	return w
}

// SetLoader replaces the image decoder, mainly for tests.
func (w *Widget) SetLoader(loader Loader) {
	if loader != nil {
		w.loader = loader
	}
}

// OnError registers a callback for decode failures.
func (w *Widget) OnError(fn func(path string, err error)) { w.onError = fn }

// OnZoomChange registers a callback fired after every zoom change.
func (w *Widget) OnZoomChange(fn func(zoom float64)) { w.onZoomChange = fn }

// OnLoaded registers a callback fired when a new image is displayed.
func (w *Widget) OnLoaded(fn func(path string)) { w.onLoaded = fn }

// Zoom returns the current zoom factor (1.0 = fitted).
func (w *Widget) Zoom() float64 { return w.vp.Zoom }

// IsLoading reports whether a decode is in flight.
func (w *Widget) IsLoading() bool { return w.loading }

// IsDragging reports whether a pan drag is active.
func (w *Widget) IsDragging() bool { return w.dragging }

// CurrentPath returns the most recently requested media path.
func (w *Widget) CurrentPath() string { return w.path }

// SetMedia switches the viewer to a new media path. The view resets and
// the image decodes asynchronously. Repeating the current path is a no-op
// unless its last decode failed, in which case the load retries.
func (w *Widget) SetMedia(path string) {
	if path == w.path && path != "" {
		if w.failed && !w.loading {
			w.Reload()
		}
		return
	}
	w.path = path
	w.ResetView()
	if path == "" {
		w.generation++
		w.img = nil
		w.loading = false
		w.failed = false
		w.Refresh()
		return
	}
	if !w.surfaceReady() {
		// The surface must be sized before the first load; the deferred
		// path is picked up by the first non-zero Layout.
		logger.Debug("Viewer surface not ready, deferring load", "path", path)
		w.pendingPath = path
		return
	}
	w.startLoad(path)
}

// Reload re-decodes the current path, e.g. after the file changed on disk.
func (w *Widget) Reload() {
	if w.path == "" || !w.surfaceReady() {
		return
	}
	w.startLoad(w.path)
}

// ResetView returns to the fitted, centered rest state.
func (w *Widget) ResetView() {
	w.vp.Reset()
	w.Refresh()
	w.notifyZoom()
}

func (w *Widget) surfaceReady() bool {
	return w.widgetSize.Width > 0 && w.widgetSize.Height > 0
}

func (w *Widget) startLoad(path string) {
	w.generation++
	gen := w.generation
	w.loading = true
	load := w.loader
	go func() {
		img, err := load(path)
		fyne.Do(func() {
			w.commitLoad(gen, path, img, err)
		})
	}()
}

// commitLoad applies a finished decode on the UI thread. Stale results
// (newer load started, or widget destroyed) are discarded untouched.
func (w *Widget) commitLoad(gen uint64, path string, img image.Image, err error) {
	if w.destroyed || gen != w.generation {
		logger.Debug("Discarding stale image load", "path", path)
		return
	}
	w.loading = false
	if err != nil {
		w.failed = true
		logger.Warn("Image decode failed", "path", path, "error", err)
		if w.onError != nil {
			w.onError(path, err)
		}
		return
	}
	w.failed = false
	w.img = img
	bounds := img.Bounds()
	w.vp.SetImageSize(float64(bounds.Dx()), float64(bounds.Dy()))
	w.Refresh()
	w.notifyZoom()
	if w.onLoaded != nil {
		w.onLoaded(path)
	}
}

func (w *Widget) notifyZoom() {
	if w.onZoomChange != nil {
		w.onZoomChange(w.vp.Zoom)
	}
}

// dpr maps logical event coordinates to native raster pixels.
func (w *Widget) dpr() float64 {
	if w.pixelW <= 0 || w.widgetSize.Width <= 0 {
		return 1
	}
	return float64(w.pixelW) / float64(w.widgetSize.Width)
}

// Scrolled zooms in or out, anchored at the cursor.
func (w *Widget) Scrolled(ev *fyne.ScrollEvent) {
	dir := 0
	if ev.Scrolled.DY > 0 {
		dir = 1
	} else if ev.Scrolled.DY < 0 {
		dir = -1
	}
	if dir == 0 {
		return
	}
	scale := w.dpr()
	w.vp.ZoomAt(float64(ev.Position.X)*scale, float64(ev.Position.Y)*scale, dir)
	w.Refresh()
	w.notifyZoom()
}

// Dragged pans the zoomed image. At rest zoom the drag is ignored.
func (w *Widget) Dragged(ev *fyne.DragEvent) {
	if !w.vp.CanPan() {
		return
	}
	w.dragging = true
	scale := w.dpr()
	w.vp.DragBy(float64(ev.Dragged.DX)*scale, float64(ev.Dragged.DY)*scale)
	w.Refresh()
}

// DragEnd finishes a pan drag.
func (w *Widget) DragEnd() {
	if !w.dragging {
		return
	}
	w.dragging = false
	// Repaint once more with the high-quality scaler.
	w.Refresh()
}

// Cursor shows a pointer when the image can be panned.
func (w *Widget) Cursor() desktop.Cursor {
	if w.vp.CanPan() {
		return desktop.PointerCursor
	}
	return desktop.DefaultCursor
}

// draw renders into the native pixel buffer. The toolkit hands us the
// physical size, so the geometry is device-pixel-ratio correct for free.
func (w *Widget) draw(pw, ph int) image.Image {
	if pw <= 0 || ph <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	if pw != w.pixelW || ph != w.pixelH {
		w.pixelW = pw
		w.pixelH = ph
		w.vp.SetViewportSize(float64(pw), float64(ph))
	}

	out := image.NewRGBA(image.Rect(0, 0, pw, ph))
	stddraw.Draw(out, out.Bounds(), image.NewUniform(background), image.Point{}, stddraw.Src)

	if w.img == nil || !w.vp.Ready() {
		return out
	}

	x, y, dw, dh := w.vp.DisplayRect()
	dst := image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+dw)), int(math.Round(y+dh)),
	)
	if dst.Empty() {
		return out
	}

	scaler := xdraw.Scaler(xdraw.CatmullRom)
	if w.dragging {
		// Cheaper filter keeps panning responsive on large images.
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(out, dst, w.img, w.img.Bounds(), xdraw.Over, nil)
	return out
}

// CreateRenderer implements fyne.Widget.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	return &widgetRenderer{w: w}
}

type widgetRenderer struct {
	w *Widget
}

func (r *widgetRenderer) Layout(size fyne.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		logger.Debug("Viewer layout skipped for zero size")
		return
	}
	r.w.widgetSize = size
	r.w.raster.Resize(size)
	if r.w.pendingPath != "" {
		path := r.w.pendingPath
		r.w.pendingPath = ""
		r.w.startLoad(path)
	}
}

func (r *widgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(120, 120)
}

func (r *widgetRenderer) Refresh() {
	r.w.raster.Refresh()
}

func (r *widgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.w.raster}
}

func (r *widgetRenderer) Destroy() {
	r.w.destroyed = true
	r.w.generation++
}
