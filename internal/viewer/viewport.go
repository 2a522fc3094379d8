// Package viewer implements the zoomable, pannable image canvas.
package viewer

import "math"

// Zoom is expressed in multiples of the fitted (letterboxed) size:
// 1.0 shows the whole image, MaxZoom is an 8x blow-up of the fit.
const (
	MinZoom  = 1.0
	MaxZoom  = 8.0
	ZoomStep = 0.25
)

// FitRect is the letterboxed placement of the image at MinZoom:
// aspect-preserving, centered in the viewport.
type FitRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	// Scale maps image pixels to viewport units at MinZoom.
	Scale float64
}

// Viewport holds the zoom/pan state for one displayed image and all the
// geometry derived from it. It is pure state: no surface, no I/O.
type Viewport struct {
	Zoom float64
	// PanX/PanY offset the image center from the viewport center, clamped
	// so the image edge never crosses into the viewport interior.
	PanX float64
	PanY float64

	imageW float64
	imageH float64
	viewW  float64
	viewH  float64
	fit    FitRect
}

// NewViewport returns a viewport at rest state.
func NewViewport() *Viewport {
	return &Viewport{Zoom: MinZoom}
}

// SetImageSize records a newly loaded image's pixel dimensions and resets
// zoom/pan, since per-image view state never survives a media change.
func (v *Viewport) SetImageSize(w, h float64) {
	v.imageW = w
	v.imageH = h
	v.recomputeFit()
	v.Reset()
}

// SetViewportSize records the container size. Zoom and pan survive a
// resize; pan is re-clamped against the new bounds.
func (v *Viewport) SetViewportSize(w, h float64) {
	v.viewW = w
	v.viewH = h
	v.recomputeFit()
	v.clampPan()
}

// ViewportSize returns the last recorded container size.
func (v *Viewport) ViewportSize() (w, h float64) {
	return v.viewW, v.viewH
}

// Reset returns to rest state: whole image visible, centered.
func (v *Viewport) Reset() {
	v.Zoom = MinZoom
	v.PanX = 0
	v.PanY = 0
}

// Fit returns the current letterbox placement.
func (v *Viewport) Fit() FitRect {
	return v.fit
}

// Ready reports whether both an image and a usable viewport are known.
func (v *Viewport) Ready() bool {
	return v.imageW > 0 && v.imageH > 0 && v.viewW > 0 && v.viewH > 0
}

// CanPan reports whether dragging has any effect.
func (v *Viewport) CanPan() bool {
	return v.Zoom > MinZoom
}

// DisplayRect returns the on-screen destination rectangle for the image
// at the current zoom and pan.
func (v *Viewport) DisplayRect() (x, y, w, h float64) {
	w = v.fit.Width * v.Zoom
	h = v.fit.Height * v.Zoom
	x = v.viewW/2 - w/2 + v.PanX
	y = v.viewH/2 - h/2 + v.PanY
	return
}

// ImagePoint converts a viewport position to image pixel coordinates
// under the current fit/zoom/pan.
func (v *Viewport) ImagePoint(viewX, viewY float64) (imgX, imgY float64) {
	x, y, _, _ := v.DisplayRect()
	scale := v.fit.Scale * v.Zoom
	if scale == 0 {
		return 0, 0
	}
	return (viewX - x) / scale, (viewY - y) / scale
}

// ViewPoint converts image pixel coordinates back to a viewport position.
func (v *Viewport) ViewPoint(imgX, imgY float64) (viewX, viewY float64) {
	x, y, _, _ := v.DisplayRect()
	scale := v.fit.Scale * v.Zoom
	return x + imgX*scale, y + imgY*scale
}

// ZoomAt applies one wheel step (direction +1 = in, -1 = out) anchored at
// the given viewport position: the image point under the cursor stays
// under the cursor.
func (v *Viewport) ZoomAt(viewX, viewY float64, direction int) {
	if !v.Ready() {
		return
	}
	newZoom := clampZoom(v.Zoom + float64(sign(direction))*ZoomStep)
	if newZoom == v.Zoom {
		return
	}

	imgX, imgY := v.ImagePoint(viewX, viewY)
	v.Zoom = newZoom
	if newZoom == MinZoom {
		// Rest state is exact: no residual pan from rounding.
		v.PanX = 0
		v.PanY = 0
		return
	}

	// Re-solve pan so (imgX, imgY) maps back to (viewX, viewY):
	// viewX = viewW/2 - fitW*zoom/2 + panX + imgX*fitScale*zoom
	scale := v.fit.Scale * newZoom
	v.PanX = viewX - imgX*scale - v.viewW/2 + v.fit.Width*newZoom/2
	v.PanY = viewY - imgY*scale - v.viewH/2 + v.fit.Height*newZoom/2
	v.clampPan()
}

// SetPan moves to the candidate pan position, clamped to image bounds.
// A viewport at rest ignores panning entirely.
func (v *Viewport) SetPan(panX, panY float64) {
	if !v.CanPan() {
		v.PanX = 0
		v.PanY = 0
		return
	}
	v.PanX = panX
	v.PanY = panY
	v.clampPan()
}

// DragBy applies a pointer delta to the current pan.
func (v *Viewport) DragBy(dx, dy float64) {
	v.SetPan(v.PanX+dx, v.PanY+dy)
}

// MaxPan returns the pan magnitude limits at the current zoom: half the
// overflow of the zoomed image beyond the viewport, per axis.
func (v *Viewport) MaxPan() (maxX, maxY float64) {
	maxX = math.Max(0, v.fit.Width*v.Zoom-v.viewW) / 2
	maxY = math.Max(0, v.fit.Height*v.Zoom-v.viewH) / 2
	return
}

func (v *Viewport) clampPan() {
	maxX, maxY := v.MaxPan()
	v.PanX = clamp(v.PanX, -maxX, maxX)
	v.PanY = clamp(v.PanY, -maxY, maxY)
}

func (v *Viewport) recomputeFit() {
	if v.imageW <= 0 || v.imageH <= 0 || v.viewW <= 0 || v.viewH <= 0 {
		v.fit = FitRect{}
		return
	}
	scale := math.Min(v.viewW/v.imageW, v.viewH/v.imageH)
	w := v.imageW * scale
	h := v.imageH * scale
	v.fit = FitRect{
		X:      (v.viewW - w) / 2,
		Y:      (v.viewH - h) / 2,
		Width:  w,
		Height: h,
		Scale:  scale,
	}
}

func clampZoom(z float64) float64 {
	return clamp(z, MinZoom, MaxZoom)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func sign(d int) int {
	if d > 0 {
		return 1
	}
	if d < 0 {
		return -1
	}
	return 0
}
