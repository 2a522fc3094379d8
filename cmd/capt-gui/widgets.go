package main

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

type minSizeBox struct {
	size fyne.Size
	pos  fyne.Position
}

func (m *minSizeBox) MinSize() fyne.Size      { return m.size }
func (m *minSizeBox) Size() fyne.Size         { return m.size }
func (m *minSizeBox) Position() fyne.Position { return m.pos }
func (m *minSizeBox) Resize(s fyne.Size)      { m.size = s }
func (m *minSizeBox) Move(p fyne.Position)    { m.pos = p }
func (m *minSizeBox) Show()                   {}
func (m *minSizeBox) Hide()                   {}
func (m *minSizeBox) Visible() bool           { return false }
func (m *minSizeBox) Refresh()                {}

type fixedWidthEntry struct {
	widget.Entry
	width float32
}

func newFixedWidthEntry(width float32) *fixedWidthEntry {
	e := &fixedWidthEntry{width: width}
	e.ExtendBaseWidget(e)
	return e
}

func (e *fixedWidthEntry) MinSize() fyne.Size {
	size := e.Entry.MinSize()
	size.Width = e.width
	return size
}

// tappableIcon is a custom widget that implements Tappable and Hoverable.
type tappableIcon struct {
	widget.BaseWidget
	icon      *canvas.Image
	isHovered bool
	minSize   fyne.Size
	action    func()
}

func newTappableIcon(res fyne.Resource, action func(), minSize fyne.Size) *tappableIcon {
	icon := canvas.NewImageFromResource(res)
	icon.FillMode = canvas.ImageFillContain

	t := &tappableIcon{icon: icon, action: action, minSize: minSize}
	t.ExtendBaseWidget(t)
	return t
}

func newColoredIcon(res fyne.Resource, colorName fyne.ThemeColorName, action func()) *tappableIcon {
	// Create a themed resource that uses our specific color
	themed := theme.NewThemedResource(res)
	themed.ColorName = colorName

	icon := canvas.NewImageFromResource(themed)
	icon.FillMode = canvas.ImageFillContain

	t := &tappableIcon{icon: icon, action: action, minSize: fyne.NewSize(100, 100)}
	t.ExtendBaseWidget(t)
	return t
}

func (t *tappableIcon) Tapped(_ *fyne.PointEvent) {
	if t.action != nil {
		t.action()
	}
}

func (t *tappableIcon) MouseIn(_ *desktop.MouseEvent) {
	t.setHover(true)
}

func (t *tappableIcon) MouseMoved(_ *desktop.MouseEvent) {
	t.setHover(true)
}

func (t *tappableIcon) MouseOut() {
	t.setHover(false)
}

func (t *tappableIcon) setHover(on bool) {
	safeDo("ui.tappable_icon.hover", func() {
		t.isHovered = on
		if on {
			t.icon.Translucency = 0.4 // Hover feedback
		} else {
			t.icon.Translucency = 0.0
		}
		t.icon.Refresh()
	})
}

func (t *tappableIcon) Cursor() desktop.Cursor {
	return desktop.PointerCursor
}

func (t *tappableIcon) MinSize() fyne.Size {
	if t.minSize.Width > 0 && t.minSize.Height > 0 {
		return t.minSize
	}
	return fyne.NewSize(40, 40)
}

func (t *tappableIcon) CreateRenderer() fyne.WidgetRenderer {
	return &tappableIconRenderer{
		t:    t,
		icon: t.icon,
	}
}

type tappableIconRenderer struct {
	t    *tappableIcon
	icon *canvas.Image
}

func (r *tappableIconRenderer) Layout(s fyne.Size) {
	r.icon.Resize(s)
	r.icon.Move(fyne.NewPos(0, 0))
}

func (r *tappableIconRenderer) MinSize() fyne.Size {
	return r.t.MinSize()
}

func (r *tappableIconRenderer) Refresh() {
	canvas.Refresh(r.icon)
}

func (r *tappableIconRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.icon}
}

func (r *tappableIconRenderer) Destroy() {}

// largeSpinner is a custom breathing ring widget.
type largeSpinner struct {
	widget.BaseWidget
}

func newLargeSpinner() *largeSpinner {
	s := &largeSpinner{}
	s.ExtendBaseWidget(s)
	return s
}

func (s *largeSpinner) CreateRenderer() fyne.WidgetRenderer {
	c := canvas.NewCircle(color.Transparent)
	c.StrokeColor = theme.Color(theme.ColorNamePrimary)
	c.StrokeWidth = 8

	r := &largeSpinnerRenderer{circle: c, s: s}

	safeGo("ui.spinner.animate", func() {
		for {
			for i := 0; i <= 20; i++ {
				alpha := uint8(50 + 150*float32(i)/20)
				baseColor := theme.Color(theme.ColorNamePrimary)
				red, g, b, _ := baseColor.RGBA()
				safeDo("ui.spinner.frame_in", func() {
					c.StrokeColor = color.NRGBA{R: uint8(red >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
					r.Refresh()
				})
				time.Sleep(50 * time.Millisecond)
			}
			for i := 20; i >= 0; i-- {
				alpha := uint8(50 + 150*float32(i)/20)
				baseColor := theme.Color(theme.ColorNamePrimary)
				red, g, b, _ := baseColor.RGBA()
				safeDo("ui.spinner.frame_out", func() {
					c.StrokeColor = color.NRGBA{R: uint8(red >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
					r.Refresh()
				})
				time.Sleep(50 * time.Millisecond)
			}
		}
	})

	return r
}

type largeSpinnerRenderer struct {
	circle *canvas.Circle
	s      *largeSpinner
}

func (r *largeSpinnerRenderer) Layout(size fyne.Size) {
	r.circle.Resize(size)
}

func (r *largeSpinnerRenderer) MinSize() fyne.Size {
	return fyne.NewSize(140, 140)
}

func (r *largeSpinnerRenderer) Refresh() {
	if r.circle != nil {
		canvas.Refresh(r.circle)
	}
}

func (r *largeSpinnerRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.circle}
}

func (r *largeSpinnerRenderer) Destroy() {}

// hugeButton is a custom button with large text for accessibility
type hugeButton struct {
	widget.BaseWidget
	text   *canvas.Text
	bg     *canvas.Rectangle
	action func()
}

func newHugeButton(label string, bgColor color.Color, action func()) *hugeButton {
	t := canvas.NewText(label, color.Black)
	t.TextSize = 24
	t.TextStyle = fyne.TextStyle{Bold: true}
	t.Alignment = fyne.TextAlignCenter

	bg := canvas.NewRectangle(bgColor)
	bg.CornerRadius = 8

	b := &hugeButton{text: t, bg: bg, action: action}
	b.ExtendBaseWidget(b)
	return b
}

func (b *hugeButton) Tapped(_ *fyne.PointEvent) {
	if b.action != nil {
		b.action()
	}
}

func (b *hugeButton) CreateRenderer() fyne.WidgetRenderer {
	return &hugeButtonRenderer{b: b}
}

type hugeButtonRenderer struct {
	b *hugeButton
}

func (r *hugeButtonRenderer) Layout(s fyne.Size) {
	r.b.bg.Resize(s)
	r.b.text.Resize(s)
}
func (r *hugeButtonRenderer) MinSize() fyne.Size { return fyne.NewSize(85, 50) }
func (r *hugeButtonRenderer) Refresh()           { r.b.bg.Refresh(); r.b.text.Refresh() }
func (r *hugeButtonRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.b.bg, r.b.text}
}
func (r *hugeButtonRenderer) Destroy() {}

// dropZone is the empty-state target: tap to pick a folder, or drop one on
// the window.
type dropZone struct {
	widget.BaseWidget
	isHovered bool
	onTapped  func()
}

func newDropZone(onTapped func()) *dropZone {
	d := &dropZone{onTapped: onTapped}
	d.ExtendBaseWidget(d)
	return d
}

func (d *dropZone) Tapped(_ *fyne.PointEvent) {
	if d.onTapped != nil {
		d.onTapped()
	}
}

func (d *dropZone) MouseIn(_ *desktop.MouseEvent) {
	d.setHover(true)
}

func (d *dropZone) MouseMoved(_ *desktop.MouseEvent) {
	d.setHover(true)
}

func (d *dropZone) MouseOut() {
	d.setHover(false)
}

func (d *dropZone) setHover(on bool) {
	safeDo("ui.drop_zone.hover", func() {
		d.isHovered = on
		d.Refresh()
	})
}

func (d *dropZone) Cursor() desktop.Cursor {
	return desktop.PointerCursor
}

func (d *dropZone) CreateRenderer() fyne.WidgetRenderer {
	thickness := float32(4)
	size := float32(80)
	accentColor := color.NRGBA{R: 200, G: 200, B: 200, A: 255}

	hBar := canvas.NewRectangle(accentColor)
	hBar.Resize(fyne.NewSize(size, thickness))

	vBar := canvas.NewRectangle(accentColor)
	vBar.Resize(fyne.NewSize(thickness, size))

	bg := canvas.NewRectangle(color.Transparent)

	return &dropZoneRenderer{
		hBar: hBar,
		vBar: vBar,
		bg:   bg,
		d:    d,
	}
}

type dropZoneRenderer struct {
	hBar *canvas.Rectangle
	vBar *canvas.Rectangle
	bg   *canvas.Rectangle
	d    *dropZone
}

func (r *dropZoneRenderer) Layout(s fyne.Size) {
	r.bg.Resize(s)
	centerX, centerY := s.Width/2, s.Height/2
	r.hBar.Move(fyne.NewPos(centerX-r.hBar.Size().Width/2, centerY-r.hBar.Size().Height/2))
	r.vBar.Move(fyne.NewPos(centerX-r.vBar.Size().Width/2, centerY-r.vBar.Size().Height/2))
}

func (r *dropZoneRenderer) MinSize() fyne.Size { return fyne.NewSize(100, 100) }
func (r *dropZoneRenderer) Refresh() {
	accentColor := color.Color(color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	if r.d.isHovered {
		accentColor = theme.Color(theme.ColorNamePrimary)
	}
	r.hBar.FillColor = accentColor
	r.vBar.FillColor = accentColor
	canvas.Refresh(r.hBar)
	canvas.Refresh(r.vBar)
}
func (r *dropZoneRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.hBar, r.vBar}
}
func (r *dropZoneRenderer) Destroy() {}
