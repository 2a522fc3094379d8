package viewer

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/oukeidos/capt/internal/apperrors"
)

func newSizedWidget(t *testing.T, w, h float32) (*Widget, fyne.WidgetRenderer) {
	t.Helper()
	test.NewApp()
	wd := NewWidget()
	r := wd.CreateRenderer()
	r.Layout(fyne.NewSize(w, h))
	return wd, r
}

func uniformImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestSetMedia_DeferredUntilSurfaceSized(t *testing.T) {
	test.NewApp()
	w := NewWidget()
	w.SetLoader(func(path string) (image.Image, error) {
		t.Fatalf("loader must not run before the surface is sized")
		return nil, nil
	})

	w.SetMedia("/media/a.jpg")
	if w.IsLoading() {
		t.Fatal("load started before surface was sized")
	}
	if w.pendingPath != "/media/a.jpg" {
		t.Fatalf("pendingPath = %q", w.pendingPath)
	}
	if w.CurrentPath() != "/media/a.jpg" {
		t.Fatalf("CurrentPath = %q", w.CurrentPath())
	}
}

func TestCommitLoad_AppliesImageAndResetsView(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	w.path = "/media/a.jpg"
	w.generation = 1
	w.loading = true
	w.vp.SetViewportSize(200, 200)

	var loaded string
	w.OnLoaded(func(p string) { loaded = p })

	w.commitLoad(1, "/media/a.jpg", uniformImage(400, 300, color.RGBA{R: 255, A: 255}), nil)

	if w.IsLoading() {
		t.Fatal("loading flag not cleared")
	}
	if w.img == nil {
		t.Fatal("image not committed")
	}
	if w.Zoom() != MinZoom || w.vp.PanX != 0 || w.vp.PanY != 0 {
		t.Fatalf("view not at rest after load: zoom=%v pan=(%v,%v)", w.Zoom(), w.vp.PanX, w.vp.PanY)
	}
	if loaded != "/media/a.jpg" {
		t.Fatalf("OnLoaded got %q", loaded)
	}
}

func TestCommitLoad_StaleResultDiscarded(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	w.vp.SetViewportSize(200, 200)
	w.generation = 2
	w.commitLoad(2, "/media/new.jpg", uniformImage(100, 100, color.RGBA{G: 255, A: 255}), nil)
	current := w.img

	// An older decode finishing late must not replace the newer image.
	w.generation = 3
	w.loading = true
	w.commitLoad(2, "/media/old.jpg", uniformImage(50, 50, color.RGBA{B: 255, A: 255}), nil)

	if w.img != current {
		t.Fatal("stale decode overwrote the current image")
	}
	if !w.loading {
		t.Fatal("stale decode cleared the loading flag of the newer load")
	}
}

func TestCommitLoad_FailureKeepsPreviousFrame(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	w.vp.SetViewportSize(200, 200)
	w.generation = 1
	w.commitLoad(1, "/media/good.jpg", uniformImage(400, 300, color.RGBA{R: 255, A: 255}), nil)
	previous := w.img

	// Zoom in so we can check the failure leaves view state untouched too.
	w.vp.ZoomAt(100, 100, +1)
	zoomBefore := w.Zoom()

	var gotPath string
	var gotErr error
	w.OnError(func(p string, err error) { gotPath, gotErr = p, err })

	w.generation = 2
	w.loading = true
	w.commitLoad(2, "/media/bad.jpg", nil, apperrors.Decode(errors.New("bad magic")))

	if w.IsLoading() {
		t.Fatal("loading flag not cleared on failure")
	}
	if w.img != previous {
		t.Fatal("decode failure replaced the previous frame")
	}
	if w.Zoom() != zoomBefore {
		t.Fatalf("decode failure changed zoom: %v -> %v", zoomBefore, w.Zoom())
	}
	if gotPath != "/media/bad.jpg" || gotErr == nil {
		t.Fatalf("error not surfaced: path=%q err=%v", gotPath, gotErr)
	}
	if kind, ok := apperrors.KindOf(gotErr); !ok || kind != apperrors.KindDecode {
		t.Fatalf("error kind = %v", kind)
	}
}

func TestSetMedia_SamePathRetriesAfterFailure(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	w.vp.SetViewportSize(200, 200)

	loads := make(chan string, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	w.SetLoader(func(path string) (image.Image, error) {
		loads <- path
		<-release
		return nil, apperrors.Decode(errors.New("bad magic"))
	})

	w.path = "/media/bad.jpg"
	w.generation = 1
	w.loading = true
	w.commitLoad(1, "/media/bad.jpg", nil, apperrors.Decode(errors.New("bad magic")))

	// Re-selecting the same item after a failed decode must retry the load.
	w.SetMedia("/media/bad.jpg")
	if !w.IsLoading() {
		t.Fatal("re-supplying a failed path did not restart the load")
	}
	select {
	case got := <-loads:
		if got != "/media/bad.jpg" {
			t.Fatalf("retry loaded %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loader did not run for the retry")
	}
}

func TestSetMedia_SamePathNoOpAfterSuccess(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	w.vp.SetViewportSize(200, 200)
	w.SetLoader(func(path string) (image.Image, error) {
		t.Errorf("loader must not run for a repeated, successfully loaded path")
		return nil, nil
	})

	w.path = "/media/ok.jpg"
	w.generation = 1
	w.loading = true
	w.commitLoad(1, "/media/ok.jpg", uniformImage(10, 10, color.RGBA{A: 255}), nil)

	gen := w.generation
	w.SetMedia("/media/ok.jpg")
	if w.generation != gen || w.IsLoading() {
		t.Fatal("repeating a successfully loaded path restarted the load")
	}
}

func TestCommitLoad_AfterDestroyIsNoOp(t *testing.T) {
	w, r := newSizedWidget(t, 200, 200)
	w.generation = 1
	w.loading = true
	r.Destroy()

	w.commitLoad(1, "/media/a.jpg", uniformImage(10, 10, color.RGBA{A: 255}), nil)
	if w.img != nil {
		t.Fatal("commit after destroy applied an image")
	}
}

func TestDraw_LetterboxesWideImage(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	red := color.RGBA{R: 255, A: 255}
	w.img = uniformImage(400, 300, red)
	w.vp.SetViewportSize(200, 200)
	w.vp.SetImageSize(400, 300)

	out := w.draw(200, 200).(*image.RGBA)

	// 400x300 into 200x200 fits by width: image occupies y in [25, 175).
	if got := out.RGBAAt(100, 10); got == red {
		t.Fatalf("letterbox band contains image pixels at (100,10): %+v", got)
	}
	if got := out.RGBAAt(100, 10); got != background {
		t.Fatalf("letterbox band not background at (100,10): %+v", got)
	}
	if got := out.RGBAAt(100, 100); got != red {
		t.Fatalf("image area not drawn at (100,100): %+v", got)
	}
	if got := out.RGBAAt(100, 190); got != background {
		t.Fatalf("bottom band not background at (100,190): %+v", got)
	}
}

func TestDraw_NativePixelSizeUpdatesViewport(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	w.img = uniformImage(400, 300, color.RGBA{R: 255, A: 255})
	w.vp.SetImageSize(400, 300)

	// A 2x display hands the raster 400x400 native pixels for a 200x200
	// widget; geometry must follow the native size.
	w.draw(400, 400)
	vw, vh := w.vp.ViewportSize()
	if vw != 400 || vh != 400 {
		t.Fatalf("viewport size = (%v, %v), want native pixels", vw, vh)
	}
	if got := w.dpr(); got != 2 {
		t.Fatalf("dpr = %v, want 2", got)
	}
}

func TestDraw_ZeroSizeIsInert(t *testing.T) {
	test.NewApp()
	w := NewWidget()
	out := w.draw(0, 0)
	if out.Bounds().Dx() != 1 || out.Bounds().Dy() != 1 {
		t.Fatalf("zero-size draw returned %v", out.Bounds())
	}
}

func TestLayout_ZeroSizeSkipped(t *testing.T) {
	test.NewApp()
	w := NewWidget()
	r := w.CreateRenderer()
	r.Layout(fyne.NewSize(0, 120))
	if w.surfaceReady() {
		t.Fatal("zero-width layout marked surface ready")
	}
}

func TestScrolled_ZoomInAndOut(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	w.img = uniformImage(400, 300, color.RGBA{R: 255, A: 255})
	w.vp.SetImageSize(400, 300)
	w.draw(200, 200)

	var zoomSeen float64
	w.OnZoomChange(func(z float64) { zoomSeen = z })

	w.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)},
		Scrolled:   fyne.NewDelta(0, 1),
	})
	if w.Zoom() != MinZoom+ZoomStep {
		t.Fatalf("zoom = %v after wheel up", w.Zoom())
	}
	if zoomSeen != w.Zoom() {
		t.Fatalf("zoom callback got %v", zoomSeen)
	}

	w.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)},
		Scrolled:   fyne.NewDelta(0, -1),
	})
	if w.Zoom() != MinZoom {
		t.Fatalf("zoom = %v after wheel down", w.Zoom())
	}
}

func TestDragged_IgnoredAtRestZoom(t *testing.T) {
	w, _ := newSizedWidget(t, 200, 200)
	w.img = uniformImage(400, 300, color.RGBA{R: 255, A: 255})
	w.vp.SetImageSize(400, 300)
	w.draw(200, 200)

	w.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(30, 30)})
	if w.IsDragging() {
		t.Fatal("drag registered at rest zoom")
	}
	if w.vp.PanX != 0 || w.vp.PanY != 0 {
		t.Fatal("pan moved at rest zoom")
	}

	for w.Zoom() < 2.0 {
		w.vp.ZoomAt(100, 100, +1)
	}
	w.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(30, 0)})
	if !w.IsDragging() {
		t.Fatal("drag not registered while zoomed")
	}
	if w.vp.PanX == 0 {
		t.Fatal("pan did not move while zoomed")
	}
	w.DragEnd()
	if w.IsDragging() {
		t.Fatal("dragging flag not cleared")
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("ValidPNG", func(t *testing.T) {
		path := filepath.Join(dir, "ok.png")
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := png.Encode(f, uniformImage(8, 4, color.RGBA{B: 255, A: 255})); err != nil {
			t.Fatalf("encode: %v", err)
		}
		f.Close()

		img, err := DecodeFile(path)
		if err != nil {
			t.Fatalf("DecodeFile: %v", err)
		}
		if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
			t.Fatalf("bounds = %v", img.Bounds())
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := DecodeFile(filepath.Join(dir, "missing.png"))
		if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.KindDecode {
			t.Fatalf("err = %v, want decode kind", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.jpg")
		if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, err := DecodeFile(path)
		if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.KindDecode {
			t.Fatalf("err = %v, want decode kind", err)
		}
	})
}
