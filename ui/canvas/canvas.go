// Package canvas provides the image canvas: a rendered frame scaled to fit
// the widget, with cursor tracking and orientation overlays.
package canvas

import (
	"image"
	"sync"

	"golang.org/x/image/draw"

	"fitsview/internal/astrometry"
	"fitsview/internal/pipeline"
	"fitsview/pkg/colorutil"
	"fitsview/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

var defaultSize = fyne.NewSize(400, 400)

// FitsCanvas displays a frame scaled to fit while keeping its aspect ratio.
// Cursor positions are reported in data coordinates, origin bottom-left.
type FitsCanvas struct {
	widget.BaseWidget

	mu       sync.RWMutex
	img      image.Image
	orient   astrometry.Orientation
	overlays Overlays

	raster  *fynecanvas.Raster
	content *hoverContent

	// Scaled image for the last raster size, without overlays
	scaled    *image.RGBA
	scaledFor image.Image

	// Last cursor position in display image coordinates
	cursor    geometry.Point2D
	hasCursor bool

	onHover func(x, y float64)
	onLeave func()
}

// hoverContent wraps the raster to receive mouse movement.
type hoverContent struct {
	widget.BaseWidget
	canvas *FitsCanvas
	raster *fynecanvas.Raster
}

func newHoverContent(fc *FitsCanvas, raster *fynecanvas.Raster) *hoverContent {
	hc := &hoverContent{canvas: fc, raster: raster}
	hc.ExtendBaseWidget(hc)
	return hc
}

func (hc *hoverContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(hc.raster)
}

func (hc *hoverContent) MinSize() fyne.Size {
	return hc.raster.MinSize()
}

// MouseIn implements desktop.Hoverable.
func (hc *hoverContent) MouseIn(ev *desktop.MouseEvent) {
	hc.canvas.track(ev.Position, hc.Size())
}

// MouseMoved implements desktop.Hoverable.
func (hc *hoverContent) MouseMoved(ev *desktop.MouseEvent) {
	hc.canvas.track(ev.Position, hc.Size())
}

// MouseOut implements desktop.Hoverable.
func (hc *hoverContent) MouseOut() {
	hc.canvas.mu.Lock()
	hc.canvas.hasCursor = false
	cb := hc.canvas.onLeave
	hc.canvas.mu.Unlock()
	if cb != nil {
		cb()
	}
}

var _ desktop.Hoverable = (*hoverContent)(nil)

// NewFitsCanvas creates an empty canvas.
func NewFitsCanvas() *FitsCanvas {
	fc := &FitsCanvas{overlays: DefaultOverlays()}
	fc.raster = fynecanvas.NewRaster(fc.draw)
	fc.raster.ScaleMode = fynecanvas.ImageScalePixels
	fc.raster.SetMinSize(defaultSize)
	fc.content = newHoverContent(fc, fc.raster)
	fc.ExtendBaseWidget(fc)
	return fc
}

// CreateRenderer implements fyne.Widget.
func (fc *FitsCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(fc.content)
}

// SetFrame shows a rendered frame and its orientation. A nil frame clears
// the canvas.
func (fc *FitsCanvas) SetFrame(f *pipeline.Frame) {
	fc.mu.Lock()
	if f == nil {
		fc.img = nil
		fc.orient = astrometry.Orientation{}
	} else {
		fc.img = f.Image()
		fc.orient = f.Orientation
	}
	fc.scaled = nil
	fc.mu.Unlock()
	fc.raster.Refresh()
}

// SetOverlays replaces the overlay options.
func (fc *FitsCanvas) SetOverlays(o Overlays) {
	fc.mu.Lock()
	fc.overlays = o
	fc.mu.Unlock()
	fc.raster.Refresh()
}

// Overlays returns the current overlay options.
func (fc *FitsCanvas) Overlays() Overlays {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.overlays
}

// OnHover sets the callback for cursor movement over the image.
func (fc *FitsCanvas) OnHover(cb func(x, y float64)) {
	fc.mu.Lock()
	fc.onHover = cb
	fc.mu.Unlock()
}

// OnLeave sets the callback for the cursor leaving the canvas.
func (fc *FitsCanvas) OnLeave(cb func()) {
	fc.mu.Lock()
	fc.onLeave = cb
	fc.mu.Unlock()
}

// Nudge moves the last cursor position by whole image pixels in display
// direction (dy > 0 is down) and reports the new position.
func (fc *FitsCanvas) Nudge(dx, dy int) {
	fc.mu.Lock()
	if fc.img == nil || !fc.hasCursor {
		fc.mu.Unlock()
		return
	}
	b := fc.img.Bounds()
	p := geometry.NewPoint2D(fc.cursor.X+float64(dx), fc.cursor.Y+float64(dy))
	p.X = min(max(p.X, 0), float64(b.Dx()))
	p.Y = min(max(p.Y, 0), float64(b.Dy()))
	fc.cursor = p
	fc.mu.Unlock()
	fc.report(p, b.Dy())
}

// HandleKey handles arrow keys; other keys are ignored. It returns whether
// the key was consumed.
func (fc *FitsCanvas) HandleKey(ev *fyne.KeyEvent) bool {
	switch ev.Name {
	case fyne.KeyLeft:
		fc.Nudge(-1, 0)
	case fyne.KeyRight:
		fc.Nudge(1, 0)
	case fyne.KeyUp:
		fc.Nudge(0, -1)
	case fyne.KeyDown:
		fc.Nudge(0, 1)
	default:
		return false
	}
	return true
}

func (fc *FitsCanvas) track(pos fyne.Position, size fyne.Size) {
	fc.mu.Lock()
	if fc.img == nil {
		fc.mu.Unlock()
		return
	}
	b := fc.img.Bounds()
	vp := FitViewport(b.Dx(), b.Dy(), float64(size.Width), float64(size.Height))
	p := vp.ToImage(float64(pos.X), float64(pos.Y))
	fc.cursor = p
	fc.hasCursor = true
	fc.mu.Unlock()
	fc.report(p, b.Dy())
}

func (fc *FitsCanvas) report(p geometry.Point2D, height int) {
	fc.mu.RLock()
	cb := fc.onHover
	fc.mu.RUnlock()
	if cb == nil {
		return
	}
	d := Viewport{Height: height}.ToData(p)
	cb(d.X, d.Y)
}

// draw renders the raster at w x h device pixels.
func (fc *FitsCanvas) draw(w, h int) image.Image {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.img == nil {
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(out, out.Bounds(), image.NewUniform(colorutil.Black), image.Point{}, draw.Src)
		return out
	}

	b := fc.img.Bounds()
	vp := FitViewport(b.Dx(), b.Dy(), float64(w), float64(h))
	area := vp.Rect()
	if fc.scaled == nil || fc.scaledFor != fc.img || fc.scaled.Bounds().Dx() != w || fc.scaled.Bounds().Dy() != h {
		fc.scaled = scaleInto(fc.img, w, h, area, vp.Scale)
		fc.scaledFor = fc.img
	}

	out := image.NewRGBA(fc.scaled.Bounds())
	copy(out.Pix, fc.scaled.Pix)
	if fc.overlays.DirectionsVisible {
		drawCompass(out, fc.orient, fc.overlays.DirectionsColor)
	}
	if fc.overlays.CenterMarkVisible {
		drawCenterMark(out, area, fc.overlays.CenterMarkColor)
	}
	return out
}

// scaleInto draws src into area of a black w x h image. Enlarged images keep
// hard pixel edges.
func scaleInto(src image.Image, w, h int, area image.Rectangle, scale float64) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(colorutil.Black), image.Point{}, draw.Src)
	var interp draw.Interpolator = draw.NearestNeighbor
	if scale < 1 {
		interp = draw.ApproxBiLinear
	}
	interp.Scale(out, area, src, src.Bounds(), draw.Src, nil)
	return out
}
