package mainwindow

import (
	"image"
	"strconv"
	"strings"

	"fitsview/internal/hover"
	"fitsview/internal/pipeline"
	"fitsview/pkg/colorutil"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"golang.org/x/image/draw"
)

// infoFields is the text shown for one cursor position.
type infoFields struct {
	X, Y, RA, Dec, Value, Mean, Max string
}

// formatInfo renders a hover result. Missing parts are empty strings.
func formatInfo(res hover.Result) infoFields {
	out := infoFields{
		X: strconv.FormatFloat(res.X, 'f', 3, 64),
		Y: strconv.FormatFloat(res.Y, 'f', 3, 64),
	}
	if res.Sky != nil {
		out.RA = res.Sky.FormatRA()
		out.Dec = res.Sky.FormatDec()
	}
	switch len(res.PixelValue) {
	case 0:
	case 1:
		out.Value = strconv.FormatFloat(res.PixelValue[0], 'g', -1, 64)
	default:
		parts := make([]string, len(res.PixelValue))
		for i, v := range res.PixelValue {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		out.Value = "[" + strings.Join(parts, " ") + "]"
	}
	if res.Stats != nil {
		out.Mean = strconv.FormatFloat(res.Stats.Mean, 'f', 2, 64)
		out.Max = strconv.FormatFloat(res.Stats.Max, 'f', 2, 64)
	}
	return out
}

// infoPanel shows the cursor readout, the zoom view and the colorbar.
type infoPanel struct {
	labels   [7]*widget.Label
	zoom     *fynecanvas.Image
	colorbar *fynecanvas.Image
	box      *fyne.Container
}

func newInfoPanel() *infoPanel {
	p := &infoPanel{}
	form := container.New(layout.NewFormLayout())
	for i, name := range []string{"X", "Y", "RA", "Dec", "Value", "Mean", "Max"} {
		p.labels[i] = widget.NewLabel("")
		form.Add(widget.NewLabel(name + ":"))
		form.Add(p.labels[i])
	}

	p.zoom = fynecanvas.NewImageFromImage(blank(hover.ZoomSize))
	p.zoom.ScaleMode = fynecanvas.ImageScalePixels
	p.zoom.FillMode = fynecanvas.ImageFillContain
	p.zoom.SetMinSize(fyne.NewSize(2*hover.ZoomSize, 2*hover.ZoomSize))

	p.colorbar = fynecanvas.NewImageFromImage(blank(1))
	p.colorbar.FillMode = fynecanvas.ImageFillStretch
	p.colorbar.ScaleMode = fynecanvas.ImageScalePixels
	p.colorbar.SetMinSize(fyne.NewSize(24, 256))

	p.box = container.NewVBox(p.zoom, widget.NewSeparator(), form)
	return p
}

// Container returns the readout column.
func (p *infoPanel) Container() fyne.CanvasObject {
	return p.box
}

// show updates the readout for a hover result on frame f.
func (p *infoPanel) show(res hover.Result, f *pipeline.Frame) {
	fields := formatInfo(res)
	for i, text := range []string{fields.X, fields.Y, fields.RA, fields.Dec, fields.Value, fields.Mean, fields.Max} {
		p.labels[i].SetText(text)
	}

	if res.Zoom == nil || f == nil {
		p.zoom.Image = blank(hover.ZoomSize)
	} else {
		p.zoom.Image = res.Zoom.Magnify(f.LUT, hover.ZoomSize)
	}
	p.zoom.Refresh()
}

// setColorbar shows the frame's colorbar, or nothing for color images.
func (p *infoPanel) setColorbar(f *pipeline.Frame) {
	if f.Colorbar == nil {
		p.colorbar.Image = blank(1)
		p.colorbar.Hide()
	} else {
		p.colorbar.Image = f.Colorbar
		p.colorbar.Show()
	}
	p.colorbar.Refresh()
}

func blank(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorutil.Black), image.Point{}, draw.Src)
	return img
}
