package image

import (
	"image"
	"image/color"
	"math"
)

// DisplayBuffer is a packed 8-bit image ready for an on-screen renderer. Row 0
// is the top of the picture.
type DisplayBuffer struct {
	Width    int
	Height   int
	Channels int // 1 = palette index, 3 = interleaved RGB
	Stride   int
	Pix      []uint8
}

// Compose quantizes normalized planes into a display buffer. Each plane holds
// rows*cols values in [0,1], data row 0 first; the buffer is flipped so that
// data row 0 becomes the last buffer row. Three planes are interleaved as RGB.
func Compose(planes [][]float64, rows, cols int) *DisplayBuffer {
	channels := len(planes)
	buf := &DisplayBuffer{
		Width:    cols,
		Height:   rows,
		Channels: channels,
		Stride:   channels * cols,
		Pix:      make([]uint8, channels*rows*cols),
	}

	for row := 0; row < rows; row++ {
		dst := buf.Pix[(rows-1-row)*buf.Stride:]
		src := row * cols
		for col := 0; col < cols; col++ {
			for c, p := range planes {
				dst[col*channels+c] = Quantize(p[src+col])
			}
		}
	}
	return buf
}

// Quantize maps a normalized value to 0..255 by truncation.
func Quantize(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	q := math.Trunc(v * 255)
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}

// Image wraps the buffer as a standard image. Mono buffers become a paletted
// image over lut; RGB buffers ignore lut.
func (b *DisplayBuffer) Image(lut [256]color.RGBA) image.Image {
	rect := image.Rect(0, 0, b.Width, b.Height)
	if b.Channels == 1 {
		pal := make(color.Palette, 256)
		for i, c := range lut {
			pal[i] = c
		}
		return &image.Paletted{Pix: b.Pix, Stride: b.Stride, Rect: rect, Palette: pal}
	}

	img := image.NewRGBA(rect)
	for y := 0; y < b.Height; y++ {
		src := b.Pix[y*b.Stride:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < b.Width; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 255
		}
	}
	return img
}

// At returns the packed bytes of the pixel at buffer coordinates (x, y).
func (b *DisplayBuffer) At(x, y int) []uint8 {
	off := y*b.Stride + x*b.Channels
	return b.Pix[off : off+b.Channels]
}
