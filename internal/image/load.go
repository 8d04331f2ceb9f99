package image

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/astrogo/fitsio"
)

// File is a FITS image loaded from disk: the parsed header and its pixel data.
type File struct {
	Path   string
	Header Header
	Raw    *Raw
}

// Load reads the first image HDU with at least two axes from a FITS file.
func Load(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	f, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Decode reads the first image HDU with at least two axes from r.
func Decode(r io.Reader) (*File, error) {
	ff, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FITS: %w", err)
	}
	defer ff.Close()

	for _, hdu := range ff.HDUs() {
		img, ok := hdu.(fitsio.Image)
		if !ok || len(img.Header().Axes()) < 2 {
			continue
		}
		return decodeImage(img)
	}
	return nil, fmt.Errorf("no image HDU with at least two axes")
}

func decodeImage(img fitsio.Image) (*File, error) {
	fh := img.Header()
	hdr := make(Header)
	for _, key := range fh.Keys() {
		card := fh.Get(key)
		if card == nil {
			continue
		}
		hdr[strings.ToUpper(card.Name)] = card.Value
	}
	hdr["BITPIX"] = fh.Bitpix()

	// FITS lists the fastest axis first.
	axes := fh.Axes()
	shape := make([]int, len(axes))
	for i, n := range axes {
		shape[len(axes)-1-i] = n
	}

	bscale := hdr.FloatWithFallback("BSCALE", 1)
	bzero := hdr.FloatWithFallback("BZERO", 0)
	data, err := DecodePixels(img.Raw(), fh.Bitpix(), bscale, bzero)
	if err != nil {
		return nil, err
	}

	raw, err := FromArray(shape, data)
	if err != nil {
		return nil, err
	}
	raw.Integer8 = fh.Bitpix() == 8 && bscale == 1 && bzero == 0
	return &File{Header: hdr, Raw: raw}, nil
}

// DecodePixels converts a big-endian FITS data payload to physical values
// (bzero + bscale*stored).
func DecodePixels(payload []byte, bitpix int, bscale, bzero float64) ([]float64, error) {
	size := bitpix / 8
	if size < 0 {
		size = -size
	}
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	n := len(payload) / size
	out := make([]float64, n)
	be := binary.BigEndian
	for i := 0; i < n; i++ {
		b := payload[i*size : (i+1)*size]
		var v float64
		switch bitpix {
		case 8:
			v = float64(b[0])
		case 16:
			v = float64(int16(be.Uint16(b)))
		case 32:
			v = float64(int32(be.Uint32(b)))
		case 64:
			v = float64(int64(be.Uint64(b)))
		case -32:
			v = float64(math.Float32frombits(be.Uint32(b)))
		case -64:
			v = math.Float64frombits(be.Uint64(b))
		}
		out[i] = bzero + bscale*v
	}
	return out, nil
}
