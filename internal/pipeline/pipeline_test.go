package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"fitsview/internal/cuts"
	"fitsview/internal/debayer"
	"fitsview/internal/image"
	"fitsview/internal/stretch"
	"fitsview/internal/trim"
)

func threeByThree(t *testing.T) *Source {
	t.Helper()
	raw, err := image.MonoFromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &Source{Name: "3x3", Header: image.Header{}, Raw: raw}
}

func TestLinearFullRange(t *testing.T) {
	s := DefaultSettings().WithPreset(cuts.Preset100).WithStretch(stretch.Linear)
	f, err := Display(context.Background(), threeByThree(t), s)
	if err != nil {
		t.Fatalf("Display: %v", err)
	}
	if f.Settings.Cuts != (cuts.Range{Lo: 1, Hi: 9}) {
		t.Fatalf("cuts = %v, want 1..9", f.Settings.Cuts)
	}
	if got := f.Normalizer.Apply(5); got != 0.5 {
		t.Fatalf("normalized(5) = %v, want 0.5", got)
	}
	// Data row 0 ends up at the bottom of the buffer.
	if got := f.Buffer.At(0, 2)[0]; got != 0 {
		t.Errorf("bottom-left = %d, want 0", got)
	}
	if got := f.Buffer.At(2, 0)[0]; got != 255 {
		t.Errorf("top-right = %d, want 255", got)
	}
	if f.Colorbar == nil || f.IsColor || !f.CutsEditable {
		t.Errorf("frame flags: colorbar=%v color=%v editable=%v", f.Colorbar != nil, f.IsColor, f.CutsEditable)
	}
}

func TestSqrtStretch(t *testing.T) {
	s := DefaultSettings().WithPreset(cuts.Preset100).WithStretch(stretch.Sqrt)
	f, err := Display(context.Background(), threeByThree(t), s)
	if err != nil {
		t.Fatal(err)
	}
	want := (math.Sqrt(5) - 1) / (3 - 1)
	if got := f.Normalizer.Apply(5); math.Abs(got-want) > 1e-12 || math.Abs(got-0.618034) > 1e-6 {
		t.Fatalf("normalized(5) = %v, want %v", got, want)
	}
}

func TestTrimIsland(t *testing.T) {
	data := make([]float64, 16)
	for i := range data {
		data[i] = 1
	}
	raw, _ := image.NewMono(4, 4, data)
	src := &Source{Header: image.Header{trim.Keyword: "[2:3,2:3]"}, Raw: raw}

	p, err := Prepare(src, true)
	if err != nil {
		t.Fatal(err)
	}
	if p.Trimmed.Rows != 4 || p.Trimmed.Cols != 4 {
		t.Fatalf("trimmed shape = %v", p.Trimmed.Shape())
	}
	ones := 0
	for _, v := range p.Trimmed.Planes[0] {
		if v == 1 {
			ones++
		}
	}
	if ones != 4 {
		t.Fatalf("trimmed data has %d ones, want 4", ones)
	}
	if len(p.Sorted) != 4 {
		t.Fatalf("cut sample has %d values, want 4", len(p.Sorted))
	}

	p, _ = Prepare(src, false)
	if p.Trimmed != p.Data {
		t.Fatal("disabled trim should use the untrimmed data")
	}
}

func TestDegenerateCustomCuts(t *testing.T) {
	for _, k := range stretch.Kinds() {
		s := DefaultSettings().WithCustomCuts(5, 5).WithStretch(k)
		f, err := Display(context.Background(), threeByThree(t), s)
		if err != nil {
			t.Fatalf("%v: %v", k, err)
		}
		for i, v := range f.Buffer.Pix {
			if v != 0 {
				t.Fatalf("%v: pixel %d = %d, want 0", k, i, v)
			}
		}
	}

	// lo > hi is tolerated too.
	if _, err := Display(context.Background(), threeByThree(t), DefaultSettings().WithCustomCuts(9, 1)); err != nil {
		t.Fatalf("inverted custom cuts: %v", err)
	}
}

func TestMalformedTrimIsNonFatal(t *testing.T) {
	src := threeByThree(t)
	src.Header = image.Header{trim.Keyword: "garbage"}
	f, err := Display(context.Background(), src, DefaultSettings().WithPreset(cuts.Preset100))
	if err != nil {
		t.Fatalf("Display: %v", err)
	}
	var parseErr *trim.ParseError
	if !errors.As(f.TrimErr, &parseErr) {
		t.Fatalf("TrimErr = %v, want ParseError", f.TrimErr)
	}
	if f.Settings.Cuts != (cuts.Range{Lo: 1, Hi: 9}) {
		t.Fatalf("cuts = %v, want full untrimmed range", f.Settings.Cuts)
	}
}

func TestUnsupportedPatternIsFatal(t *testing.T) {
	src := threeByThree(t)
	src.Header = image.Header{"BAYERPAT": "RGGB"}
	f, err := Display(context.Background(), src, DefaultSettings())
	var patErr *debayer.UnsupportedPatternError
	if !errors.As(err, &patErr) || f != nil {
		t.Fatalf("Display = %v, %v; want UnsupportedPatternError and no frame", f, err)
	}
}

func TestDebayeredFrameIsColor(t *testing.T) {
	raw, _ := image.MonoFromRows([][]float64{
		{10, 30, 10, 30},
		{50, 20, 50, 20},
	})
	src := &Source{Header: image.Header{"BAYERPAT": "GBRG"}, Raw: raw}
	f, err := Display(context.Background(), src, DefaultSettings().WithPreset(cuts.Preset100))
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsColor || f.Colorbar != nil || f.Buffer.Channels != 3 {
		t.Fatalf("color=%v colorbar=%v channels=%d", f.IsColor, f.Colorbar != nil, f.Buffer.Channels)
	}
	if f.Settings.Cuts != (cuts.Range{Lo: 15, Hi: 50}) {
		t.Fatalf("cuts = %v, want 15..50 across channels", f.Settings.Cuts)
	}
}

func TestInteger8PinsCuts(t *testing.T) {
	raw, _ := image.NewMono(1, 3, []float64{0, 51, 255})
	raw.Integer8 = true
	s := DefaultSettings().WithStretch(stretch.Log).WithCustomCuts(10, 20)
	f, err := Display(context.Background(), &Source{Header: image.Header{}, Raw: raw}, s)
	if err != nil {
		t.Fatal(err)
	}
	if f.CutsEditable || f.Settings.Cuts != (cuts.Range{Lo: 0, Hi: 255}) || f.Settings.Stretch != stretch.Linear {
		t.Fatalf("editable=%v cuts=%v stretch=%v", f.CutsEditable, f.Settings.Cuts, f.Settings.Stretch)
	}
	if got := f.Buffer.Pix; got[0] != 0 || got[1] != 51 || got[2] != 255 {
		t.Fatalf("Pix = %v, want identity", got)
	}
}

func TestNormalizeBands(t *testing.T) {
	// Wide enough to be split into several bands.
	rows, cols := 40, 4000
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i%100) + 1
	}
	raw, _ := image.NewMono(rows, cols, data)
	n := stretch.New(stretch.Linear, cuts.Range{Lo: 1, Hi: 100})

	planes, err := Normalize(context.Background(), n, raw)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range planes[0] {
		if v != n.Apply(data[i]) {
			t.Fatalf("value %d = %v, want %v", i, v, n.Apply(data[i]))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Normalize(ctx, n, raw); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled Normalize err = %v", err)
	}
}

func TestNormalizeZeroWidth(t *testing.T) {
	n := stretch.New(stretch.Linear, cuts.Range{Lo: 0, Hi: 10})
	for _, raw := range []*image.Raw{
		{},
		{Planes: [][]float64{{}}},
		{Rows: 1, Planes: [][]float64{{5, 10}}},
	} {
		planes, err := Normalize(context.Background(), n, raw)
		if err != nil {
			t.Fatalf("Normalize(%+v): %v", raw, err)
		}
		if len(planes) != len(raw.Planes) {
			t.Fatalf("planes = %d, want %d", len(planes), len(raw.Planes))
		}
		for c, p := range planes {
			for i, v := range p {
				if want := n.Apply(raw.Planes[c][i]); v != want {
					t.Errorf("value %d = %v, want %v", i, v, want)
				}
			}
		}
	}
}

func TestSettingsAreValues(t *testing.T) {
	base := DefaultSettings()
	changed := base.WithStretch(stretch.Asinh).WithTrim(false).WithCustomCuts(3, 1)
	if base.Stretch != stretch.Linear || !base.TrimEnabled || base.Preset != cuts.Preset999 {
		t.Fatalf("With helpers modified the receiver: %+v", base)
	}
	if changed.Preset != cuts.PresetCustom || changed.Custom != (cuts.Range{Lo: 3, Hi: 1}) {
		t.Fatalf("changed = %+v", changed)
	}
}
