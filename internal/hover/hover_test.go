package hover

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"fitsview/internal/colormap"
	"fitsview/internal/cuts"
	"fitsview/internal/image"
	"fitsview/internal/pipeline"
)

func frame(t *testing.T, rows, cols int, header image.Header) *pipeline.Frame {
	t.Helper()
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i + 1)
	}
	raw, err := image.NewMono(rows, cols, data)
	if err != nil {
		t.Fatal(err)
	}
	if header == nil {
		header = image.Header{}
	}
	src := &pipeline.Source{Name: "test", Header: header, Raw: raw}
	f, err := pipeline.Display(context.Background(), src, pipeline.DefaultSettings().WithPreset(cuts.Preset100))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestComputeInside(t *testing.T) {
	f := frame(t, 50, 50, nil)
	res := Compute(f, 25.7, 30.2)

	if res.Pixel.X != 25 || res.Pixel.Y != 30 {
		t.Fatalf("Pixel = %v, want (25, 30)", res.Pixel)
	}
	if len(res.PixelValue) != 1 || res.PixelValue[0] != float64(30*50+25+1) {
		t.Fatalf("PixelValue = %v", res.PixelValue)
	}
	if res.Stats == nil {
		t.Fatal("Stats = nil")
	}
	// The window is symmetric around the center, so its mean is the center value.
	if res.Stats.Mean != res.PixelValue[0] {
		t.Errorf("Mean = %v, want %v", res.Stats.Mean, res.PixelValue[0])
	}
	if want := float64(40*50 + 35 + 1); res.Stats.Max != want {
		t.Errorf("Max = %v, want %v", res.Stats.Max, want)
	}
	if res.Zoom == nil || res.Zoom.Width != WindowSize || res.Zoom.Height != WindowSize {
		t.Fatalf("Zoom = %+v", res.Zoom)
	}
	if res.Sky != nil {
		t.Error("Sky should be nil without WCS")
	}
}

func TestComputeClipped(t *testing.T) {
	f := frame(t, 30, 30, nil)
	res := Compute(f, 2, 28)
	if res.Zoom.Width != 13 || res.Zoom.Height != 12 {
		t.Fatalf("clipped zoom = %dx%d, want 13x12", res.Zoom.Width, res.Zoom.Height)
	}
	if res.Zoom.Left != 8 || res.Zoom.Top != 9 {
		t.Fatalf("zoom offset = (%d, %d), want (8, 9)", res.Zoom.Left, res.Zoom.Top)
	}
}

func TestComputeOutside(t *testing.T) {
	f := frame(t, 10, 10, nil)

	res := Compute(f, -3, 4)
	if len(res.PixelValue) != 0 {
		t.Errorf("PixelValue = %v, want empty", res.PixelValue)
	}
	if res.Stats == nil {
		t.Error("window still overlaps the image, Stats should be set")
	}

	res = Compute(f, 100, 100)
	if len(res.PixelValue) != 0 || res.Stats != nil || res.Zoom != nil {
		t.Errorf("far outside: value=%v stats=%v zoom=%v", res.PixelValue, res.Stats, res.Zoom)
	}
}

func TestComputeSky(t *testing.T) {
	h := image.Header{
		"CTYPE1": "RA---TAN", "CTYPE2": "DEC--TAN",
		"CRVAL1": 10.0, "CRVAL2": 20.0,
		"CRPIX1": 5.0, "CRPIX2": 5.0,
		"CDELT1": -0.001, "CDELT2": 0.001,
	}
	f := frame(t, 10, 10, h)
	res := Compute(f, 4, 4)
	if res.Sky == nil {
		t.Fatal("Sky = nil")
	}
	if math.Abs(res.Sky.RA-10) > 1e-9 || math.Abs(res.Sky.Dec-20) > 1e-9 {
		t.Errorf("Sky = %v, want (10, 20)", res.Sky)
	}
}

func TestZoomNormalized(t *testing.T) {
	f := frame(t, 30, 30, nil)
	res := Compute(f, 15, 15)
	for _, v := range res.Zoom.Values[0] {
		if v < 0 || v > 1 {
			t.Fatalf("zoom value %v outside [0,1]", v)
		}
	}
	center := res.Zoom.Values[0][WindowRadius*WindowSize+WindowRadius]
	if want := f.Normalizer.Apply(res.PixelValue[0]); center != want {
		t.Errorf("center = %v, want %v", center, want)
	}

	lut, _ := colormap.Table(colormap.Palette{Name: "gray"})
	img := res.Zoom.Magnify(lut, ZoomSize)
	if b := img.Bounds(); b.Dx() != ZoomSize || b.Dy() != ZoomSize {
		t.Fatalf("magnified bounds = %v", b)
	}
	// The center pixel is outlined in white.
	lo := int(float64(WindowRadius)*float64(ZoomSize)/WindowSize) - 1
	if c := img.RGBAAt(lo, lo); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("outline color = %v, want white", c)
	}
}

func TestEngineDropsWhileBusy(t *testing.T) {
	f := frame(t, 20, 20, nil)

	release := make(chan struct{})
	var mu sync.Mutex
	var results []Result
	e := NewEngine(func(r Result) {
		<-release
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})
	defer e.Stop()

	if !e.Query(f, 5, 5) {
		t.Fatal("first query dropped")
	}
	start := time.Now()
	for i := 0; i < 10; i++ {
		if e.Query(f, float64(i), 1) {
			t.Fatalf("query %d accepted while busy", i)
		}
	}
	if time.Since(start) > time.Second {
		t.Fatal("dropped queries blocked the caller")
	}
	close(release)

	deadline := time.Now().Add(5 * time.Second)
	for e.Busy() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if e.Busy() {
		t.Fatal("engine did not return to idle")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0].X != 5 {
		t.Fatalf("results = %v, want the single dispatched query", results)
	}
	s := e.Stats()
	if s.Dispatched != 1 || s.Dropped != 10 || s.Completed != 1 {
		t.Fatalf("Stats = %+v", s)
	}
}

func TestEngineAcceptsAfterIdle(t *testing.T) {
	f := frame(t, 20, 20, nil)
	done := make(chan Result, 1)
	e := NewEngine(func(r Result) { done <- r })
	defer e.Stop()

	for i := 0; i < 3; i++ {
		for !e.Query(f, float64(i), float64(i)) {
			time.Sleep(time.Millisecond)
		}
		select {
		case r := <-done:
			if r.X != float64(i) {
				t.Fatalf("result X = %v, want %d", r.X, i)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("no result")
		}
	}
}

func TestEngineQueryRacingStop(t *testing.T) {
	f := frame(t, 20, 20, nil)
	for i := 0; i < 200; i++ {
		e := NewEngine(nil)
		queried := make(chan struct{})
		go func() {
			e.Query(f, 1, 1)
			close(queried)
		}()
		e.Stop()
		<-queried
		if e.Busy() {
			t.Fatalf("iteration %d: in flight after Stop", i)
		}
		if e.Query(f, 2, 2) {
			t.Fatal("query accepted after Stop")
		}
	}
}
