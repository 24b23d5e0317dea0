package sink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"math/rand/v2"
	"testing"

	"github.com/prfstim/prfstim/pkg/attributes"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
	"github.com/prfstim/prfstim/pkg/settings"
	"github.com/prfstim/prfstim/pkg/stim"
	"github.com/prfstim/prfstim/pkg/texture"
)

var screen = geom.Size{W: 240, H: 120}

func testFrame(t *testing.T) *stim.Frame {
	t.Helper()
	s := settings.Default()
	s.Screen = settings.Screen{Width: screen.W, Height: screen.H}
	g, err := geom.RectGrid(screen, 30)
	if err != nil {
		t.Fatal(err)
	}
	r, err := attributes.NewResolver(s, g, rand.New(rand.NewPCG(5, 5^0xdeadbeef)))
	if err != nil {
		t.Fatal(err)
	}
	bar := geom.Bar{Midpoint: geom.Pt(0, 0), Direction: geom.Horizontal, Width: geom.Pt(60, 60)}
	f, err := stim.NewPRF(r, screen).Frame("color_red", bar)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestDrawFrameOrder(t *testing.T) {
	f := testFrame(t)
	rec := NewRecorder()
	if err := DrawFrame(rec, f); err != nil {
		t.Fatalf("DrawFrame() error: %v", err)
	}
	if len(rec.Frames) != 1 {
		t.Fatalf("%d frames presented, want 1", len(rec.Frames))
	}
	got := rec.Frames[0]
	if len(got) != 2 || got[0] != "background" || got[1] != "bar0" {
		t.Errorf("draw order = %v, want [background bar0]", got)
	}
}

func TestDrawUnknownArray(t *testing.T) {
	for name, s := range map[string]Sink{
		"raster":   NewRaster(screen),
		"json":     NewJSON(&bytes.Buffer{}),
		"plot":     NewPlot(screen, ""),
		"recorder": NewRecorder(),
	} {
		if err := s.Draw("bar3"); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("%s: Draw(unknown) error = %v, want NOT_FOUND", name, err)
		}
	}
}

func TestSetRejectsRaggedArrays(t *testing.T) {
	e := &attributes.Elements{Opacity: []float64{1, 1}, Positions: []geom.Point{{}}}
	if err := NewRecorder().Set("bar0", e); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Set(ragged) error = %v, want INVALID_INPUT", err)
	}
}

func TestRasterFlip(t *testing.T) {
	f := testFrame(t)
	r := NewRaster(screen, WithElementSize(16))
	defer r.Close()

	if err := QueueFrame(r, f); err != nil {
		t.Fatal(err)
	}
	if err := r.DrawFixation([3]float64{1, 0, 0}, 3); err != nil {
		t.Fatalf("DrawFixation() error: %v", err)
	}
	if err := r.Flip(); err != nil {
		t.Fatalf("Flip() error: %v", err)
	}
	if r.Flips() != 1 {
		t.Errorf("Flips() = %d, want 1", r.Flips())
	}

	img, err := png.Decode(bytes.NewReader(r.PNG()))
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 240 || b.Dy() != 120 {
		t.Errorf("PNG size = %dx%d, want 240x120", b.Dx(), b.Dy())
	}
	cr, cg, cb, _ := img.At(120, 60).RGBA()
	if cr>>8 < 200 || cg>>8 > 60 || cb>>8 > 60 {
		t.Errorf("center pixel = (%d,%d,%d), want the red fixation dot", cr>>8, cg>>8, cb>>8)
	}
}

func TestRasterFlipHandler(t *testing.T) {
	var sizes []image.Point
	r := NewRaster(screen, WithFlipHandler(func(img image.Image) error {
		sizes = append(sizes, img.Bounds().Size())
		return nil
	}))
	defer r.Close()

	for range 2 {
		if err := DrawFrame(r, testFrame(t)); err != nil {
			t.Fatal(err)
		}
	}
	if len(sizes) != 2 || sizes[0] != image.Pt(240, 120) {
		t.Errorf("flip handler saw %v", sizes)
	}
}

func TestPatch(t *testing.T) {
	tex := texture.Sine(16)

	flat := patch(tex, 20, 2, 0, [3]float64{1, 1, 1}, true)
	if c := flat.NRGBAAt(10, 10); c.R != 128 || c.G != 128 || c.A != 255 {
		t.Errorf("zero-contrast center = %v, want mid-gray", c)
	}
	if c := flat.NRGBAAt(0, 0); c.A != 0 {
		t.Errorf("corner alpha = %d, want 0 under the circular mask", c.A)
	}

	square := patch(tex, 20, 2, 1, [3]float64{1, 0, 0}, false)
	if c := square.NRGBAAt(0, 0); c.A != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("square red patch corner = %v", c)
	}
}

func TestJSONSink(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf)
	f := testFrame(t)
	for range 2 {
		if err := DrawFrame(j, f); err != nil {
			t.Fatal(err)
		}
	}

	sc := bufio.NewScanner(&buf)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<24)
	n := 0
	for sc.Scan() {
		var out struct {
			Frame  int `json:"frame"`
			Layers []struct {
				Region  string    `json:"region"`
				Texture string    `json:"texture"`
				Opacity []float64 `json:"opacity"`
			} `json:"layers"`
		}
		if err := json.Unmarshal(sc.Bytes(), &out); err != nil {
			t.Fatalf("line %d: %v", n, err)
		}
		if out.Frame != n {
			t.Errorf("frame = %d, want %d", out.Frame, n)
		}
		if len(out.Layers) != 2 || out.Layers[1].Region != "bar0" || out.Layers[1].Texture != "color_red" {
			t.Errorf("frame %d layers = %+v", n, out.Layers)
		}
		n++
	}
	if n != 2 {
		t.Errorf("%d frames written, want 2", n)
	}
}

func TestPlotSink(t *testing.T) {
	p := NewPlot(screen, "trial 0")
	if err := DrawFrame(p, testFrame(t)); err != nil {
		t.Fatalf("DrawFrame() error: %v", err)
	}
	if !bytes.HasPrefix(p.PNG(), []byte("\x89PNG")) {
		t.Error("Plot output is not a PNG")
	}
}
