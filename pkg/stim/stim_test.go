package stim

import (
	"math/rand/v2"
	"testing"

	"github.com/prfstim/prfstim/pkg/attributes"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
	"github.com/prfstim/prfstim/pkg/schedule"
	"github.com/prfstim/prfstim/pkg/settings"
)

func fixture(t *testing.T) (*settings.Settings, *attributes.Resolver) {
	t.Helper()
	s := settings.Default()
	g, err := geom.RectGrid(s.Screen.Size(), s.Stimuli.GridSpacing)
	if err != nil {
		t.Fatal(err)
	}
	r, err := attributes.NewResolver(s, g, rand.New(rand.NewPCG(3, 3^0xdeadbeef)))
	if err != nil {
		t.Fatal(err)
	}
	return s, r
}

func TestPRFFrame(t *testing.T) {
	s, r := fixture(t)
	width, hor, _, err := schedule.Candidates(s.Screen.Size(), s.Stimuli.GridSpacing, s.Stimuli.BarWidthRatio)
	if err != nil {
		t.Fatal(err)
	}
	p := NewPRF(r, s.Screen.Size())

	f, err := p.Frame("color_red", geom.Bar{Midpoint: hor[2], Direction: geom.Horizontal, Width: width})
	if err != nil {
		t.Fatalf("Frame() error: %v", err)
	}
	if len(f.Layers) != 2 {
		t.Fatalf("len(Layers) = %d, want 2", len(f.Layers))
	}
	if f.Layers[0].Region != "background" || f.Layers[1].Region != "bar0" {
		t.Errorf("draw order = %s, %s", f.Layers[0].Region, f.Layers[1].Region)
	}
	bar, _ := f.Layer("bar0")
	if bar.Texture.Name != "color_red" {
		t.Errorf("bar0 texture = %q", bar.Texture.Name)
	}
	bg, _ := f.Layer("background")
	if got := len(bg.Visible()) + len(bar.Visible()); got != r.Grid().Len() {
		t.Errorf("visible elements = %d, want %d", got, r.Grid().Len())
	}
}

func TestPRFBackgroundPhase(t *testing.T) {
	s, r := fixture(t)
	p := NewPRF(r, s.Screen.Size())

	f, err := p.Frame(settings.Background, geom.Bar{Midpoint: geom.Pt(0, 0), Width: geom.Pt(100, 100)})
	if err != nil {
		t.Fatalf("Frame() error: %v", err)
	}
	if len(f.Layers) != 1 || len(f.Layers[0].Visible()) != r.Grid().Len() {
		t.Errorf("background phase should draw one full-grid layer, got %d layers", len(f.Layers))
	}
}

func TestFeatureFrame(t *testing.T) {
	s, r := fixture(t)
	cfg := schedule.Config{
		Attend:       s.Task.Attend,
		MiniBlocks:   1,
		BarsPerTrial: 4,
		VerBars:      2,
		HorBars:      2,
	}
	var err error
	cfg.Width, cfg.Horizontal, cfg.Vertical, err = schedule.Candidates(s.Screen.Size(), s.Stimuli.GridSpacing, s.Stimuli.BarWidthRatio)
	if err != nil {
		t.Fatal(err)
	}
	tl, err := schedule.Schedule(rand.New(rand.NewPCG(1, 2)), cfg)
	if err != nil {
		t.Fatal(err)
	}

	feat := NewFeature(r, s.Screen.Size())
	for trial := range tl.Blocks[0].Trials() {
		conds, bars, err := tl.Trial(0, trial)
		if err != nil {
			t.Fatal(err)
		}
		f, err := feat.Frame(conds, bars)
		if err != nil {
			t.Fatalf("trial %d: Frame() error: %v", trial, err)
		}
		// background + 4 bars + 2x2 crossings
		if len(f.Layers) != 9 {
			t.Errorf("trial %d: %d layers, want 9", trial, len(f.Layers))
		}
		visible := 0
		for _, l := range f.Layers {
			visible += len(l.Visible())
		}
		if visible != r.Grid().Len() {
			t.Errorf("trial %d: %d visible elements, want %d", trial, visible, r.Grid().Len())
		}
	}
}

func TestFeatureRejectsOverlap(t *testing.T) {
	s, r := fixture(t)
	feat := NewFeature(r, s.Screen.Size())
	bar := geom.Bar{Midpoint: geom.Pt(0, 0), Direction: geom.Horizontal, Width: geom.Pt(210, 120)}

	_, err := feat.Frame([]string{"color_red", "sf_high"}, []geom.Bar{bar, bar})
	if !errors.Is(err, errors.ErrCodeGeometryInvariant) {
		t.Errorf("Frame() error = %v, want GEOMETRY_INVARIANT", err)
	}

	_, err = feat.Frame([]string{"color_red"}, []geom.Bar{bar, bar})
	if !errors.Is(err, errors.ErrCodeCountMismatch) {
		t.Errorf("Frame() error = %v, want COUNT_MISMATCH", err)
	}
}
