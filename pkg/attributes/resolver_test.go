package attributes

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
	"github.com/prfstim/prfstim/pkg/settings"
)

func newResolver(t *testing.T, s *settings.Settings) (*Resolver, *geom.Grid) {
	t.Helper()
	g, err := geom.RectGrid(geom.Size{W: 300, H: 200}, 20)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewResolver(s, g, rand.New(rand.NewPCG(11, 11^0xdeadbeef)))
	if err != nil {
		t.Fatalf("NewResolver() error: %v", err)
	}
	return r, g
}

func TestResolveBackgroundFullGrid(t *testing.T) {
	s := settings.Default()
	bg := s.Stimuli.Conditions[settings.Background]
	bg.Contrast = 0.7
	s.Stimuli.Conditions[settings.Background] = bg

	r, g := newResolver(t, s)
	e, err := r.Resolve("background", settings.Background, g.Points())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if e.Len() != g.Len() {
		t.Fatalf("Len() = %d, want %d", e.Len(), g.Len())
	}
	for i := range g.Len() {
		if e.Opacity[i] != 1 {
			t.Errorf("Opacity[%d] = %v, want 1", i, e.Opacity[i])
		}
		if e.Contrast[i] != 0.7 {
			t.Errorf("Contrast[%d] = %v, want 0.7", i, e.Contrast[i])
		}
		if e.SF[i] != bg.SF {
			t.Errorf("SF[%d] = %v, want %v", i, e.SF[i], bg.SF)
		}
	}
	if e.Texture.IsColored() {
		t.Error("background should use the grayscale texture")
	}
}

func TestResolveSubsetAlignment(t *testing.T) {
	r, g := newResolver(t, settings.Default())
	subset := []geom.Point{g.At(5), g.At(0), g.At(17)}

	e, err := r.Resolve("bar0", "sf_high", subset)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	want := map[int]bool{0: true, 5: true, 17: true}
	for i := range g.Len() {
		visible := e.Opacity[i] == 1 && e.Contrast[i] == 1
		hidden := e.Opacity[i] == 0 && e.Contrast[i] == 0
		if want[i] && !visible {
			t.Errorf("element %d should be visible: opacity=%v contrast=%v", i, e.Opacity[i], e.Contrast[i])
		}
		if !want[i] && !hidden {
			t.Errorf("element %d should be hidden: opacity=%v contrast=%v", i, e.Opacity[i], e.Contrast[i])
		}
	}
	if got := e.Visible(); len(got) != 3 || got[0] != 0 || got[1] != 5 || got[2] != 17 {
		t.Errorf("Visible() = %v, want [0 5 17]", got)
	}
	if e.Region != "bar0" || e.Conditions[0] != "sf_high" {
		t.Errorf("Region/Conditions = %q/%v", e.Region, e.Conditions)
	}
}

func TestResolveOrientations(t *testing.T) {
	r, g := newResolver(t, settings.Default())
	e, err := r.Resolve("bar0", "ori_vertical", nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	near0, near180 := 0, 0
	for i, o := range e.Ori {
		switch {
		case math.Abs(o) <= 5:
			near0++
		case math.Abs(o-180) <= 5:
			near180++
		default:
			t.Errorf("Ori[%d] = %v not within jitter of 0 or 180", i, o)
		}
	}
	if near0 != g.Len()/2 || near180 != g.Len()-g.Len()/2 {
		t.Errorf("orientation split = %d/%d, want %d/%d", near0, near180, g.Len()/2, g.Len()-g.Len()/2)
	}
	if len(e.Visible()) != 0 {
		t.Error("empty subset should leave every element hidden")
	}
}

func TestResolveColoredGrating(t *testing.T) {
	r, g := newResolver(t, settings.Default())
	e, err := r.Resolve("bar1", "color_red", g.Points()[:4])
	if err != nil {
		t.Fatal(err)
	}
	if e.Texture.Name != "color_red" || !e.Texture.IsColored() {
		t.Errorf("Texture = %q, want the color_red grating", e.Texture.Name)
	}
	if e.Texture.Res() != 16 {
		t.Errorf("Texture.Res() = %d, want 16 for element size 24", e.Texture.Res())
	}
	if e.Color[0] != [3]float64{1, 1, 1} {
		t.Errorf("Color[0] = %v, colored gratings are not tinted", e.Color[0])
	}
}

func TestResolveErrors(t *testing.T) {
	r, _ := newResolver(t, settings.Default())

	_, err := r.Resolve("bar2", "nope", nil)
	if !errors.Is(err, errors.ErrCodeUnknownCondition) {
		t.Fatalf("Resolve(unknown) error = %v, want UNKNOWN_CONDITION", err)
	}
	if e := err.(*errors.Error); e.Condition != "nope" || e.Region != "bar2" {
		t.Errorf("error context = condition %q region %q", e.Condition, e.Region)
	}

	_, err = r.Resolve("bar0", "sf_high", []geom.Point{geom.Pt(1234, 5678)})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Resolve(off-grid) error = %v, want INVALID_INPUT", err)
	}

	_, err = r.ResolveCrossing("crossing0", [2]string{"sf_high", "nope"}, nil)
	if !errors.Is(err, errors.ErrCodeUnknownCondition) {
		t.Errorf("ResolveCrossing(unknown) error = %v, want UNKNOWN_CONDITION", err)
	}
}

func TestResolveCrossingSplit(t *testing.T) {
	s := settings.Default()
	bg := s.Stimuli.Conditions[settings.Background]
	bg.Contrast = 0.5
	bg.Color = [3]float64{0, 0, 1}
	s.Stimuli.Conditions[settings.Background] = bg

	r, g := newResolver(t, s)
	subset := g.Points()[:9]

	e, err := r.ResolveCrossing("crossing0", [2]string{"sf_high", settings.Background}, subset)
	if err != nil {
		t.Fatalf("ResolveCrossing() error: %v", err)
	}
	if e.Texture.IsColored() {
		t.Error("two plain conditions should keep the grayscale texture")
	}

	var sfHigh, contrastFull, white int
	for i := range 9 {
		if e.SF[i] == 8 {
			sfHigh++
		}
		if e.Contrast[i] == 1 {
			contrastFull++
		}
		if e.Color[i] == [3]float64{1, 1, 1} {
			white++
		}
		if e.Opacity[i] != 1 {
			t.Errorf("Opacity[%d] = %v, want 1", i, e.Opacity[i])
		}
	}
	// ⌊9/2⌋ elements take the first condition's value.
	for name, got := range map[string]int{"sf": sfHigh, "contrast": contrastFull, "color": white} {
		if got != 4 {
			t.Errorf("%s: %d elements from the first condition, want 4", name, got)
		}
	}
	for i := 9; i < g.Len(); i++ {
		if e.Opacity[i] != 0 || e.Contrast[i] != 0 {
			t.Errorf("element %d outside the crossing is visible", i)
		}
	}
}

func TestResolveCrossingOneColored(t *testing.T) {
	r, g := newResolver(t, settings.Default())
	e, err := r.ResolveCrossing("crossing1", [2]string{"sf_high", "color_green"}, g.Points()[:6])
	if err != nil {
		t.Fatal(err)
	}
	if e.Texture.Name != "color_green" {
		t.Errorf("Texture = %q, want color_green", e.Texture.Name)
	}
	for i, c := range e.Color {
		if c != [3]float64{1, 1, 1} {
			t.Fatalf("Color[%d] = %v, want white under a colored texture", i, c)
		}
	}
	if e.Conditions[0] != "sf_high" || e.Conditions[1] != "color_green" {
		t.Errorf("Conditions = %v", e.Conditions)
	}
}

func TestResolvePositionJitter(t *testing.T) {
	s := settings.Default()
	s.Stimuli.PosJitter = [2]float64{1, 2}
	r, g := newResolver(t, s)

	e, err := r.Resolve("background", settings.Background, g.Points())
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range e.Positions {
		d := math.Abs(p.X - g.At(i).X)
		if d < 1 || d > 2 {
			t.Errorf("position %d moved by %v, want within [1, 2]", i, d)
		}
	}
}
