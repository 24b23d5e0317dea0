package sink

import (
	"bytes"
	"image/color"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/prfstim/prfstim/pkg/attributes"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// Plot draws a scatter of each region's visible element centers, one color
// per region. It shows which grid points each region owns, not what the
// participant sees.
type Plot struct {
	screen geom.Size
	title  string
	width  vg.Length
	height vg.Length

	layers layers
	queue  []string
	last   []byte
}

// NewPlot returns a preview sink. title may be empty.
func NewPlot(screen geom.Size, title string) *Plot {
	return &Plot{
		screen: screen,
		title:  title,
		width:  8 * vg.Inch,
		height: vg.Length(8*screen.H/screen.W) * vg.Inch,
		layers: make(layers),
	}
}

func (p *Plot) Set(name string, e *attributes.Elements) error {
	return p.layers.set(name, e)
}

func (p *Plot) Draw(name string) error {
	if _, err := p.layers.get(name); err != nil {
		return err
	}
	if !slices.Contains(p.queue, name) {
		p.queue = append(p.queue, name)
	}
	return nil
}

// Flip renders the queued regions to PNG.
func (p *Plot) Flip() error {
	pl := plot.New()
	pl.Title.Text = p.title
	pl.X.Label.Text = "x (px)"
	pl.Y.Label.Text = "y (px)"
	pl.X.Min, pl.X.Max = -p.screen.W/2, p.screen.W/2
	pl.Y.Min, pl.Y.Max = -p.screen.H/2, p.screen.H/2

	colors := palette(len(p.queue))
	for k, name := range p.queue {
		e := p.layers[name]
		vis := e.Visible()
		if len(vis) == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, len(vis))
		for _, i := range vis {
			pts = append(pts, plotter.XY{X: e.Positions[i].X, Y: e.Positions[i].Y})
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "scatter %s", name)
		}
		s.GlyphStyle.Color = colors[k]
		s.GlyphStyle.Radius = vg.Points(2)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		pl.Add(s)
		pl.Legend.Add(name, s)
	}

	wt, err := pl.WriterTo(p.width, p.height, "png")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "plot writer")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode plot")
	}
	p.last = buf.Bytes()
	p.queue = p.queue[:0]
	return nil
}

// PNG returns the last rendered plot.
func (p *Plot) PNG() []byte { return p.last }

// palette returns n evenly spaced hues. The first color, used for the
// background, is gray.
func palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		if i == 0 {
			out[i] = color.Gray{Y: 160}
			continue
		}
		h := 360 * float64(i-1) / float64(max(1, n-1))
		r, g, b := colorful.Hsv(h, 0.8, 0.9).RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

var _ Sink = (*Plot)(nil)
