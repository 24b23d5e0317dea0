package sink

import (
	"bytes"
	"image"
	"math"

	"github.com/gogpu/gg"

	"github.com/prfstim/prfstim/pkg/attributes"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// RasterOption configures a [Raster].
type RasterOption func(*Raster)

// WithElementSize sets the on-screen element diameter in pixels.
func WithElementSize(px float64) RasterOption {
	return func(r *Raster) { r.elementSize = px }
}

// WithBackground sets the clear color.
func WithBackground(rgb [3]float64) RasterOption {
	return func(r *Raster) { r.background = rgb }
}

// WithSquareElements draws elements without the circular mask.
func WithSquareElements() RasterOption {
	return func(r *Raster) { r.round = false }
}

// WithFlipHandler is called with every presented frame.
func WithFlipHandler(fn func(image.Image) error) RasterOption {
	return func(r *Raster) { r.onFlip = fn }
}

// Raster draws textured elements into an in-memory canvas. Stimulus
// coordinates have their origin at the screen center with y up.
type Raster struct {
	screen      geom.Size
	elementSize float64
	background  [3]float64
	round       bool
	onFlip      func(image.Image) error

	dc      *gg.Context
	layers  layers
	patches map[patchKey]*gg.ImageBuf
	last    []byte
	flips   int
}

// NewRaster returns a raster sink for a screen of the given size.
func NewRaster(screen geom.Size, opts ...RasterOption) *Raster {
	r := &Raster{
		screen:      screen,
		elementSize: 24,
		background:  [3]float64{0.5, 0.5, 0.5},
		round:       true,
		layers:      make(layers),
		patches:     make(map[patchKey]*gg.ImageBuf),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.dc = gg.NewContext(int(math.Round(screen.W)), int(math.Round(screen.H)))
	r.clear()
	return r
}

func (r *Raster) Set(name string, e *attributes.Elements) error {
	return r.layers.set(name, e)
}

// Draw rasterizes every visible element of the named array.
func (r *Raster) Draw(name string) error {
	e, err := r.layers.get(name)
	if err != nil {
		return err
	}
	size := int(math.Round(r.elementSize))
	half := r.elementSize / 2
	for _, i := range e.Visible() {
		buf := r.patch(e, i, size)
		x, y := r.toCanvas(e.Positions[i])
		r.dc.Push()
		r.dc.RotateAbout(e.Ori[i]*math.Pi/180, x, y)
		r.dc.DrawImageEx(buf, gg.DrawImageOptions{
			X:         x - half,
			Y:         y - half,
			DstWidth:  r.elementSize,
			DstHeight: r.elementSize,
			Opacity:   e.Opacity[i],
			BlendMode: gg.BlendNormal,
		})
		r.dc.Pop()
	}
	return nil
}

// DrawFixation draws a dot at the screen center.
func (r *Raster) DrawFixation(rgb [3]float64, radius float64) error {
	r.dc.SetRGB(rgb[0], rgb[1], rgb[2])
	r.dc.DrawCircle(r.screen.W/2, r.screen.H/2, radius)
	return r.dc.Fill()
}

// Flip encodes the canvas as PNG, hands it to the flip handler and clears.
func (r *Raster) Flip() error {
	var buf bytes.Buffer
	if err := r.dc.EncodePNG(&buf); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode frame")
	}
	r.last = buf.Bytes()
	r.flips++
	if r.onFlip != nil {
		if err := r.onFlip(r.dc.Image()); err != nil {
			return err
		}
	}
	r.clear()
	return nil
}

// PNG returns the last presented frame.
func (r *Raster) PNG() []byte { return r.last }

// Flips returns the number of presented frames.
func (r *Raster) Flips() int { return r.flips }

// Close releases the canvas.
func (r *Raster) Close() error { return r.dc.Close() }

func (r *Raster) clear() {
	b := r.background
	r.dc.ClearWithColor(gg.RGB(b[0], b[1], b[2]))
}

func (r *Raster) toCanvas(p geom.Point) (float64, float64) {
	return r.screen.W/2 + p.X, r.screen.H/2 - p.Y
}

func (r *Raster) patch(e *attributes.Elements, i, size int) *gg.ImageBuf {
	k := patchKey{texture: e.TextureName(), sf: e.SF[i], contrast: e.Contrast[i], rgb: e.Color[i]}
	if buf, ok := r.patches[k]; ok {
		return buf
	}
	buf := gg.ImageBufFromImage(patch(e.Texture, size, k.sf, k.contrast, k.rgb, r.round))
	r.patches[k] = buf
	return buf
}

var (
	_ Sink     = (*Raster)(nil)
	_ Fixation = (*Raster)(nil)
)
