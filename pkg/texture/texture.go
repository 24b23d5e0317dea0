// Package texture synthesizes element textures: the default grayscale
// sinusoid and colored gratings whose color is modulated along one HSV
// channel.
//
// Textures are square images at a power-of-two resolution. The rendering
// sink resamples them to the element's on-screen size with [Fit].
package texture

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/prfstim/prfstim/pkg/errors"
)

// NameSine is the name of the default grayscale texture.
const NameSine = "sin"

// Texture is an immutable element texture.
type Texture struct {
	// Name identifies the texture for sinks that cache uploads.
	Name string

	// Image is the texture at its native resolution.
	Image *image.NRGBA
}

// IsColored reports whether the texture carries its own color.
func (t Texture) IsColored() bool { return t.Name != NameSine }

// Res returns the texture's edge length in pixels.
func (t Texture) Res() int {
	if t.Image == nil {
		return 0
	}
	return t.Image.Bounds().Dx()
}

// Grating returns one cycle of a vertical sinusoid sampled on a res×res
// grid, row-major, normalized to [0, 1].
func Grating(res int) []float64 {
	if res <= 0 {
		return nil
	}
	row := make([]float64, res)
	for x := range row {
		row[x] = (math.Sin(2*math.Pi*float64(x)/float64(res)) + 1) / 2
	}
	out := make([]float64, res*res)
	for y := range res {
		copy(out[y*res:], row)
	}
	return out
}

// Sine returns the grayscale grating texture at resolution res.
func Sine(res int) Texture {
	img := image.NewNRGBA(image.Rect(0, 0, res, res))
	for i, v := range Grating(res) {
		g := uint8(math.Round(v * 255))
		img.SetNRGBA(i%res, i/res, color.NRGBA{R: g, G: g, B: g, A: 255})
	}
	return Texture{Name: NameSine, Image: img}
}

// Colored builds a colored grating of resolution res. hsv holds hue in
// degrees and saturation and value in [0, 1]. The grating replaces the
// given channel (0 hue, 1 saturation, 2 value) while the other two stay at
// hsv's values.
func Colored(name string, res int, hsv [3]float64, channel int) (Texture, error) {
	if channel < 0 || channel > 2 {
		return Texture{}, errors.New(errors.ErrCodeInvalidInput, "color channel must be 0, 1 or 2, got %d", channel).
			WithCondition(name)
	}
	if res <= 0 {
		return Texture{}, errors.New(errors.ErrCodeInvalidInput, "texture resolution must be positive, got %d", res).
			WithCondition(name)
	}

	img := image.NewNRGBA(image.Rect(0, 0, res, res))
	for i, v := range Grating(res) {
		c := hsv
		if channel == 0 {
			c[0] = v * 360
		} else {
			c[channel] = v
		}
		r, g, b := colorful.Hsv(c[0], c[1], c[2]).Clamped().RGB255()
		img.SetNRGBA(i%res, i/res, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return Texture{Name: name, Image: img}, nil
}

// Rounding selects the direction of [NearPowerOf2].
type Rounding int

const (
	Previous Rounding = iota
	Next
)

// NearPowerOf2 returns the power of two at or below (Previous) or at or
// above (Next) x. Zero and negative inputs give 1.
func NearPowerOf2(x float64, r Rounding) int {
	if x <= 0 {
		return 1
	}
	e := math.Log2(x)
	if r == Next {
		e = math.Ceil(e)
	} else {
		e = math.Floor(e)
	}
	if e < 0 {
		return 1
	}
	return 1 << int(e)
}
