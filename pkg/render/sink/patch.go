package sink

import (
	"image"
	"image/color"
	"math"

	"github.com/prfstim/prfstim/pkg/texture"
)

type patchKey struct {
	texture  string
	sf       float64
	contrast float64
	rgb      [3]float64
}

// patch renders one element: tex tiled sf times across size pixels,
// scaled around mid-gray by contrast, multiplied by rgb and cut to a
// circle when round is set.
func patch(tex texture.Texture, size int, sf, contrast float64, rgb [3]float64, round bool) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	if size <= 0 || tex.Image == nil {
		return out
	}
	cycle := size
	if sf > 0 {
		cycle = max(1, int(math.Round(float64(size)/sf)))
	}
	base := texture.Fit(tex.Image, cycle, cycle)

	r := float64(size) / 2
	for y := range size {
		for x := range size {
			if round {
				dx, dy := float64(x)+0.5-r, float64(y)+0.5-r
				if dx*dx+dy*dy > r*r {
					continue
				}
			}
			s := base.RGBAAt(x%cycle, y%cycle)
			out.SetNRGBA(x, y, color.NRGBA{
				R: modulate(s.R, contrast, rgb[0]),
				G: modulate(s.G, contrast, rgb[1]),
				B: modulate(s.B, contrast, rgb[2]),
				A: 255,
			})
		}
	}
	return out
}

func modulate(v uint8, contrast, tint float64) uint8 {
	signed := float64(v)/255*2 - 1
	out := (0.5 + 0.5*contrast*signed) * tint
	return uint8(math.Round(math.Max(0, math.Min(1, out)) * 255))
}
