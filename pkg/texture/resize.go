package texture

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
	xdraw "golang.org/x/image/draw"
)

// Fit resamples img to w×h. Square targets use a linear resize; other
// shapes are scaled with Catmull-Rom.
func Fit(img image.Image, w, h int) *image.RGBA {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	if w == h {
		return transform.Resize(img, w, h, transform.Linear)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}
