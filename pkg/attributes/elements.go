package attributes

import (
	"github.com/prfstim/prfstim/pkg/geom"
	"github.com/prfstim/prfstim/pkg/texture"
)

// Elements is the drawing state of one element array for one frame. Every
// slice has one entry per grid position, in grid order. Positions outside
// the region have contrast 0 and opacity 0.
//
// Elements values are built by [Resolver] and must be treated as read-only.
type Elements struct {
	Region     string   `json:"region"`
	Conditions []string `json:"conditions"`

	Texture texture.Texture `json:"-"`

	SF        []float64    `json:"sf"`
	Ori       []float64    `json:"ori"`
	Contrast  []float64    `json:"contrast"`
	Color     [][3]float64 `json:"color"`
	Opacity   []float64    `json:"opacity"`
	Positions []geom.Point `json:"positions"`
}

// Len returns the number of elements.
func (e *Elements) Len() int { return len(e.Opacity) }

// Visible returns the indices with non-zero opacity.
func (e *Elements) Visible() []int {
	var out []int
	for i, o := range e.Opacity {
		if o > 0 {
			out = append(out, i)
		}
	}
	return out
}

// TextureName returns the texture's name, for serializers.
func (e *Elements) TextureName() string { return e.Texture.Name }
