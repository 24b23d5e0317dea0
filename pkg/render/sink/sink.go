// Package sink draws resolved frames.
//
// A [Sink] receives one [attributes.Elements] per region, draws them in the
// order it is told and presents the result on Flip. Three sinks exist:
// [Raster] rasterizes textured elements with gogpu/gg, [Plot] draws a
// scatter preview of region membership with gonum/plot, and [JSON] writes
// one JSON document per frame.
//
//	r := sink.NewRaster(screen, sink.WithElementSize(24))
//	if err := sink.DrawFrame(r, frame); err != nil {
//	    return err
//	}
//	png := r.PNG()
package sink

import (
	"github.com/prfstim/prfstim/pkg/attributes"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/stim"
)

// Sink is a frame-stepped drawing target.
type Sink interface {
	// Set replaces the attributes of the named element array.
	Set(name string, e *attributes.Elements) error

	// Draw queues the named array for the current frame. Arrays drawn
	// later cover earlier ones.
	Draw(name string) error

	// Flip presents the frame and starts a new one.
	Flip() error
}

// Fixation is implemented by sinks that can draw the fixation dot.
type Fixation interface {
	DrawFixation(rgb [3]float64, radius float64) error
}

// DrawFrame sets and draws every layer of f in order and flips.
func DrawFrame(s Sink, f *stim.Frame) error {
	if err := QueueFrame(s, f); err != nil {
		return err
	}
	return s.Flip()
}

// QueueFrame sets and draws every layer of f without flipping, so callers
// can draw more on top.
func QueueFrame(s Sink, f *stim.Frame) error {
	for _, l := range f.Layers {
		if err := s.Set(l.Region, l); err != nil {
			return err
		}
		if err := s.Draw(l.Region); err != nil {
			return err
		}
	}
	return nil
}

// layers holds the element arrays a sink has been given.
type layers map[string]*attributes.Elements

func (ls layers) set(name string, e *attributes.Elements) error {
	if e == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil elements").WithRegion(name)
	}
	n := e.Len()
	if len(e.Positions) != n || len(e.Ori) != n || len(e.SF) != n || len(e.Contrast) != n || len(e.Color) != n {
		return errors.New(errors.ErrCodeInvalidInput, "attribute arrays differ in length").WithRegion(name)
	}
	ls[name] = e
	return nil
}

func (ls layers) get(name string) (*attributes.Elements, error) {
	e, ok := ls[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no element array named %q", name).WithRegion(name)
	}
	return e, nil
}
