package sink

import (
	"github.com/prfstim/prfstim/pkg/attributes"
)

// Recorder is a sink that only remembers what it was asked to draw. The
// simulated run and tests use it.
type Recorder struct {
	layers layers
	queue  []string

	// Frames holds the region names drawn in each presented frame.
	Frames [][]string
	// Fixations holds the fixation color of each presented frame, if any.
	Fixations [][3]float64
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{layers: make(layers)} }

func (r *Recorder) Set(name string, e *attributes.Elements) error {
	return r.layers.set(name, e)
}

func (r *Recorder) Draw(name string) error {
	if _, err := r.layers.get(name); err != nil {
		return err
	}
	r.queue = append(r.queue, name)
	return nil
}

func (r *Recorder) DrawFixation(rgb [3]float64, _ float64) error {
	r.Fixations = append(r.Fixations, rgb)
	return nil
}

func (r *Recorder) Flip() error {
	r.Frames = append(r.Frames, r.queue)
	r.queue = nil
	return nil
}

// Layer returns the last elements set under name.
func (r *Recorder) Layer(name string) (*attributes.Elements, bool) {
	e, ok := r.layers[name]
	return e, ok
}

var (
	_ Sink     = (*Recorder)(nil)
	_ Fixation = (*Recorder)(nil)
)
