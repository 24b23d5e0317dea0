package sink

import (
	"encoding/json"
	"io"

	"github.com/prfstim/prfstim/pkg/attributes"
	"github.com/prfstim/prfstim/pkg/errors"
)

// JSON writes every presented frame as one line of JSON.
type JSON struct {
	enc    *json.Encoder
	layers layers
	queue  []string
	frame  int
}

type jsonFrame struct {
	Frame  int         `json:"frame"`
	Layers []jsonLayer `json:"layers"`
}

type jsonLayer struct {
	Texture string `json:"texture"`
	*attributes.Elements
}

// NewJSON returns a sink writing JSON lines to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w), layers: make(layers)}
}

func (j *JSON) Set(name string, e *attributes.Elements) error {
	return j.layers.set(name, e)
}

func (j *JSON) Draw(name string) error {
	if _, err := j.layers.get(name); err != nil {
		return err
	}
	j.queue = append(j.queue, name)
	return nil
}

// Flip writes the queued arrays in draw order.
func (j *JSON) Flip() error {
	out := jsonFrame{Frame: j.frame, Layers: make([]jsonLayer, 0, len(j.queue))}
	for _, name := range j.queue {
		e := j.layers[name]
		out.Layers = append(out.Layers, jsonLayer{Texture: e.TextureName(), Elements: e})
	}
	if err := j.enc.Encode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write frame %d", j.frame)
	}
	j.queue = j.queue[:0]
	j.frame++
	return nil
}

var _ Sink = (*JSON)(nil)
