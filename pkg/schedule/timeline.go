package schedule

import (
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// Timeline is the full bar schedule of a run. It is built once and only
// read afterwards.
type Timeline struct {
	Blocks []Block `json:"blocks"`

	// Refills counts index-set refills while scheduling.
	Refills int `json:"refills,omitempty"`
}

// Block is one mini-block. Tracks[0] is the attended condition.
type Block struct {
	Attended string  `json:"attended"`
	Tracks   []Track `json:"tracks"`
}

// Track is the per-trial bar of one condition.
type Track struct {
	Condition string     `json:"condition"`
	Bars      []geom.Bar `json:"bars"`
}

// Conditions returns the block's condition names, attended first.
func (b Block) Conditions() []string {
	out := make([]string, len(b.Tracks))
	for i, tr := range b.Tracks {
		out[i] = tr.Condition
	}
	return out
}

// Trials returns the number of trials in the block.
func (b Block) Trials() int {
	if len(b.Tracks) == 0 {
		return 0
	}
	return len(b.Tracks[0].Bars)
}

// Trial returns the bars shown in trial t, in condition order.
func (b Block) Trial(t int) ([]geom.Bar, error) {
	if t < 0 || t >= b.Trials() {
		return nil, errors.New(errors.ErrCodeNotFound, "trial %d out of range [0, %d)", t, b.Trials()).WithTrial(t)
	}
	bars := make([]geom.Bar, len(b.Tracks))
	for i, tr := range b.Tracks {
		bars[i] = tr.Bars[t]
	}
	return bars, nil
}

// Block returns mini-block i.
func (tl *Timeline) Block(i int) (Block, error) {
	if i < 0 || i >= len(tl.Blocks) {
		return Block{}, errors.New(errors.ErrCodeNotFound, "block %d out of range [0, %d)", i, len(tl.Blocks))
	}
	return tl.Blocks[i], nil
}

// Trial returns the conditions and bars for one trial of one block.
func (tl *Timeline) Trial(block, trial int) ([]string, []geom.Bar, error) {
	b, err := tl.Block(block)
	if err != nil {
		return nil, nil, err
	}
	bars, err := b.Trial(trial)
	if err != nil {
		return nil, nil, err
	}
	return b.Conditions(), bars, nil
}

// Trials returns the total number of trials over all blocks.
func (tl *Timeline) Trials() int {
	n := 0
	for _, b := range tl.Blocks {
		n += b.Trials()
	}
	return n
}
