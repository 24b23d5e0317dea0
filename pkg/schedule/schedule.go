package schedule

import (
	"math/rand/v2"
	"slices"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// Config describes the mini-block design.
type Config struct {
	// Attend lists the conditions; block b attends Attend[b % len(Attend)].
	Attend []string `json:"attend"`

	// Candidate midpoints per direction, usually from [Candidates].
	Horizontal []geom.Point `json:"horizontal"`
	Vertical   []geom.Point `json:"vertical"`

	MiniBlocks   int `json:"mini_blocks"`
	BarsPerTrial int `json:"bars_per_trial"`
	VerBars      int `json:"ver_bars"`
	HorBars      int `json:"hor_bars"`

	Width geom.Point `json:"width"`

	// Budget caps reshuffles per slot; zero means DefaultBudget.
	Budget int `json:"budget,omitempty"`
}

// TrialsPerBlock is the number of trials in every mini-block: one per
// candidate position of either direction.
func (c Config) TrialsPerBlock() int { return len(c.Horizontal) + len(c.Vertical) }

// Validate reports impossible designs as CONFIGURATION errors.
func (c Config) Validate() error {
	switch {
	case c.MiniBlocks < 1:
		return errors.New(errors.ErrCodeConfiguration, "mini_blocks must be at least 1, got %d", c.MiniBlocks)
	case c.BarsPerTrial < 1:
		return errors.New(errors.ErrCodeConfiguration, "bars_per_trial must be at least 1, got %d", c.BarsPerTrial)
	case c.VerBars < 0 || c.HorBars < 0:
		return errors.New(errors.ErrCodeConfiguration, "ver_bars and hor_bars must be non-negative")
	case c.VerBars+c.HorBars != c.BarsPerTrial:
		return errors.New(errors.ErrCodeConfiguration,
			"ver_bars (%d) + hor_bars (%d) must equal bars_per_trial (%d)", c.VerBars, c.HorBars, c.BarsPerTrial)
	case len(c.Attend) < c.BarsPerTrial:
		return errors.New(errors.ErrCodeConfiguration,
			"%d attend conditions cannot fill %d bars per trial", len(c.Attend), c.BarsPerTrial)
	case c.TrialsPerBlock() == 0:
		return errors.New(errors.ErrCodeConfiguration, "no candidate bar positions")
	}
	seen := make(map[string]bool, len(c.Attend))
	for _, name := range c.Attend {
		if name == "" {
			return errors.New(errors.ErrCodeConfiguration, "empty condition name in attend list")
		}
		if seen[name] {
			return errors.New(errors.ErrCodeConfiguration, "condition listed twice in attend list").WithCondition(name)
		}
		seen[name] = true
	}
	return nil
}

// BlockConditions returns the conditions shown in block b: the attended
// condition first, then the others in list order, n in total.
func BlockConditions(attend []string, b, n int) []string {
	if len(attend) == 0 || n <= 0 {
		return nil
	}
	first := attend[b%len(attend)]
	out := make([]string, 0, n)
	out = append(out, first)
	for _, name := range attend {
		if len(out) == n {
			break
		}
		if name != first {
			out = append(out, name)
		}
	}
	return out
}

// Schedule builds the bar timeline for every mini-block.
//
// Each trial column holds exactly VerBars vertical and HorBars horizontal
// bars, assigned to the block's conditions in a freshly shuffled order.
// Midpoints come from one [IndexSet] per direction with one slot per
// simultaneous bar, so same-direction bars in a trial never share a
// midpoint. Index sets refill transparently when exhausted.
func Schedule(rng *rand.Rand, cfg Config) (*Timeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	trials := cfg.TrialsPerBlock()
	tl := &Timeline{Blocks: make([]Block, cfg.MiniBlocks)}

	for b := range cfg.MiniBlocks {
		conds := BlockConditions(cfg.Attend, b, cfg.BarsPerTrial)

		hor, err := directionSet(rng, cfg.HorBars, len(cfg.Horizontal), cfg.Budget)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "block %d horizontal positions", b)
		}
		ver, err := directionSet(rng, cfg.VerBars, len(cfg.Vertical), cfg.Budget)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "block %d vertical positions", b)
		}

		block := Block{Attended: conds[0], Tracks: make([]Track, len(conds))}
		for k, name := range conds {
			block.Tracks[k] = Track{Condition: name, Bars: make([]geom.Bar, trials)}
		}

		column := make([]geom.Direction, 0, cfg.BarsPerTrial)
		for range cfg.VerBars {
			column = append(column, geom.Vertical)
		}
		for range cfg.HorBars {
			column = append(column, geom.Horizontal)
		}

		for t := range trials {
			dirs := slices.Clone(column)
			rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

			hIdx, err := next(hor)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "block %d horizontal refill", b).WithTrial(t)
			}
			vIdx, err := next(ver)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "block %d vertical refill", b).WithTrial(t)
			}

			var hi, vi int
			for k, d := range dirs {
				var mid geom.Point
				if d == geom.Vertical {
					mid = cfg.Vertical[vIdx[vi]]
					vi++
				} else {
					mid = cfg.Horizontal[hIdx[hi]]
					hi++
				}
				block.Tracks[k].Bars[t] = geom.Bar{Midpoint: mid, Direction: d, Width: cfg.Width}
			}
		}
		tl.Blocks[b] = block
		tl.Refills += refills(hor) + refills(ver)
	}
	return tl, nil
}

func directionSet(rng *rand.Rand, slots, candidates, budget int) (*IndexSet, error) {
	if slots == 0 {
		return nil, nil
	}
	return NewIndexSet(rng, slots, candidates, budget)
}

func next(s *IndexSet) ([]int, error) {
	if s == nil {
		return nil, nil
	}
	return s.Next()
}

func refills(s *IndexSet) int {
	if s == nil {
		return 0
	}
	return s.Refills()
}
