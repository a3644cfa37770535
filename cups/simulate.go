package cups

import (
	"context"
	"fmt"
)

// DefaultInterval is how many moves run between cancellation checks and
// progress reports when Simulator.Interval is not set.
const DefaultInterval = 100_000

type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Simulator plays moves on a ring. It checks for cancellation and reports
// progress only between moves, so the ring is never observed mid-splice.
type Simulator struct {
	Interval int
	// Progress, if set, is called every Interval moves and once at the end.
	Progress func(Progress)
}

// Play runs moves moves on r with no way to stop early.
func Play(r *Ring, moves int) {
	for i := 0; i < moves; i++ {
		move(r)
	}
}

// Run plays moves moves on r. If ctx is cancelled the run stops at the next
// interval boundary and returns ctx.Err(); r is left ready for another move.
func (s *Simulator) Run(ctx context.Context, r *Ring, moves int) error {
	if moves < 0 {
		return fmt.Errorf("%w: move count must not be negative, got %d", ErrConfig, moves)
	}

	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	for done := 0; done < moves; {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch := min(interval, moves-done)
		Play(r, batch)
		done += batch

		if s.Progress != nil && done < moves {
			s.Progress(Progress{Done: done, Total: moves})
		}
	}

	if s.Progress != nil {
		s.Progress(Progress{Done: moves, Total: moves})
	}

	return nil
}

func move(r *Ring) {
	current := r.current
	picked := r.RemoveThreeAfter(current)
	r.InsertThreeAfter(r.destination(current, picked), picked)
	r.current = r.next[current]
}

// destination walks down from current-1, wrapping from 0 to N, skipping the
// picked up cups. At most three candidates are skipped since N >= 4.
func (r *Ring) destination(current Label, picked Triple) Label {
	top := Label(r.Len())
	d := current
	for {
		d--
		if d == 0 {
			d = top
		}
		if !picked.Contains(d) {
			return d
		}
	}
}
