package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gregoryjjb/crabcups/cups"
)

var solverLog zerolog.Logger

func init() {
	solverLog = log.With().Str("component", "solver").Logger()
}

// Answer holds both puzzle results: the cup order after cup 1 on the small
// ring and the product of the two cups after cup 1 on the large ring.
type Answer struct {
	Order   string `json:"order"`
	Product uint64 `json:"product"`
}

// Solve plays both puzzle variants in parallel on separate rings. Both rings
// are built before anything runs, so bad input fails fast.
func Solve(ctx context.Context, initial []cups.Label, pc PuzzleConfig) (Answer, error) {
	small, err := cups.New(initial, 0)
	if err != nil {
		return Answer{}, err
	}
	large, err := cups.New(initial, pc.LargeSize)
	if err != nil {
		return Answer{}, err
	}

	var answer Answer
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sim := cups.Simulator{Interval: pc.ProgressInterval}
		if err := sim.Run(gctx, small, pc.SmallMoves); err != nil {
			return err
		}
		answer.Order = small.OrderString()
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		sim := cups.Simulator{
			Interval: pc.ProgressInterval,
			Progress: func(p cups.Progress) {
				if p.Total == 0 {
					return
				}
				solverLog.Debug().
					Int("done", p.Done).
					Int("total", p.Total).
					Int("percent", p.Done*100/p.Total).
					Msg("Simulating large ring")
			},
		}
		if err := sim.Run(gctx, large, pc.LargeMoves); err != nil {
			return err
		}
		answer.Product = large.PairProduct()
		if e := solverLog.Debug(); e.Enabled() {
			large.MustVerify()
			e.Int("cups", large.Len()).Msg("Large ring verified")
		}

		solverLog.Info().
			Int("cups", large.Len()).
			Int("moves", pc.LargeMoves).
			Dur("took", time.Since(start)).
			Msg("Large ring finished")
		return nil
	})

	if err := g.Wait(); err != nil {
		return Answer{}, err
	}

	movesTotal.Add(float64(pc.SmallMoves + pc.LargeMoves))

	return answer, nil
}
