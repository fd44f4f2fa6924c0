// Board generation by rejection sampling: place mines, run the solver to a
// fixpoint, keep the attempt only if the solver proves the whole board
// openable without a guess. Mirrors the reference generator's retry loop
// but drives internal/solver instead of a CSP perturbation pass.
package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/vancomm/minesweeper-server/internal/board"
	"github.com/vancomm/minesweeper-server/internal/solver"
	"github.com/vancomm/minesweeper-server/internal/topology"
)

// MaxRetry bounds the number of rejection-sampling attempts before
// Generate gives up. Dense boards on small topologies or unlucky mine
// counts on exotic surfaces can need a few hundred attempts; each failed
// attempt costs one solver run to quiescence.
const MaxRetry = 2000

// TimeSlice is how long Generate runs between onProgress callbacks, giving a
// caller a periodic chance to report progress or abort the search by
// returning an error. ctx is checked separately, before every attempt.
const TimeSlice = 15 * time.Millisecond

// ErrExhausted is returned when MaxRetry attempts all produced a board that
// needed a guess.
var ErrExhausted = fmt.Errorf("generator: exhausted retry budget without a no-guess board")

type Config struct {
	Width, Height int
	Kind          topology.Kind
	MineCount     int

	// SubsetInference enables the solver's optional pairwise strengthening
	// pass during certification. Never changes which boards are accepted,
	// only how quickly they're proven (see solver.WithSubsetInference).
	SubsetInference bool
}

// ProgressFunc is invoked periodically during a long search. Returning a
// non-nil error aborts Generate with that error.
type ProgressFunc func(attempt int) error

// Generate builds a topology matching cfg and repeatedly places mines
// around startIdx, accepting the first placement the solver certifies as
// fully solvable without a guess from startIdx. The returned Board has
// startIdx already opened, matching how a real session begins. The returned
// int is the number of rejection-sampling attempts actually made,
// independent of how often (if at all) onProgress fired.
func Generate(ctx context.Context, cfg Config, startX, startY int, r *rand.Rand, onProgress ProgressFunc) (*board.Board, int, error) {
	topo, err := topology.BuildCached(cfg.Width, cfg.Height, cfg.Kind)
	if err != nil {
		return nil, 0, err
	}
	startIdx := topo.ToIndex(startX, startY)

	deadline := time.Now().Add(TimeSlice)
	for attempt := 1; attempt <= MaxRetry; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, err
		}
		if now := time.Now(); now.After(deadline) {
			if onProgress != nil {
				if err := onProgress(attempt); err != nil {
					return nil, attempt - 1, err
				}
			}
			deadline = now.Add(TimeSlice)
		}

		b := board.New(topo)
		if err := b.PlaceMines(cfg.MineCount, startIdx, r); err != nil {
			return nil, attempt, err
		}

		var opts []solver.Option
		if cfg.SubsetInference {
			opts = append(opts, solver.WithSubsetInference())
		}
		proof := b.Clone()
		s := solver.New(proof, cfg.MineCount, opts...)
		if !s.CheckSolvability(startIdx) {
			continue
		}

		// The solver drove a clone to full proof; b itself is untouched
		// apart from its mine layout, so the caller sees a fresh game with
		// only the opening click applied.
		b.Open(startIdx)
		return b, attempt, nil
	}

	return nil, MaxRetry, ErrExhausted
}
