package solver

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vancomm/minesweeper-server/internal/board"
	"github.com/vancomm/minesweeper-server/internal/topology"
)

func mustTopo(t *testing.T, w, h int, kind topology.Kind) *topology.Topology {
	t.Helper()
	tp, err := topology.Build(w, h, kind)
	require.NoError(t, err)
	return tp
}

func layoutWithMines(t *testing.T, tp *topology.Topology, mines ...int) *board.Board {
	t.Helper()
	l := make([]bool, tp.Len())
	for _, idx := range mines {
		l[idx] = true
	}
	b, err := board.FromLayout(tp, l)
	require.NoError(t, err)
	return b
}

// S4 — Tier 2 alone resolves the last hidden cell on a tiny board once every
// other cell is known.
func TestTier2ResolvesLastCorner(t *testing.T) {
	tp := mustTopo(t, 3, 3, topology.Square)
	mine := tp.ToIndex(2, 2)
	b := layoutWithMines(t, tp, mine)

	start := tp.ToIndex(0, 0)
	s := New(b, 1)
	require.True(t, s.CheckSolvability(start))
	require.True(t, b.CheckWin())
}

// S3 — a 1-2-1 frontier pattern that Tier 1/2 alone cannot resolve; only
// Tier 3's per-cell contradiction search proves the layout fully. Opening
// the bottom middle cell floods rows 1-2, leaving row 1 reading 1-2-1 under
// the three hidden cells of row 0.
func TestTier3ResolvesContradictionCase(t *testing.T) {
	tp := mustTopo(t, 3, 3, topology.Square)
	mines := []int{tp.ToIndex(0, 0), tp.ToIndex(2, 0)}
	b := layoutWithMines(t, tp, mines...)

	start := tp.ToIndex(1, 2)
	s := New(b, len(mines))
	require.True(t, s.CheckSolvability(start))
	require.True(t, b.CheckWin())
}

// A layout Tier 1/2/3 all fail to finish: an isolated safe cell with no
// opened numbered neighbour to ever constrain it.
func TestUnsolvableLayoutFails(t *testing.T) {
	tp := mustTopo(t, 9, 9, topology.Square)
	start := tp.ToIndex(0, 0)

	var mines []int
	for idx := 0; idx < tp.Len(); idx++ {
		if idx != start {
			mines = append(mines, idx)
		}
	}
	// Leave exactly one non-start, non-adjacent cell safe but disconnected
	// from the opened frontier by a ring of mines, so no tier can ever
	// reach a verdict on it.
	farIdx := tp.ToIndex(8, 8)
	layout := make([]bool, tp.Len())
	for _, idx := range mines {
		if idx == farIdx {
			continue
		}
		layout[idx] = true
	}
	b, err := board.FromLayout(tp, layout)
	require.NoError(t, err)

	s := New(b, len(mines)-1)
	require.False(t, s.CheckSolvability(start))
}

func TestSubsetInferenceDoesNotChangeVerdict(t *testing.T) {
	tp := mustTopo(t, 6, 6, topology.Square)
	start := tp.ToIndex(3, 3)

	for trial := 0; trial < 20; trial++ {
		r := rand.New(rand.NewPCG(uint64(trial), 5))
		b1 := board.New(tp)
		if err := b1.PlaceMines(6, start, r); err != nil {
			continue
		}
		b2 := b1.Clone()

		plain := New(b1, 6)
		withSubset := New(b2, 6, WithSubsetInference())

		got1 := plain.CheckSolvability(start)
		got2 := withSubset.CheckSolvability(start)

		// subsetPass only resolves cells Tier 3 could also resolve, so
		// enabling it must never flip the overall verdict.
		require.Equal(t, got1, got2)
	}
}

// invariant 4 — every deduction the solver commits to must match the true
// hidden layout, across many random boards.
func TestSoundnessAgainstRandomBoards(t *testing.T) {
	tp := mustTopo(t, 8, 8, topology.Torus)
	start := tp.ToIndex(0, 0)

	for trial := 0; trial < 30; trial++ {
		r := rand.New(rand.NewPCG(uint64(trial)+1, uint64(trial)*7+3))
		b := board.New(tp)
		if err := b.PlaceMines(12, start, r); err != nil {
			continue
		}

		s := New(b, 12)
		s.CheckSolvability(start)

		for _, idx := range s.KnownMines() {
			require.Truef(t, b.IsMine(idx), "claimed mine at %d is not a mine", idx)
		}
		for _, idx := range s.KnownSafe() {
			require.Falsef(t, b.IsMine(idx), "claimed safe at %d is a mine", idx)
		}
	}
}
