package generator

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vancomm/minesweeper-server/internal/board"
	"github.com/vancomm/minesweeper-server/internal/solver"
	"github.com/vancomm/minesweeper-server/internal/topology"
)

// S1 — a classic 9x9/10 SQUARE board must certify within a handful of
// attempts, and a solver replay from its first click must open exactly the
// 71 non-mine cells.
func TestGenerateClassicBoard(t *testing.T) {
	cfg := Config{Width: 9, Height: 9, Kind: topology.Square, MineCount: 10}
	r := rand.New(rand.NewPCG(1, 1))

	b, attempts, err := Generate(context.Background(), cfg, 4, 4, r, nil)
	require.NoError(t, err)
	require.LessOrEqual(t, attempts, 100)

	replay := b.Clone()
	start := b.Topology().ToIndex(4, 4)
	require.True(t, solver.New(replay, cfg.MineCount).CheckSolvability(start))

	opened := countStatus(replay, board.Opened)
	require.Equal(t, 71, opened)
}

// S2 — a large TORUS board with a generous mine count must still converge
// within the retry budget. Expensive; skipped in -short runs.
func TestGenerateLargeTorusBoard(t *testing.T) {
	if testing.Short() {
		t.Skip("expensive rejection-sampling search")
	}

	cfg := Config{Width: 48, Height: 24, Kind: topology.Torus, MineCount: 256}
	r := rand.New(rand.NewPCG(42, 7))

	b, _, err := Generate(context.Background(), cfg, 0, 0, r, nil)
	require.NoError(t, err)

	mineCount := 0
	for idx := 0; idx < b.Len(); idx++ {
		if b.IsMine(idx) {
			mineCount++
		}
	}
	require.Equal(t, 256, mineCount)

	start := b.Topology().ToIndex(0, 0)
	require.False(t, b.IsMine(start))
	for _, n := range b.Topology().Neighbours(start) {
		require.False(t, b.IsMine(int(n)))
	}
}

func TestGenerateRespectsContextCancellation(t *testing.T) {
	cfg := Config{Width: 30, Height: 30, Kind: topology.Klein, MineCount: 500}
	r := rand.New(rand.NewPCG(3, 3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Generate(ctx, cfg, 0, 0, r, nil)
	require.Error(t, err)
}

func countStatus(b *board.Board, want board.CellStatus) int {
	n := 0
	for idx := 0; idx < b.Len(); idx++ {
		if b.Status(idx) == want {
			n++
		}
	}
	return n
}
