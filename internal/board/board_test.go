package board

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vancomm/minesweeper-server/internal/topology"
)

func mustTopo(t *testing.T, w, h int, kind topology.Kind) *topology.Topology {
	t.Helper()
	tp, err := topology.Build(w, h, kind)
	require.NoError(t, err)
	return tp
}

// S3-adjacent sanity: safe first click (spec.md invariant 3).
func TestPlaceMinesSafeZone(t *testing.T) {
	tp := mustTopo(t, 9, 9, topology.Square)
	b := New(tp)
	r := rand.New(rand.NewPCG(1, 2))
	start := tp.ToIndex(4, 4)
	require.NoError(t, b.PlaceMines(10, start, r))

	require.False(t, b.IsMine(start))
	for _, n := range tp.Neighbours(start) {
		require.False(t, b.IsMine(int(n)))
	}
}

// invariant 2: neighbour-count consistency for non-mine cells.
func TestNeighborMineCountConsistency(t *testing.T) {
	tp := mustTopo(t, 9, 9, topology.Torus)
	b := New(tp)
	r := rand.New(rand.NewPCG(7, 3))
	start := tp.ToIndex(0, 0)
	require.NoError(t, b.PlaceMines(15, start, r))

	for idx := 0; idx < tp.Len(); idx++ {
		if b.IsMine(idx) {
			require.EqualValues(t, -1, b.NeighborMineCount(idx))
			continue
		}
		var want int8
		for _, n := range tp.Neighbours(idx) {
			if b.IsMine(int(n)) {
				want++
			}
		}
		require.Equal(t, want, b.NeighborMineCount(idx))
	}
}

func TestPlaceMinesInfeasible(t *testing.T) {
	tp := mustTopo(t, 3, 3, topology.Square)
	b := New(tp)
	r := rand.New(rand.NewPCG(1, 1))
	start := tp.ToIndex(1, 1) // centre of 3x3, safe zone is all 9 cells
	err := b.PlaceMines(1, start, r)
	require.ErrorIs(t, err, ErrPlacementInfeasible)
}

func TestPlaceMinesTwiceFails(t *testing.T) {
	tp := mustTopo(t, 5, 5, topology.Square)
	b := New(tp)
	r := rand.New(rand.NewPCG(1, 1))
	start := tp.ToIndex(0, 0)
	require.NoError(t, b.PlaceMines(3, start, r))
	require.Error(t, b.PlaceMines(3, start, r))
}

// S6 — flood open (spec.md S6).
func TestFloodOpen(t *testing.T) {
	tp := mustTopo(t, 5, 5, topology.Square)
	mineIdx := tp.ToIndex(0, 0)
	layout := make([]bool, tp.Len())
	layout[mineIdx] = true
	b, err := FromLayout(tp, layout)
	require.NoError(t, err)

	start := tp.ToIndex(4, 4)
	exploded := b.Open(start)
	require.False(t, exploded)

	opened := 0
	for idx := 0; idx < tp.Len(); idx++ {
		if b.status[idx] == Opened {
			opened++
		}
	}
	require.Equal(t, 24, opened)
	require.Equal(t, Hidden, b.status[mineIdx])
}

func TestOpenIsNoOpOnOpenedOrFlagged(t *testing.T) {
	tp := mustTopo(t, 4, 4, topology.Square)
	b := New(tp)
	r := rand.New(rand.NewPCG(2, 2))
	start := tp.ToIndex(0, 0)
	require.NoError(t, b.PlaceMines(1, start, r))

	b.Open(start)
	rev := b.Revision()
	require.False(t, b.Open(start))
	require.Equal(t, rev, b.Revision())

	target := -1
	for idx := 0; idx < tp.Len(); idx++ {
		if b.status[idx] == Hidden {
			target = idx
			break
		}
	}
	require.GreaterOrEqual(t, target, 0)
	b.ToggleFlag(target)
	require.False(t, b.Open(target))
	require.Equal(t, Flagged, b.status[target])
}

func TestToggleFlagTwiceIsIdempotent(t *testing.T) {
	tp := mustTopo(t, 4, 4, topology.Square)
	b := New(tp)
	b.ToggleFlag(5)
	require.Equal(t, Flagged, b.status[5])
	b.ToggleFlag(5)
	require.Equal(t, Hidden, b.status[5])
}

func TestCheckWin(t *testing.T) {
	tp := mustTopo(t, 3, 3, topology.Square)
	b := New(tp)
	r := rand.New(rand.NewPCG(4, 4))
	start := tp.ToIndex(1, 1)
	require.NoError(t, b.PlaceMines(0, start, r))

	require.False(t, b.CheckWin())
	for idx := 0; idx < tp.Len(); idx++ {
		b.Open(idx)
	}
	require.True(t, b.CheckWin())
}

// invariant 6: clone independence.
func TestCloneIndependence(t *testing.T) {
	tp := mustTopo(t, 5, 5, topology.Square)
	b := New(tp)
	r := rand.New(rand.NewPCG(9, 9))
	start := tp.ToIndex(2, 2)
	require.NoError(t, b.PlaceMines(3, start, r))
	b.Open(start)

	// Toggle a cell the flood left Hidden; ToggleFlag is a no-op on an
	// Opened cell.
	hidden := -1
	for idx := 0; idx < tp.Len(); idx++ {
		if b.status[idx] == Hidden {
			hidden = idx
			break
		}
	}
	require.GreaterOrEqual(t, hidden, 0)

	c := b.Clone()
	c.ToggleFlag(hidden)
	c.mines[1] = !c.mines[1]
	c.neighborMineCounts[2] = 99

	require.NotEqual(t, c.status[hidden], b.status[hidden])
	require.NotEqual(t, c.mines[1], b.mines[1])
	require.NotEqual(t, c.neighborMineCounts[2], b.neighborMineCounts[2])
}

func TestCountFlags(t *testing.T) {
	tp := mustTopo(t, 4, 4, topology.Square)
	b := New(tp)
	b.ToggleFlag(0)
	b.ToggleFlag(1)
	b.ToggleFlag(1)
	b.ToggleFlag(2)
	require.Equal(t, 2, b.CountFlags())
}
