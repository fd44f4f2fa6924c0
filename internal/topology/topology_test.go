package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S5 — topology symmetry (spec.md S5).
func TestTorusDegreeEight(t *testing.T) {
	tp, err := Build(4, 4, Torus)
	require.NoError(t, err)
	for idx := 0; idx < tp.Len(); idx++ {
		require.Lenf(t, tp.Neighbours(idx), 8, "cell %d", idx)
	}
	assertSymmetric(t, tp)
}

func TestSquareDegreeByPosition(t *testing.T) {
	tp, err := Build(4, 4, Square)
	require.NoError(t, err)

	corners := []int{0, 3, 12, 15}
	for _, idx := range corners {
		require.Lenf(t, tp.Neighbours(idx), 3, "corner %d", idx)
	}

	edges := []int{1, 2, 4, 7, 8, 11, 13, 14}
	for _, idx := range edges {
		require.Lenf(t, tp.Neighbours(idx), 5, "edge %d", idx)
	}

	interior := []int{5, 6, 9, 10}
	for _, idx := range interior {
		require.Lenf(t, tp.Neighbours(idx), 8, "interior %d", idx)
	}

	assertSymmetric(t, tp)
}

func TestAllKindsSatisfyInvariants(t *testing.T) {
	sizes := []struct{ w, h int }{{2, 2}, {3, 3}, {5, 4}, {9, 9}, {48, 24}}
	kinds := []Kind{Square, Torus, Mobius, Klein, Projective}

	for _, kind := range kinds {
		for _, sz := range sizes {
			tp, err := Build(sz.w, sz.h, kind)
			require.NoErrorf(t, err, "%s %dx%d", kind, sz.w, sz.h)

			for idx := 0; idx < tp.Len(); idx++ {
				n := tp.Neighbours(idx)
				require.GreaterOrEqualf(t, len(n), 3, "%s %dx%d cell %d", kind, sz.w, sz.h, idx)
				require.LessOrEqualf(t, len(n), 8, "%s %dx%d cell %d", kind, sz.w, sz.h, idx)

				seen := map[int32]struct{}{}
				for _, j := range n {
					require.NotEqualf(t, int32(idx), j, "%s self-loop at %d", kind, idx)
					_, dup := seen[j]
					require.Falsef(t, dup, "%s duplicate neighbour %d of %d", kind, j, idx)
					seen[j] = struct{}{}
				}
			}

			assertSymmetric(t, tp)
		}
	}
}

func assertSymmetric(t *testing.T, tp *Topology) {
	t.Helper()
	for i := 0; i < tp.Len(); i++ {
		for _, j := range tp.Neighbours(i) {
			found := false
			for _, back := range tp.Neighbours(int(j)) {
				if int(back) == i {
					found = true
					break
				}
			}
			require.Truef(t, found, "adjacency not symmetric: %d -> %d", i, j)
		}
	}
}

func TestToIndexToCoordRoundTrip(t *testing.T) {
	tp, err := Build(7, 5, Torus)
	require.NoError(t, err)
	for idx := 0; idx < tp.Len(); idx++ {
		x, y := tp.ToCoord(idx)
		require.Equal(t, idx, tp.ToIndex(x, y))
	}
}

func TestBuildCachedSharesInstanceByDimensionsAndKind(t *testing.T) {
	a, err := BuildCached(11, 11, Klein)
	require.NoError(t, err)
	b, err := BuildCached(11, 11, Klein)
	require.NoError(t, err)
	require.Same(t, a, b)

	c, err := BuildCached(11, 11, Torus)
	require.NoError(t, err)
	require.NotSame(t, a, c)
}

func TestBuildRejectsInvalidDimensions(t *testing.T) {
	_, err := Build(0, 5, Square)
	require.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = Build(5, 0, Torus)
	require.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = Build(1, 5, Mobius)
	require.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = Build(1, 5, Klein)
	require.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = Build(5, 1, Projective)
	require.ErrorIs(t, err, ErrInvalidDimensions)
}
