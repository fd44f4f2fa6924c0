// Mine placement, neighbour counts and per-cell visibility for a board
// bound to an immutable topology.
package board

import (
	"fmt"
	"math/rand/v2"

	"github.com/gammazero/deque"
	"github.com/vancomm/minesweeper-server/internal/topology"
)

// ErrPlacementInfeasible is returned by PlaceMines when the requested mine
// count cannot be satisfied given the safe zone around the first click.
var ErrPlacementInfeasible = fmt.Errorf("mine placement infeasible")

type CellStatus uint8

const (
	Hidden CellStatus = iota
	Opened
	Flagged
)

// Board owns the three parallel arrays describing one game: hidden mine
// truth, visible status, and the cached per-cell neighbour mine count.
// A Board is exclusively owned by one caller at a time; Clone hands out an
// independent copy sharing the (immutable) Topology.
type Board struct {
	topo *topology.Topology

	mines              []bool
	status             []CellStatus
	neighborMineCounts []int8

	placed   bool
	revision uint64
}

func New(topo *topology.Topology) *Board {
	n := topo.Len()
	b := &Board{
		topo:               topo,
		mines:              make([]bool, n),
		status:             make([]CellStatus, n),
		neighborMineCounts: make([]int8, n),
	}
	return b
}

func (b *Board) Topology() *topology.Topology { return b.topo }
func (b *Board) Width() int                   { return b.topo.Width() }
func (b *Board) Height() int                  { return b.topo.Height() }
func (b *Board) Len() int                     { return b.topo.Len() }
func (b *Board) Revision() uint64             { return b.revision }

func (b *Board) Status(idx int) CellStatus          { return b.status[idx] }
func (b *Board) NeighborMineCount(idx int) int8      { return b.neighborMineCounts[idx] }
func (b *Board) Neighbours(idx int) []int32          { return b.topo.Neighbours(idx) }

// IsMine exposes the hidden ground truth. The mines facade calls it to
// persist the layout and to render the player view; the solver package
// never calls it.
func (b *Board) IsMine(idx int) bool { return b.mines[idx] }

// safeZone is the first-click cell and its neighbours: never mined.
func (b *Board) safeZone(startIdx int) map[int]struct{} {
	zone := make(map[int]struct{}, 9)
	zone[startIdx] = struct{}{}
	for _, n := range b.topo.Neighbours(startIdx) {
		zone[int(n)] = struct{}{}
	}
	return zone
}

// PlaceMines samples mineCount distinct cells outside the safe zone around
// startIdx and fills neighborMineCounts in one pass. Must be called exactly
// once per Board.
func (b *Board) PlaceMines(mineCount, startIdx int, r *rand.Rand) error {
	if b.placed {
		return fmt.Errorf("mines already placed on this board")
	}

	zone := b.safeZone(startIdx)
	n := b.topo.Len()
	if mineCount < 0 || mineCount > n-len(zone) {
		return fmt.Errorf("%w: %d mines requested, %d cells available", ErrPlacementInfeasible, mineCount, n-len(zone))
	}

	candidates := make([]int, 0, n-len(zone))
	for idx := 0; idx < n; idx++ {
		if _, excluded := zone[idx]; !excluded {
			candidates = append(candidates, idx)
		}
	}

	maxAttempts := 20 * n
	placed := 0
	attempts := 0
	k := len(candidates)
	for placed < mineCount {
		if attempts >= maxAttempts {
			return fmt.Errorf("%w: exceeded %d placement draws", ErrPlacementInfeasible, maxAttempts)
		}
		attempts++
		i := r.IntN(k)
		b.mines[candidates[i]] = true
		placed++
		k--
		candidates[i] = candidates[k]
	}

	for idx := 0; idx < n; idx++ {
		if b.mines[idx] {
			b.neighborMineCounts[idx] = -1
			continue
		}
		var c int8
		for _, nb := range b.topo.Neighbours(idx) {
			if b.mines[nb] {
				c++
			}
		}
		b.neighborMineCounts[idx] = c
	}

	b.placed = true
	return nil
}

// FromLayout reconstructs a Board from an explicit mine layout, recomputing
// neighbour counts and leaving every cell Hidden. Used to restore a
// persisted game session, and to build hand-crafted layouts in tests.
func FromLayout(topo *topology.Topology, mines []bool) (*Board, error) {
	n := topo.Len()
	if len(mines) != n {
		return nil, fmt.Errorf("board: layout has %d cells, topology has %d", len(mines), n)
	}

	b := &Board{
		topo:               topo,
		mines:              append([]bool(nil), mines...),
		status:             make([]CellStatus, n),
		neighborMineCounts: make([]int8, n),
		placed:             true,
	}
	for idx := 0; idx < n; idx++ {
		if b.mines[idx] {
			b.neighborMineCounts[idx] = -1
			continue
		}
		var c int8
		for _, nb := range topo.Neighbours(idx) {
			if b.mines[nb] {
				c++
			}
		}
		b.neighborMineCounts[idx] = c
	}
	return b, nil
}

// Restore rebuilds a Board from a persisted mine layout, per-cell status and
// revision counter, recomputing neighbour counts rather than trusting the
// caller to have stored them. Used to decode a saved game session.
func Restore(topo *topology.Topology, mines []bool, status []CellStatus, revision uint64) (*Board, error) {
	b, err := FromLayout(topo, mines)
	if err != nil {
		return nil, err
	}
	if len(status) != len(mines) {
		return nil, fmt.Errorf("board: status has %d cells, layout has %d", len(status), len(mines))
	}
	copy(b.status, status)
	b.revision = revision
	return b, nil
}

// Open reveals idx. A zero-count reveal cascades through its neighbours
// using an explicit work-list so topologies with W*H beyond a comfortable
// call-stack depth are safe.
func (b *Board) Open(idx int) (exploded bool) {
	if b.status[idx] != Hidden {
		return false
	}

	if b.mines[idx] {
		b.status[idx] = Opened
		b.revision++
		return true
	}

	var q deque.Deque[int]
	q.PushBack(idx)
	b.status[idx] = Opened

	for q.Len() > 0 {
		cur := q.PopFront()
		if b.neighborMineCounts[cur] != 0 {
			continue
		}
		for _, nb32 := range b.topo.Neighbours(cur) {
			nb := int(nb32)
			if b.status[nb] == Hidden && !b.mines[nb] {
				b.status[nb] = Opened
				q.PushBack(nb)
			}
		}
	}

	b.revision++
	return false
}

func (b *Board) ToggleFlag(idx int) {
	switch b.status[idx] {
	case Hidden:
		b.status[idx] = Flagged
	case Flagged:
		b.status[idx] = Hidden
	default:
		return
	}
	b.revision++
}

func (b *Board) CountFlags() int {
	var n int
	for _, s := range b.status {
		if s == Flagged {
			n++
		}
	}
	return n
}

// CheckWin is true iff every non-mine cell is opened; mine cells may be in
// any state.
func (b *Board) CheckWin() bool {
	for idx, mined := range b.mines {
		if !mined && b.status[idx] != Opened {
			return false
		}
	}
	return true
}

// Clone deep-copies every mutable array, sharing the immutable Topology.
func (b *Board) Clone() *Board {
	c := &Board{
		topo:               b.topo,
		mines:              append([]bool(nil), b.mines...),
		status:             append([]CellStatus(nil), b.status...),
		neighborMineCounts: append([]int8(nil), b.neighborMineCounts...),
		placed:             b.placed,
		revision:           b.revision,
	}
	return c
}
