// Deductive solving in three ascending inference tiers: local constraint,
// global mine count, and single-cell contradiction search. Certifies that a
// generated board needs no guess, and can also analyse a live position.
//
// The solver is given a *board.Board and is trusted never to read its mine
// layout (board.Board.IsMine) anywhere in this package outside tests built
// to check soundness against it — every tier decides purely from Status,
// NeighborMineCount and Neighbours, matching spec's boundary between the
// solver's public view and the board's hidden ground truth.
package solver

import (
	"github.com/vancomm/minesweeper-server/internal/board"
)

type Option func(*Solver)

// WithSubsetInference turns on a pairwise subset-inference pass run between
// Tier 1 and Tier 3. It strictly strengthens deduction power without
// weakening soundness: every cell it resolves is also resolvable (more
// slowly) by Tier 3's contradiction search. Off by default to match the
// reference tier ordering.
func WithSubsetInference() Option {
	return func(s *Solver) { s.subsetInference = true }
}

// Solver accumulates knownMines/knownSafe deductions against one Board and
// a global mine total. It is either live (stepped by CheckSolvability) or a
// short-lived snapshot explored inside Tier 3.
type Solver struct {
	board      *board.Board
	totalMines int

	knownMines *bitset
	knownSafe  *bitset
	isValid    bool

	subsetInference bool
}

func New(b *board.Board, totalMines int, opts ...Option) *Solver {
	n := b.Len()
	s := &Solver{
		board:      b,
		totalMines: totalMines,
		knownMines: newBitset(n),
		knownSafe:  newBitset(n),
		isValid:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solver) IsValid() bool    { return s.isValid }
func (s *Solver) KnownMines() []int { return s.knownMines.Indices() }
func (s *Solver) KnownSafe() []int   { return s.knownSafe.Indices() }

func (s *Solver) isUnknown(idx int) bool {
	return s.board.Status(idx) == board.Hidden &&
		!s.knownMines.Has(idx) && !s.knownSafe.Has(idx)
}

// tier1 runs the local constraint rule to fixpoint and reports whether any
// set changed. Sets isValid false and returns on the first contradiction.
func (s *Solver) tier1() bool {
	progress := false
	for {
		changed := false
		for idx := 0; idx < s.board.Len(); idx++ {
			if s.board.Status(idx) != board.Opened {
				continue
			}
			c := s.board.NeighborMineCount(idx)
			if c <= 0 {
				continue
			}

			var m, h int
			for _, nb32 := range s.board.Neighbours(idx) {
				nb := int(nb32)
				switch {
				case s.knownMines.Has(nb):
					m++
				case s.isUnknown(nb):
					h++
				}
			}

			r := int(c) - m
			if r < 0 || r > h {
				s.isValid = false
				return true
			}
			if h == 0 {
				continue
			}
			if r == h {
				for _, nb32 := range s.board.Neighbours(idx) {
					nb := int(nb32)
					if s.isUnknown(nb) {
						s.knownMines.Set(nb)
						changed = true
					}
				}
			} else if r == 0 {
				for _, nb32 := range s.board.Neighbours(idx) {
					nb := int(nb32)
					if s.isUnknown(nb) {
						s.knownSafe.Set(nb)
						changed = true
					}
				}
			}
		}
		if changed {
			progress = true
			continue
		}
		return progress
	}
}

// tier2 applies the global mine-count rule once.
func (s *Solver) tier2() bool {
	var unknown []int
	for idx := 0; idx < s.board.Len(); idx++ {
		if s.isUnknown(idx) {
			unknown = append(unknown, idx)
		}
	}
	r := s.totalMines - s.knownMines.Count()
	if r < 0 || r > len(unknown) {
		s.isValid = false
		return true
	}
	if len(unknown) == 0 {
		return false
	}
	switch {
	case r == len(unknown):
		for _, idx := range unknown {
			s.knownMines.Set(idx)
		}
		return true
	case r == 0:
		for _, idx := range unknown {
			s.knownSafe.Set(idx)
		}
		return true
	default:
		return false
	}
}

// frontier is the set of unknown cells adjacent to at least one opened
// numbered cell.
func (s *Solver) frontier() []int {
	seen := make(map[int]struct{})
	var out []int
	for idx := 0; idx < s.board.Len(); idx++ {
		if s.board.Status(idx) != board.Opened || s.board.NeighborMineCount(idx) <= 0 {
			continue
		}
		for _, nb32 := range s.board.Neighbours(idx) {
			nb := int(nb32)
			if s.isUnknown(nb) {
				if _, ok := seen[nb]; !ok {
					seen[nb] = struct{}{}
					out = append(out, nb)
				}
			}
		}
	}
	return out
}

// snapshot returns a deep copy suitable for a hypothetical: its own Board
// clone plus copies of both known sets. The snapshot is discarded after use.
func (s *Solver) snapshot() *Solver {
	return &Solver{
		board:      s.board.Clone(),
		totalMines: s.totalMines,
		knownMines: s.knownMines.Clone(),
		knownSafe:  s.knownSafe.Clone(),
		isValid:    s.isValid,
	}
}

// driveToFixpoint alternates Tier 1 and Tier 2 until neither advances or a
// contradiction fires.
func (s *Solver) driveToFixpoint() {
	for s.isValid {
		p1 := s.tier1()
		if !s.isValid {
			return
		}
		p2 := s.tier2()
		if !s.isValid || !(p1 || p2) {
			return
		}
	}
}

// tier3 tries, for each frontier cell, both hypotheses (mine / safe) on a
// snapshot; a hypothesis that drives its snapshot to contradiction proves
// the opposite for the live solver.
func (s *Solver) tier3() bool {
	progress := false
	for _, t := range s.frontier() {
		if !s.isUnknown(t) {
			continue // resolved by an earlier iteration this pass
		}

		mineSnap := s.snapshot()
		mineSnap.knownMines.Set(t)
		mineSnap.driveToFixpoint()
		if !mineSnap.isValid {
			s.knownSafe.Set(t)
			progress = true
			continue
		}

		safeSnap := s.snapshot()
		safeSnap.knownSafe.Set(t)
		safeSnap.driveToFixpoint()
		if !safeSnap.isValid {
			s.knownMines.Set(t)
			progress = true
		}
	}
	return progress
}

// constraint is one opened numbered cell's view onto the frontier: the set
// of its still-unknown neighbours and how many of them must be mines.
type constraint struct {
	cell  int
	cells []int
	mines int
}

// subsetPass looks for pairs of constraints where one's unknown-cell set is
// a subset of the other's, and infers the difference. Grounded in the
// teacher's pairwise inspection: if A subset B, the cells in B\A must carry
// exactly mines(B)-mines(A) mines between them, which resolves them outright
// when that count is 0 or equal to len(B\A). Strictly stronger than Tier 1
// alone, never unsound, since the same fact is always re-derivable (more
// slowly) by Tier 3's per-cell contradiction search.
func (s *Solver) subsetPass() bool {
	var cons []constraint
	for idx := 0; idx < s.board.Len(); idx++ {
		if s.board.Status(idx) != board.Opened {
			continue
		}
		c := s.board.NeighborMineCount(idx)
		if c <= 0 {
			continue
		}
		var unknown []int
		var mines int
		for _, nb32 := range s.board.Neighbours(idx) {
			nb := int(nb32)
			if s.knownMines.Has(nb) {
				mines++
			} else if s.isUnknown(nb) {
				unknown = append(unknown, nb)
			}
		}
		if len(unknown) == 0 {
			continue
		}
		cons = append(cons, constraint{cell: idx, cells: unknown, mines: int(c) - mines})
	}

	progress := false
	for i := range cons {
		for j := range cons {
			if i == j {
				continue
			}
			if !isSubset(cons[i].cells, cons[j].cells) {
				continue
			}
			diff := subtract(cons[j].cells, cons[i].cells)
			if len(diff) == 0 {
				continue
			}
			need := cons[j].mines - cons[i].mines
			if need < 0 || need > len(diff) {
				s.isValid = false
				return true
			}
			if need == 0 {
				for _, idx := range diff {
					if s.isUnknown(idx) {
						s.knownSafe.Set(idx)
						progress = true
					}
				}
			} else if need == len(diff) {
				for _, idx := range diff {
					if s.isUnknown(idx) {
						s.knownMines.Set(idx)
						progress = true
					}
				}
			}
		}
	}
	return progress
}

func isSubset(a, b []int) bool {
	if len(a) == 0 || len(a) >= len(b) {
		return false
	}
	set := make(map[int]struct{}, len(b))
	for _, x := range b {
		set[x] = struct{}{}
	}
	for _, x := range a {
		if _, ok := set[x]; !ok {
			return false
		}
	}
	return true
}

func subtract(b, a []int) []int {
	set := make(map[int]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	var out []int
	for _, x := range b {
		if _, ok := set[x]; !ok {
			out = append(out, x)
		}
	}
	return out
}

// CheckSolvability drives the board from startIdx to a fixpoint using the
// three tiers (and, if enabled, the subset-inference pass), opening every
// cell it proves safe as it goes. It succeeds iff that process eventually
// opens every non-mine cell — any cell left Hidden at quiescence would have
// required a guess.
func (s *Solver) CheckSolvability(startIdx int) bool {
	if s.board.Status(startIdx) == board.Hidden {
		if s.board.Open(startIdx) {
			s.isValid = false
			return false
		}
	}

	for {
		progress := s.tier1()
		if !s.isValid {
			return false
		}

		if s.tier2() {
			progress = true
		}
		if !s.isValid {
			return false
		}

		if s.subsetInference && s.subsetPass() {
			progress = true
		}
		if !s.isValid {
			return false
		}

		if s.tier3() {
			progress = true
		}
		if !s.isValid {
			return false
		}

		if s.openKnownSafe() {
			progress = true
		}
		if !s.isValid {
			return false
		}

		if !progress {
			break
		}
	}

	return s.board.CheckWin()
}

func (s *Solver) openKnownSafe() bool {
	opened := false
	for _, idx := range s.knownSafe.Indices() {
		if s.board.Status(idx) != board.Hidden {
			continue
		}
		if s.board.Open(idx) {
			s.isValid = false
			return opened
		}
		opened = true
	}
	return opened
}
