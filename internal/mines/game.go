package mines

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/vancomm/minesweeper-server/internal/board"
	"github.com/vancomm/minesweeper-server/internal/generator"
	"github.com/vancomm/minesweeper-server/internal/topology"
)

var Log *slog.Logger = slog.Default()

// GameState is one playthrough. Only the exported fields (GameParams, Mines,
// Status, Revision, Dead, Won) are persisted (via Bytes/DecodeGameState);
// board is rebuilt from them on demand, so a decoded GameState is
// immediately playable.
type GameState struct {
	GameParams
	Mines    []bool
	Status   []board.CellStatus
	Revision uint64
	Dead     bool
	Won      bool

	board *board.Board
}

// live lazily rebuilds the in-memory Board from the persisted fields. Safe
// to call repeatedly; the result is cached.
func (s *GameState) live() *board.Board {
	if s.board != nil {
		return s.board
	}
	topo, err := topology.BuildCached(s.Width, s.Height, s.Kind)
	if err != nil {
		// GameParams were already validated at NewGame time; reaching here
		// means corrupted persisted state.
		panic(AssertionError{fmt.Sprintf("cannot rebuild topology: %v", err)})
	}
	b, err := board.Restore(topo, s.Mines, s.Status, s.Revision)
	if err != nil {
		panic(AssertionError{fmt.Sprintf("cannot rebuild board: %v", err)})
	}
	s.board = b
	return s.board
}

// sync copies the live board back into the persisted fields after a move.
func (s *GameState) sync() {
	b := s.board
	n := b.Len()
	if s.Mines == nil {
		s.Mines = make([]bool, n)
	}
	s.Status = make([]board.CellStatus, n)
	for idx := 0; idx < n; idx++ {
		s.Status[idx] = b.Status(idx)
		s.Mines[idx] = b.IsMine(idx)
	}
	s.Revision = b.Revision()
}

func DecodeGameState(buf []byte) (*GameState, error) {
	var s GameState
	if err := gob.NewDecoder(bytes.NewBuffer(buf)).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s GameState) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewGame generates a no-guess board for params and opens the starting
// cell, matching the real first move of a session.
func NewGame(ctx context.Context, params *GameParams, x, y int, r *rand.Rand) (state *GameState, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				var ae AssertionError
				if errors.As(e, &ae) {
					state, err = nil, ae
					return
				}
			}
			panic(rec)
		}
	}()

	if !params.PointInBounds(x, y) {
		return nil, AssertionError{"starting cell out of bounds"}
	}

	cfg := generator.Config{
		Width: params.Width, Height: params.Height,
		Kind: params.Kind, MineCount: params.MineCount,
	}
	b, _, err := generator.Generate(ctx, cfg, x, y, r, nil)
	if err != nil {
		return nil, err
	}
	if b.IsMine(b.Topology().ToIndex(x, y)) {
		return nil, AssertionError{"mine in starting cell"}
	}

	state = &GameState{GameParams: *params, board: b}
	state.sync()
	return state, nil
}

// OpenCell reveals (x,y), cascading through zero-count neighbours. Returns
// true if the opened cell was a mine.
func (s *GameState) OpenCell(x, y int) bool {
	if s.Dead || s.Won {
		return false
	}
	b := s.live()
	idx := b.Topology().ToIndex(x, y)
	exploded := b.Open(idx)
	if exploded {
		s.Dead = true
	} else if b.CheckWin() {
		s.Won = true
	}
	s.sync()
	return exploded
}

func (s *GameState) FlagCell(x, y int) {
	if s.Dead || s.Won {
		return
	}
	b := s.live()
	b.ToggleFlag(b.Topology().ToIndex(x, y))
	s.sync()
}

// ChordCell opens every hidden neighbour of (x,y) when the number of
// flagged neighbours already matches its mine count.
func (s *GameState) ChordCell(x, y int) {
	if s.Dead || s.Won {
		return
	}
	b := s.live()
	idx := b.Topology().ToIndex(x, y)
	if b.Status(idx) != board.Opened {
		return
	}
	c := b.NeighborMineCount(idx)
	if c <= 0 {
		return
	}

	var flagged int
	var toOpen []int
	for _, nb32 := range b.Neighbours(idx) {
		nb := int(nb32)
		switch b.Status(nb) {
		case board.Flagged:
			flagged++
		case board.Hidden:
			toOpen = append(toOpen, nb)
		}
	}
	if flagged != int(c) {
		return
	}

	for _, nb := range toOpen {
		if b.Open(nb) {
			s.Dead = true
		}
		if s.Dead {
			break
		}
	}
	if !s.Dead && b.CheckWin() {
		s.Won = true
	}
	s.sync()
}

// Forfeit ends the game as a loss without opening anything further and
// reveals the whole board to the player.
func (s *GameState) Forfeit() {
	if !s.Dead && !s.Won {
		s.Dead = true
	}
	s.sync()
}

// PlayerView renders the board as the client is allowed to see it. While
// the game is running, hidden cells stay concealed; once it has ended,
// every mine and every flag is resolved to its terminal state.
func (s *GameState) PlayerView() PlayerGrid {
	b := s.live()
	n := b.Len()
	grid := make(PlayerGrid, n)
	ended := s.Dead || s.Won

	for idx := 0; idx < n; idx++ {
		switch b.Status(idx) {
		case board.Opened:
			if b.IsMine(idx) {
				grid[idx] = ExplodedMine
			} else {
				grid[idx] = PlayerCell(b.NeighborMineCount(idx))
			}
		case board.Flagged:
			if !ended {
				grid[idx] = Flagged
			} else if b.IsMine(idx) {
				grid[idx] = CorrectlyFlagged
			} else {
				grid[idx] = FalselyFlagged
			}
		default: // board.Hidden
			if !ended {
				grid[idx] = Hidden
			} else if b.IsMine(idx) {
				grid[idx] = UnflaggedMine
			} else {
				grid[idx] = PlayerCell(b.NeighborMineCount(idx))
			}
		}
	}
	return grid
}
