package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/schema"
	"github.com/vancomm/minesweeper-server/internal/mines"
	"github.com/vancomm/minesweeper-server/internal/topology"
)

type CreateNewGameDTO struct {
	Width     int    `schema:"width,required"`
	Height    int    `schema:"height,required"`
	MineCount int    `schema:"mine_count,required"`
	Kind      string `schema:"kind,required"`
}

func ParseCreateNewGameDTO(src map[string][]string) (CreateNewGameDTO, error) {
	var dto CreateNewGameDTO
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	err := dec.Decode(&dto, src)
	return dto, err
}

func (dto CreateNewGameDTO) GameParams() (mines.GameParams, error) {
	kind, err := topology.ParseKind(dto.Kind)
	if err != nil {
		return mines.GameParams{}, err
	}
	return mines.GameParams{
		Width:     dto.Width,
		Height:    dto.Height,
		MineCount: dto.MineCount,
		Kind:      kind,
	}, nil
}

type Position struct {
	X, Y int
}

func ParsePosition(q url.Values) (Position, error) {
	x, err := strconv.Atoi(q.Get("x"))
	if err != nil {
		return Position{}, fmt.Errorf("invalid x coordinate: %w", err)
	}
	y, err := strconv.Atoi(q.Get("y"))
	if err != nil {
		return Position{}, fmt.Errorf("invalid y coordinate: %w", err)
	}
	return Position{X: x, Y: y}, nil
}

type GameMove int

const (
	Open GameMove = iota
	Flag
	Chord
)

func ParseGameMove(s string) (GameMove, error) {
	switch s {
	case "open":
		return Open, nil
	case "flag":
		return Flag, nil
	case "chord":
		return Chord, nil
	default:
		return 0, fmt.Errorf("unknown move %q", s)
	}
}

type GameSessionDTO struct {
	GameSessionId string           `json:"game_session_id"`
	Grid          mines.PlayerGrid `json:"grid"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	MineCount     int              `json:"mine_count"`
	Kind          string           `json:"kind"`
	Dead          bool             `json:"dead"`
	Won           bool             `json:"won"`
	// Revision mirrors board.Board.Revision(), bumped on every open/flag.
	// A client holding a previous DTO can compare this field instead of
	// diffing the grid to tell whether anything actually changed.
	Revision  uint64 `json:"revision"`
	StartedAt int64  `json:"started_at"`
	EndedAt   *int64 `json:"ended_at,omitempty"`
}

func NewGameSessionDTO(
	gameSessionID int64,
	startedAt time.Time,
	endedAt *time.Time,
	g *mines.GameState,
) *GameSessionDTO {
	var endedAtInt *int64
	if endedAt != nil {
		e := endedAt.UnixMilli()
		endedAtInt = &e
	}
	return &GameSessionDTO{
		GameSessionId: strconv.FormatInt(gameSessionID, 10),
		StartedAt:     startedAt.UnixMilli(),
		EndedAt:       endedAtInt,
		Grid:          g.PlayerView(),
		Width:         g.Width,
		Height:        g.Height,
		MineCount:     g.MineCount,
		Kind:          g.Kind.String(),
		Dead:          g.Dead,
		Won:           g.Won,
		Revision:      g.Revision,
	}
}
