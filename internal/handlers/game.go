package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vancomm/minesweeper-server/internal/config"
	"github.com/vancomm/minesweeper-server/internal/middleware"
	"github.com/vancomm/minesweeper-server/internal/mines"
	"github.com/vancomm/minesweeper-server/internal/repository"
)

type GameHandler struct {
	logger  *slog.Logger
	repo    *repository.Queries
	cookies *config.Cookies
	ws      *config.WebSocket
	rnd     *rand.Rand
}

func NewGameHandler(
	logger *slog.Logger,
	db *pgxpool.Pool,
	cookies *config.Cookies,
	ws *config.WebSocket,
	rnd *rand.Rand,
) *GameHandler {
	return &GameHandler{
		logger:  logger,
		repo:    repository.New(db),
		cookies: cookies,
		ws:      ws,
		rnd:     rnd,
	}
}

func (g GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	dto, err := ParseCreateNewGameDTO(query)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(err))
		return
	}

	gameParams, err := dto.GameParams()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(err))
		return
	}

	pos, err := ParsePosition(query)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(err))
		return
	}

	if !gameParams.PointInBounds(pos.X, pos.Y) {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(fmt.Errorf("invalid cell position")))
		return
	}

	game, err := mines.NewGame(r.Context(), &gameParams, pos.X, pos.Y, g.rnd)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to generate a new game", "error", err)
		return
	}

	var playerID *int64
	if claims, ok := r.Context().Value(middleware.CtxPlayerClaims).(*config.PlayerClaims); ok {
		playerID = &claims.PlayerId
		g.logger.Debug("creating player session", "claims", claims)
	} else {
		g.logger.Debug("creating anonymous session")
	}

	session, err := g.repo.CreateGameSession(
		r.Context(), game, repository.CreateGameSessionParams{PlayerId: playerID},
	)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to create game session", "error", err)
		return
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(
		session.GameSessionId, session.StartedAt.Time, nil, game,
	))
}

func (g GameHandler) loadSession(w http.ResponseWriter, r *http.Request) (*repository.GameSession, *mines.GameState, bool) {
	sessionId, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, nil, false
	}

	session, err := g.repo.FetchGameSession(r.Context(), sessionId)
	if errors.Is(err, pgx.ErrNoRows) {
		w.WriteHeader(http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to fetch session from db", "error", err)
		return nil, nil, false
	}

	game, err := mines.DecodeGameState(session.State)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("db returned invalid game_session.state", "error", err)
		return nil, nil, false
	}

	return session, game, true
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	session, game, ok := g.loadSession(w, r)
	if !ok {
		return
	}

	var endedAt *time.Time
	if session.EndedAt.Valid {
		endedAt = &session.EndedAt.Time
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(
		session.GameSessionId, session.StartedAt.Time, endedAt, game,
	))
}

func (g GameHandler) persist(w http.ResponseWriter, r *http.Request, session *repository.GameSession, game *mines.GameState) bool {
	b, err := game.Bytes()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to serialize game state", "error", err)
		return false
	}

	var endedAt *time.Time
	if game.Won || game.Dead {
		if session.EndedAt.Valid {
			endedAt = &session.EndedAt.Time
		} else {
			now := time.Now().UTC()
			endedAt = &now
		}
	}

	dead, won := game.Dead, game.Won
	_, err = g.repo.UpdateGameSession(r.Context(), session.GameSessionId, repository.UpdateGameSessionParams{
		Dead: &dead, Won: &won, EndedAt: endedAt, State: &b,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to update session in db", "error", err)
		return false
	}
	if endedAt != nil {
		session.EndedAt.Time = *endedAt
		session.EndedAt.Valid = true
	}
	return true
}

func (g GameHandler) MakeAMove(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	move, err := ParseGameMove(query.Get("move"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(err))
		return
	}

	pos, err := ParsePosition(query)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(err))
		return
	}

	session, game, ok := g.loadSession(w, r)
	if !ok {
		return
	}

	if !game.PointInBounds(pos.X, pos.Y) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch move {
	case Open:
		game.OpenCell(pos.X, pos.Y)
	case Flag:
		game.FlagCell(pos.X, pos.Y)
	case Chord:
		game.ChordCell(pos.X, pos.Y)
	}

	if !g.persist(w, r, session, game) {
		return
	}

	var endedAt *time.Time
	if session.EndedAt.Valid {
		endedAt = &session.EndedAt.Time
	}
	sendJSONOrLog(w, g.logger, NewGameSessionDTO(
		session.GameSessionId, session.StartedAt.Time, endedAt, game,
	))
}

func (g GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	session, game, ok := g.loadSession(w, r)
	if !ok {
		return
	}

	game.Forfeit()

	if !g.persist(w, r, session, game) {
		return
	}

	var endedAt *time.Time
	if session.EndedAt.Valid {
		endedAt = &session.EndedAt.Time
	}
	sendJSONOrLog(w, g.logger, NewGameSessionDTO(
		session.GameSessionId, session.StartedAt.Time, endedAt, game,
	))
}
