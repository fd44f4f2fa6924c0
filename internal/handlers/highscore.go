package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vancomm/minesweeper-server/internal/leaderboard"
	"github.com/vancomm/minesweeper-server/internal/repository"
)

const highscoreCacheTTL = 30 * time.Second

type HighscoreHandler struct {
	logger *slog.Logger
	cache  *leaderboard.Cache
}

func NewHighscoreHandler(logger *slog.Logger, db *pgxpool.Pool) *HighscoreHandler {
	return &HighscoreHandler{
		logger: logger,
		cache:  leaderboard.New(repository.New(db), highscoreCacheTTL),
	}
}

func (h HighscoreHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repository.HighscoreFilter{}
	if username := query.Get("username"); username != "" {
		filter.Username = &username
	}

	if query.Has("width") && query.Has("height") && query.Has("mine_count") && query.Has("kind") {
		dto, err := ParseCreateNewGameDTO(query)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			sendJSONOrLog(w, h.logger, wrapError(err))
			return
		}
		params, err := dto.GameParams()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			sendJSONOrLog(w, h.logger, wrapError(err))
			return
		}
		filter.GameParams = &params
	}

	rows, err := h.cache.Get(r.Context(), filter)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.logger.Error("unable to fetch highscores", "error", err)
		return
	}

	sendJSONOrLog(w, h.logger, rows)
}
