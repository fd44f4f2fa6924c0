package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vancomm/minesweeper-server/internal/mines"
	"github.com/vancomm/minesweeper-server/internal/repository"
)

func TestKeyForDistinguishesFilters(t *testing.T) {
	a := repository.HighscoreFilter{}
	user := "alice"
	b := repository.HighscoreFilter{Username: &user}

	require.NotEqual(t, keyFor(a), keyFor(b))
}

func TestKeyForDistinguishesGameParams(t *testing.T) {
	a := repository.HighscoreFilter{GameParams: &mines.GameParams{Width: 9, Height: 9, MineCount: 10}}
	b := repository.HighscoreFilter{GameParams: &mines.GameParams{Width: 16, Height: 16, MineCount: 40}}

	require.NotEqual(t, keyFor(a), keyFor(b))
}

func TestKeyForIgnoresUnfiltered(t *testing.T) {
	require.Equal(t, keyFor(repository.HighscoreFilter{}), keyFor(repository.HighscoreFilter{}))
}
