package handlers

import (
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vancomm/minesweeper-server/internal/mines"
)

func iterBySep(s, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i++
		}
	}
}

func parseXY(args []string) (x, y int, err error) {
	if x, err = strconv.Atoi(args[0]); err != nil {
		return 0, 0, fmt.Errorf("first argument must be an int")
	}
	if y, err = strconv.Atoi(args[1]); err != nil {
		return 0, 0, fmt.Errorf("second argument must be an int")
	}
	return x, y, nil
}

// One-letter commands over the move socket: g(et) no-ops and just forces a
// state push, o(pen)/f(lag)/c(hord) take an "x y" pair, r(eveal) forfeits.
var commandNargs = map[string]int{
	"g": 0,
	"o": 2,
	"f": 2,
	"c": 2,
	"r": 0,
}

func parseCommand(g *mines.GameState, cmd string) error {
	parts := strings.Split(cmd, " ")

	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return fmt.Errorf("unknown command")
	}
	if nargs != len(parts)-1 {
		return fmt.Errorf("invalid number of arguments")
	}

	switch parts[0] {
	case "g":
		return nil
	case "o":
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return err
		}
		if !g.PointInBounds(x, y) {
			return fmt.Errorf("invalid square coordinates")
		}
		g.OpenCell(x, y)
		return nil
	case "f":
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return err
		}
		if !g.PointInBounds(x, y) {
			return fmt.Errorf("invalid square coordinates")
		}
		g.FlagCell(x, y)
		return nil
	case "c":
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return err
		}
		if !g.PointInBounds(x, y) {
			return fmt.Errorf("invalid square coordinates")
		}
		g.ChordCell(x, y)
		return nil
	case "r":
		g.Forfeit()
		return nil
	}
	return fmt.Errorf("invalid command")
}

// ConnectWS upgrades a fetched session to a socket accepting newline
// separated one-letter commands, pushing the updated GameSessionDTO after
// each batch.
func (g GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	session, game, ok := g.loadSession(w, r)
	if !ok {
		return
	}

	conn, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("unable to upgrade", "error", err)
		return
	}
	defer conn.Close()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				g.logger.Warn("abnormal ws break", "error", err)
			}
			break
		}
		if mt != websocket.TextMessage {
			break
		}

		prevRevision, prevDead, prevWon := game.Revision, game.Dead, game.Won

		text := strings.TrimSpace(string(message))
		for _, cmd := range iterBySep(text, "\n") {
			if err := parseCommand(game, cmd); err != nil {
				g.logger.Error("unable to process command", "error", err)
				return
			}
			if game.Won || game.Dead {
				break
			}
		}

		// A batch of no-op moves (e.g. a bare "g" refresh, or opening an
		// already-opened cell) leaves Revision/Dead/Won untouched; skip the
		// redundant write back to the session row.
		changed := game.Revision != prevRevision || game.Dead != prevDead || game.Won != prevWon
		if changed && !g.persist(w, r, session, game) {
			return
		}

		var endedAt *time.Time
		if session.EndedAt.Valid {
			endedAt = &session.EndedAt.Time
		}
		dto := NewGameSessionDTO(session.GameSessionId, session.StartedAt.Time, endedAt, game)
		if err := conn.WriteJSON(dto); err != nil {
			g.logger.Error("unable to write json", "error", err)
			break
		}
	}
}
