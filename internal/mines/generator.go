package mines

import (
	"fmt"
	"strings"

	"github.com/vancomm/minesweeper-server/internal/topology"
)

// GameParams is the durable description of one game: everything needed to
// reproduce its topology and difficulty, independent of any particular
// playthrough.
type GameParams struct {
	Width, Height, MineCount int
	Kind                     topology.Kind
}

func (p GameParams) Unpack() (w, h, mc int, kind topology.Kind) {
	return p.Width, p.Height, p.MineCount, p.Kind
}

// Seed renders GameParams as the short colon-delimited string used both as
// a share code and as the value persisted alongside a session.
func (p GameParams) Seed() string {
	return fmt.Sprintf("%d:%d:%d:%s", p.Width, p.Height, p.MineCount, p.Kind)
}

func ParseSeed(seed string) (*GameParams, error) {
	parts := strings.Split(seed, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid game params seed %q: expected 4 fields, got %d", seed, len(parts))
	}

	p := &GameParams{}
	if _, err := fmt.Sscanf(parts[0], "%d", &p.Width); err != nil {
		return nil, fmt.Errorf("invalid game params seed %q: bad width: %w", seed, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &p.Height); err != nil {
		return nil, fmt.Errorf("invalid game params seed %q: bad height: %w", seed, err)
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &p.MineCount); err != nil {
		return nil, fmt.Errorf("invalid game params seed %q: bad mine_count: %w", seed, err)
	}
	kind, err := topology.ParseKind(parts[3])
	if err != nil {
		return nil, fmt.Errorf("invalid game params seed %q: %w", seed, err)
	}
	p.Kind = kind

	return p, nil
}

func (p GameParams) PointInBounds(x, y int) bool {
	return x >= 0 && x < p.Width && y >= 0 && y < p.Height
}
