package optimizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// Pool holds the players still available for selection, partitioned by
// position. Each position's players are ordered by projected points
// descending, then salary ascending; the search scans candidates in this
// order.
type Pool map[string][]Player

// BuildOptions controls how raw player records are turned into a pool.
type BuildOptions struct {
	// DropUnknownPositions skips players whose position is not on the roster
	// instead of rejecting the whole input.
	DropUnknownPositions bool
	Logger               *logrus.Entry
}

// BuildPool groups players by position and sorts each group.
func BuildPool(players []Player, settings Settings, opts BuildOptions) (Pool, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	pool := make(Pool, len(settings.Positions))
	for _, pos := range settings.Positions {
		pool[pos] = []Player{}
	}

	dropped := 0
	for _, p := range players {
		p.Position = normalizePosition(p.Position)
		if p.Salary < 0 {
			return nil, fmt.Errorf("%w: player %q has negative salary %d", ErrInvalidPlayer, p.ID, p.Salary)
		}
		if math.IsNaN(p.ProjectedPoints) || math.IsInf(p.ProjectedPoints, 0) {
			return nil, fmt.Errorf("%w: player %q has non-finite projected points", ErrInvalidPlayer, p.ID)
		}
		if !settings.HasPosition(p.Position) {
			if opts.DropUnknownPositions {
				dropped++
				log.WithFields(logrus.Fields{
					"player_id": p.ID,
					"position":  p.Position,
				}).Debug("Dropping player with unknown position")
				continue
			}
			return nil, fmt.Errorf("%w: player %q has position %q (%s/%s)",
				ErrConfigurationMismatch, p.ID, p.Position, settings.Provider, settings.Sport)
		}
		pool[p.Position] = append(pool[p.Position], p)
	}

	for pos := range pool {
		sortPlayers(pool[pos])
	}

	if err := pool.checkCapacity(settings); err != nil {
		return nil, err
	}

	if dropped > 0 {
		log.WithField("dropped", dropped).Info("Dropped players with positions outside the roster")
	}
	return pool, nil
}

func sortPlayers(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].ProjectedPoints != players[j].ProjectedPoints {
			return players[i].ProjectedPoints > players[j].ProjectedPoints
		}
		return players[i].Salary < players[j].Salary
	})
}

// checkCapacity makes sure every position has at least as many players as it
// has slots.
func (p Pool) checkCapacity(settings Settings) error {
	for _, pos := range settings.Positions {
		if have, need := len(p[pos]), settings.Slots[pos]; have < need {
			return fmt.Errorf("%w: position %q needs %d players, pool has %d",
				ErrInsufficientPlayers, pos, need, have)
		}
	}
	return nil
}

// Remove returns a new pool without the players referenced by lineup. The
// receiver is left untouched.
func (p Pool) Remove(lineup Lineup) Pool {
	out := make(Pool, len(p))
	for pos, players := range p {
		remaining := append([]Player(nil), players...)
		slots := append([]int(nil), lineup[pos]...)
		// Descending so earlier removals don't shift later indices.
		sort.Sort(sort.Reverse(sort.IntSlice(slots)))
		for _, idx := range slots {
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}
		out[pos] = remaining
	}
	return out
}

// Size is the total number of players in the pool.
func (p Pool) Size() int {
	n := 0
	for _, players := range p {
		n += len(players)
	}
	return n
}

// Validate checks that lineup is a complete, well-formed index set against
// this pool.
func (p Pool) Validate(lineup Lineup, settings Settings) error {
	for _, pos := range settings.Positions {
		slots := lineup[pos]
		if len(slots) != settings.Slots[pos] {
			return fmt.Errorf("%w: position %q has %d slots, want %d",
				ErrInvalidRequest, pos, len(slots), settings.Slots[pos])
		}
		seen := make(map[int]bool, len(slots))
		for _, idx := range slots {
			if idx < 0 || idx >= len(p[pos]) {
				return fmt.Errorf("%w: position %q index %d out of range", ErrInvalidRequest, pos, idx)
			}
			if seen[idx] {
				return fmt.Errorf("%w: position %q uses index %d twice", ErrInvalidRequest, pos, idx)
			}
			seen[idx] = true
		}
	}
	return nil
}
