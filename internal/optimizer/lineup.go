package optimizer

// Lineup maps each position to the pool indices filling its slots. It only
// makes sense next to the pool it was computed against.
type Lineup map[string][]int

// Clone returns a deep copy so the search can explore a change without
// touching the caller's lineup.
func (l Lineup) Clone() Lineup {
	c := make(Lineup, len(l))
	for pos, slots := range l {
		c[pos] = append([]int(nil), slots...)
	}
	return c
}

// Equal reports whether both lineups reference the same indices slot by slot.
func (l Lineup) Equal(other Lineup) bool {
	if len(l) != len(other) {
		return false
	}
	for pos, slots := range l {
		o, ok := other[pos]
		if !ok || len(o) != len(slots) {
			return false
		}
		for i := range slots {
			if slots[i] != o[i] {
				return false
			}
		}
	}
	return true
}

func (l Lineup) uses(pos string, idx int) bool {
	for _, s := range l[pos] {
		if s == idx {
			return true
		}
	}
	return false
}

// Players resolves each position's slots to player records, in slot order.
// Indices must be valid for pool.
func (l Lineup) Players(pool Pool) map[string][]Player {
	out := make(map[string][]Player, len(l))
	for pos, slots := range l {
		players := make([]Player, len(slots))
		for i, idx := range slots {
			players[i] = pool[pos][idx]
		}
		out[pos] = players
	}
	return out
}

// Evaluate sums salary and projected points over every referenced player.
// Indices must be valid for pool.
func Evaluate(lineup Lineup, pool Pool) (totalSalary int, totalPoints float64) {
	for pos, slots := range lineup {
		players := pool[pos]
		for _, idx := range slots {
			totalSalary += players[idx].Salary
			totalPoints += players[idx].ProjectedPoints
		}
	}
	return totalSalary, totalPoints
}

// efficiency is points per salary dollar; an empty salary scores zero.
func efficiency(salary int, points float64) float64 {
	if salary <= 0 {
		return 0
	}
	return points / float64(salary)
}
