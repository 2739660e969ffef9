package optimizer

// SearchStats counts the work done by one search pass.
type SearchStats struct {
	Nodes      int `json:"nodes"`
	Candidates int `json:"candidates"`
}

// searcher runs the salary-descending local search against a fixed pool. It
// holds no state between passes other than statistics.
type searcher struct {
	settings Settings
	pool     Pool
	stats    SearchStats
}

func newSearcher(settings Settings, pool Pool) *searcher {
	return &searcher{settings: settings, pool: pool}
}

// bestPath explores single-slot replacements with strictly cheaper players,
// up to depth levels deep, and returns the lineup with the best points per
// salary it reached. Positions in explored are not touched at this level.
//
// Only the first strictly cheaper candidate after each slot is tried, so the
// search may settle on a local optimum; callers rely on that.
func (s *searcher) bestPath(lineup Lineup, depth int, explored []string) Lineup {
	s.stats.Nodes++
	if depth == 0 {
		return lineup
	}
	if salary, _ := Evaluate(lineup, s.pool); salary <= s.settings.Budget {
		return lineup
	}

	bestScore := 0.0
	best := lineup
	for _, pos := range s.settings.Positions {
		if containsPosition(explored, pos) {
			continue
		}
		players := s.pool[pos]
		for i, slot := range lineup[pos] {
			current := players[slot].Salary
			for cand := slot + 1; cand < len(players); cand++ {
				if lineup.uses(pos, cand) || players[cand].Salary >= current {
					continue
				}
				s.stats.Candidates++
				next := lineup.Clone()
				next[pos][i] = cand
				next = s.bestPath(next, depth-1, explored)
				if score := efficiency(Evaluate(next, s.pool)); score > bestScore {
					bestScore = score
					best = next
				}
				break
			}
		}
		explored = withPosition(explored, pos)
	}
	return best
}

func containsPosition(explored []string, pos string) bool {
	for _, e := range explored {
		if e == pos {
			return true
		}
	}
	return false
}

// withPosition never appends in place: sibling branches of the recursion
// share the parent's slice.
func withPosition(explored []string, pos string) []string {
	out := make([]string, len(explored), len(explored)+1)
	copy(out, explored)
	return append(out, pos)
}
