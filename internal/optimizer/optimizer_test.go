package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qbOnlySettings(budget int) Settings {
	return Settings{
		Provider:   ProviderFanDuel,
		Sport:      SportNFL,
		Positions:  []string{"qb"},
		Slots:      map[string]int{"qb": 1},
		Budget:     budget,
		Attributes: []string{"Id", "Salary"},
	}
}

func smallSettings() Settings {
	return Settings{
		Provider:   ProviderFanDuel,
		Sport:      SportNFL,
		Positions:  []string{"qb", "rb"},
		Slots:      map[string]int{"qb": 1, "rb": 2},
		Budget:     90,
		Attributes: []string{"Id", "Position", "FPPG", "Salary"},
	}
}

func smallPlayers() []Player {
	return []Player{
		{ID: "a", Position: "qb", Salary: 40, ProjectedPoints: 20},
		{ID: "b", Position: "qb", Salary: 30, ProjectedPoints: 15},
		{ID: "c", Position: "rb", Salary: 30, ProjectedPoints: 15},
		{ID: "d", Position: "rb", Salary: 25, ProjectedPoints: 12},
		{ID: "e", Position: "rb", Salary: 20, ProjectedPoints: 10},
		{ID: "f", Position: "rb", Salary: 15, ProjectedPoints: 8},
	}
}

// nbaPlayers builds a FanDuel NBA slate where better players always cost
// more, so the search has to trade points for salary.
func nbaPlayers(perPosition int) []Player {
	var players []Player
	for _, pos := range []string{"pg", "sg", "sf", "pf", "c"} {
		for k := 0; k < perPosition; k++ {
			players = append(players, Player{
				ID:              fmt.Sprintf("%s-%d", pos, k),
				Position:        pos,
				Salary:          11000 - 1000*k,
				ProjectedPoints: 50 - 4*float64(k),
				FirstName:       "Player",
				LastName:        fmt.Sprintf("%s%d", pos, k),
			})
		}
	}
	return players
}

func mustOptimizer(t *testing.T, settings Settings, opts Options) *Optimizer {
	t.Helper()
	o, err := New(settings, opts)
	require.NoError(t, err)
	return o
}

func TestBestPath_TakesFirstStrictlyCheaperCandidate(t *testing.T) {
	settings := qbOnlySettings(100)
	pool, err := BuildPool([]Player{
		{ID: "q0", Position: "qb", Salary: 120, ProjectedPoints: 20},
		{ID: "q1", Position: "qb", Salary: 90, ProjectedPoints: 15},
		{ID: "q2", Position: "qb", Salary: 80, ProjectedPoints: 10},
	}, settings, BuildOptions{})
	require.NoError(t, err)

	s := newSearcher(settings, pool)
	got := s.bestPath(settings.InitialLineup(), DefaultDepth, nil)

	assert.Equal(t, Lineup{"qb": {1}}, got, "should stop at the first cheaper player, not the cheapest")
	assert.Equal(t, 1, s.stats.Candidates)
}

func TestBestPath_TerminalConditions(t *testing.T) {
	settings := qbOnlySettings(100)
	pool, err := BuildPool([]Player{
		{ID: "q0", Position: "qb", Salary: 120, ProjectedPoints: 20},
		{ID: "q1", Position: "qb", Salary: 90, ProjectedPoints: 15},
	}, settings, BuildOptions{})
	require.NoError(t, err)

	t.Run("depth exhausted", func(t *testing.T) {
		s := newSearcher(settings, pool)
		start := settings.InitialLineup()
		assert.Equal(t, start, s.bestPath(start, 0, nil))
	})

	t.Run("already under budget", func(t *testing.T) {
		s := newSearcher(settings, pool)
		start := Lineup{"qb": {1}}
		assert.Equal(t, start, s.bestPath(start, DefaultDepth, nil))
		assert.Zero(t, s.stats.Candidates)
	})

	t.Run("explored positions are skipped", func(t *testing.T) {
		s := newSearcher(settings, pool)
		start := settings.InitialLineup()
		assert.Equal(t, start, s.bestPath(start, DefaultDepth, []string{"qb"}))
	})
}

func TestBestPath_DoesNotMutateInput(t *testing.T) {
	settings, _ := SettingsFor(ProviderFanDuel, SportNBA)
	pool, err := BuildPool(nbaPlayers(8), settings, BuildOptions{})
	require.NoError(t, err)

	start := settings.InitialLineup()
	before := start.Clone()
	newSearcher(settings, pool).bestPath(start, DefaultDepth, nil)

	assert.Equal(t, before, start)
}

func TestBestPath_ReplacesOnlyWithLaterCheaperPlayers(t *testing.T) {
	settings, _ := SettingsFor(ProviderFanDuel, SportNBA)
	pool, err := BuildPool(nbaPlayers(8), settings, BuildOptions{})
	require.NoError(t, err)

	lineup := settings.InitialLineup()
	for pass := 0; pass < 5; pass++ {
		next := newSearcher(settings, pool).bestPath(lineup, DefaultDepth, nil)
		require.NoError(t, pool.Validate(next, settings))

		for _, pos := range settings.Positions {
			for i, idx := range next[pos] {
				old := lineup[pos][i]
				if idx == old {
					continue
				}
				assert.Greater(t, idx, old, "%s slot %d moved backwards in pool order", pos, i)
				assert.Less(t, pool[pos][idx].Salary, pool[pos][old].Salary,
					"%s slot %d replaced with a player who is not cheaper", pos, i)
			}
		}
		lineup = next
	}
}

func TestWithPosition_DoesNotShareBacking(t *testing.T) {
	parent := make([]string, 1, 8)
	parent[0] = "qb"

	left := withPosition(parent, "rb")
	right := withPosition(parent, "wr")

	assert.Equal(t, []string{"qb", "rb"}, left)
	assert.Equal(t, []string{"qb", "wr"}, right)
	assert.Len(t, parent, 1)
}

func TestDriveToBudget_SalaryNeverIncreases(t *testing.T) {
	settings, _ := SettingsFor(ProviderFanDuel, SportNBA)
	o := mustOptimizer(t, settings, Options{})
	pool, err := o.BuildPool(nbaPlayers(8))
	require.NoError(t, err)

	start := settings.InitialLineup()
	startSalary, _ := Evaluate(start, pool)
	require.Greater(t, startSalary, settings.Budget)

	res, err := o.DriveToBudget(context.Background(), start, pool)
	require.NoError(t, err)
	require.NotEmpty(t, res.Passes)

	prev := startSalary
	for _, p := range res.Passes {
		assert.LessOrEqual(t, p.Salary, prev, "pass %d raised salary", p.Pass)
		prev = p.Salary
	}
	assert.LessOrEqual(t, res.Salary, settings.Budget)
	assert.NoError(t, pool.Validate(res.Lineup, settings))
}

func TestDriveToBudget_StallIsReported(t *testing.T) {
	settings := qbOnlySettings(100)
	o := mustOptimizer(t, settings, Options{})
	pool, err := o.BuildPool([]Player{
		{ID: "q0", Position: "qb", Salary: 120, ProjectedPoints: 20},
		{ID: "q1", Position: "qb", Salary: 130, ProjectedPoints: 15},
	})
	require.NoError(t, err)

	res, err := o.DriveToBudget(context.Background(), settings.InitialLineup(), pool)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
	assert.Contains(t, err.Error(), "stalled")
}

func TestDriveToBudget_PassLimit(t *testing.T) {
	settings, _ := SettingsFor(ProviderFanDuel, SportNBA)
	o := mustOptimizer(t, settings, Options{MaxPasses: 1})
	pool, err := o.BuildPool(nbaPlayers(8))
	require.NoError(t, err)

	_, err = o.DriveToBudget(context.Background(), settings.InitialLineup(), pool)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestDriveToBudget_Cancelled(t *testing.T) {
	settings, _ := SettingsFor(ProviderFanDuel, SportNBA)
	o := mustOptimizer(t, settings, Options{})
	pool, err := o.BuildPool(nbaPlayers(8))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = o.DriveToBudget(ctx, settings.InitialLineup(), pool)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDriveToBudget_UnderBudgetNeedsNoPasses(t *testing.T) {
	settings := qbOnlySettings(100)
	o := mustOptimizer(t, settings, Options{})
	pool, err := o.BuildPool([]Player{{ID: "q0", Position: "qb", Salary: 50, ProjectedPoints: 10}})
	require.NoError(t, err)

	res, err := o.DriveToBudget(context.Background(), settings.InitialLineup(), pool)
	require.NoError(t, err)
	assert.Empty(t, res.Passes)
	assert.Equal(t, 50, res.Salary)
}

type recordingListener struct {
	numbers []int
	totals  []int
}

func (r *recordingListener) LineupGenerated(_ Settings, lineup RenderedLineup, total int) {
	r.numbers = append(r.numbers, lineup.Number)
	r.totals = append(r.totals, total)
}

func TestGenerate_TwoDisjointLineups(t *testing.T) {
	listener := &recordingListener{}
	o := mustOptimizer(t, smallSettings(), Options{Listener: listener})

	res, err := o.Generate(context.Background(), smallPlayers(), 2)
	require.NoError(t, err)
	require.Len(t, res.Lineups, 2)

	first, second := res.Lineups[0], res.Lineups[1]
	assert.Equal(t, []string{"a", "c", "e"}, first.PlayerIDs())
	assert.Equal(t, 90, first.TotalSalary)
	assert.InDelta(t, 45.0, first.ProjectedPoints, 1e-9)
	assert.Equal(t, 1, first.Passes)

	assert.Equal(t, []string{"b", "d", "f"}, second.PlayerIDs())
	assert.Equal(t, 70, second.TotalSalary)
	assert.Equal(t, 0, second.Passes)

	seen := map[string]bool{}
	for _, l := range res.Lineups {
		for _, id := range l.PlayerIDs() {
			assert.False(t, seen[id], "player %s appears in more than one lineup", id)
			seen[id] = true
		}
	}

	assert.Equal(t, []int{1, 2}, listener.numbers)
	assert.Equal(t, []int{2, 2}, listener.totals)
}

func TestGenerate_SlotIntegrityAndNonOverlap(t *testing.T) {
	settings, _ := SettingsFor(ProviderFanDuel, SportNBA)
	o := mustOptimizer(t, settings, Options{})

	res, err := o.Generate(context.Background(), nbaPlayers(8), 3)
	require.NoError(t, err)
	require.Len(t, res.Lineups, 3)

	seen := map[string]bool{}
	for _, l := range res.Lineups {
		assert.LessOrEqual(t, l.TotalSalary, settings.Budget)
		counts := map[string]int{}
		for _, slot := range l.Slots {
			counts[slot.Position]++
			assert.False(t, seen[slot.Player.ID], "player %s reused", slot.Player.ID)
			seen[slot.Player.ID] = true
		}
		for _, pos := range settings.Positions {
			assert.Equal(t, settings.Slots[pos], counts[pos], "position %s slot count", pos)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		players []Player
		n       int
		want    error
	}{
		{
			name:    "zero lineups",
			players: smallPlayers(),
			n:       0,
			want:    ErrInvalidRequest,
		},
		{
			name:    "pool runs out before the third lineup",
			players: smallPlayers(),
			n:       3,
			want:    ErrInsufficientPlayers,
		},
		{
			name:    "unknown position",
			players: append(smallPlayers(), Player{ID: "z", Position: "k", Salary: 10, ProjectedPoints: 1}),
			n:       1,
			want:    ErrConfigurationMismatch,
		},
		{
			name:    "nan projection never reaches the search",
			players: append(smallPlayers(), Player{ID: "z", Position: "qb", Salary: 10, ProjectedPoints: math.NaN()}),
			n:       1,
			want:    ErrInvalidPlayer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := mustOptimizer(t, smallSettings(), Options{})
			res, err := o.Generate(context.Background(), tt.players, tt.n)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestGenerate_DropUnknownPositions(t *testing.T) {
	o := mustOptimizer(t, smallSettings(), Options{DropUnknownPositions: true})
	players := append(smallPlayers(), Player{ID: "z", Position: "k", Salary: 1, ProjectedPoints: 99})

	res, err := o.Generate(context.Background(), players, 1)
	require.NoError(t, err)
	assert.NotContains(t, res.Lineups[0].PlayerIDs(), "z")
}

func TestNew_InvalidSettings(t *testing.T) {
	bad := smallSettings()
	bad.Budget = 0
	_, err := New(bad, Options{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	bad = smallSettings()
	bad.Slots = map[string]int{"qb": 1}
	_, err = New(bad, Options{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
