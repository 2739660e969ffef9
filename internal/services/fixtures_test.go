package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
)

// nbaPlayers returns four players per FanDuel NBA position with salaries
// 7000..4000 and points 40..25, so two lineups fit without any search passes.
func nbaPlayers() []optimizer.Player {
	var players []optimizer.Player
	for _, pos := range []string{"PG", "SG", "SF", "PF", "C"} {
		for k := 0; k < 4; k++ {
			players = append(players, optimizer.Player{
				ID:              fmt.Sprintf("%s-%d", pos, k),
				Position:        pos,
				Salary:          7000 - 1000*k,
				ProjectedPoints: float64(40 - 5*k),
				FirstName:       "Player",
				LastName:        fmt.Sprintf("%s%d", pos, k),
			})
		}
	}
	return players
}

func generateNBA(t *testing.T, n int) *optimizer.Result {
	t.Helper()
	settings, err := optimizer.SettingsFor(optimizer.ProviderFanDuel, optimizer.SportNBA)
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	opt, err := optimizer.New(settings, optimizer.Options{Logger: logrus.NewEntry(log)})
	require.NoError(t, err)

	result, err := opt.Generate(context.Background(), nbaPlayers(), n)
	require.NoError(t, err)
	return result
}
