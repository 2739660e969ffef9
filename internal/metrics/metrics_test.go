package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveLineup(t *testing.T) {
	before := testutil.ToFloat64(LineupsGenerated.WithLabelValues("fanduel", "nba"))

	ObserveLineup("fanduel", "nba", 3)
	ObserveLineup("fanduel", "nba", 0)

	assert.Equal(t, before+2, testutil.ToFloat64(LineupsGenerated.WithLabelValues("fanduel", "nba")))
	assert.Equal(t, 1, testutil.CollectAndCount(SearchPasses))
}
