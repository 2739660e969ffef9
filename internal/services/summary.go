package services

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
)

// RunSummary aggregates the lineups of one optimization result.
type RunSummary struct {
	Lineups         int                `json:"lineups"`
	MeanPoints      float64            `json:"mean_points"`
	StdDevPoints    float64            `json:"stddev_points"`
	MinPoints       float64            `json:"min_points"`
	MaxPoints       float64            `json:"max_points"`
	MeanSalary      float64            `json:"mean_salary"`
	MeanBudgetUsage float64            `json:"mean_budget_usage"`
	MeanPasses      float64            `json:"mean_passes"`
	PositionPoints  map[string]float64 `json:"position_points"`
}

// Summarize computes point and salary statistics across lineups.
// PositionPoints is the mean projected points contributed by each position.
func Summarize(result *optimizer.Result) RunSummary {
	summary := RunSummary{PositionPoints: map[string]float64{}}
	if result == nil || len(result.Lineups) == 0 {
		return summary
	}

	n := len(result.Lineups)
	points := make([]float64, n)
	salaries := make([]float64, n)
	usage := make([]float64, n)
	passes := make([]float64, n)
	byPosition := map[string][]float64{}

	for i, l := range result.Lineups {
		points[i] = l.ProjectedPoints
		salaries[i] = float64(l.TotalSalary)
		if result.Settings.Budget > 0 {
			usage[i] = float64(l.TotalSalary) / float64(result.Settings.Budget)
		}
		passes[i] = float64(l.Passes)

		perLineup := map[string]float64{}
		for _, slot := range l.Slots {
			perLineup[slot.Position] += slot.Player.ProjectedPoints
		}
		for pos, pts := range perLineup {
			byPosition[pos] = append(byPosition[pos], pts)
		}
	}

	summary.Lineups = n
	summary.MeanPoints, summary.StdDevPoints = stat.MeanStdDev(points, nil)
	if n == 1 {
		// sample standard deviation is undefined for one lineup
		summary.StdDevPoints = 0
	}
	summary.MinPoints = floats.Min(points)
	summary.MaxPoints = floats.Max(points)
	summary.MeanSalary = stat.Mean(salaries, nil)
	summary.MeanBudgetUsage = stat.Mean(usage, nil)
	summary.MeanPasses = stat.Mean(passes, nil)
	for pos, pts := range byPosition {
		summary.PositionPoints[pos] = stat.Mean(pts, nil)
	}
	return summary
}
