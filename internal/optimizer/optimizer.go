package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultDepth     = 2
	DefaultMaxPasses = 1000
)

// Options tune the search. Zero values fall back to the defaults.
type Options struct {
	Depth                int
	MaxPasses            int
	DropUnknownPositions bool
	Logger               *logrus.Entry
	Listener             Listener
}

// Listener is notified as each lineup of a run is accepted.
type Listener interface {
	LineupGenerated(settings Settings, lineup RenderedLineup, total int)
}

// PassResult records the lineup totals after one search pass.
type PassResult struct {
	Pass   int         `json:"pass"`
	Salary int         `json:"salary"`
	Points float64     `json:"points"`
	Stats  SearchStats `json:"stats"`
}

// DriveResult is a lineup that fits the budget plus the trace of passes that
// got it there.
type DriveResult struct {
	Lineup Lineup       `json:"lineup"`
	Salary int          `json:"salary"`
	Points float64      `json:"points"`
	Passes []PassResult `json:"passes"`
}

// Result is the outcome of a Generate call.
type Result struct {
	Settings Settings         `json:"settings"`
	Lineups  []RenderedLineup `json:"lineups"`
	Duration time.Duration    `json:"duration"`
}

// Optimizer builds lineups for one contest configuration.
type Optimizer struct {
	settings Settings
	opts     Options
	log      *logrus.Entry
}

// New validates settings and applies option defaults.
func New(settings Settings, opts Options) (*Optimizer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Depth <= 0 {
		opts.Depth = DefaultDepth
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithFields(logrus.Fields{
		"provider": settings.Provider,
		"sport":    settings.Sport,
	})
	return &Optimizer{settings: settings.clone(), opts: opts, log: log}, nil
}

// Settings returns a copy of the contest settings.
func (o *Optimizer) Settings() Settings {
	return o.settings.clone()
}

// BuildPool builds a pool using the optimizer's settings and unknown-position
// policy.
func (o *Optimizer) BuildPool(players []Player) (Pool, error) {
	return BuildPool(players, o.settings, BuildOptions{
		DropUnknownPositions: o.opts.DropUnknownPositions,
		Logger:               o.log,
	})
}

// DriveToBudget runs search passes until lineup fits the budget. A pass that
// returns its input unchanged means no further progress is possible and is
// reported as ErrInsufficientPlayers; so is exceeding MaxPasses.
func (o *Optimizer) DriveToBudget(ctx context.Context, lineup Lineup, pool Pool) (*DriveResult, error) {
	lineup = lineup.Clone()
	salary, points := Evaluate(lineup, pool)
	result := &DriveResult{}

	for pass := 1; salary > o.settings.Budget; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pass > o.opts.MaxPasses {
			return nil, fmt.Errorf("%w: still %d over budget after %d passes",
				ErrInsufficientPlayers, salary-o.settings.Budget, o.opts.MaxPasses)
		}

		s := newSearcher(o.settings, pool)
		next := s.bestPath(lineup, o.opts.Depth, nil)
		if next.Equal(lineup) {
			return nil, fmt.Errorf("%w: search stalled at salary %d with budget %d",
				ErrInsufficientPlayers, salary, o.settings.Budget)
		}

		lineup = next
		salary, points = Evaluate(lineup, pool)
		result.Passes = append(result.Passes, PassResult{
			Pass:   pass,
			Salary: salary,
			Points: points,
			Stats:  s.stats,
		})
		o.log.WithFields(logrus.Fields{
			"pass":       pass,
			"salary":     salary,
			"points":     points,
			"nodes":      s.stats.Nodes,
			"candidates": s.stats.Candidates,
		}).Debug("Search pass complete")
	}

	result.Lineup = lineup
	result.Salary = salary
	result.Points = points
	return result, nil
}

// Generate produces numLineups lineups that share no players. After each
// lineup is accepted its players are removed from the pool before the next
// search starts.
func (o *Optimizer) Generate(ctx context.Context, players []Player, numLineups int) (*Result, error) {
	if numLineups < 1 {
		return nil, fmt.Errorf("%w: num_lineups must be at least 1, got %d", ErrInvalidRequest, numLineups)
	}
	start := time.Now()

	pool, err := o.BuildPool(players)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Settings: o.Settings(),
		Lineups:  make([]RenderedLineup, 0, numLineups),
	}
	for i := 0; i < numLineups; i++ {
		if err := pool.checkCapacity(o.settings); err != nil {
			return nil, fmt.Errorf("lineup %d of %d: %w", i+1, numLineups, err)
		}

		drive, err := o.DriveToBudget(ctx, o.settings.InitialLineup(), pool)
		if err != nil {
			return nil, fmt.Errorf("lineup %d of %d: %w", i+1, numLineups, err)
		}

		rendered := Render(drive.Lineup, pool, o.settings)
		rendered.Number = i + 1
		rendered.Passes = len(drive.Passes)
		result.Lineups = append(result.Lineups, rendered)

		o.log.WithFields(logrus.Fields{
			"lineup":           rendered.Number,
			"total_salary":     rendered.TotalSalary,
			"projected_points": rendered.ProjectedPoints,
			"passes":           rendered.Passes,
		}).Info("Lineup generated")
		if o.opts.Listener != nil {
			o.opts.Listener.LineupGenerated(result.Settings, rendered, numLineups)
		}

		pool = pool.Remove(drive.Lineup)
	}

	result.Duration = time.Since(start)
	return result, nil
}
