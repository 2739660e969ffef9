package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stitts-dev/dfs-lineup/internal/models"
	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
	"github.com/stitts-dev/dfs-lineup/pkg/database"
	"github.com/stitts-dev/dfs-lineup/pkg/utils"
)

// RunMeta describes the request that produced a run.
type RunMeta struct {
	RequestHash string
	NumLineups  int
	Depth       int
	PlayerCount int
}

// LineupStore persists optimization runs and their lineups.
type LineupStore struct {
	db       *database.DB
	breakers *CircuitBreakerService
	log      *logrus.Entry
}

func NewLineupStore(db *database.DB, breakers *CircuitBreakerService, logger *logrus.Logger) *LineupStore {
	return &LineupStore{
		db:       db,
		breakers: breakers,
		log:      logger.WithField("component", "lineup_store"),
	}
}

// NewRunRecord converts a generated result into its persistent form.
func NewRunRecord(result *optimizer.Result, meta RunMeta) (*models.OptimizationRun, error) {
	labels, err := json.Marshal(result.Settings.SlotLabels())
	if err != nil {
		return nil, fmt.Errorf("failed to encode slot labels: %w", err)
	}

	run := &models.OptimizationRun{
		Provider:    string(result.Settings.Provider),
		Sport:       string(result.Settings.Sport),
		RequestHash: meta.RequestHash,
		NumLineups:  meta.NumLineups,
		Depth:       meta.Depth,
		PlayerCount: meta.PlayerCount,
		Budget:      result.Settings.Budget,
		Status:      models.RunStatusCompleted,
		DurationMs:  result.Duration.Milliseconds(),
		SlotLabels:  datatypes.JSON(labels),
		Lineups:     make([]models.Lineup, 0, len(result.Lineups)),
	}

	for _, rl := range result.Lineups {
		slots, err := json.Marshal(rl.Projection())
		if err != nil {
			return nil, fmt.Errorf("failed to encode lineup %d: %w", rl.Number, err)
		}
		lineup := models.Lineup{
			Number:          rl.Number,
			TotalSalary:     rl.TotalSalary,
			ProjectedPoints: rl.ProjectedPoints,
			Passes:          rl.Passes,
			Slots:           datatypes.JSON(slots),
			Players:         make([]models.LineupPlayer, 0, len(rl.Slots)),
		}
		for _, slot := range rl.Slots {
			lineup.Players = append(lineup.Players, models.LineupPlayer{
				Slot:            slot.Label,
				Position:        slot.Position,
				PlayerID:        slot.Player.ID,
				Name:            slot.Player.DisplayName(),
				Salary:          slot.Player.Salary,
				ProjectedPoints: slot.Player.ProjectedPoints,
			})
		}
		run.Lineups = append(run.Lineups, lineup)
	}
	return run, nil
}

// SaveRun inserts the run with its lineups and players in one transaction.
func (s *LineupStore) SaveRun(ctx context.Context, run *models.OptimizationRun) error {
	_, err := s.breakers.Execute(BreakerDatabase, func() (interface{}, error) {
		return nil, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(run).Error
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save optimization run: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"run_id":  run.ID,
		"lineups": len(run.Lineups),
	}).Debug("Optimization run saved")
	return nil
}

// SaveFailedRun records a run that produced no lineups.
func (s *LineupStore) SaveFailedRun(ctx context.Context, provider, sport string, meta RunMeta, runErr error, elapsed time.Duration) (*models.OptimizationRun, error) {
	run := &models.OptimizationRun{
		Provider:    provider,
		Sport:       sport,
		RequestHash: meta.RequestHash,
		NumLineups:  meta.NumLineups,
		Depth:       meta.Depth,
		PlayerCount: meta.PlayerCount,
		Status:      models.RunStatusFailed,
		Error:       runErr.Error(),
		DurationMs:  elapsed.Milliseconds(),
		SlotLabels:  datatypes.JSON("[]"),
	}
	if err := s.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun loads a run with its lineups in generation order.
func (s *LineupStore) GetRun(ctx context.Context, id string) (*models.OptimizationRun, error) {
	var run models.OptimizationRun
	_, err := s.breakers.Execute(BreakerDatabase, func() (interface{}, error) {
		err := s.db.WithContext(ctx).
			Preload("Lineups", func(db *gorm.DB) *gorm.DB {
				return db.Order("number ASC")
			}).
			Preload("Lineups.Players", func(db *gorm.DB) *gorm.DB {
				return db.Order("id ASC")
			}).
			First(&run, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// a missing run is not a database failure
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load optimization run: %w", err)
	}
	if run.ID == "" {
		return nil, fmt.Errorf("optimization run %s: %w", id, utils.ErrNotFound)
	}
	return &run, nil
}

// ListRuns returns the most recent runs without their lineups.
func (s *LineupStore) ListRuns(ctx context.Context, limit int) ([]models.OptimizationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []models.OptimizationRun
	_, err := s.breakers.Execute(BreakerDatabase, func() (interface{}, error) {
		return nil, s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list optimization runs: %w", err)
	}
	return runs, nil
}
