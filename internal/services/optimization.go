package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup/internal/metrics"
	"github.com/stitts-dev/dfs-lineup/internal/models"
	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
	"github.com/stitts-dev/dfs-lineup/internal/websocket"
	"github.com/stitts-dev/dfs-lineup/pkg/config"
	"github.com/stitts-dev/dfs-lineup/pkg/logger"
	"github.com/stitts-dev/dfs-lineup/pkg/utils"
)

const cacheWriteAttempts = 2

// Notifier receives progress for running optimizations.
type Notifier interface {
	Listener(requestID string) optimizer.Listener
	Publish(event websocket.Event)
}

// OptimizationInput is one request to generate lineups.
type OptimizationInput struct {
	RequestID            string
	Provider             optimizer.Provider
	Sport                optimizer.Sport
	NumLineups           int
	Depth                int
	DropUnknownPositions *bool
	Players              []optimizer.Player
}

// OptimizationResponse is what the API returns and the cache stores.
type OptimizationResponse struct {
	RunID      string                     `json:"run_id,omitempty"`
	Provider   string                     `json:"provider"`
	Sport      string                     `json:"sport"`
	Budget     int                        `json:"budget"`
	SlotLabels []string                   `json:"slot_labels"`
	Lineups    []optimizer.RenderedLineup `json:"lineups"`
	Summary    RunSummary                 `json:"summary"`
	DurationMs int64                      `json:"duration_ms"`
	Cached     bool                       `json:"cached"`
}

// cacheKeyFields are the inputs that determine a result.
type cacheKeyFields struct {
	Provider   optimizer.Provider `json:"provider"`
	Sport      optimizer.Sport    `json:"sport"`
	NumLineups int                `json:"num_lineups"`
	Depth      int                `json:"depth"`
	MaxPasses  int                `json:"max_passes"`
	Drop       bool               `json:"drop_unknown_positions"`
	Players    []optimizer.Player `json:"players"`
}

// OptimizationService runs the optimizer and handles caching, persistence,
// metrics and progress events around it. cache, store and notifier are
// optional.
type OptimizationService struct {
	defaults   optimizer.Options
	maxLineups int
	timeout    time.Duration
	cacheTTL   time.Duration
	cache      *CacheService
	store      *LineupStore
	exporter   *ExportService
	notifier   Notifier
	logger     *logrus.Logger
}

func NewOptimizationService(cfg *config.Config, cache *CacheService, store *LineupStore, notifier Notifier, logger *logrus.Logger) *OptimizationService {
	return &OptimizationService{
		defaults:   cfg.Options(nil),
		maxLineups: cfg.MaxLineups,
		timeout:    cfg.Timeout(),
		cacheTTL:   cfg.CacheExpiration(),
		cache:      cache,
		store:      store,
		exporter:   NewExportService(false),
		notifier:   notifier,
		logger:     logger,
	}
}

// Optimize generates lineups, serving repeated requests from the cache.
func (s *OptimizationService) Optimize(ctx context.Context, in OptimizationInput) (*OptimizationResponse, error) {
	settings, err := optimizer.SettingsFor(in.Provider, in.Sport)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", err, in.Provider, in.Sport)
	}
	if in.NumLineups < 1 || in.NumLineups > s.maxLineups {
		return nil, fmt.Errorf("%w: num_lineups must be between 1 and %d", optimizer.ErrInvalidRequest, s.maxLineups)
	}
	if len(in.Players) == 0 {
		return nil, fmt.Errorf("%w: no players supplied", optimizer.ErrInvalidRequest)
	}

	opts := s.defaults
	if in.Depth > 0 {
		opts.Depth = in.Depth
	}
	if in.DropUnknownPositions != nil {
		opts.DropUnknownPositions = *in.DropUnknownPositions
	}

	provider, sport := string(settings.Provider), string(settings.Sport)
	log := s.logger.WithFields(logger.OptimizationFields(in.RequestID, sport, provider))

	hash, err := RequestHash(cacheKeyFields{
		Provider:   settings.Provider,
		Sport:      settings.Sport,
		NumLineups: in.NumLineups,
		Depth:      opts.Depth,
		MaxPasses:  opts.MaxPasses,
		Drop:       opts.DropUnknownPositions,
		Players:    in.Players,
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached OptimizationResponse
		err := s.cache.Get(ctx, OptimizationCacheKey(hash), &cached)
		switch {
		case err == nil:
			log.WithField("run_id", cached.RunID).Info("Serving cached optimization")
			cached.Cached = true
			return &cached, nil
		case !errors.Is(err, ErrCacheMiss):
			log.WithError(err).Warn("Cache lookup failed, optimizing without cache")
		}
	}

	opts.Logger = log
	if s.notifier != nil {
		opts.Listener = s.notifier.Listener(in.RequestID)
	}

	opt, err := optimizer.New(settings, opts)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	meta := RunMeta{
		RequestHash: hash,
		NumLineups:  in.NumLineups,
		Depth:       opts.Depth,
		PlayerCount: len(in.Players),
	}

	start := time.Now()
	result, err := opt.Generate(runCtx, in.Players, in.NumLineups)
	if err != nil {
		s.recordFailure(ctx, log, in.RequestID, provider, sport, meta, err, time.Since(start))
		return nil, err
	}

	metrics.OptimizationRuns.WithLabelValues(provider, sport).Inc()
	metrics.OptimizationDuration.WithLabelValues(provider, sport).Observe(result.Duration.Seconds())
	for _, l := range result.Lineups {
		metrics.ObserveLineup(provider, sport, l.Passes)
	}

	resp := &OptimizationResponse{
		Provider:   provider,
		Sport:      sport,
		Budget:     settings.Budget,
		SlotLabels: settings.SlotLabels(),
		Lineups:    result.Lineups,
		Summary:    Summarize(result),
		DurationMs: result.Duration.Milliseconds(),
	}

	if s.store != nil {
		run, err := NewRunRecord(result, meta)
		if err == nil {
			err = s.store.SaveRun(ctx, run)
		}
		if err != nil {
			log.WithError(err).Error("Failed to persist optimization run")
		} else {
			resp.RunID = run.ID
		}
	}

	if s.cache != nil {
		if err := s.cache.SetWithRetry(ctx, OptimizationCacheKey(hash), resp, s.cacheTTL, cacheWriteAttempts); err != nil {
			log.WithError(err).Warn("Failed to cache optimization result")
		}
	}

	if s.notifier != nil {
		s.notifier.Publish(websocket.Event{
			Type:      websocket.EventRunCompleted,
			RequestID: in.RequestID,
			RunID:     resp.RunID,
			Provider:  provider,
			Sport:     sport,
			Total:     len(resp.Lineups),
		})
	}

	log.WithFields(logrus.Fields{
		"run_id":      resp.RunID,
		"lineups":     len(resp.Lineups),
		"duration_ms": resp.DurationMs,
	}).Info("Optimization completed")
	return resp, nil
}

func (s *OptimizationService) recordFailure(ctx context.Context, log *logrus.Entry, requestID, provider, sport string, meta RunMeta, runErr error, elapsed time.Duration) {
	_, appErr := utils.FromOptimizerError(runErr)
	metrics.OptimizationFailures.WithLabelValues(provider, sport, appErr.Code).Inc()
	log.WithError(runErr).WithField("error_code", appErr.Code).Warn("Optimization failed")

	runID := ""
	if s.store != nil {
		run, err := s.store.SaveFailedRun(ctx, provider, sport, meta, runErr, elapsed)
		if err != nil {
			log.WithError(err).Error("Failed to persist failed optimization run")
		} else {
			runID = run.ID
		}
	}

	if s.notifier != nil {
		s.notifier.Publish(websocket.Event{
			Type:      websocket.EventRunFailed,
			RequestID: requestID,
			RunID:     runID,
			Provider:  provider,
			Sport:     sport,
			Error:     runErr.Error(),
		})
	}
}

// GetRun loads a persisted run.
func (s *OptimizationService) GetRun(ctx context.Context, id string) (*models.OptimizationRun, error) {
	if s.store == nil {
		return nil, fmt.Errorf("optimization run %s: %w", id, utils.ErrNotFound)
	}
	return s.store.GetRun(ctx, id)
}

// ListRuns returns recent runs.
func (s *OptimizationService) ListRuns(ctx context.Context, limit int) ([]models.OptimizationRun, error) {
	if s.store == nil {
		return []models.OptimizationRun{}, nil
	}
	return s.store.ListRuns(ctx, limit)
}

// ExportRun renders a persisted run as an upload CSV.
func (s *OptimizationService) ExportRun(ctx context.Context, id string) ([]byte, *models.OptimizationRun, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.exporter.ExportRunBytes(run)
	if err != nil {
		return nil, nil, err
	}
	return data, run, nil
}

// MaxLineups is the per-request lineup limit.
func (s *OptimizationService) MaxLineups() int {
	return s.maxLineups
}
