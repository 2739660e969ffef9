package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup/internal/api/middleware"
	"github.com/stitts-dev/dfs-lineup/internal/loader"
	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
	"github.com/stitts-dev/dfs-lineup/internal/services"
	"github.com/stitts-dev/dfs-lineup/pkg/logger"
	"github.com/stitts-dev/dfs-lineup/pkg/utils"
)

const maxUploadBytes = 8 << 20

type OptimizerHandler struct {
	service *services.OptimizationService
	loader  *loader.Loader
	logger  *logrus.Logger
}

func NewOptimizerHandler(service *services.OptimizationService, logger *logrus.Logger) *OptimizerHandler {
	return &OptimizerHandler{
		service: service,
		loader:  loader.New(logrus.NewEntry(logger)),
		logger:  logger,
	}
}

// OptimizeLineups generates lineups from a JSON player list
func (h *OptimizerHandler) OptimizeLineups(c *gin.Context) {
	var req struct {
		Provider             string             `json:"provider" binding:"required"`
		Sport                string             `json:"sport" binding:"required"`
		NumLineups           int                `json:"num_lineups" binding:"required,min=1"`
		Depth                int                `json:"depth" binding:"min=0,max=5"`
		DropUnknownPositions *bool              `json:"drop_unknown_positions"`
		Players              []optimizer.Player `json:"players" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	h.optimize(c, services.OptimizationInput{
		RequestID:            middleware.GetRequestID(c),
		Provider:             optimizer.Provider(req.Provider),
		Sport:                optimizer.Sport(req.Sport),
		NumLineups:           req.NumLineups,
		Depth:                req.Depth,
		DropUnknownPositions: req.DropUnknownPositions,
		Players:              req.Players,
	})
}

// OptimizeUpload generates lineups from an uploaded provider CSV export
func (h *OptimizerHandler) OptimizeUpload(c *gin.Context) {
	var query struct {
		Provider             string `form:"provider" binding:"required"`
		Sport                string `form:"sport" binding:"required"`
		NumLineups           int    `form:"num_lineups" binding:"required,min=1"`
		Depth                int    `form:"depth" binding:"min=0,max=5"`
		DropUnknownPositions *bool  `form:"drop_unknown_positions"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.SendValidationError(c, "Invalid query parameters", err.Error())
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.SendValidationError(c, "Missing player list upload", err.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.SendValidationError(c, "Unreadable player list upload", err.Error())
		return
	}
	defer file.Close()

	players, err := h.loader.Load(file)
	if err != nil {
		if errors.Is(err, optimizer.ErrInvalidPlayer) {
			utils.SendOptimizerError(c, err)
			return
		}
		utils.SendValidationError(c, "Invalid player list", err.Error())
		return
	}

	h.optimize(c, services.OptimizationInput{
		RequestID:            middleware.GetRequestID(c),
		Provider:             optimizer.Provider(query.Provider),
		Sport:                optimizer.Sport(query.Sport),
		NumLineups:           query.NumLineups,
		Depth:                query.Depth,
		DropUnknownPositions: query.DropUnknownPositions,
		Players:              players,
	})
}

func (h *OptimizerHandler) optimize(c *gin.Context, in services.OptimizationInput) {
	resp, err := h.service.Optimize(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		utils.SendOptimizerError(c, err)
		return
	}
	h.logger.WithFields(logger.RequestFields(in.RequestID, resp.RunID)).
		WithField("cached", resp.Cached).
		Debug("Optimization response ready")

	meta := &utils.Meta{
		Total:    int64(len(resp.Lineups)),
		Cached:   resp.Cached,
		Duration: fmt.Sprintf("%dms", resp.DurationMs),
	}
	if resp.Cached {
		utils.SendSuccessWithMeta(c, resp, meta)
		return
	}
	utils.SendCreated(c, resp, meta)
}

// ListRuns returns recent optimization runs
func (h *OptimizerHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list optimization runs")
		utils.SendInternalError(c, "Failed to list optimization runs")
		return
	}
	utils.SendSuccessWithMeta(c, runs, &utils.Meta{Total: int64(len(runs))})
}

// GetRun returns a persisted run with its lineups
func (h *OptimizerHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendRunError(c, err)
		return
	}
	utils.SendSuccess(c, run)
}

// ExportRun downloads a run as a provider upload CSV
func (h *OptimizerHandler) ExportRun(c *gin.Context) {
	data, run, err := h.service.ExportRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendRunError(c, err)
		return
	}

	fileName := fmt.Sprintf("lineups_%s_%s_%s.csv", run.Provider, run.Sport, run.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *OptimizerHandler) sendRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		utils.SendNotFound(c, "Optimization run not found")
	case errors.Is(err, services.ErrNothingToExport):
		utils.SendError(c, http.StatusConflict, utils.NewAppError(utils.ErrCodeValidation, "Run has no lineups to export"))
	default:
		h.logger.WithError(err).Error("Failed to load optimization run")
		utils.SendInternalError(c, "Failed to load optimization run")
	}
}
