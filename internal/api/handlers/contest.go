package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
	"github.com/stitts-dev/dfs-lineup/pkg/utils"
)

// ContestHandler serves the supported provider/sport roster settings.
type ContestHandler struct{}

func NewContestHandler() *ContestHandler {
	return &ContestHandler{}
}

// ListContests returns every supported contest configuration
func (h *ContestHandler) ListContests(c *gin.Context) {
	contests := optimizer.SupportedSettings()
	utils.SendSuccessWithMeta(c, contests, &utils.Meta{Total: int64(len(contests))})
}

// GetContest returns one contest configuration
func (h *ContestHandler) GetContest(c *gin.Context) {
	settings, err := optimizer.SettingsFor(optimizer.Provider(c.Param("provider")), optimizer.Sport(c.Param("sport")))
	if err != nil {
		utils.SendOptimizerError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{
		"settings":    settings,
		"slot_labels": settings.SlotLabels(),
		"total_slots": settings.TotalSlots(),
	})
}
