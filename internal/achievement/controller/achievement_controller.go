package controller

import (
	"sqlquest/internal/achievement/service"
	"sqlquest/internal/common/http/middleware"
	"sqlquest/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// AchievementController serves the achievement catalog.
type AchievementController struct {
	achievementService service.AchievementService
}

// NewAchievementController creates a new AchievementController.
func NewAchievementController(achievementService service.AchievementService) *AchievementController {
	return &AchievementController{achievementService: achievementService}
}

// List returns every achievement grouped by category with earned flags.
func (h *AchievementController) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	grouped, err := h.achievementService.ListAll(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, grouped)
}
