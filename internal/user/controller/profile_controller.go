package controller

import (
	achievementsvc "sqlquest/internal/achievement/service"
	"sqlquest/internal/common/http/middleware"
	"sqlquest/internal/user/service"
	"sqlquest/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ProfileController serves the authenticated user's own data.
type ProfileController struct {
	profileService     service.ProfileService
	achievementService achievementsvc.AchievementService
}

// NewProfileController creates a new ProfileController.
func NewProfileController(profileService service.ProfileService, achievementService achievementsvc.AchievementService) *ProfileController {
	return &ProfileController{
		profileService:     profileService,
		achievementService: achievementService,
	}
}

// Me returns the caller's account info.
func (h *ProfileController) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, profile)
}

// TasksProgress returns the caller's solved counters and score.
func (h *ProfileController) TasksProgress(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	progress, err := h.profileService.GetTasksProgress(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, progress)
}

// Achievements returns the caller's earned achievements grouped by category.
func (h *ProfileController) Achievements(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	earned, err := h.achievementService.ListEarned(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, earned)
}
