package controller

import (
	"sqlquest/internal/common/http/middleware"
	"sqlquest/internal/user/service"
	"sqlquest/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// RatingController serves the leaderboard endpoints.
type RatingController struct {
	ratingService service.RatingService
}

// NewRatingController creates a new RatingController.
func NewRatingController(ratingService service.RatingService) *RatingController {
	return &RatingController{ratingService: ratingService}
}

// Top returns the global leaderboard.
func (h *RatingController) Top(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	entries, err := h.ratingService.Top(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entries)
}

// Personal returns the caller's own leaderboard entry.
func (h *RatingController) Personal(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	entry, err := h.ratingService.Personal(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}
