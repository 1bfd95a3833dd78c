package controller

import (
	"strconv"

	"sqlquest/internal/common/http/middleware"
	"sqlquest/internal/submission/service"
	"sqlquest/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// SubmitController handles submission checking.
type SubmitController struct {
	submissionService service.SubmissionService
}

// NewSubmitController creates a new SubmitController.
func NewSubmitController(submissionService service.SubmissionService) *SubmitController {
	return &SubmitController{submissionService: submissionService}
}

// Check runs the caller's query against the task and settles the outcome.
func (h *SubmitController) Check(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	missionID, err := strconv.Atoi(c.Param("mission_id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	localID, err := strconv.Atoi(c.Param("task_id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	result, err := h.submissionService.Check(c.Request.Context(), userID, missionID, localID, req.Query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CheckRequest defines the submission payload.
type CheckRequest struct {
	Query string `json:"query" binding:"required"`
}
