package controller

import (
	"strconv"

	"sqlquest/internal/common/http/middleware"
	"sqlquest/internal/task/service"
	"sqlquest/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// TaskController serves the task catalog endpoints.
type TaskController struct {
	taskService service.TaskService
}

// NewTaskController creates a new TaskController.
func NewTaskController(taskService service.TaskService) *TaskController {
	return &TaskController{taskService: taskService}
}

// GetInfo returns per-tier task totals and the grouped task listing.
func (h *TaskController) GetInfo(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	info, err := h.taskService.GetCatalogInfo(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// List returns the grouped task listing with solved flags.
func (h *TaskController) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tasks)
}

// TaskInfo returns one task's description.
func (h *TaskController) TaskInfo(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	missionID, localID, ok := taskPathParams(c)
	if !ok {
		return
	}

	info, err := h.taskService.GetTaskInfo(c.Request.Context(), userID, missionID, localID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// ExpectedResult returns the task's reference result set.
func (h *TaskController) ExpectedResult(c *gin.Context) {
	if _, ok := middleware.CurrentUserID(c); !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	missionID, localID, ok := taskPathParams(c)
	if !ok {
		return
	}

	result, err := h.taskService.GetExpectedResult(c.Request.Context(), missionID, localID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Clue purchases and returns the task's clue.
func (h *TaskController) Clue(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	missionID, localID, ok := taskPathParams(c)
	if !ok {
		return
	}

	clue, err := h.taskService.PurchaseClue(c.Request.Context(), userID, missionID, localID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, clue)
}

func taskPathParams(c *gin.Context) (missionID, localID int, ok bool) {
	missionID, err := strconv.Atoi(c.Param("mission_id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return 0, 0, false
	}
	localID, err = strconv.Atoi(c.Param("task_id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return 0, 0, false
	}
	return missionID, localID, true
}
