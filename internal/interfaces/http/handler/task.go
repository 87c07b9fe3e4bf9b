package handler

import (
	"github.com/gin-gonic/gin"

	planningapp "github.com/sheetplan/backend/internal/application/planning"
)

// TaskHandler handles task-related API endpoints
type TaskHandler struct {
	BaseHandler
	taskService *planningapp.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *planningapp.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// RegisterRoutes registers task routes on the API group
func (h *TaskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects/:id/tasks", h.ListByProject)
	rg.POST("/projects/:id/tasks", h.Create)

	tasks := rg.Group("/tasks")
	{
		tasks.GET("/:id", h.Get)
		tasks.PUT("/:id", h.Update)
		tasks.DELETE("/:id", h.Delete)
		tasks.PATCH("/:id/progress", h.UpdateProgress)
	}
}

// CreateTaskRequest represents a request to create a new task. The title is
// required; titles left blank in the sheet itself are rendered under a
// placeholder instead.
type CreateTaskRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=200"`
	Description     string `json:"description" binding:"max=2000"`
	StartDate       string `json:"start_date" binding:"omitempty,dateonly"`
	EndDate         string `json:"end_date" binding:"omitempty,dateonly"`
	Progress        int    `json:"progress"`
	Status          string `json:"status" binding:"omitempty,oneof=planned doing blocked done"`
	Priority        string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DependsOnTaskID *int   `json:"depends_on_task_id"`
}

// UpdateTaskRequest represents a partial task update. Absent fields are left
// untouched; depends_on_task_id set to 0 clears the dependency.
type UpdateTaskRequest struct {
	Title           *string `json:"title" binding:"omitempty,max=200"`
	Description     *string `json:"description" binding:"omitempty,max=2000"`
	StartDate       *string `json:"start_date" binding:"omitempty,dateonly"`
	EndDate         *string `json:"end_date" binding:"omitempty,dateonly"`
	Progress        *int    `json:"progress"`
	Status          *string `json:"status" binding:"omitempty,oneof=planned doing blocked done"`
	Priority        *string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DependsOnTaskID *int    `json:"depends_on_task_id"`
}

// UpdateProgressRequest carries a progress-only update
type UpdateProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

// ListByProject returns a project's tasks, oldest first
func (h *TaskHandler) ListByProject(c *gin.Context) {
	projectID, ok := h.pathID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tasks)
}

// Get returns one task
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// Create appends a new task to a project
func (h *TaskHandler) Create(c *gin.Context) {
	projectID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), projectID, planningapp.CreateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Progress:        req.Progress,
		Status:          req.Status,
		Priority:        req.Priority,
		DependsOnTaskID: req.DependsOnTaskID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, task)
}

// Update merges a partial payload into an existing task
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), id, planningapp.UpdateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Progress:        req.Progress,
		Status:          req.Status,
		Priority:        req.Priority,
		DependsOnTaskID: req.DependsOnTaskID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// UpdateProgress updates only a task's progress percentage
func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.UpdateProgress(c.Request.Context(), id, *req.Progress)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// Delete removes one task
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
