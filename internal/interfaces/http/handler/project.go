package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	planningapp "github.com/sheetplan/backend/internal/application/planning"
)

// ProjectHandler handles project-related API endpoints
type ProjectHandler struct {
	BaseHandler
	projectService *planningapp.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *planningapp.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// RegisterRoutes registers project routes on the API group
func (h *ProjectHandler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.GET("", h.List)
		projects.POST("", h.Create)
		projects.GET("/:id", h.Get)
		projects.PUT("/:id", h.Update)
		projects.DELETE("/:id", h.Delete)
	}
}

// CreateProjectRequest represents a request to create a new project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Owner       string `json:"owner" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`
	StartDate   string `json:"start_date" binding:"omitempty,dateonly"`
	EndDate     string `json:"end_date" binding:"omitempty,dateonly"`
	Status      string `json:"status" binding:"omitempty,oneof=planned active done cancelled"`
}

// UpdateProjectRequest represents a partial project update. Absent fields are
// left untouched; an empty string clears the stored value.
type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Owner       *string `json:"owner" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	StartDate   *string `json:"start_date" binding:"omitempty,dateonly"`
	EndDate     *string `json:"end_date" binding:"omitempty,dateonly"`
	Status      *string `json:"status" binding:"omitempty,oneof=planned active done cancelled"`
}

// List returns all projects, newest first
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, projects)
}

// Get returns one project
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// Create appends a new project
func (h *ProjectHandler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), planningapp.CreateProjectInput{
		Name:        req.Name,
		Owner:       req.Owner,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, project)
}

// Update merges a partial payload into an existing project
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), id, planningapp.UpdateProjectInput{
		Name:        req.Name,
		Owner:       req.Owner,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// Delete removes a project and all of its tasks
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// pathID parses the numeric id path parameter
func (h *BaseHandler) pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		h.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
