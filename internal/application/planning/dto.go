package planning

import (
	"strings"
	"time"

	"github.com/sheetplan/backend/internal/domain/planning"
	"github.com/sheetplan/backend/internal/domain/shared"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// CreateProjectInput carries a project creation payload. Empty optional
// fields mean absent.
type CreateProjectInput struct {
	Name        string
	Owner       string
	Description string
	StartDate   string
	EndDate     string
	Status      string
}

// UpdateProjectInput carries a partial project update. Nil fields are left
// untouched; an explicitly empty optional field clears the stored value.
type UpdateProjectInput struct {
	Name        *string
	Owner       *string
	Description *string
	StartDate   *string
	EndDate     *string
	Status      *string
}

// CreateTaskInput carries a task creation payload
type CreateTaskInput struct {
	Title           string
	Description     string
	StartDate       string
	EndDate         string
	Progress        int
	Status          string
	Priority        string
	DependsOnTaskID *int
}

// UpdateTaskInput carries a partial task update. DependsOnTaskID set to a
// pointer to 0 clears the dependency.
type UpdateTaskInput struct {
	Title           *string
	Description     *string
	StartDate       *string
	EndDate         *string
	Progress        *int
	Status          *string
	Priority        *string
	DependsOnTaskID *int
}

// ProjectResponse is the outward shape of a project
type ProjectResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Owner       *string `json:"owner"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// TaskResponse is the outward shape of a task. IsOverdue and DeadlineState
// are derived from the end date, status and current date on every read.
type TaskResponse struct {
	ID              int     `json:"id"`
	ProjectID       int     `json:"project_id"`
	DependsOnTaskID *int    `json:"depends_on_task_id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Progress        int     `json:"progress"`
	Status          string  `json:"status"`
	Priority        string  `json:"priority"`
	CreatedAt       string  `json:"created_at"`
	IsOverdue       bool    `json:"is_overdue"`
	DeadlineState   string  `json:"deadline_state"`
}

// ToProjectResponse converts a domain project
func ToProjectResponse(p *planning.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Owner:       p.Owner,
		Description: p.Description,
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToTaskResponse converts a domain task, deriving its deadline classification
// against now
func ToTaskResponse(t *planning.Task, now time.Time) TaskResponse {
	state := planning.ClassifyDeadline(t.EndDate, t.Status, now)
	return TaskResponse{
		ID:              t.ID,
		ProjectID:       t.ProjectID,
		DependsOnTaskID: t.DependsOnTaskID,
		Title:           t.Title,
		Description:     t.Description,
		StartDate:       formatDate(t.StartDate),
		EndDate:         formatDate(t.EndDate),
		Progress:        t.Progress,
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
		IsOverdue:       state == planning.DeadlineOverdue,
		DeadlineState:   string(state),
	}
}

func formatDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(DateLayout)
	return &s
}

// parseOptionalDate turns a payload date string into a typed date. Empty
// means absent; a malformed value is a validation failure, never silently
// dropped.
func parseOptionalDate(field, raw string) (*time.Time, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, text)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", field+" must be a YYYY-MM-DD date")
	}
	return &d, nil
}

func optionalText(raw string) *string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	return &text
}
