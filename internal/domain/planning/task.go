package planning

import (
	"fmt"
	"strings"
	"time"

	"github.com/sheetplan/backend/internal/domain/shared"
)

// TaskStatus represents the lifecycle status of a task
type TaskStatus string

const (
	TaskStatusPlanned TaskStatus = "planned"
	TaskStatusDoing   TaskStatus = "doing"
	TaskStatusBlocked TaskStatus = "blocked"
	TaskStatusDone    TaskStatus = "done"
)

// DefaultTaskStatus is applied when a stored or supplied status is absent or unknown
const DefaultTaskStatus = TaskStatusPlanned

// Valid reports whether the status is one of the known task statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPlanned, TaskStatusDoing, TaskStatusBlocked, TaskStatusDone:
		return true
	}
	return false
}

// ParseTaskStatus normalizes a raw status string, falling back to the default
// when the value does not round-trip to a known status
func ParseTaskStatus(raw string) TaskStatus {
	s := TaskStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return DefaultTaskStatus
	}
	return s
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// DefaultTaskPriority is applied when a stored or supplied priority is absent or unknown
const DefaultTaskPriority = TaskPriorityMedium

// Valid reports whether the priority is one of the known priorities
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// ParseTaskPriority normalizes a raw priority string, falling back to the default
func ParseTaskPriority(raw string) TaskPriority {
	p := TaskPriority(strings.TrimSpace(raw))
	if !p.Valid() {
		return DefaultTaskPriority
	}
	return p
}

// ClampProgress bounds a progress value to [0, 100]
func ClampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// Task is a unit of work inside a project. Task ids are unique across the
// whole store, not per project.
type Task struct {
	ID              int
	ProjectID       int
	DependsOnTaskID *int
	Title           string
	Description     *string
	StartDate       *time.Time
	EndDate         *time.Time
	Progress        int
	Status          TaskStatus
	Priority        TaskPriority
	CreatedAt       time.Time
}

// UntitledTitle is stored in place of a blank task title
const UntitledTitle = "Untitled task"

// NormalizeTitle trims a raw title, substituting the placeholder when blank
func NormalizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return UntitledTitle
	}
	return title
}

// Validate checks the task's local invariants (field-level, no collection access)
func (t *Task) Validate() error {
	return ValidateDateRange(t.StartDate, t.EndDate)
}

// ApplyStatusRules enforces the progress/status coupling: progress is forced
// to 100 exactly when the task is done, otherwise clamped to [0, 100].
func (t *Task) ApplyStatusRules() {
	if t.Status == TaskStatusDone {
		t.Progress = 100
		return
	}
	t.Progress = ClampProgress(t.Progress)
}

// ValidateDependency checks the referential rules for a task's predecessor:
// it must exist, belong to the same project, and must not be the task itself.
// Validation never touches the remote backend; tasks is the already-loaded
// collection the task belongs to.
func ValidateDependency(task *Task, tasks []Task) error {
	if task.DependsOnTaskID == nil {
		return nil
	}
	depID := *task.DependsOnTaskID
	if depID == task.ID && task.ID != 0 {
		return shared.NewDomainError("SELF_DEPENDENCY", "A task cannot depend on itself")
	}
	dep := findTask(tasks, depID)
	if dep == nil {
		return shared.NewDomainError("DEPENDENCY_NOT_FOUND", fmt.Sprintf("Task %d referenced by depends_on_task_id does not exist", depID))
	}
	if dep.ProjectID != task.ProjectID {
		return shared.NewDomainError("CROSS_PROJECT_DEPENDENCY", "A task can only depend on a task in the same project")
	}
	return nil
}

// CheckCompletion guards the transition into done: it is rejected while the
// task's predecessor, if any, is not itself done.
func CheckCompletion(task *Task, tasks []Task) error {
	if task.Status != TaskStatusDone || task.DependsOnTaskID == nil {
		return nil
	}
	dep := findTask(tasks, *task.DependsOnTaskID)
	if dep == nil {
		return shared.NewDomainError("DEPENDENCY_NOT_FOUND", fmt.Sprintf("Task %d referenced by depends_on_task_id does not exist", *task.DependsOnTaskID))
	}
	if dep.Status != TaskStatusDone {
		return shared.NewDomainError("PREDECESSOR_NOT_DONE", fmt.Sprintf("Task cannot be marked done while task %d is not done", dep.ID))
	}
	return nil
}

func findTask(tasks []Task, id int) *Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}
