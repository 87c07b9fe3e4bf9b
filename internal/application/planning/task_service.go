package planning

import (
	"context"
	"sort"
	"time"

	"github.com/sheetplan/backend/internal/domain/planning"
	"github.com/sheetplan/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TaskService handles task-related business operations. Dependency and
// completion rules are evaluated against the already-loaded task collection
// before any remote mutation is attempted.
type TaskService struct {
	tasks    planning.TaskRepository
	projects planning.ProjectRepository
	logger   *zap.Logger
	now      func() time.Time
}

// TaskServiceOption is a functional option for configuring the service
type TaskServiceOption func(*TaskService)

// WithServiceClock overrides the clock used for deadline classification
func WithServiceClock(now func() time.Time) TaskServiceOption {
	return func(s *TaskService) {
		s.now = now
	}
}

// NewTaskService creates a new TaskService
func NewTaskService(tasks planning.TaskRepository, projects planning.ProjectRepository, logger *zap.Logger, opts ...TaskServiceOption) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TaskService{
		tasks:    tasks,
		projects: projects,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListByProject returns a project's tasks, oldest first. The project must exist.
func (s *TaskService) ListByProject(ctx context.Context, projectID int) ([]TaskResponse, error) {
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	now := s.now()
	responses := make([]TaskResponse, len(tasks))
	for i := range tasks {
		responses[i] = ToTaskResponse(&tasks[i], now)
	}
	return responses, nil
}

// Get retrieves one task by id
func (s *TaskService) Get(ctx context.Context, id int) (*TaskResponse, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, shared.ErrNotFound
	}
	resp := ToTaskResponse(task, s.now())
	return &resp, nil
}

// Create validates the payload against the project's task collection and
// appends a new task
func (s *TaskService) Create(ctx context.Context, projectID int, input CreateTaskInput) (*TaskResponse, error) {
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	startDate, err := parseOptionalDate("start_date", input.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseOptionalDate("end_date", input.EndDate)
	if err != nil {
		return nil, err
	}
	status, err := taskStatusOrDefault(input.Status)
	if err != nil {
		return nil, err
	}
	priority, err := taskPriorityOrDefault(input.Priority)
	if err != nil {
		return nil, err
	}

	task := planning.Task{
		ProjectID:       projectID,
		DependsOnTaskID: normalizeDependency(input.DependsOnTaskID),
		Title:           planning.NormalizeTitle(input.Title),
		Description:     optionalText(input.Description),
		StartDate:       startDate,
		EndDate:         endDate,
		Progress:        input.Progress,
		Status:          status,
		Priority:        priority,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	all, err := s.tasks.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := planning.ValidateDependency(&task, all); err != nil {
		return nil, err
	}
	if err := planning.CheckCompletion(&task, all); err != nil {
		return nil, err
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	resp := ToTaskResponse(created, s.now())
	return &resp, nil
}

// Update merges a partial payload into the stored task. The merged record is
// re-validated against the full collection before the row is written; a
// rejected mutation leaves the persisted state unchanged.
func (s *TaskService) Update(ctx context.Context, id int, input UpdateTaskInput) (*TaskResponse, error) {
	all, err := s.tasks.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.tasks.Update(ctx, id, func(task *planning.Task) error {
		if input.Title != nil {
			task.Title = planning.NormalizeTitle(*input.Title)
		}
		if input.Description != nil {
			task.Description = optionalText(*input.Description)
		}
		if input.StartDate != nil {
			startDate, err := parseOptionalDate("start_date", *input.StartDate)
			if err != nil {
				return err
			}
			task.StartDate = startDate
		}
		if input.EndDate != nil {
			endDate, err := parseOptionalDate("end_date", *input.EndDate)
			if err != nil {
				return err
			}
			task.EndDate = endDate
		}
		if input.Progress != nil {
			task.Progress = planning.ClampProgress(*input.Progress)
		}
		if input.Status != nil {
			status := planning.TaskStatus(*input.Status)
			if !status.Valid() {
				return shared.NewDomainError("INVALID_INPUT", "Unknown task status")
			}
			task.Status = status
		}
		if input.Priority != nil {
			priority := planning.TaskPriority(*input.Priority)
			if !priority.Valid() {
				return shared.NewDomainError("INVALID_INPUT", "Unknown task priority")
			}
			task.Priority = priority
		}
		if input.DependsOnTaskID != nil {
			task.DependsOnTaskID = normalizeDependency(input.DependsOnTaskID)
		}

		if err := task.Validate(); err != nil {
			return err
		}
		if err := planning.ValidateDependency(task, all); err != nil {
			return err
		}
		return planning.CheckCompletion(task, all)
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, shared.ErrNotFound
	}
	resp := ToTaskResponse(updated, s.now())
	return &resp, nil
}

// UpdateProgress is the progress-only update used by the board UI
func (s *TaskService) UpdateProgress(ctx context.Context, id int, progress int) (*TaskResponse, error) {
	return s.Update(ctx, id, UpdateTaskInput{Progress: &progress})
}

// Delete removes one task
func (s *TaskService) Delete(ctx context.Context, id int) error {
	deleted, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return shared.ErrNotFound
	}
	return nil
}

// requireProject converts an absent project into a not-found failure
func (s *TaskService) requireProject(ctx context.Context, projectID int) error {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return shared.ErrNotFound
	}
	return nil
}

// normalizeDependency treats a non-positive id as no dependency
func normalizeDependency(id *int) *int {
	if id == nil || *id <= 0 {
		return nil
	}
	return id
}

func taskStatusOrDefault(raw string) (planning.TaskStatus, error) {
	if raw == "" {
		return planning.DefaultTaskStatus, nil
	}
	status := planning.TaskStatus(raw)
	if !status.Valid() {
		return "", shared.NewDomainError("INVALID_INPUT", "Unknown task status")
	}
	return status, nil
}

func taskPriorityOrDefault(raw string) (planning.TaskPriority, error) {
	if raw == "" {
		return planning.DefaultTaskPriority, nil
	}
	priority := planning.TaskPriority(raw)
	if !priority.Valid() {
		return "", shared.NewDomainError("INVALID_INPUT", "Unknown task priority")
	}
	return priority, nil
}
