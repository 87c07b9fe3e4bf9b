package planning

import (
	"context"
	"sort"

	"github.com/sheetplan/backend/internal/domain/planning"
	"github.com/sheetplan/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProjectService handles project-related business operations on top of the
// sheet-backed stores. Referential and state rules are checked here, before
// any remote mutation is attempted.
type ProjectService struct {
	projects planning.ProjectRepository
	tasks    planning.TaskRepository
	logger   *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projects planning.ProjectRepository, tasks planning.TaskRepository, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projects: projects,
		tasks:    tasks,
		logger:   logger,
	}
}

// List returns all projects, newest first
func (s *ProjectService) List(ctx context.Context) ([]ProjectResponse, error) {
	projects, err := s.projects.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = ToProjectResponse(&projects[i])
	}
	return responses, nil
}

// Get retrieves one project by id
func (s *ProjectService) Get(ctx context.Context, id int) (*ProjectResponse, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, shared.ErrNotFound
	}
	resp := ToProjectResponse(project)
	return &resp, nil
}

// Create validates the payload and appends a new project
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*ProjectResponse, error) {
	startDate, err := parseOptionalDate("start_date", input.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseOptionalDate("end_date", input.EndDate)
	if err != nil {
		return nil, err
	}
	status, err := projectStatusOrDefault(input.Status)
	if err != nil {
		return nil, err
	}

	project := planning.Project{
		Name:        input.Name,
		Owner:       optionalText(input.Owner),
		Description: optionalText(input.Description),
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      status,
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	created, err := s.projects.Create(ctx, project)
	if err != nil {
		return nil, err
	}
	resp := ToProjectResponse(created)
	return &resp, nil
}

// Update merges a partial payload into the stored project. The merged record
// is validated before the row is written.
func (s *ProjectService) Update(ctx context.Context, id int, input UpdateProjectInput) (*ProjectResponse, error) {
	updated, err := s.projects.Update(ctx, id, func(project *planning.Project) error {
		if input.Name != nil {
			project.Name = *input.Name
		}
		if input.Owner != nil {
			project.Owner = optionalText(*input.Owner)
		}
		if input.Description != nil {
			project.Description = optionalText(*input.Description)
		}
		if input.StartDate != nil {
			startDate, err := parseOptionalDate("start_date", *input.StartDate)
			if err != nil {
				return err
			}
			project.StartDate = startDate
		}
		if input.EndDate != nil {
			endDate, err := parseOptionalDate("end_date", *input.EndDate)
			if err != nil {
				return err
			}
			project.EndDate = endDate
		}
		if input.Status != nil {
			status := planning.ProjectStatus(*input.Status)
			if !status.Valid() {
				return shared.NewDomainError("INVALID_INPUT", "Unknown project status")
			}
			project.Status = status
		}
		return project.Validate()
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, shared.ErrNotFound
	}
	resp := ToProjectResponse(updated)
	return &resp, nil
}

// Delete removes a project and cascades to every task belonging to it
func (s *ProjectService) Delete(ctx context.Context, id int) error {
	deleted, err := s.projects.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return shared.ErrNotFound
	}

	count, err := s.tasks.DeleteByProject(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info("Project deleted with cascade",
		zap.Int("project_id", id),
		zap.Int("tasks_deleted", count))
	return nil
}

func projectStatusOrDefault(raw string) (planning.ProjectStatus, error) {
	if raw == "" {
		return planning.DefaultProjectStatus, nil
	}
	status := planning.ProjectStatus(raw)
	if !status.Valid() {
		return "", shared.NewDomainError("INVALID_INPUT", "Unknown project status")
	}
	return status, nil
}
