package planning

import (
	"strings"
	"time"

	"github.com/sheetplan/backend/internal/domain/shared"
)

// ProjectStatus represents the lifecycle status of a project
type ProjectStatus string

const (
	ProjectStatusPlanned   ProjectStatus = "planned"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusDone      ProjectStatus = "done"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// DefaultProjectStatus is applied when a stored or supplied status is absent or unknown
const DefaultProjectStatus = ProjectStatusPlanned

// Valid reports whether the status is one of the known project statuses
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanned, ProjectStatusActive, ProjectStatusDone, ProjectStatusCancelled:
		return true
	}
	return false
}

// ParseProjectStatus normalizes a raw status string, falling back to the default
// when the value does not round-trip to a known status
func ParseProjectStatus(raw string) ProjectStatus {
	s := ProjectStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return DefaultProjectStatus
	}
	return s
}

// Project is a planning project that owns a set of tasks.
// Deleting a project cascades to all of its tasks.
type Project struct {
	ID          int
	Name        string
	Owner       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      ProjectStatus
	CreatedAt   time.Time
}

// Validate checks the invariants a project must hold before it is persisted
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Project name must not be empty")
	}
	return ValidateDateRange(p.StartDate, p.EndDate)
}

// ValidateDateRange rejects ranges where the end date precedes the start date.
// Either side may be absent.
func ValidateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return shared.NewDomainError("INVALID_DATE_RANGE", "end_date must not be before start_date")
	}
	return nil
}
