package planning

import "context"

// ProjectRepository is the persistence contract for projects. Lookups that
// find nothing return a nil record and a nil error; absence is a normal
// outcome, not a failure.
type ProjectRepository interface {
	FindAll(ctx context.Context) ([]Project, error)
	FindByID(ctx context.Context, id int) (*Project, error)
	Create(ctx context.Context, project Project) (*Project, error)
	// Update locates the row holding id, applies the mutation to the decoded
	// record and writes the whole row back. Returns (nil, nil) when id is absent.
	Update(ctx context.Context, id int, apply func(*Project) error) (*Project, error)
	// Delete removes the row holding id. The boolean reports whether a row
	// was actually deleted.
	Delete(ctx context.Context, id int) (bool, error)
}

// TaskRepository is the persistence contract for tasks
type TaskRepository interface {
	FindAll(ctx context.Context) ([]Task, error)
	FindByProject(ctx context.Context, projectID int) ([]Task, error)
	FindByID(ctx context.Context, id int) (*Task, error)
	Create(ctx context.Context, task Task) (*Task, error)
	Update(ctx context.Context, id int, apply func(*Task) error) (*Task, error)
	Delete(ctx context.Context, id int) (bool, error)
	// DeleteByProject removes every task row belonging to projectID and
	// returns how many rows were deleted. Used by the project cascade.
	DeleteByProject(ctx context.Context, projectID int) (int, error)
}
