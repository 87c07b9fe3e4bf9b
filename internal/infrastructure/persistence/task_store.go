package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sheetplan/backend/internal/domain/planning"
	"github.com/sheetplan/backend/internal/infrastructure/cache"
	"github.com/sheetplan/backend/internal/infrastructure/sheets"
	"go.uber.org/zap"
)

// TaskStore maps the task CRUD contract onto the tasks sheet. Task ids are
// unique across the whole sheet, not per project.
type TaskStore struct {
	client sheets.Client
	cache  *cache.Snapshot[planning.Task]
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	lastID int
}

// TaskStoreOption is a functional option for configuring the store
type TaskStoreOption func(*TaskStore)

// WithTaskClock overrides the store's clock
func WithTaskClock(now func() time.Time) TaskStoreOption {
	return func(s *TaskStore) {
		s.now = now
	}
}

// NewTaskStore creates a task store with its own snapshot cache
func NewTaskStore(client sheets.Client, cacheTTL time.Duration, logger *zap.Logger, opts ...TaskStoreOption) *TaskStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TaskStore{
		client: client,
		cache:  cache.NewSnapshot[planning.Task](cacheTTL),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindAll returns the full collection, served from cache while fresh
func (s *TaskStore) FindAll(ctx context.Context) ([]planning.Task, error) {
	return s.load(ctx)
}

// FindByProject filters the collection down to one project's tasks
func (s *TaskStore) FindByProject(ctx context.Context, projectID int) ([]planning.Task, error) {
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]planning.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.ProjectID == projectID {
			filtered = append(filtered, task)
		}
	}
	return filtered, nil
}

// FindByID scans the (possibly cached) collection for the matching id.
// Returns (nil, nil) when the id is absent.
func (s *TaskStore) FindByID(ctx context.Context, id int) (*planning.Task, error) {
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

// Create assigns the next id, stamps created_at, applies the progress/status
// coupling and appends one row
func (s *TaskStore) Create(ctx context.Context, task planning.Task) (*planning.Task, error) {
	existing, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	task.ID = s.nextID(existing)
	task.CreatedAt = s.now().UTC().Truncate(time.Second)
	if !task.Status.Valid() {
		task.Status = planning.DefaultTaskStatus
	}
	if !task.Priority.Valid() {
		task.Priority = planning.DefaultTaskPriority
	}
	task.ApplyStatusRules()

	if err := s.client.EnsureSheet(ctx, TaskSheet, TaskHeaders); err != nil {
		return nil, err
	}
	if err := s.client.AppendRow(ctx, TaskSheet, encodeTask(task)); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Info("Task created", zap.Int("id", task.ID), zap.Int("project_id", task.ProjectID))
	return &task, nil
}

// Update locates the physical row holding id, applies the mutation and
// overwrites exactly that row. The id, project_id and created_at of the
// stored record survive the mutation; the progress/status coupling is
// re-applied to the merged record. Returns (nil, nil) when the id is absent.
func (s *TaskStore) Update(ctx context.Context, id int, apply func(*planning.Task) error) (*planning.Task, error) {
	if err := s.client.EnsureSheet(ctx, TaskSheet, TaskHeaders); err != nil {
		return nil, err
	}
	rows, err := readIndexed(ctx, s.client, TaskSheet)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, row := range rows {
		record := decodeTask(row.cells, now)
		if record.ID != id {
			continue
		}

		projectID := record.ProjectID
		createdAt := record.CreatedAt
		if err := apply(&record); err != nil {
			return nil, err
		}
		record.ID = id
		record.ProjectID = projectID
		record.CreatedAt = createdAt
		record.ApplyStatusRules()

		if err := s.client.UpdateRow(ctx, TaskSheet, row.position, encodeTask(record)); err != nil {
			return nil, err
		}
		s.cache.Invalidate()
		return &record, nil
	}
	return nil, nil
}

// Delete removes the physical row holding id
func (s *TaskStore) Delete(ctx context.Context, id int) (bool, error) {
	if err := s.client.EnsureSheet(ctx, TaskSheet, TaskHeaders); err != nil {
		return false, err
	}
	rows, err := readIndexed(ctx, s.client, TaskSheet)
	if err != nil {
		return false, err
	}

	now := s.now()
	for _, row := range rows {
		if decodeTask(row.cells, now).ID != id {
			continue
		}
		if err := s.client.DeleteRow(ctx, TaskSheet, row.position); err != nil {
			return false, err
		}
		s.cache.Invalidate()
		s.logger.Info("Task deleted", zap.Int("id", id))
		return true, nil
	}
	return false, nil
}

// DeleteByProject removes every task row belonging to projectID, in
// descending row-position order so earlier deletions do not shift the
// positions of later ones
func (s *TaskStore) DeleteByProject(ctx context.Context, projectID int) (int, error) {
	if err := s.client.EnsureSheet(ctx, TaskSheet, TaskHeaders); err != nil {
		return 0, err
	}
	rows, err := readIndexed(ctx, s.client, TaskSheet)
	if err != nil {
		return 0, err
	}

	now := s.now()
	positions := make([]int, 0)
	for _, row := range rows {
		if decodeTask(row.cells, now).ProjectID == projectID {
			positions = append(positions, row.position)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))

	for _, position := range positions {
		if err := s.client.DeleteRow(ctx, TaskSheet, position); err != nil {
			s.cache.Invalidate()
			return 0, err
		}
	}

	if len(positions) > 0 {
		s.cache.Invalidate()
		s.logger.Info("Tasks deleted with project",
			zap.Int("project_id", projectID),
			zap.Int("count", len(positions)))
	}
	return len(positions), nil
}

// load returns the cached collection when fresh, otherwise performs a full
// reload through the remote client
func (s *TaskStore) load(ctx context.Context) ([]planning.Task, error) {
	if tasks, ok := s.cache.Get(); ok {
		return tasks, nil
	}

	if err := s.client.EnsureSheet(ctx, TaskSheet, TaskHeaders); err != nil {
		return nil, err
	}
	rows, err := s.client.ReadRows(ctx, TaskSheet)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tasks := make([]planning.Task, 0, len(dataRows(rows)))
	for _, row := range dataRows(rows) {
		record := decodeTask(row, now)
		if record.ID > 0 {
			tasks = append(tasks, record)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	s.cache.Set(tasks)
	s.logger.Debug("Tasks reloaded", zap.Int("count", len(tasks)))
	return tasks, nil
}

func (s *TaskStore) nextID(existing []planning.Task) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	high := s.lastID
	for _, t := range existing {
		if t.ID > high {
			high = t.ID
		}
	}
	s.lastID = high + 1
	return s.lastID
}

var _ planning.TaskRepository = (*TaskStore)(nil)
