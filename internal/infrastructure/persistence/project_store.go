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

// ProjectStore maps the project CRUD contract onto the projects sheet.
// Reads go through a TTL snapshot cache; every mutation locates its target by
// a fresh positional scan and invalidates the cache afterwards.
type ProjectStore struct {
	client sheets.Client
	cache  *cache.Snapshot[planning.Project]
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	lastID int
}

// ProjectStoreOption is a functional option for configuring the store
type ProjectStoreOption func(*ProjectStore)

// WithProjectClock overrides the store's clock
func WithProjectClock(now func() time.Time) ProjectStoreOption {
	return func(s *ProjectStore) {
		s.now = now
	}
}

// NewProjectStore creates a project store with its own snapshot cache
func NewProjectStore(client sheets.Client, cacheTTL time.Duration, logger *zap.Logger, opts ...ProjectStoreOption) *ProjectStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProjectStore{
		client: client,
		cache:  cache.NewSnapshot[planning.Project](cacheTTL),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindAll returns the full collection, served from cache while fresh
func (s *ProjectStore) FindAll(ctx context.Context) ([]planning.Project, error) {
	return s.load(ctx)
}

// FindByID scans the (possibly cached) collection for the matching id.
// Returns (nil, nil) when the id is absent.
func (s *ProjectStore) FindByID(ctx context.Context, id int) (*planning.Project, error) {
	projects, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i], nil
		}
	}
	return nil, nil
}

// Create assigns the next id, stamps created_at and appends one row
func (s *ProjectStore) Create(ctx context.Context, project planning.Project) (*planning.Project, error) {
	existing, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	project.ID = s.nextID(existing)
	project.CreatedAt = s.now().UTC().Truncate(time.Second)
	if !project.Status.Valid() {
		project.Status = planning.DefaultProjectStatus
	}

	if err := s.client.EnsureSheet(ctx, ProjectSheet, ProjectHeaders); err != nil {
		return nil, err
	}
	if err := s.client.AppendRow(ctx, ProjectSheet, encodeProject(project)); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Info("Project created", zap.Int("id", project.ID))
	return &project, nil
}

// Update locates the physical row holding id, applies the mutation to the
// decoded record and overwrites exactly that row's cell range. The id and
// created_at of the stored record survive the mutation. Returns (nil, nil)
// when the id is absent; apply errors abort before any remote write.
func (s *ProjectStore) Update(ctx context.Context, id int, apply func(*planning.Project) error) (*planning.Project, error) {
	if err := s.client.EnsureSheet(ctx, ProjectSheet, ProjectHeaders); err != nil {
		return nil, err
	}
	rows, err := readIndexed(ctx, s.client, ProjectSheet)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, row := range rows {
		record := decodeProject(row.cells, now)
		if record.ID != id {
			continue
		}

		createdAt := record.CreatedAt
		if err := apply(&record); err != nil {
			return nil, err
		}
		record.ID = id
		record.CreatedAt = createdAt

		if err := s.client.UpdateRow(ctx, ProjectSheet, row.position, encodeProject(record)); err != nil {
			return nil, err
		}
		s.cache.Invalidate()
		return &record, nil
	}
	return nil, nil
}

// Delete removes the physical row holding id. The boolean reports whether a
// row was deleted.
func (s *ProjectStore) Delete(ctx context.Context, id int) (bool, error) {
	if err := s.client.EnsureSheet(ctx, ProjectSheet, ProjectHeaders); err != nil {
		return false, err
	}
	rows, err := readIndexed(ctx, s.client, ProjectSheet)
	if err != nil {
		return false, err
	}

	now := s.now()
	for _, row := range rows {
		if decodeProject(row.cells, now).ID != id {
			continue
		}
		if err := s.client.DeleteRow(ctx, ProjectSheet, row.position); err != nil {
			return false, err
		}
		s.cache.Invalidate()
		s.logger.Info("Project deleted", zap.Int("id", id))
		return true, nil
	}
	return false, nil
}

// load returns the cached collection when fresh, otherwise performs a full
// reload through the remote client. Rows whose normalized id is not positive
// are corrupt or placeholders and are excluded.
func (s *ProjectStore) load(ctx context.Context) ([]planning.Project, error) {
	if projects, ok := s.cache.Get(); ok {
		return projects, nil
	}

	if err := s.client.EnsureSheet(ctx, ProjectSheet, ProjectHeaders); err != nil {
		return nil, err
	}
	rows, err := s.client.ReadRows(ctx, ProjectSheet)
	if err != nil {
		return nil, err
	}

	now := s.now()
	projects := make([]planning.Project, 0, len(dataRows(rows)))
	for _, row := range dataRows(rows) {
		record := decodeProject(row, now)
		if record.ID > 0 {
			projects = append(projects, record)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })

	s.cache.Set(projects)
	s.logger.Debug("Projects reloaded", zap.Int("count", len(projects)))
	return projects, nil
}

// nextID is one greater than the highest id observed, either in the sheet or
// assigned earlier in this run. Ids are never reused within a run, even
// after the row holding the maximum id was deleted.
func (s *ProjectStore) nextID(existing []planning.Project) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	high := s.lastID
	for _, p := range existing {
		if p.ID > high {
			high = p.ID
		}
	}
	s.lastID = high + 1
	return s.lastID
}

var _ planning.ProjectRepository = (*ProjectStore)(nil)
