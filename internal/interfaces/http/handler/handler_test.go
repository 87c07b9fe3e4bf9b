package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	planningapp "github.com/sheetplan/backend/internal/application/planning"
	"github.com/sheetplan/backend/internal/domain/planning"
	"github.com/sheetplan/backend/internal/infrastructure/sheets"
	"github.com/sheetplan/backend/internal/interfaces/http/dto"
	"github.com/sheetplan/backend/internal/interfaces/http/middleware"
	"github.com/sheetplan/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidations(); err != nil {
		panic(err)
	}
}

// stubProjectRepo is a minimal in-memory planning.ProjectRepository. A
// non-nil err fails every call, simulating spreadsheet transport failures.
type stubProjectRepo struct {
	items  []planning.Project
	lastID int
	err    error
}

func (r *stubProjectRepo) FindAll(ctx context.Context) ([]planning.Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]planning.Project, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *stubProjectRepo) FindByID(ctx context.Context, id int) (*planning.Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			p := r.items[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (r *stubProjectRepo) Create(ctx context.Context, project planning.Project) (*planning.Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.lastID++
	project.ID = r.lastID
	project.CreatedAt = time.Now().UTC().Truncate(time.Second)
	r.items = append(r.items, project)
	created := project
	return &created, nil
}

func (r *stubProjectRepo) Update(ctx context.Context, id int, apply func(*planning.Project) error) (*planning.Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		merged := r.items[i]
		if err := apply(&merged); err != nil {
			return nil, err
		}
		merged.ID = r.items[i].ID
		merged.CreatedAt = r.items[i].CreatedAt
		r.items[i] = merged
		out := merged
		return &out, nil
	}
	return nil, nil
}

func (r *stubProjectRepo) Delete(ctx context.Context, id int) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type stubTaskRepo struct {
	items  []planning.Task
	lastID int
	err    error
}

func (r *stubTaskRepo) FindAll(ctx context.Context) ([]planning.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]planning.Task, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *stubTaskRepo) FindByID(ctx context.Context, id int) (*planning.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			t := r.items[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (r *stubTaskRepo) FindByProject(ctx context.Context, projectID int) ([]planning.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []planning.Task
	for i := range r.items {
		if r.items[i].ProjectID == projectID {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}

func (r *stubTaskRepo) Create(ctx context.Context, task planning.Task) (*planning.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.lastID++
	task.ID = r.lastID
	task.CreatedAt = time.Now().UTC().Truncate(time.Second)
	task.ApplyStatusRules()
	r.items = append(r.items, task)
	created := task
	return &created, nil
}

func (r *stubTaskRepo) Update(ctx context.Context, id int, apply func(*planning.Task) error) (*planning.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		merged := r.items[i]
		if err := apply(&merged); err != nil {
			return nil, err
		}
		merged.ID = r.items[i].ID
		merged.ProjectID = r.items[i].ProjectID
		merged.CreatedAt = r.items[i].CreatedAt
		merged.ApplyStatusRules()
		r.items[i] = merged
		out := merged
		return &out, nil
	}
	return nil, nil
}

func (r *stubTaskRepo) Delete(ctx context.Context, id int) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubTaskRepo) DeleteByProject(ctx context.Context, projectID int) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	kept := r.items[:0]
	removed := 0
	for _, t := range r.items {
		if t.ProjectID == projectID {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	r.items = kept
	return removed, nil
}

type apiFixture struct {
	engine      *gin.Engine
	projectRepo *stubProjectRepo
	taskRepo    *stubTaskRepo
}

func newAPIFixture() *apiFixture {
	projectRepo := &stubProjectRepo{}
	taskRepo := &stubTaskRepo{}

	projectService := planningapp.NewProjectService(projectRepo, taskRepo, zap.NewNop())
	taskService := planningapp.NewTaskService(taskRepo, projectRepo, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID())

	system := NewSystemHandler("test")
	engine.GET("/health", system.Health)

	router.NewRouter(engine).
		Register(NewProjectHandler(projectService)).
		Register(NewTaskHandler(taskService)).
		Register(system).
		Setup()

	return &apiFixture{
		engine:      engine,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCreateProject(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/projects", gin.H{
		"name":       "Website relaunch",
		"start_date": "2025-04-01",
		"end_date":   "2025-06-30",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["id"])
	assert.Equal(t, "planned", data["status"])
}

func TestCreateProjectRequiresName(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/projects", gin.H{"owner": "dana"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
}

func TestCreateProjectRejectsMalformedDate(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/projects", gin.H{
		"name":       "Bad",
		"start_date": "04/01/2025",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProjectRejectsInvertedDates(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/projects", gin.H{
		"name":       "Backwards",
		"start_date": "2025-06-01",
		"end_date":   "2025-05-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
}

func TestGetProjectNotFound(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodGet, "/api/projects/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
}

func TestGetProjectBadID(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodGet, "/api/projects/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProjectsTimeoutMapsTo504(t *testing.T) {
	f := newAPIFixture()
	f.projectRepo.err = fmt.Errorf("%w: read rows after 8s", sheets.ErrTimeout)

	w := f.do(t, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, dto.ErrCodeSheetsTimeout, errorCode(t, w))
}

func TestListProjectsBackendErrorMapsTo502(t *testing.T) {
	f := newAPIFixture()
	f.projectRepo.err = fmt.Errorf("%w: read rows: quota exceeded", sheets.ErrBackend)

	w := f.do(t, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrCodeUpstream, errorCode(t, w))
}

func TestErrorResponseCarriesRequestID(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodGet, "/api/projects/999", nil)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.NotEmpty(t, resp.Error.RequestID)
	assert.Equal(t, w.Header().Get("X-Request-ID"), resp.Error.RequestID)
}

func TestDeleteProjectCascades(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/projects", gin.H{"name": "Doomed"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{"title": "Child"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodDelete, "/api/projects/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, f.taskRepo.items)
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/projects", gin.H{"name": "Plan"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskWhitespaceTitleGetsPlaceholder(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/projects", gin.H{"name": "Plan"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{"title": "   "})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Untitled task", data["title"])
}

func TestCreateTaskUnknownProject(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/projects/42/tasks", gin.H{"title": "Orphan"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTaskBadStatus(t *testing.T) {
	f := newAPIFixture()

	f.do(t, http.MethodPost, "/api/projects", gin.H{"name": "Plan"})
	w := f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{
		"title":  "Typo",
		"status": "finished",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskDependencyRuleMapsTo422(t *testing.T) {
	f := newAPIFixture()

	f.do(t, http.MethodPost, "/api/projects", gin.H{"name": "Plan"})
	w := f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{"title": "Blocker"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{
		"title":              "Dependent",
		"depends_on_task_id": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPut, "/api/tasks/2", gin.H{"status": "done"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))
}

func TestPatchProgressClamps(t *testing.T) {
	f := newAPIFixture()

	f.do(t, http.MethodPost, "/api/projects", gin.H{"name": "Plan"})
	f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{"title": "Crunch"})

	w := f.do(t, http.MethodPatch, "/api/tasks/1/progress", gin.H{"progress": 250})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(100), data["progress"])
}

func TestPatchProgressRequiresBody(t *testing.T) {
	f := newAPIFixture()

	f.do(t, http.MethodPost, "/api/projects", gin.H{"name": "Plan"})
	f.do(t, http.MethodPost, "/api/projects/1/tasks", gin.H{"title": "Crunch"})

	w := f.do(t, http.MethodPatch, "/api/tasks/1/progress", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTaskNotFound(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodDelete, "/api/tasks/77", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
