package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lifeos/internal/model"
	"lifeos/internal/repository"
)

// fakeDevRepo keeps the five collections in memory and can be switched into a
// failing mode to exercise the cache-preservation contract.
type fakeDevRepo struct {
	mu     sync.Mutex
	data   repository.DevelopmentData
	fail   bool
	nextID int
}

var errBackend = errors.New("backend unavailable")

func (f *fakeDevRepo) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeDevRepo) FetchAll(_ context.Context, _ string) (*repository.DevelopmentData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	out := repository.DevelopmentData{
		Categories: append([]model.Category(nil), f.data.Categories...),
		Projects:   append([]model.Project(nil), f.data.Projects...),
		Tasks:      append([]model.DevTask(nil), f.data.Tasks...),
		Notes:      append([]model.Note(nil), f.data.Notes...),
		Doubts:     append([]model.Doubt(nil), f.data.Doubts...),
	}
	return &out, nil
}

func (f *fakeDevRepo) CreateCategory(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	c.ID = f.id()
	f.data.Categories = append(f.data.Categories, *c)
	return nil
}

func (f *fakeDevRepo) UpdateCategory(_ context.Context, _, id string, patch map[string]interface{}) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	for i := range f.data.Categories {
		if f.data.Categories[i].ID == id {
			if v, ok := patch["name"].(string); ok {
				f.data.Categories[i].Name = v
			}
			c := f.data.Categories[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) DeleteCategoryCascade(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	doomed := map[string]bool{}
	var projects []model.Project
	for _, p := range f.data.Projects {
		if p.CategoryID == id {
			doomed[p.ID] = true
			continue
		}
		projects = append(projects, p)
	}
	f.data.Projects = projects

	inScope := func(categoryID, projectID *string) bool {
		if projectID != nil && doomed[*projectID] {
			return true
		}
		return categoryID != nil && *categoryID == id
	}
	var tasks []model.DevTask
	for _, t := range f.data.Tasks {
		if !inScope(t.CategoryID, t.ProjectID) {
			tasks = append(tasks, t)
		}
	}
	f.data.Tasks = tasks
	var notes []model.Note
	for _, n := range f.data.Notes {
		if !inScope(n.CategoryID, n.ProjectID) {
			notes = append(notes, n)
		}
	}
	f.data.Notes = notes
	var doubts []model.Doubt
	for _, d := range f.data.Doubts {
		if !inScope(d.CategoryID, d.ProjectID) {
			doubts = append(doubts, d)
		}
	}
	f.data.Doubts = doubts

	for i, c := range f.data.Categories {
		if c.ID == id {
			f.data.Categories = append(f.data.Categories[:i], f.data.Categories[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) CreateProject(_ context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	p.ID = f.id()
	f.data.Projects = append(f.data.Projects, *p)
	return nil
}

func (f *fakeDevRepo) UpdateProject(_ context.Context, _, id string, patch map[string]interface{}) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	for i := range f.data.Projects {
		if f.data.Projects[i].ID == id {
			if v, ok := patch["name"].(string); ok {
				f.data.Projects[i].Name = v
			}
			p := f.data.Projects[i]
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) DeleteProjectCascade(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	inScope := func(projectID *string) bool {
		return projectID != nil && *projectID == id
	}
	var tasks []model.DevTask
	for _, t := range f.data.Tasks {
		if !inScope(t.ProjectID) {
			tasks = append(tasks, t)
		}
	}
	f.data.Tasks = tasks
	var notes []model.Note
	for _, n := range f.data.Notes {
		if !inScope(n.ProjectID) {
			notes = append(notes, n)
		}
	}
	f.data.Notes = notes
	var doubts []model.Doubt
	for _, d := range f.data.Doubts {
		if !inScope(d.ProjectID) {
			doubts = append(doubts, d)
		}
	}
	f.data.Doubts = doubts

	for i, p := range f.data.Projects {
		if p.ID == id {
			f.data.Projects = append(f.data.Projects[:i], f.data.Projects[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) CreateTask(_ context.Context, t *model.DevTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	t.ID = f.id()
	f.data.Tasks = append(f.data.Tasks, *t)
	return nil
}

func (f *fakeDevRepo) UpdateTask(_ context.Context, _, id string, patch map[string]interface{}) (*model.DevTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	for i := range f.data.Tasks {
		if f.data.Tasks[i].ID != id {
			continue
		}
		switch v := patch["status"].(type) {
		case string:
			f.data.Tasks[i].Status = model.TaskStatus(v)
		case model.TaskStatus:
			f.data.Tasks[i].Status = v
		}
		if v, ok := patch["order_index"].(int); ok {
			f.data.Tasks[i].OrderIndex = v
		}
		if v, ok := patch["calendar_event_id"].(string); ok {
			f.data.Tasks[i].CalendarEventID = v
		}
		t := f.data.Tasks[i]
		return &t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) DeleteTask(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	for i, t := range f.data.Tasks {
		if t.ID == id {
			f.data.Tasks = append(f.data.Tasks[:i], f.data.Tasks[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) CreateNote(_ context.Context, n *model.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	n.ID = f.id()
	f.data.Notes = append(f.data.Notes, *n)
	return nil
}

func (f *fakeDevRepo) UpdateNote(_ context.Context, _, id string, patch map[string]interface{}) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	for i := range f.data.Notes {
		if f.data.Notes[i].ID == id {
			if v, ok := patch["content"].(string); ok {
				f.data.Notes[i].Content = v
			}
			if v, ok := patch["is_pinned"].(bool); ok {
				f.data.Notes[i].IsPinned = v
			}
			n := f.data.Notes[i]
			return &n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) DeleteNote(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	for i, n := range f.data.Notes {
		if n.ID == id {
			f.data.Notes = append(f.data.Notes[:i], f.data.Notes[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) CreateDoubt(_ context.Context, d *model.Doubt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	d.ID = f.id()
	f.data.Doubts = append(f.data.Doubts, *d)
	return nil
}

func (f *fakeDevRepo) UpdateDoubt(_ context.Context, _, id string, patch map[string]interface{}) (*model.Doubt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackend
	}
	for i := range f.data.Doubts {
		if f.data.Doubts[i].ID == id {
			if v, ok := patch["resolved"].(bool); ok {
				f.data.Doubts[i].Resolved = v
			}
			if v, ok := patch["resolved_at"].(time.Time); ok {
				f.data.Doubts[i].ResolvedAt = &v
			}
			d := f.data.Doubts[i]
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDevRepo) DeleteDoubt(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBackend
	}
	for i, d := range f.data.Doubts {
		if d.ID == id {
			f.data.Doubts = append(f.data.Doubts[:i], f.data.Doubts[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

const testUser = "user-1"

func newDevStore(t *testing.T) (*Development, *fakeDevRepo) {
	t.Helper()
	repo := &fakeDevRepo{}
	return NewDevelopment(repo, zap.NewNop()), repo
}

// seedTree builds: category -> project -> {task, note}, plus a task and a
// doubt scoped directly to the category.
func seedTree(t *testing.T, s *Development) (categoryID, projectID string) {
	t.Helper()
	ctx := context.Background()

	cat, err := s.AddCategory(ctx, testUser, CategoryInput{Name: "Go"})
	require.NoError(t, err)
	require.NotNil(t, cat)

	proj, err := s.AddProject(ctx, testUser, ProjectInput{Name: "Compiler", CategoryID: cat.ID})
	require.NoError(t, err)
	require.NotNil(t, proj)

	_, err = s.AddTask(ctx, testUser, TaskInput{Title: "parser", ProjectID: proj.ID})
	require.NoError(t, err)
	_, err = s.AddTask(ctx, testUser, TaskInput{Title: "roadmap", CategoryID: cat.ID})
	require.NoError(t, err)
	_, err = s.AddNote(ctx, testUser, NoteInput{Title: "grammar", Content: "LL(1)", ProjectID: proj.ID})
	require.NoError(t, err)
	_, err = s.AddDoubt(ctx, testUser, DoubtInput{Question: "generics?", CategoryID: cat.ID})
	require.NoError(t, err)

	return cat.ID, proj.ID
}

func TestAddCategoryEmptyNameIsNoOp(t *testing.T) {
	s, repo := newDevStore(t)

	c, err := s.AddCategory(context.Background(), testUser, CategoryInput{Name: "   "})
	assert.NoError(t, err)
	assert.Nil(t, c)
	assert.Empty(t, repo.data.Categories)
	assert.Empty(t, s.Err())
}

func TestAddRequiresAuthenticatedUser(t *testing.T) {
	s, _ := newDevStore(t)

	_, err := s.AddCategory(context.Background(), "", CategoryInput{Name: "Go"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, ErrNotAuthenticated.Error(), s.Err())
}

func TestAddTaskInheritsProjectCategory(t *testing.T) {
	s, _ := newDevStore(t)
	categoryID, projectID := seedTree(t, s)

	task, err := s.AddTask(context.Background(), testUser, TaskInput{Title: "codegen", ProjectID: projectID})
	require.NoError(t, err)
	require.NotNil(t, task.CategoryID)
	require.NotNil(t, task.ProjectID)
	assert.Equal(t, categoryID, *task.CategoryID)
	assert.Equal(t, projectID, *task.ProjectID)
	assert.Equal(t, model.StatusTodo, task.Status)
}

func TestAddTaskUnknownScopeFails(t *testing.T) {
	s, _ := newDevStore(t)

	_, err := s.AddTask(context.Background(), testUser, TaskInput{Title: "x", CategoryID: "ghost"})
	assert.Error(t, err)
	assert.NotEmpty(t, s.Err())
}

func TestMoveTaskAnyStatusToAnyStatus(t *testing.T) {
	s, _ := newDevStore(t)
	_, projectID := seedTree(t, s)
	ctx := context.Background()

	task, err := s.AddTask(ctx, testUser, TaskInput{Title: "mover", ProjectID: projectID})
	require.NoError(t, err)

	for _, status := range []model.TaskStatus{model.StatusDone, model.StatusTodo, model.StatusDoing, model.StatusDone} {
		moved, err := s.MoveTask(ctx, testUser, task.ID, status, nil)
		require.NoError(t, err)
		assert.Equal(t, status, moved.Status)
	}
}

func TestMoveTaskAppendsToTargetColumn(t *testing.T) {
	s, _ := newDevStore(t)
	_, projectID := seedTree(t, s)
	ctx := context.Background()

	a, err := s.AddTask(ctx, testUser, TaskInput{Title: "a", ProjectID: projectID})
	require.NoError(t, err)
	b, err := s.AddTask(ctx, testUser, TaskInput{Title: "b", ProjectID: projectID})
	require.NoError(t, err)

	movedA, err := s.MoveTask(ctx, testUser, a.ID, model.StatusDoing, nil)
	require.NoError(t, err)
	movedB, err := s.MoveTask(ctx, testUser, b.ID, model.StatusDoing, nil)
	require.NoError(t, err)

	assert.Greater(t, movedB.OrderIndex, movedA.OrderIndex)
}

func TestMoveTaskExplicitOrderIndex(t *testing.T) {
	s, _ := newDevStore(t)
	_, projectID := seedTree(t, s)
	ctx := context.Background()

	task, err := s.AddTask(ctx, testUser, TaskInput{Title: "pinned", ProjectID: projectID})
	require.NoError(t, err)

	idx := 7
	moved, err := s.MoveTask(ctx, testUser, task.ID, model.StatusDone, &idx)
	require.NoError(t, err)
	assert.Equal(t, 7, moved.OrderIndex)
}

func TestMoveTaskRejectsInvalidStatus(t *testing.T) {
	s, _ := newDevStore(t)
	_, projectID := seedTree(t, s)
	ctx := context.Background()

	task, err := s.AddTask(ctx, testUser, TaskInput{Title: "x", ProjectID: projectID})
	require.NoError(t, err)

	_, err = s.MoveTask(ctx, testUser, task.ID, model.TaskStatus("archived"), nil)
	assert.Error(t, err)
	assert.Contains(t, s.Err(), "invalid status")
}

func TestDeleteCategoryRemovesWholeSubtree(t *testing.T) {
	s, repo := newDevStore(t)
	categoryID, _ := seedTree(t, s)
	ctx := context.Background()

	s.SelectCategory(categoryID)
	require.NoError(t, s.DeleteCategory(ctx, testUser, categoryID))

	snap := s.Snapshot()
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.Projects)
	assert.Empty(t, snap.Tasks, "project tasks and directly scoped tasks must both go")
	assert.Empty(t, snap.Notes)
	assert.Empty(t, snap.Doubts)
	assert.Empty(t, snap.SelectedCategoryID)
	assert.Empty(t, snap.SelectedProjectID)

	assert.Empty(t, repo.data.Tasks)
	assert.Empty(t, repo.data.Doubts)
}

func TestDeleteProjectKeepsCategoryScopedChildren(t *testing.T) {
	s, _ := newDevStore(t)
	_, projectID := seedTree(t, s)
	ctx := context.Background()

	s.SelectProject(projectID)
	require.NoError(t, s.DeleteProject(ctx, testUser, projectID))

	snap := s.Snapshot()
	assert.Len(t, snap.Categories, 1)
	assert.Empty(t, snap.Projects)
	require.Len(t, snap.Tasks, 1, "the directly category-scoped task survives")
	assert.Equal(t, "roadmap", snap.Tasks[0].Title)
	assert.Empty(t, snap.Notes)
	assert.Len(t, snap.Doubts, 1)
	assert.Empty(t, snap.SelectedProjectID)
}

func TestSelectCategoryResetsProjectSelection(t *testing.T) {
	s, _ := newDevStore(t)
	categoryID, projectID := seedTree(t, s)

	s.SelectCategory(categoryID)
	s.SelectProject(projectID)
	require.Equal(t, projectID, s.SelectedProjectID())

	s.SelectCategory("other")
	assert.Equal(t, "other", s.SelectedCategoryID())
	assert.Empty(t, s.SelectedProjectID())
}

func TestResolveDoubtSetsTimestamp(t *testing.T) {
	s, _ := newDevStore(t)
	ctx := context.Background()
	seedTree(t, s)

	doubts := s.Doubts()
	require.Len(t, doubts, 1)

	resolved, err := s.ResolveDoubt(ctx, testUser, doubts[0].ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedAt)
	assert.WithinDuration(t, time.Now(), *resolved.ResolvedAt, time.Minute)
}

func TestFetchAllFailureKeepsCache(t *testing.T) {
	s, repo := newDevStore(t)
	seedTree(t, s)
	ctx := context.Background()

	s.FetchAll(ctx, testUser)
	require.Empty(t, s.Err())
	before := s.Snapshot()
	require.NotEmpty(t, before.Tasks)

	repo.fail = true
	s.FetchAll(ctx, testUser)

	after := s.Snapshot()
	assert.Equal(t, before.Tasks, after.Tasks)
	assert.Equal(t, before.Categories, after.Categories)
	assert.Equal(t, errBackend.Error(), after.Err)
}

func TestAddTaskFailureLeavesCacheUntouched(t *testing.T) {
	s, repo := newDevStore(t)
	_, projectID := seedTree(t, s)
	before := len(s.Tasks())

	repo.fail = true
	_, err := s.AddTask(context.Background(), testUser, TaskInput{Title: "doomed", ProjectID: projectID})
	assert.ErrorIs(t, err, errBackend)
	assert.Len(t, s.Tasks(), before)
	assert.Equal(t, errBackend.Error(), s.Err())
}

func TestDueTodayOrOverdue(t *testing.T) {
	s, _ := newDevStore(t)
	_, projectID := seedTree(t, s)
	ctx := context.Background()
	now := time.Now()

	yesterday := now.AddDate(0, 0, -1)
	nextWeek := now.AddDate(0, 0, 7)
	_, err := s.AddTask(ctx, testUser, TaskInput{Title: "late", DueDate: &yesterday, ProjectID: projectID})
	require.NoError(t, err)
	_, err = s.AddTask(ctx, testUser, TaskInput{Title: "future", DueDate: &nextWeek, ProjectID: projectID})
	require.NoError(t, err)

	due := s.DueTodayOrOverdue(now)
	require.Len(t, due, 1)
	assert.Equal(t, "late", due[0].Title)
}
