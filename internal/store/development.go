package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifeos/internal/model"
	"lifeos/internal/repository"
)

// Tab selects which child collection the deck shows for the current scope.
type Tab string

const (
	TabTasks  Tab = "tasks"
	TabNotes  Tab = "notes"
	TabDoubts Tab = "doubts"
)

// DevelopmentRepository is the persistence surface the development store needs.
type DevelopmentRepository interface {
	FetchAll(ctx context.Context, userID string) (*repository.DevelopmentData, error)

	CreateCategory(ctx context.Context, c *model.Category) error
	UpdateCategory(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Category, error)
	DeleteCategoryCascade(ctx context.Context, userID, id string) error

	CreateProject(ctx context.Context, p *model.Project) error
	UpdateProject(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Project, error)
	DeleteProjectCascade(ctx context.Context, userID, id string) error

	CreateTask(ctx context.Context, t *model.DevTask) error
	UpdateTask(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.DevTask, error)
	DeleteTask(ctx context.Context, userID, id string) error

	CreateNote(ctx context.Context, n *model.Note) error
	UpdateNote(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Note, error)
	DeleteNote(ctx context.Context, userID, id string) error

	CreateDoubt(ctx context.Context, d *model.Doubt) error
	UpdateDoubt(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Doubt, error)
	DeleteDoubt(ctx context.Context, userID, id string) error
}

// Development maintains the Category -> Project -> {Task, Note, Doubt} tree for
// one principal's session. The cache always reflects the last confirmed server
// state: a failed call leaves it untouched and records a readable error string.
type Development struct {
	repo DevelopmentRepository
	log  *zap.Logger

	mu         sync.Mutex
	categories []model.Category
	projects   []model.Project
	tasks      []model.DevTask
	notes      []model.Note
	doubts     []model.Doubt
	index      hierarchyIndex

	selectedCategoryID string
	selectedProjectID  string
	selectedTab        Tab

	loading bool
	errMsg  string
}

func NewDevelopment(repo DevelopmentRepository, log *zap.Logger) *Development {
	return &Development{
		repo:        repo,
		log:         log,
		index:       newHierarchyIndex(),
		selectedTab: TabTasks,
	}
}

// DevelopmentSnapshot is a consistent copy of the store state for rendering.
type DevelopmentSnapshot struct {
	Categories []model.Category `json:"categories"`
	Projects   []model.Project  `json:"projects"`
	Tasks      []model.DevTask  `json:"tasks"`
	Notes      []model.Note     `json:"notes"`
	Doubts     []model.Doubt    `json:"doubts"`

	SelectedCategoryID string `json:"selected_category_id"`
	SelectedProjectID  string `json:"selected_project_id"`
	SelectedTab        Tab    `json:"selected_tab"`

	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

func (s *Development) Snapshot() DevelopmentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DevelopmentSnapshot{
		Categories:         append([]model.Category(nil), s.categories...),
		Projects:           append([]model.Project(nil), s.projects...),
		Tasks:              append([]model.DevTask(nil), s.tasks...),
		Notes:              append([]model.Note(nil), s.notes...),
		Doubts:             append([]model.Doubt(nil), s.doubts...),
		SelectedCategoryID: s.selectedCategoryID,
		SelectedProjectID:  s.selectedProjectID,
		SelectedTab:        s.selectedTab,
		Loading:            s.loading,
		Err:                s.errMsg,
	}
}

func (s *Development) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Development) Tasks() []model.DevTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DevTask(nil), s.tasks...)
}

func (s *Development) Notes() []model.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Note(nil), s.notes...)
}

func (s *Development) Doubts() []model.Doubt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Doubt(nil), s.doubts...)
}

// FetchAll refreshes all five collections. On failure the last-known cache
// stays in place and only the error string changes.
func (s *Development) FetchAll(ctx context.Context, userID string) {
	if userID == "" {
		s.setErr(ErrNotAuthenticated)
		return
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	data, err := s.repo.FetchAll(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		s.log.Warn("development fetch failed", zap.Error(err))
		return
	}
	s.categories = data.Categories
	s.projects = data.Projects
	s.tasks = data.Tasks
	s.notes = data.Notes
	s.doubts = data.Doubts
	s.index.rebuild(data)
	s.errMsg = ""
}

// Selection

// SelectCategory always drops any project selection so a project from another
// category can never leak into the new scope.
func (s *Development) SelectCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedCategoryID = id
	s.selectedProjectID = ""
}

func (s *Development) SelectProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedProjectID = id
}

func (s *Development) SelectTab(tab Tab) {
	if tab != TabTasks && tab != TabNotes && tab != TabDoubts {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedTab = tab
}

func (s *Development) SelectedCategoryID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedCategoryID
}

func (s *Development) SelectedProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedProjectID
}

// Categories

type CategoryInput struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	OrderIndex int    `json:"order_index"`
}

// AddCategory persists and appends a category. An empty name is a silent no-op.
func (s *Development) AddCategory(ctx context.Context, userID string, in CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}

	c := &model.Category{UserID: userID, Name: name, Color: in.Color, OrderIndex: in.OrderIndex}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	s.categories = append(s.categories, *c)
	s.mu.Unlock()
	return c, nil
}

func (s *Development) UpdateCategory(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Category, error) {
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	c, err := s.repo.UpdateCategory(ctx, userID, id, patch)
	if err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	for i := range s.categories {
		if s.categories[i].ID == c.ID {
			s.categories[i] = *c
			break
		}
	}
	s.mu.Unlock()
	return c, nil
}

// DeleteCategory deletes the category row (the repository cascades server-side)
// and removes the whole subtree from the cache in one pass over the tree index:
// projects, plus tasks/notes/doubts scoped to the category directly or through
// any of its projects.
func (s *Development) DeleteCategory(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.DeleteCategoryCascade(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.index.categorySubtree(id)
	s.removeSubtreeLocked(id, st)
	if s.selectedCategoryID == id {
		s.selectedCategoryID = ""
		s.selectedProjectID = ""
	} else if _, gone := st.projects[s.selectedProjectID]; gone {
		s.selectedProjectID = ""
	}
	return nil
}

// Projects

type ProjectInput struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

func (s *Development) AddProject(ctx context.Context, userID string, in ProjectInput) (*model.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	if !s.hasCategory(in.CategoryID) {
		return nil, s.setErr(fmt.Errorf("unknown category %q", in.CategoryID))
	}

	p := &model.Project{UserID: userID, CategoryID: in.CategoryID, Name: name}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	// Projects display newest first.
	s.projects = append([]model.Project{*p}, s.projects...)
	s.index.addProject(*p)
	s.mu.Unlock()
	return p, nil
}

func (s *Development) UpdateProject(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Project, error) {
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	p, err := s.repo.UpdateProject(ctx, userID, id, patch)
	if err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	for i := range s.projects {
		if s.projects[i].ID == p.ID {
			s.index.removeProject(s.projects[i])
			s.projects[i] = *p
			s.index.addProject(*p)
			break
		}
	}
	s.mu.Unlock()
	return p, nil
}

// DeleteProject removes the project and every task, note and doubt scoped to it.
func (s *Development) DeleteProject(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.DeleteProjectCascade(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.index.projectSubtree(id)
	s.removeSubtreeLocked("", st)
	if s.selectedProjectID == id {
		s.selectedProjectID = ""
	}
	return nil
}

// Tasks

type TaskInput struct {
	Title      string             `json:"title"`
	Priority   model.TaskPriority `json:"priority"`
	DueDate    *time.Time         `json:"due_date"`
	CategoryID string             `json:"category_id"`
	ProjectID  string             `json:"project_id"`
}

// AddTask creates a task in the todo column. Project-scoped tasks inherit the
// project's category so both scoping fields stay consistent.
func (s *Development) AddTask(ctx context.Context, userID string, in TaskInput) (*model.DevTask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}

	t := &model.DevTask{
		UserID:   userID,
		Title:    title,
		Status:   model.StatusTodo,
		Priority: in.Priority,
		DueDate:  in.DueDate,
	}
	if !t.Priority.Valid() {
		t.Priority = model.PriorityMedium
	}

	switch {
	case in.ProjectID != "":
		p := s.findProject(in.ProjectID)
		if p == nil {
			return nil, s.setErr(fmt.Errorf("unknown project %q", in.ProjectID))
		}
		t.ProjectID = &p.ID
		t.CategoryID = &p.CategoryID
	case in.CategoryID != "":
		if !s.hasCategory(in.CategoryID) {
			return nil, s.setErr(fmt.Errorf("unknown category %q", in.CategoryID))
		}
		cid := in.CategoryID
		t.CategoryID = &cid
	}

	s.mu.Lock()
	t.OrderIndex = s.nextOrderIndexLocked(model.StatusTodo)
	s.mu.Unlock()

	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, *t)
	s.index.addTask(*t)
	s.mu.Unlock()
	return t, nil
}

func (s *Development) UpdateTask(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.DevTask, error) {
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	if raw, ok := patch["status"]; ok {
		if st, _ := raw.(string); !model.TaskStatus(st).Valid() {
			return nil, s.setErr(fmt.Errorf("invalid status %q", raw))
		}
	}
	t, err := s.repo.UpdateTask(ctx, userID, id, patch)
	if err != nil {
		return nil, s.setErr(err)
	}
	s.replaceTask(*t)
	return t, nil
}

// MoveTask is the Kanban transition primitive: any of the three statuses is a
// legal target regardless of the current one. When no explicit order index is
// given the task is appended after the last task in the target column.
func (s *Development) MoveTask(ctx context.Context, userID, id string, status model.TaskStatus, orderIndex *int) (*model.DevTask, error) {
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	if !status.Valid() {
		return nil, s.setErr(fmt.Errorf("invalid status %q", status))
	}

	idx := 0
	if orderIndex != nil {
		idx = *orderIndex
	} else {
		s.mu.Lock()
		idx = s.nextOrderIndexLocked(status)
		s.mu.Unlock()
	}

	t, err := s.repo.UpdateTask(ctx, userID, id, map[string]interface{}{
		"status":      status,
		"order_index": idx,
	})
	if err != nil {
		return nil, s.setErr(err)
	}
	s.replaceTask(*t)
	return t, nil
}

func (s *Development) DeleteTask(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.DeleteTask(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.index.removeTask(s.tasks[i])
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	return nil
}

// Notes

type NoteInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID string `json:"category_id"`
	ProjectID  string `json:"project_id"`
	Pinned     bool   `json:"is_pinned"`
}

func (s *Development) AddNote(ctx context.Context, userID string, in NoteInput) (*model.Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}

	n := &model.Note{
		UserID:   userID,
		Title:    title,
		Content:  in.Content,
		IsPinned: in.Pinned,
	}
	if err := s.scopeChild(&n.CategoryID, &n.ProjectID, in.CategoryID, in.ProjectID); err != nil {
		return nil, s.setErr(err)
	}
	if err := s.repo.CreateNote(ctx, n); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	// Notes display newest first within the pinned ordering.
	s.notes = append([]model.Note{*n}, s.notes...)
	s.index.addNote(*n)
	s.mu.Unlock()
	return n, nil
}

func (s *Development) UpdateNote(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Note, error) {
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	n, err := s.repo.UpdateNote(ctx, userID, id, patch)
	if err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].ID == n.ID {
			s.index.removeNote(s.notes[i])
			s.notes[i] = *n
			s.index.addNote(*n)
			break
		}
	}
	s.mu.Unlock()
	return n, nil
}

func (s *Development) DeleteNote(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.DeleteNote(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.index.removeNote(s.notes[i])
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			break
		}
	}
	return nil
}

// Doubts

type DoubtInput struct {
	Question   string `json:"question"`
	CategoryID string `json:"category_id"`
	ProjectID  string `json:"project_id"`
}

func (s *Development) AddDoubt(ctx context.Context, userID string, in DoubtInput) (*model.Doubt, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}

	d := &model.Doubt{UserID: userID, Question: question}
	if err := s.scopeChild(&d.CategoryID, &d.ProjectID, in.CategoryID, in.ProjectID); err != nil {
		return nil, s.setErr(err)
	}
	if err := s.repo.CreateDoubt(ctx, d); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	s.doubts = append([]model.Doubt{*d}, s.doubts...)
	s.index.addDoubt(*d)
	s.mu.Unlock()
	return d, nil
}

// ResolveDoubt marks a doubt answered. One-way: the store exposes no unresolve.
func (s *Development) ResolveDoubt(ctx context.Context, userID, id string) (*model.Doubt, error) {
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	d, err := s.repo.UpdateDoubt(ctx, userID, id, map[string]interface{}{
		"resolved":    true,
		"resolved_at": time.Now(),
	})
	if err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	for i := range s.doubts {
		if s.doubts[i].ID == d.ID {
			s.doubts[i] = *d
			break
		}
	}
	s.mu.Unlock()
	return d, nil
}

func (s *Development) DeleteDoubt(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.DeleteDoubt(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doubts {
		if s.doubts[i].ID == id {
			s.index.removeDoubt(s.doubts[i])
			s.doubts = append(s.doubts[:i], s.doubts[i+1:]...)
			break
		}
	}
	return nil
}

// Derived selectors

// PendingTaskCount counts tasks not yet done.
func (s *Development) PendingTaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.Status != model.StatusDone {
			n++
		}
	}
	return n
}

// DueTodayOrOverdue returns open tasks whose due date is today or earlier.
func (s *Development) DueTodayOrOverdue(now time.Time) []model.DevTask {
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	var due []model.DevTask
	for _, t := range s.tasks {
		if t.Status == model.StatusDone || t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(endOfToday) {
			due = append(due, t)
		}
	}
	return due
}

// internals

func (s *Development) setErr(err error) error {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	s.log.Warn("development store operation failed", zap.Error(err))
	return err
}

func (s *Development) hasCategory(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *Development) findProject(id string) *model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			p := s.projects[i]
			return &p
		}
	}
	return nil
}

// scopeChild resolves the optional category/project scoping of a note or
// doubt, forcing the category to match the project's when both apply.
func (s *Development) scopeChild(categoryID, projectID **string, inCategory, inProject string) error {
	switch {
	case inProject != "":
		p := s.findProject(inProject)
		if p == nil {
			return fmt.Errorf("unknown project %q", inProject)
		}
		*projectID = &p.ID
		*categoryID = &p.CategoryID
	case inCategory != "":
		if !s.hasCategory(inCategory) {
			return fmt.Errorf("unknown category %q", inCategory)
		}
		cid := inCategory
		*categoryID = &cid
	}
	return nil
}

func (s *Development) nextOrderIndexLocked(status model.TaskStatus) int {
	next := 0
	for _, t := range s.tasks {
		if t.Status == status && t.OrderIndex >= next {
			next = t.OrderIndex + 1
		}
	}
	return next
}

func (s *Development) replaceTask(t model.DevTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.index.removeTask(s.tasks[i])
			s.tasks[i] = t
			s.index.addTask(t)
			return
		}
	}
}

// removeSubtreeLocked filters the cached slices down to entries outside the
// subtree and forgets the matching index entries. categoryID is empty for
// project deletions.
func (s *Development) removeSubtreeLocked(categoryID string, st subtree) {
	if categoryID != "" {
		kept := s.categories[:0]
		for _, c := range s.categories {
			if c.ID != categoryID {
				kept = append(kept, c)
			}
		}
		s.categories = kept
	}

	projects := s.projects[:0]
	for _, p := range s.projects {
		if _, gone := st.projects[p.ID]; !gone {
			projects = append(projects, p)
		} else if categoryID == "" {
			s.index.removeProject(p)
		}
	}
	s.projects = projects

	tasks := s.tasks[:0]
	for _, t := range s.tasks {
		if _, gone := st.tasks[t.ID]; !gone {
			tasks = append(tasks, t)
		}
	}
	s.tasks = tasks

	notes := s.notes[:0]
	for _, n := range s.notes {
		if _, gone := st.notes[n.ID]; !gone {
			notes = append(notes, n)
		}
	}
	s.notes = notes

	doubts := s.doubts[:0]
	for _, d := range s.doubts {
		if _, gone := st.doubts[d.ID]; !gone {
			doubts = append(doubts, d)
		}
	}
	s.doubts = doubts

	if categoryID != "" {
		s.index.dropCategory(categoryID, st)
	}
}
