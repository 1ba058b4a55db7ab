package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifeos/internal/model"
)

// PersonalRepository is the persistence surface the personal store needs.
type PersonalRepository interface {
	List(ctx context.Context, userID string) ([]model.PersonalTask, error)
	Create(ctx context.Context, t *model.PersonalTask) error
	Update(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.PersonalTask, error)
	Delete(ctx context.Context, userID, id string) error
}

// Personal mirrors the personal task list for one principal's session.
type Personal struct {
	repo PersonalRepository
	log  *zap.Logger

	mu      sync.Mutex
	tasks   []model.PersonalTask
	loading bool
	errMsg  string
}

func NewPersonal(repo PersonalRepository, log *zap.Logger) *Personal {
	return &Personal{repo: repo, log: log}
}

func (s *Personal) Tasks() []model.PersonalTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PersonalTask(nil), s.tasks...)
}

func (s *Personal) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Personal) FetchTasks(ctx context.Context, userID string) {
	if userID == "" {
		s.setErr(ErrNotAuthenticated)
		return
	}
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	tasks, err := s.repo.List(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		s.log.Warn("personal fetch failed", zap.Error(err))
		return
	}
	s.tasks = tasks
	s.errMsg = ""
}

type PersonalTaskInput struct {
	Title   string     `json:"title"`
	DueDate *time.Time `json:"due_date"`
}

func (s *Personal) AddTask(ctx context.Context, userID string, in PersonalTaskInput) (*model.PersonalTask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}

	t := &model.PersonalTask{
		UserID:  userID,
		Title:   title,
		Status:  model.PersonalStatusPending,
		DueDate: in.DueDate,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, *t)
	s.mu.Unlock()
	return t, nil
}

// ToggleTask flips a task between pending and done.
func (s *Personal) ToggleTask(ctx context.Context, userID, id, status string) (*model.PersonalTask, error) {
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}
	t, err := s.repo.Update(ctx, userID, id, map[string]interface{}{"status": status})
	if err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = *t
			break
		}
	}
	s.mu.Unlock()
	return t, nil
}

func (s *Personal) DeleteTask(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	return nil
}

// PendingCount counts tasks still open.
func (s *Personal) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.Status != model.PersonalStatusDone {
			n++
		}
	}
	return n
}

func (s *Personal) setErr(err error) error {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	s.log.Warn("personal store operation failed", zap.Error(err))
	return err
}
