package store

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"lifeos/internal/model"
)

// JournalRepository is the persistence surface the journal store needs.
type JournalRepository interface {
	List(ctx context.Context, userID string) ([]model.JournalEntry, error)
	Create(ctx context.Context, e *model.JournalEntry) error
	Delete(ctx context.Context, userID, id string) error
}

// Journal mirrors journal entries for one principal's session.
type Journal struct {
	repo JournalRepository
	log  *zap.Logger

	mu      sync.Mutex
	entries []model.JournalEntry
	loading bool
	errMsg  string
}

func NewJournal(repo JournalRepository, log *zap.Logger) *Journal {
	return &Journal{repo: repo, log: log}
}

func (s *Journal) Entries() []model.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.JournalEntry(nil), s.entries...)
}

func (s *Journal) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Journal) FetchEntries(ctx context.Context, userID string) {
	if userID == "" {
		s.setErr(ErrNotAuthenticated)
		return
	}
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	entries, err := s.repo.List(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		s.log.Warn("journal fetch failed", zap.Error(err))
		return
	}
	s.entries = entries
	s.errMsg = ""
}

type JournalEntryInput struct {
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

func (s *Journal) AddEntry(ctx context.Context, userID string, in JournalEntryInput) (*model.JournalEntry, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, nil
	}
	if userID == "" {
		return nil, s.setErr(ErrNotAuthenticated)
	}

	e := &model.JournalEntry{UserID: userID, Content: content, Mood: in.Mood}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, s.setErr(err)
	}

	s.mu.Lock()
	// Entries display newest first.
	s.entries = append([]model.JournalEntry{*e}, s.entries...)
	s.mu.Unlock()
	return e, nil
}

func (s *Journal) DeleteEntry(ctx context.Context, userID, id string) error {
	if userID == "" {
		return s.setErr(ErrNotAuthenticated)
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.setErr(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Journal) setErr(err error) error {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	s.log.Warn("journal store operation failed", zap.Error(err))
	return err
}
