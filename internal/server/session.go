package server

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"lifeos/internal/config"
	"lifeos/internal/model"
	"lifeos/internal/repository"
	"lifeos/internal/search"
	"lifeos/internal/store"
)

// Session is one principal's working set: the five deck stores plus the
// cross-domain searcher. Stores cache the last fetched collections, so a
// session survives backend hiccups with stale but usable data.
type Session struct {
	User *model.User

	Development *store.Development
	Personal    *store.Personal
	Finance     *store.Finance
	Habits      *store.Habits
	Journal     *store.Journal
	Searcher    *search.Searcher
}

// Sessions hands out one Session per principal, building it on first use.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Session

	devRepo      *repository.DevelopmentRepository
	personalRepo *repository.PersonalRepository
	financeRepo  *repository.FinanceRepository
	habitRepo    *repository.HabitRepository
	journalRepo  *repository.JournalRepository

	searchCfg config.Search
	log       *zap.Logger
}

func NewSessions(
	devRepo *repository.DevelopmentRepository,
	personalRepo *repository.PersonalRepository,
	financeRepo *repository.FinanceRepository,
	habitRepo *repository.HabitRepository,
	journalRepo *repository.JournalRepository,
	searchCfg config.Search,
	log *zap.Logger,
) *Sessions {
	return &Sessions{
		byID:         make(map[string]*Session),
		devRepo:      devRepo,
		personalRepo: personalRepo,
		financeRepo:  financeRepo,
		habitRepo:    habitRepo,
		journalRepo:  journalRepo,
		searchCfg:    searchCfg,
		log:          log,
	}
}

// Get returns the user's session, creating it on first access.
func (s *Sessions) Get(user *model.User) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.byID[user.ID]; ok {
		sess.User = user
		return sess
	}
	sess := s.build(user)
	s.byID[user.ID] = sess
	return sess
}

func (s *Sessions) build(user *model.User) *Session {
	sess := &Session{
		User:        user,
		Development: store.NewDevelopment(s.devRepo, s.log),
		Personal:    store.NewPersonal(s.personalRepo, s.log),
		Finance:     store.NewFinance(s.financeRepo, s.log),
		Habits:      store.NewHabits(s.habitRepo, s.log),
		Journal:     store.NewJournal(s.journalRepo, s.log),
	}

	var source search.Source
	if s.searchCfg.Variant == config.SearchVariantLocal {
		source = &search.Local{
			Personal:    sess.Personal,
			Development: sess.Development,
			Finance:     sess.Finance,
			Habits:      sess.Habits,
			Journal:     sess.Journal,
		}
	} else {
		source = search.NewRemote(s.personalRepo, s.devRepo, s.financeRepo, s.habitRepo, s.journalRepo, s.log)
	}
	sess.Searcher = search.NewSearcher(source, time.Duration(s.searchCfg.DebounceMS)*time.Millisecond, s.log)
	return sess
}
