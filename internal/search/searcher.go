// Package search implements the cross-domain search engine: a debounced,
// generation-tokened query pipeline over seven independent record domains.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MinQueryLen gates out queries too short to be worth a scan.
const MinQueryLen = 2

// DefaultDebounce is the quiet period after the last keystroke before the
// query is actually issued.
const DefaultDebounce = 300 * time.Millisecond

// ErrSuperseded is delivered to a submission that was replaced by a newer
// query before its results could be applied.
var ErrSuperseded = errors.New("search: query superseded")

// Result is one match, normalized across domains.
type Result struct {
	Domain   string `json:"domain"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Target   string `json:"target"`
}

// Source answers a query against every domain and returns the flat,
// domain-ordered result list.
type Source interface {
	Search(ctx context.Context, userID, query string) ([]Result, error)
}

// Outcome resolves one submission: the applied results, or ErrSuperseded when
// a later submission won.
type Outcome struct {
	Query   string
	Results []Result
	Err     error
}

// Searcher serializes keystrokes into debounced source queries. Each
// submission bumps a generation counter; a completion only applies its
// results while its generation is still the latest, so a stale round trip can
// never overwrite a newer query's results.
type Searcher struct {
	source   Source
	debounce time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	waiting *submission // armed but not yet fired
	query   string
	results []Result
}

type submission struct {
	gen      uint64
	query    string
	done     chan Outcome
	resolved bool // guarded by Searcher.mu; a submission resolves exactly once
}

func NewSearcher(source Source, debounce time.Duration, log *zap.Logger) *Searcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Searcher{source: source, debounce: debounce, log: log}
}

// Submit registers a keystroke's query state. The returned channel resolves
// once the debounce elapses and the query completes, or immediately with
// ErrSuperseded / an empty result set as appropriate. The channel is buffered;
// the caller may abandon it.
func (s *Searcher) Submit(ctx context.Context, userID, query string) <-chan Outcome {
	done := make(chan Outcome, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.supersedeWaitingLocked()

	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < MinQueryLen {
		// Short queries short-circuit without touching any backend.
		s.query = query
		s.results = nil
		done <- Outcome{Query: query, Results: []Result{}}
		return done
	}

	sub := &submission{gen: s.gen, query: query, done: done}
	s.waiting = sub
	s.timer = time.AfterFunc(s.debounce, func() {
		s.fire(ctx, userID, sub)
	})
	return done
}

// Clear resets the query state, e.g. after the user picks a result. Any
// in-flight query is superseded.
func (s *Searcher) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.supersedeWaitingLocked()
	s.query = ""
	s.results = nil
}

// Query returns the last applied query string.
func (s *Searcher) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Results returns the last applied result list.
func (s *Searcher) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

func (s *Searcher) fire(ctx context.Context, userID string, sub *submission) {
	s.mu.Lock()
	if sub.resolved {
		s.mu.Unlock()
		return
	}
	if sub.gen != s.gen {
		sub.resolved = true
		s.mu.Unlock()
		sub.done <- Outcome{Query: sub.query, Err: ErrSuperseded}
		return
	}
	s.waiting = nil
	s.mu.Unlock()

	results, err := s.source.Search(ctx, userID, sub.query)

	s.mu.Lock()
	if sub.resolved {
		s.mu.Unlock()
		return
	}
	sub.resolved = true
	if sub.gen != s.gen {
		s.mu.Unlock()
		sub.done <- Outcome{Query: sub.query, Err: ErrSuperseded}
		return
	}
	if err == nil {
		s.query = sub.query
		s.results = results
	} else {
		s.log.Warn("search failed", zap.String("query", sub.query), zap.Error(err))
	}
	s.mu.Unlock()

	sub.done <- Outcome{Query: sub.query, Results: results, Err: err}
}

// supersedeWaitingLocked cancels a pending timer and resolves its submission.
// A submission whose timer already fired resolves itself in fire.
func (s *Searcher) supersedeWaitingLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.waiting != nil && !s.waiting.resolved {
		s.waiting.resolved = true
		s.waiting.done <- Outcome{Query: s.waiting.query, Err: ErrSuperseded}
	}
	s.waiting = nil
}
