package search

import (
	"context"
	"fmt"
	"strings"

	"lifeos/internal/store"
)

// Local scans the session's in-memory store caches instead of the record
// store. Synchronous and network-free; the offline fallback. Labels, caps and
// domain order match the remote source.
type Local struct {
	Personal    *store.Personal
	Development *store.Development
	Finance     *store.Finance
	Habits      *store.Habits
	Journal     *store.Journal
}

func (l *Local) Search(_ context.Context, _ string, query string) ([]Result, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Result{}

	n := 0
	for _, t := range l.Personal.Tasks() {
		if n == capPrimary {
			break
		}
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, Result{Domain: domainPersonal, ID: t.ID, Title: t.Title, Target: "/personal"})
			n++
		}
	}

	n = 0
	for _, t := range l.Development.Tasks() {
		if n == capPrimary {
			break
		}
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, Result{Domain: domainDevelopment, ID: t.ID, Title: t.Title, Subtitle: string(t.Status), Target: "/development"})
			n++
		}
	}

	n = 0
	for _, note := range l.Development.Notes() {
		if n == capSecondary {
			break
		}
		if strings.Contains(strings.ToLower(note.Title), q) || strings.Contains(strings.ToLower(note.Content), q) {
			out = append(out, Result{Domain: domainNote, ID: note.ID, Title: note.Title, Subtitle: snippet(note.Content), Target: "/development"})
			n++
		}
	}

	n = 0
	for _, d := range l.Development.Doubts() {
		if n == capSecondary {
			break
		}
		if strings.Contains(strings.ToLower(d.Question), q) {
			out = append(out, Result{Domain: domainDoubt, ID: d.ID, Title: d.Question, Target: "/development"})
			n++
		}
	}

	n = 0
	for _, e := range l.Finance.Expenses() {
		if n == capSecondary {
			break
		}
		if strings.Contains(strings.ToLower(e.Description), q) || strings.Contains(strings.ToLower(e.Category), q) {
			out = append(out, Result{
				Domain:   domainFinance,
				ID:       e.ID,
				Title:    e.Description,
				Subtitle: fmt.Sprintf("$%.2f · %s", e.Amount, e.Category),
				Target:   "/finance",
			})
			n++
		}
	}

	n = 0
	for _, h := range l.Habits.Habits() {
		if n == capSecondary {
			break
		}
		if strings.Contains(strings.ToLower(h.Title), q) {
			out = append(out, Result{Domain: domainHabit, ID: h.ID, Title: h.Title, Target: "/habits"})
			n++
		}
	}

	n = 0
	for _, e := range l.Journal.Entries() {
		if n == capSecondary {
			break
		}
		if strings.Contains(strings.ToLower(e.Content), q) {
			out = append(out, Result{
				Domain:   domainJournal,
				ID:       e.ID,
				Title:    snippet(e.Content),
				Subtitle: e.CreatedAt.Format("2006-01-02"),
				Target:   "/journal",
			})
			n++
		}
	}

	return out, nil
}
