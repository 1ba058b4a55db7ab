package store

import (
	"lifeos/internal/model"

	"lifeos/internal/repository"
)

// hierarchyIndex maps parent ids to child id sets so cascade deletion is a
// traversal instead of repeated linear scans. The *ByCategory maps hold only
// children scoped directly to a category (no project); project-scoped children
// live in the *ByProject maps.
type hierarchyIndex struct {
	projectsByCategory map[string]map[string]struct{}

	tasksByProject  map[string]map[string]struct{}
	notesByProject  map[string]map[string]struct{}
	doubtsByProject map[string]map[string]struct{}

	tasksByCategory  map[string]map[string]struct{}
	notesByCategory  map[string]map[string]struct{}
	doubtsByCategory map[string]map[string]struct{}
}

func newHierarchyIndex() hierarchyIndex {
	return hierarchyIndex{
		projectsByCategory: map[string]map[string]struct{}{},
		tasksByProject:     map[string]map[string]struct{}{},
		notesByProject:     map[string]map[string]struct{}{},
		doubtsByProject:    map[string]map[string]struct{}{},
		tasksByCategory:    map[string]map[string]struct{}{},
		notesByCategory:    map[string]map[string]struct{}{},
		doubtsByCategory:   map[string]map[string]struct{}{},
	}
}

func (ix *hierarchyIndex) rebuild(data *repository.DevelopmentData) {
	*ix = newHierarchyIndex()
	for _, p := range data.Projects {
		ix.addProject(p)
	}
	for _, t := range data.Tasks {
		ix.addTask(t)
	}
	for _, n := range data.Notes {
		ix.addNote(n)
	}
	for _, d := range data.Doubts {
		ix.addDoubt(d)
	}
}

func (ix *hierarchyIndex) addProject(p model.Project) {
	indexAdd(ix.projectsByCategory, p.CategoryID, p.ID)
}

func (ix *hierarchyIndex) removeProject(p model.Project) {
	indexRemove(ix.projectsByCategory, p.CategoryID, p.ID)
	delete(ix.tasksByProject, p.ID)
	delete(ix.notesByProject, p.ID)
	delete(ix.doubtsByProject, p.ID)
}

func (ix *hierarchyIndex) addTask(t model.DevTask) {
	switch {
	case t.ProjectID != nil:
		indexAdd(ix.tasksByProject, *t.ProjectID, t.ID)
	case t.CategoryID != nil:
		indexAdd(ix.tasksByCategory, *t.CategoryID, t.ID)
	}
}

func (ix *hierarchyIndex) removeTask(t model.DevTask) {
	switch {
	case t.ProjectID != nil:
		indexRemove(ix.tasksByProject, *t.ProjectID, t.ID)
	case t.CategoryID != nil:
		indexRemove(ix.tasksByCategory, *t.CategoryID, t.ID)
	}
}

func (ix *hierarchyIndex) addNote(n model.Note) {
	switch {
	case n.ProjectID != nil:
		indexAdd(ix.notesByProject, *n.ProjectID, n.ID)
	case n.CategoryID != nil:
		indexAdd(ix.notesByCategory, *n.CategoryID, n.ID)
	}
}

func (ix *hierarchyIndex) removeNote(n model.Note) {
	switch {
	case n.ProjectID != nil:
		indexRemove(ix.notesByProject, *n.ProjectID, n.ID)
	case n.CategoryID != nil:
		indexRemove(ix.notesByCategory, *n.CategoryID, n.ID)
	}
}

func (ix *hierarchyIndex) addDoubt(d model.Doubt) {
	switch {
	case d.ProjectID != nil:
		indexAdd(ix.doubtsByProject, *d.ProjectID, d.ID)
	case d.CategoryID != nil:
		indexAdd(ix.doubtsByCategory, *d.CategoryID, d.ID)
	}
}

func (ix *hierarchyIndex) removeDoubt(d model.Doubt) {
	switch {
	case d.ProjectID != nil:
		indexRemove(ix.doubtsByProject, *d.ProjectID, d.ID)
	case d.CategoryID != nil:
		indexRemove(ix.doubtsByCategory, *d.CategoryID, d.ID)
	}
}

// subtree collects every id reachable from a category: its projects, children
// scoped to those projects, and children scoped directly to the category.
type subtree struct {
	projects map[string]struct{}
	tasks    map[string]struct{}
	notes    map[string]struct{}
	doubts   map[string]struct{}
}

func (ix *hierarchyIndex) categorySubtree(categoryID string) subtree {
	st := subtree{
		projects: setCopy(ix.projectsByCategory[categoryID]),
		tasks:    setCopy(ix.tasksByCategory[categoryID]),
		notes:    setCopy(ix.notesByCategory[categoryID]),
		doubts:   setCopy(ix.doubtsByCategory[categoryID]),
	}
	for projectID := range st.projects {
		setMerge(st.tasks, ix.tasksByProject[projectID])
		setMerge(st.notes, ix.notesByProject[projectID])
		setMerge(st.doubts, ix.doubtsByProject[projectID])
	}
	return st
}

func (ix *hierarchyIndex) projectSubtree(projectID string) subtree {
	return subtree{
		projects: map[string]struct{}{projectID: {}},
		tasks:    setCopy(ix.tasksByProject[projectID]),
		notes:    setCopy(ix.notesByProject[projectID]),
		doubts:   setCopy(ix.doubtsByProject[projectID]),
	}
}

// dropCategory forgets every index entry under a category.
func (ix *hierarchyIndex) dropCategory(categoryID string, st subtree) {
	for projectID := range st.projects {
		delete(ix.tasksByProject, projectID)
		delete(ix.notesByProject, projectID)
		delete(ix.doubtsByProject, projectID)
	}
	delete(ix.projectsByCategory, categoryID)
	delete(ix.tasksByCategory, categoryID)
	delete(ix.notesByCategory, categoryID)
	delete(ix.doubtsByCategory, categoryID)
}

func indexAdd(m map[string]map[string]struct{}, parent, child string) {
	set, ok := m[parent]
	if !ok {
		set = map[string]struct{}{}
		m[parent] = set
	}
	set[child] = struct{}{}
}

func indexRemove(m map[string]map[string]struct{}, parent, child string) {
	if set, ok := m[parent]; ok {
		delete(set, child)
		if len(set) == 0 {
			delete(m, parent)
		}
	}
}

func setCopy(src map[string]struct{}) map[string]struct{} {
	dst := make(map[string]struct{}, len(src))
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}

func setMerge(dst, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}
