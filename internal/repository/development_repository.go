package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"lifeos/internal/model"
)

// DevelopmentData bundles one user's full development hierarchy.
type DevelopmentData struct {
	Categories []model.Category
	Projects   []model.Project
	Tasks      []model.DevTask
	Notes      []model.Note
	Doubts     []model.Doubt
}

// DevelopmentRepository owns the five development deck tables.
type DevelopmentRepository struct {
	db *gorm.DB
}

func NewDevelopmentRepository(db *gorm.DB) *DevelopmentRepository {
	return &DevelopmentRepository{db: db}
}

// FetchAll loads all five collections for one user in the display order the
// deck expects: categories by order index, projects newest first, tasks by
// order index, notes pinned first then freshest, doubts newest first.
func (r *DevelopmentRepository) FetchAll(ctx context.Context, userID string) (*DevelopmentData, error) {
	db := r.db.WithContext(ctx)
	data := &DevelopmentData{}

	if err := db.Where("user_id = ?", userID).
		Order("order_index ASC, created_at ASC").
		Find(&data.Categories).Error; err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&data.Projects).Error; err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	if err := db.Where("user_id = ?", userID).
		Order("order_index ASC, created_at ASC").
		Find(&data.Tasks).Error; err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	if err := db.Where("user_id = ?", userID).
		Order("is_pinned DESC, updated_at DESC").
		Find(&data.Notes).Error; err != nil {
		return nil, fmt.Errorf("fetch notes: %w", err)
	}
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&data.Doubts).Error; err != nil {
		return nil, fmt.Errorf("fetch doubts: %w", err)
	}

	return data, nil
}

// Categories

func (r *DevelopmentRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *DevelopmentRepository) UpdateCategory(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Category, error) {
	if err := r.applyPatch(ctx, &model.Category{}, userID, id, patch); err != nil {
		return nil, err
	}
	var c model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategoryCascade removes a category together with its projects and
// every task, note and doubt scoped to the category directly or to one of
// those projects. Runs in one transaction so the caller never observes a
// partially deleted subtree.
func (r *DevelopmentRepository) DeleteCategoryCascade(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var projectIDs []string
		if err := tx.Model(&model.Project{}).
			Where("user_id = ? AND category_id = ?", userID, id).
			Pluck("id", &projectIDs).Error; err != nil {
			return fmt.Errorf("list category projects: %w", err)
		}

		for _, m := range []interface{}{&model.DevTask{}, &model.Note{}, &model.Doubt{}} {
			q := tx.Where("user_id = ? AND category_id = ?", userID, id)
			if len(projectIDs) > 0 {
				q = tx.Where("user_id = ? AND (category_id = ? OR project_id IN ?)", userID, id, projectIDs)
			}
			if err := q.Delete(m).Error; err != nil {
				return fmt.Errorf("cascade delete children: %w", err)
			}
		}

		if err := tx.Where("user_id = ? AND category_id = ?", userID, id).
			Delete(&model.Project{}).Error; err != nil {
			return fmt.Errorf("cascade delete projects: %w", err)
		}

		res := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Category{})
		if res.Error != nil {
			return fmt.Errorf("delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Projects

func (r *DevelopmentRepository) CreateProject(ctx context.Context, p *model.Project) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *DevelopmentRepository) UpdateProject(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Project, error) {
	if err := r.applyPatch(ctx, &model.Project{}, userID, id, patch); err != nil {
		return nil, err
	}
	var p model.Project
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProjectCascade removes a project and every task, note and doubt scoped to it.
func (r *DevelopmentRepository) DeleteProjectCascade(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.DevTask{}, &model.Note{}, &model.Doubt{}} {
			if err := tx.Where("user_id = ? AND project_id = ?", userID, id).Delete(m).Error; err != nil {
				return fmt.Errorf("cascade delete children: %w", err)
			}
		}
		res := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Project{})
		if res.Error != nil {
			return fmt.Errorf("delete project: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Tasks

func (r *DevelopmentRepository) CreateTask(ctx context.Context, t *model.DevTask) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *DevelopmentRepository) UpdateTask(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.DevTask, error) {
	if err := r.applyPatch(ctx, &model.DevTask{}, userID, id, patch); err != nil {
		return nil, err
	}
	var t model.DevTask
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *DevelopmentRepository) DeleteTask(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, &model.DevTask{}, userID, id, "task")
}

// Notes

func (r *DevelopmentRepository) CreateNote(ctx context.Context, n *model.Note) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *DevelopmentRepository) UpdateNote(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Note, error) {
	if err := r.applyPatch(ctx, &model.Note{}, userID, id, patch); err != nil {
		return nil, err
	}
	var n model.Note
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *DevelopmentRepository) DeleteNote(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, &model.Note{}, userID, id, "note")
}

// Doubts

func (r *DevelopmentRepository) CreateDoubt(ctx context.Context, d *model.Doubt) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("create doubt: %w", err)
	}
	return nil
}

func (r *DevelopmentRepository) UpdateDoubt(ctx context.Context, userID, id string, patch map[string]interface{}) (*model.Doubt, error) {
	if err := r.applyPatch(ctx, &model.Doubt{}, userID, id, patch); err != nil {
		return nil, err
	}
	var d model.Doubt
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DevelopmentRepository) DeleteDoubt(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, &model.Doubt{}, userID, id, "doubt")
}

// Search

func (r *DevelopmentRepository) SearchTasks(ctx context.Context, userID, query string, limit int) ([]model.DevTask, error) {
	var tasks []model.DevTask
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND lower(title) LIKE ?", userID, likePattern(query)).
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return tasks, nil
}

func (r *DevelopmentRepository) SearchNotes(ctx context.Context, userID, query string, limit int) ([]model.Note, error) {
	var notes []model.Note
	like := likePattern(query)
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND (lower(title) LIKE ? OR lower(content) LIKE ?)", userID, like, like).
		Limit(limit).
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return notes, nil
}

func (r *DevelopmentRepository) SearchDoubts(ctx context.Context, userID, query string, limit int) ([]model.Doubt, error) {
	var doubts []model.Doubt
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND lower(question) LIKE ?", userID, likePattern(query)).
		Limit(limit).
		Find(&doubts).Error; err != nil {
		return nil, fmt.Errorf("search doubts: %w", err)
	}
	return doubts, nil
}

// Digest helpers

// ListOpenTasksDueBy returns not-done tasks whose due date falls before the cutoff.
func (r *DevelopmentRepository) ListOpenTasksDueBy(ctx context.Context, userID string, before time.Time) ([]model.DevTask, error) {
	var tasks []model.DevTask
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?", userID, model.StatusDone, before).
		Order("due_date ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

func (r *DevelopmentRepository) CountUnresolvedDoubts(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Doubt{}).
		Where("user_id = ? AND resolved = ?", userID, false).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count doubts: %w", err)
	}
	return n, nil
}

// shared helpers

func (r *DevelopmentRepository) applyPatch(ctx context.Context, m interface{}, userID, id string, patch map[string]interface{}) error {
	if len(patch) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(m).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(patch)
	if res.Error != nil {
		return fmt.Errorf("update row: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DevelopmentRepository) deleteRow(ctx context.Context, m interface{}, userID, id, kind string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(m)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func likePattern(query string) string {
	return "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
}
