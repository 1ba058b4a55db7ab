package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lifeos/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	return db
}

const (
	alice = "user-alice"
	bob   = "user-bob"
)

// seedHierarchy creates for alice: a category holding one project, a task and
// a note under the project, plus a task and a doubt scoped straight to the
// category. Bob gets one task in a category of the same name to prove scoping.
func seedHierarchy(t *testing.T, repo *DevelopmentRepository) (categoryID, projectID string) {
	t.Helper()
	ctx := context.Background()

	cat := &model.Category{UserID: alice, Name: "Go"}
	require.NoError(t, repo.CreateCategory(ctx, cat))
	proj := &model.Project{UserID: alice, CategoryID: cat.ID, Name: "Compiler"}
	require.NoError(t, repo.CreateProject(ctx, proj))

	require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
		UserID: alice, Title: "parser", Status: model.StatusTodo,
		CategoryID: &cat.ID, ProjectID: &proj.ID,
	}))
	require.NoError(t, repo.CreateNote(ctx, &model.Note{
		UserID: alice, Title: "grammar", Content: "LL(1)",
		CategoryID: &cat.ID, ProjectID: &proj.ID,
	}))
	require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
		UserID: alice, Title: "roadmap", Status: model.StatusTodo, CategoryID: &cat.ID,
	}))
	require.NoError(t, repo.CreateDoubt(ctx, &model.Doubt{
		UserID: alice, Question: "generics?", CategoryID: &cat.ID,
	}))

	bobCat := &model.Category{UserID: bob, Name: "Go"}
	require.NoError(t, repo.CreateCategory(ctx, bobCat))
	require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
		UserID: bob, Title: "bob task", Status: model.StatusTodo, CategoryID: &bobCat.ID,
	}))

	return cat.ID, proj.ID
}

func TestDeleteCategoryCascadeRemovesSubtree(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()
	categoryID, _ := seedHierarchy(t, repo)

	require.NoError(t, repo.DeleteCategoryCascade(ctx, alice, categoryID))

	data, err := repo.FetchAll(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, data.Categories)
	assert.Empty(t, data.Projects)
	assert.Empty(t, data.Tasks, "both project-scoped and directly scoped tasks must go")
	assert.Empty(t, data.Notes)
	assert.Empty(t, data.Doubts)

	// Bob's identically named category is untouched.
	bobData, err := repo.FetchAll(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bobData.Categories, 1)
	assert.Len(t, bobData.Tasks, 1)
}

func TestDeleteCategoryCascadeUnknownID(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	seedHierarchy(t, repo)

	err := repo.DeleteCategoryCascade(context.Background(), alice, "no-such-id")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteCategoryCascadeWrongUser(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()
	categoryID, _ := seedHierarchy(t, repo)

	err := repo.DeleteCategoryCascade(ctx, bob, categoryID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	data, err := repo.FetchAll(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, data.Categories, 1, "another user's delete must not touch the subtree")
	assert.Len(t, data.Tasks, 2)
}

func TestDeleteProjectCascadeKeepsCategoryChildren(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()
	_, projectID := seedHierarchy(t, repo)

	require.NoError(t, repo.DeleteProjectCascade(ctx, alice, projectID))

	data, err := repo.FetchAll(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, data.Categories, 1)
	assert.Empty(t, data.Projects)
	require.Len(t, data.Tasks, 1)
	assert.Equal(t, "roadmap", data.Tasks[0].Title)
	assert.Empty(t, data.Notes)
	assert.Len(t, data.Doubts, 1)
}

func TestUpdateTaskScopedToUser(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()
	seedHierarchy(t, repo)

	data, err := repo.FetchAll(ctx, alice)
	require.NoError(t, err)
	require.NotEmpty(t, data.Tasks)
	taskID := data.Tasks[0].ID

	_, err = repo.UpdateTask(ctx, bob, taskID, map[string]interface{}{"status": "done"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	updated, err := repo.UpdateTask(ctx, alice, taskID, map[string]interface{}{"status": "done", "order_index": 3})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, updated.Status)
	assert.Equal(t, 3, updated.OrderIndex)
}

func TestFetchAllOrdersTasksByOrderIndex(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()

	cat := &model.Category{UserID: alice, Name: "Go"}
	require.NoError(t, repo.CreateCategory(ctx, cat))
	for i, title := range []string{"third", "first", "second"} {
		order := []int{2, 0, 1}[i]
		require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
			UserID: alice, Title: title, Status: model.StatusTodo,
			CategoryID: &cat.ID, OrderIndex: order,
		}))
	}

	data, err := repo.FetchAll(ctx, alice)
	require.NoError(t, err)
	require.Len(t, data.Tasks, 3)
	assert.Equal(t, "first", data.Tasks[0].Title)
	assert.Equal(t, "second", data.Tasks[1].Title)
	assert.Equal(t, "third", data.Tasks[2].Title)
}

func TestSearchTasksCaseInsensitiveAndCapped(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()

	cat := &model.Category{UserID: alice, Name: "Go"}
	require.NoError(t, repo.CreateCategory(ctx, cat))
	for _, title := range []string{"Refactor Parser", "parser tests", "PARSER docs", "lexer"} {
		require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
			UserID: alice, Title: title, Status: model.StatusTodo, CategoryID: &cat.ID,
		}))
	}

	matches, err := repo.SearchTasks(ctx, alice, "PaRsEr", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2, "limit caps the result count")

	all, err := repo.SearchTasks(ctx, alice, "parser", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.SearchTasks(ctx, bob, "parser", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchNotesMatchesTitleOrContent(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()

	cat := &model.Category{UserID: alice, Name: "Go"}
	require.NoError(t, repo.CreateCategory(ctx, cat))
	require.NoError(t, repo.CreateNote(ctx, &model.Note{
		UserID: alice, Title: "grammar", Content: "uses recursive descent", CategoryID: &cat.ID,
	}))
	require.NoError(t, repo.CreateNote(ctx, &model.Note{
		UserID: alice, Title: "descent plan", Content: "unrelated", CategoryID: &cat.ID,
	}))

	matches, err := repo.SearchNotes(ctx, alice, "descent", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestListOpenTasksDueBy(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()
	now := time.Now()

	cat := &model.Category{UserID: alice, Name: "Go"}
	require.NoError(t, repo.CreateCategory(ctx, cat))

	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)
	require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
		UserID: alice, Title: "late", Status: model.StatusTodo, CategoryID: &cat.ID, DueDate: &yesterday,
	}))
	require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
		UserID: alice, Title: "done late", Status: model.StatusDone, CategoryID: &cat.ID, DueDate: &yesterday,
	}))
	require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
		UserID: alice, Title: "future", Status: model.StatusTodo, CategoryID: &cat.ID, DueDate: &tomorrow,
	}))
	require.NoError(t, repo.CreateTask(ctx, &model.DevTask{
		UserID: alice, Title: "no due", Status: model.StatusTodo, CategoryID: &cat.ID,
	}))

	due, err := repo.ListOpenTasksDueBy(ctx, alice, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "late", due[0].Title)
}

func TestCountUnresolvedDoubts(t *testing.T) {
	repo := NewDevelopmentRepository(testDB(t))
	ctx := context.Background()

	cat := &model.Category{UserID: alice, Name: "Go"}
	require.NoError(t, repo.CreateCategory(ctx, cat))

	d1 := &model.Doubt{UserID: alice, Question: "one", CategoryID: &cat.ID}
	require.NoError(t, repo.CreateDoubt(ctx, d1))
	require.NoError(t, repo.CreateDoubt(ctx, &model.Doubt{UserID: alice, Question: "two", CategoryID: &cat.ID}))

	_, err := repo.UpdateDoubt(ctx, alice, d1.ID, map[string]interface{}{
		"resolved":    true,
		"resolved_at": time.Now(),
	})
	require.NoError(t, err)

	n, err := repo.CountUnresolvedDoubts(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
