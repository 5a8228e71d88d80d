// Package storetest holds the behaviour every repository engine must share.
// Engine packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/goalpost/internal/model"
	"github.com/dukerupert/goalpost/internal/tracker"
)

// Repos is one engine's set of repositories, backed by a fresh empty store.
type Repos struct {
	Goals      tracker.GoalRepository
	Categories tracker.CategoryRepository
	Tasks      tracker.TaskRepository
}

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return base.Add(time.Duration(sec) * time.Second)
}

func strp(s string) *string { return &s }

// Run executes the contract suite. open must return repositories over a new,
// empty store on every call.
func Run(t *testing.T, open func(t *testing.T) Repos) {
	t.Run("GoalRoundTrip", func(t *testing.T) { testGoalRoundTrip(t, open(t)) })
	t.Run("GoalDuplicateID", func(t *testing.T) { testGoalDuplicateID(t, open(t)) })
	t.Run("GoalUpdateUpserts", func(t *testing.T) { testGoalUpdateUpserts(t, open(t)) })
	t.Run("GoalSoftDelete", func(t *testing.T) { testGoalSoftDelete(t, open(t)) })
	t.Run("CategoryByGoal", func(t *testing.T) { testCategoryByGoal(t, open(t)) })
	t.Run("TaskRoundTrip", func(t *testing.T) { testTaskRoundTrip(t, open(t)) })
	t.Run("TaskDuplicateID", func(t *testing.T) { testTaskDuplicateID(t, open(t)) })
	t.Run("TaskListings", func(t *testing.T) { testTaskListings(t, open(t)) })
	t.Run("TaskSoftDelete", func(t *testing.T) { testTaskSoftDelete(t, open(t)) })
	t.Run("UnknownIDs", func(t *testing.T) { testUnknownIDs(t, open(t)) })
}

func newGoal(id string, sec int) *model.Goal {
	return &model.Goal{
		ID: id, UserID: "local", Name: "Goal " + id, Type: model.GoalTypeOngoing,
		StartDate: "2024-01-01", Importance: 3, Color: "#111111",
		CreatedAt: at(sec), UpdatedAt: at(sec),
	}
}

func newTask(id, date string, goalID *string, sec int) *model.Task {
	return &model.Task{
		ID: id, UserID: "local", Title: "Task " + id, Date: date, GoalID: goalID,
		Color: model.DefaultTaskColor, CreatedAt: at(sec), UpdatedAt: at(sec),
	}
}

func testGoalRoundTrip(t *testing.T, r Repos) {
	ctx := context.Background()
	g := newGoal("g1", 0)
	g.Type = model.GoalTypeProject
	g.EndDate = strp("2024-06-30")

	if err := r.Goals.Create(ctx, g); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	got, err := r.Goals.GetByID(ctx, "g1")
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if got == nil {
		t.Fatal("expected goal, got nil")
	}
	if got.Name != g.Name || got.Type != model.GoalTypeProject || got.Importance != 3 || got.Color != "#111111" {
		t.Errorf("got = %+v, want %+v", got, g)
	}
	if got.EndDate == nil || *got.EndDate != "2024-06-30" {
		t.Errorf("end_date = %v, want 2024-06-30", got.EndDate)
	}
	if !got.CreatedAt.Equal(g.CreatedAt) || !got.UpdatedAt.Equal(g.UpdatedAt) {
		t.Errorf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, g.CreatedAt)
	}
	if got.DeletedAt != nil {
		t.Errorf("deleted_at = %v, want nil", got.DeletedAt)
	}
}

func testGoalDuplicateID(t *testing.T, r Repos) {
	ctx := context.Background()
	if err := r.Goals.Create(ctx, newGoal("g1", 0)); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	err := r.Goals.Create(ctx, newGoal("g1", 1))
	if !errors.Is(err, model.ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}
}

func testGoalUpdateUpserts(t *testing.T, r Repos) {
	ctx := context.Background()

	// Update of an unknown id inserts.
	g := newGoal("g1", 0)
	if err := r.Goals.Update(ctx, g); err != nil {
		t.Fatalf("upsert goal: %v", err)
	}

	g.Name = "Renamed"
	g.EndDate = nil
	g.UpdatedAt = at(5)
	if err := r.Goals.Update(ctx, g); err != nil {
		t.Fatalf("update goal: %v", err)
	}

	got, _ := r.Goals.GetByID(ctx, "g1")
	if got.Name != "Renamed" {
		t.Errorf("name = %q, want %q", got.Name, "Renamed")
	}
	if !got.UpdatedAt.Equal(at(5)) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, at(5))
	}

	goals, _ := r.Goals.ListActive(ctx)
	if len(goals) != 1 {
		t.Errorf("expected 1 goal, got %d", len(goals))
	}
}

func testGoalSoftDelete(t *testing.T, r Repos) {
	ctx := context.Background()
	r.Goals.Create(ctx, newGoal("g1", 0))
	r.Goals.Create(ctx, newGoal("g2", 1))

	if err := r.Goals.SoftDelete(ctx, "g1", at(10)); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	goals, err := r.Goals.ListActive(ctx)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 || goals[0].ID != "g2" {
		t.Fatalf("active goals = %+v, want only g2", goals)
	}

	got, _ := r.Goals.GetByID(ctx, "g1")
	if got == nil {
		t.Fatal("soft-deleted goal should still be retrievable")
	}
	if got.DeletedAt == nil || !got.DeletedAt.Equal(at(10)) {
		t.Errorf("deleted_at = %v, want %v", got.DeletedAt, at(10))
	}
	if !got.UpdatedAt.Equal(at(10)) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, at(10))
	}
}

func testCategoryByGoal(t *testing.T, r Repos) {
	ctx := context.Background()
	for i, c := range []model.Category{
		{ID: "c1", UserID: "local", GoalID: "g1", Name: "Cardio"},
		{ID: "c2", UserID: "local", GoalID: "g1", Name: "Strength"},
		{ID: "c3", UserID: "local", GoalID: "g2", Name: "Fiction"},
	} {
		c.CreatedAt, c.UpdatedAt = at(i), at(i)
		if err := r.Categories.Create(ctx, &c); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}

	dup := model.Category{ID: "c1", UserID: "local", GoalID: "g1", Name: "x", CreatedAt: at(9), UpdatedAt: at(9)}
	if err := r.Categories.Create(ctx, &dup); !errors.Is(err, model.ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}

	cats, err := r.Categories.ListByGoal(ctx, "g1")
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 2 || cats[0].ID != "c1" || cats[1].ID != "c2" {
		t.Fatalf("categories = %+v, want c1, c2", cats)
	}

	r.Categories.SoftDelete(ctx, "c1", at(20))
	cats, _ = r.Categories.ListByGoal(ctx, "g1")
	if len(cats) != 1 || cats[0].ID != "c2" {
		t.Errorf("categories = %+v, want only c2", cats)
	}
	got, _ := r.Categories.GetByID(ctx, "c1")
	if got == nil || got.DeletedAt == nil {
		t.Error("deleted category should be retrievable with deleted_at set")
	}
}

func testTaskRoundTrip(t *testing.T, r Repos) {
	ctx := context.Background()
	task := newTask("t1", "2024-01-02", strp("g1"), 0)
	task.Description = strp("5k easy")
	task.CategoryID = strp("c1")
	task.SetDone(true, at(3))

	if err := r.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	got, err := r.Tasks.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got == nil {
		t.Fatal("expected task, got nil")
	}
	if got.Title != task.Title || got.Date != "2024-01-02" || got.Color != model.DefaultTaskColor {
		t.Errorf("got = %+v, want %+v", got, task)
	}
	if got.Description == nil || *got.Description != "5k easy" {
		t.Errorf("description = %v, want 5k easy", got.Description)
	}
	if got.GoalID == nil || *got.GoalID != "g1" || got.CategoryID == nil || *got.CategoryID != "c1" {
		t.Errorf("goal/category = %v/%v, want g1/c1", got.GoalID, got.CategoryID)
	}
	if !got.Done || got.DoneAt == nil || !got.DoneAt.Equal(at(3)) {
		t.Errorf("done = %v, done_at = %v, want true, %v", got.Done, got.DoneAt, at(3))
	}

	got.SetDone(false, at(4))
	got.GoalID = nil
	got.UpdatedAt = at(4)
	if err := r.Tasks.Update(ctx, got); err != nil {
		t.Fatalf("update task: %v", err)
	}
	again, _ := r.Tasks.GetByID(ctx, "t1")
	if again.Done || again.DoneAt != nil {
		t.Errorf("done = %v, done_at = %v, want false, nil", again.Done, again.DoneAt)
	}
	if again.GoalID != nil {
		t.Errorf("goal_id = %v, want nil", *again.GoalID)
	}
}

func testTaskDuplicateID(t *testing.T, r Repos) {
	ctx := context.Background()
	if err := r.Tasks.Create(ctx, newTask("t1", "2024-01-02", nil, 0)); err != nil {
		t.Fatalf("create task: %v", err)
	}
	err := r.Tasks.Create(ctx, newTask("t1", "2024-01-03", nil, 1))
	if !errors.Is(err, model.ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}
}

func testTaskListings(t *testing.T, r Repos) {
	ctx := context.Background()
	tasks := []*model.Task{
		newTask("a", "2023-12-31", strp("g1"), 0),
		newTask("b", "2024-01-01", strp("g1"), 1),
		newTask("c", "2024-01-03", nil, 2),
		newTask("d", "2024-01-07", strp("g2"), 3),
		newTask("e", "2024-01-08", strp("g1"), 4),
		newTask("f", "2024-01-03", strp("g1"), 5),
	}
	tasks[5].CategoryID = strp("c1")
	for _, task := range tasks {
		if err := r.Tasks.Create(ctx, task); err != nil {
			t.Fatalf("create task %s: %v", task.ID, err)
		}
	}

	assertIDs := func(name string, got []model.Task, want ...string) {
		t.Helper()
		if len(got) != len(want) {
			t.Errorf("%s: got %d tasks, want %v", name, len(got), want)
			return
		}
		for i, id := range want {
			if got[i].ID != id {
				t.Errorf("%s[%d] = %q, want %q", name, i, got[i].ID, id)
			}
		}
	}

	week, err := r.Tasks.ListByDateRange(ctx, "2024-01-01", "2024-01-07")
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	assertIDs("range", week, "b", "c", "f", "d")

	day, _ := r.Tasks.ListByDate(ctx, "2024-01-03")
	assertIDs("date", day, "c", "f")

	byGoal, _ := r.Tasks.ListByGoal(ctx, "g1")
	assertIDs("goal", byGoal, "a", "b", "f", "e")

	byCategory, _ := r.Tasks.ListByCategory(ctx, "c1")
	assertIDs("category", byCategory, "f")
}

func testTaskSoftDelete(t *testing.T, r Repos) {
	ctx := context.Background()
	r.Tasks.Create(ctx, newTask("t1", "2024-01-02", strp("g1"), 0))
	r.Tasks.Create(ctx, newTask("t2", "2024-01-02", strp("g1"), 1))

	if err := r.Tasks.SoftDelete(ctx, "t1", at(10)); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	for name, list := range map[string]func() ([]model.Task, error){
		"date":  func() ([]model.Task, error) { return r.Tasks.ListByDate(ctx, "2024-01-02") },
		"range": func() ([]model.Task, error) { return r.Tasks.ListByDateRange(ctx, "2024-01-01", "2024-01-31") },
		"goal":  func() ([]model.Task, error) { return r.Tasks.ListByGoal(ctx, "g1") },
	} {
		got, err := list()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(got) != 1 || got[0].ID != "t2" {
			t.Errorf("%s: got %+v, want only t2", name, got)
		}
	}

	got, _ := r.Tasks.GetByID(ctx, "t1")
	if got == nil || got.DeletedAt == nil || !got.DeletedAt.Equal(at(10)) {
		t.Errorf("deleted task = %+v, want deleted_at %v", got, at(10))
	}
}

func testUnknownIDs(t *testing.T, r Repos) {
	ctx := context.Background()

	g, err := r.Goals.GetByID(ctx, "missing")
	if err != nil || g != nil {
		t.Errorf("goal = %v, err = %v, want nil, nil", g, err)
	}
	c, err := r.Categories.GetByID(ctx, "missing")
	if err != nil || c != nil {
		t.Errorf("category = %v, err = %v, want nil, nil", c, err)
	}
	task, err := r.Tasks.GetByID(ctx, "missing")
	if err != nil || task != nil {
		t.Errorf("task = %v, err = %v, want nil, nil", task, err)
	}

	if err := r.Goals.SoftDelete(ctx, "missing", at(0)); err != nil {
		t.Errorf("soft delete goal: %v", err)
	}
	if err := r.Categories.SoftDelete(ctx, "missing", at(0)); err != nil {
		t.Errorf("soft delete category: %v", err)
	}
	if err := r.Tasks.SoftDelete(ctx, "missing", at(0)); err != nil {
		t.Errorf("soft delete task: %v", err)
	}

	goals, _ := r.Goals.ListActive(ctx)
	if len(goals) != 0 {
		t.Errorf("soft delete of unknown id created %d goals", len(goals))
	}
}
