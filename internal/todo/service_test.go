package todo_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tgienger/tabdo/internal/db"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
)

// plainHasher stores passwords verbatim so tests avoid bcrypt's cost
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "plain:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "plain:"+p {
		return errors.New("mismatch")
	}
	return nil
}

func newTestService(t *testing.T) *todo.Service {
	t.Helper()

	store, err := db.New(filepath.Join(t.TempDir(), "todo.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return todo.NewService(store, plainHasher{})
}

func newTestUser(t *testing.T, svc *todo.Service, name string) int64 {
	t.Helper()

	u, err := svc.Register(context.Background(), name, "secret")
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", name, err)
	}
	return u.ID
}

func newTask(t *testing.T, svc *todo.Service, userID int64, tabID *int64) *models.Task {
	t.Helper()

	task, err := svc.CreateTask(context.Background(), userID, tabID)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	return task
}

func boardIDs(t *testing.T, svc *todo.Service, userID int64) []int64 {
	t.Helper()

	board, err := svc.Board(context.Background(), userID)
	if err != nil {
		t.Fatalf("Board failed: %v", err)
	}
	ids := []int64{}
	for _, task := range board.Tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := newTestUser(t, svc, "alice")

	if _, err := svc.Register(ctx, "alice", "x"); !errors.Is(err, todo.ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}
	if _, err := svc.Register(ctx, "  ", "x"); !errors.Is(err, todo.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}

	u, err := svc.Authenticate(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if u.ID != id {
		t.Errorf("Expected user %d, got %d", id, u.ID)
	}

	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, todo.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "secret"); !errors.Is(err, todo.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for unknown user, got %v", err)
	}
}

func TestEnsureUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureUser(ctx, "local")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	again, err := svc.EnsureUser(ctx, "local")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if first.ID != again.ID {
		t.Errorf("Expected same user, got %d and %d", first.ID, again.ID)
	}
	if _, err := svc.Authenticate(ctx, "local", ""); !errors.Is(err, todo.ErrUnauthenticated) {
		t.Errorf("Local user must not be able to log in, got %v", err)
	}
}

func TestCreateTab(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")

	tab, err := svc.CreateTab(ctx, user, "Work")
	if err != nil {
		t.Fatalf("CreateTab failed: %v", err)
	}
	if tab.Name != "Work" {
		t.Errorf("Expected name Work, got %q", tab.Name)
	}

	if _, err := svc.CreateTab(ctx, user, "Work"); !errors.Is(err, todo.ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}
	if _, err := svc.CreateTab(ctx, user, " Work "); !errors.Is(err, todo.ErrDuplicateName) {
		t.Errorf("Expected trimmed duplicate to collide, got %v", err)
	}
	if _, err := svc.CreateTab(ctx, user, "   "); !errors.Is(err, todo.ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	if _, err := svc.CreateTab(ctx, 0, "Work"); !errors.Is(err, todo.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")

	task := newTask(t, svc, user, nil)
	if task.Position != 1 {
		t.Errorf("Expected first task at position 1, got %d", task.Position)
	}

	board, err := svc.Board(ctx, user)
	if err != nil {
		t.Fatalf("Board failed: %v", err)
	}
	if len(board.Tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(board.Tasks))
	}
	got := board.Tasks[0]
	if got.Text != "" || got.Completed || got.TabID != nil {
		t.Errorf("Unexpected new task: %+v", got)
	}
	if got.Subtasks == nil {
		t.Error("Expected empty, non-nil subtasks")
	}
}

func TestCreateTaskAppendsAcrossTabs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")

	work, _ := svc.CreateTab(ctx, user, "Work")
	home, _ := svc.CreateTab(ctx, user, "Home")

	a := newTask(t, svc, user, &work.ID)
	b := newTask(t, svc, user, &home.ID)
	c := newTask(t, svc, user, nil)

	if a.Position != 1 || b.Position != 2 || c.Position != 3 {
		t.Errorf("Expected positions 1,2,3, got %d,%d,%d", a.Position, b.Position, c.Position)
	}
}

func TestCreateTaskRejectsForeignTab(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := newTestUser(t, svc, "alice")
	bob := newTestUser(t, svc, "bob")

	bobsTab, _ := svc.CreateTab(ctx, bob, "Private")

	if _, err := svc.CreateTask(ctx, alice, &bobsTab.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	missing := int64(999)
	if _, err := svc.CreateTask(ctx, alice, &missing); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing tab, got %v", err)
	}
}

func TestEditTaskText(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")
	task := newTask(t, svc, user, nil)

	tests := []struct {
		in   string
		want string
	}{
		{"  buy milk ", "buy milk"},
		{"   ", "untitled"},
		{"", "untitled"},
		{"<i>x</i>", "&lt;i&gt;x&lt;/i&gt;"},
	}
	for _, tt := range tests {
		got, err := svc.EditTaskText(ctx, user, task.ID, tt.in)
		if err != nil {
			t.Fatalf("EditTaskText(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("EditTaskText(%q) = %q, want %q", tt.in, got, tt.want)
		}
		stored, _ := svc.Store().GetTask(ctx, task.ID)
		if stored.Text != tt.want {
			t.Errorf("Stored text %q, want %q", stored.Text, tt.want)
		}
	}
}

func TestReorderFullList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")

	a := newTask(t, svc, user, nil)
	b := newTask(t, svc, user, nil)
	c := newTask(t, svc, user, nil)

	if err := svc.Reorder(ctx, user, []int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	for id, want := range map[int64]int{c.ID: 0, a.ID: 1, b.ID: 2} {
		got, _ := svc.Store().GetTask(ctx, id)
		if got.Position != want {
			t.Errorf("Task %d: expected position %d, got %d", id, want, got.Position)
		}
	}

	want := []int64{c.ID, a.ID, b.ID}
	if got := boardIDs(t, svc, user); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected board order %v, got %v", want, got)
	}
}

func TestReorderTabSubsetKeepsOtherTabs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")

	work, _ := svc.CreateTab(ctx, user, "Work")
	home, _ := svc.CreateTab(ctx, user, "Home")

	w1 := newTask(t, svc, user, &work.ID)
	h1 := newTask(t, svc, user, &home.ID)
	w2 := newTask(t, svc, user, &work.ID)
	h2 := newTask(t, svc, user, &home.ID)

	if err := svc.Reorder(ctx, user, []int64{w2.ID, w1.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	board, err := svc.Board(ctx, user)
	if err != nil {
		t.Fatalf("Board failed: %v", err)
	}

	var workOrder, homeOrder []int64
	for _, task := range board.ForTab(&work.ID) {
		workOrder = append(workOrder, task.ID)
	}
	for _, task := range board.ForTab(&home.ID) {
		homeOrder = append(homeOrder, task.ID)
	}
	if !reflect.DeepEqual(workOrder, []int64{w2.ID, w1.ID}) {
		t.Errorf("Unexpected work order %v", workOrder)
	}
	if !reflect.DeepEqual(homeOrder, []int64{h1.ID, h2.ID}) {
		t.Errorf("Home order must be untouched, got %v", homeOrder)
	}

	seen := map[int]bool{}
	for _, task := range board.Tasks {
		if seen[task.Position] {
			t.Errorf("Duplicate position %d after reorder", task.Position)
		}
		seen[task.Position] = true
	}
}

func TestReorderSkipsForeignTasks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := newTestUser(t, svc, "alice")
	bob := newTestUser(t, svc, "bob")

	a := newTask(t, svc, alice, nil)
	theirs := newTask(t, svc, bob, nil)
	other := newTask(t, svc, bob, nil)

	if err := svc.Reorder(ctx, alice, []int64{other.ID, theirs.ID, a.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	if got := boardIDs(t, svc, bob); !reflect.DeepEqual(got, []int64{theirs.ID, other.ID}) {
		t.Errorf("Bob's order must be untouched, got %v", got)
	}
	stored, _ := svc.Store().GetTask(ctx, theirs.ID)
	if stored.Position != theirs.Position {
		t.Errorf("Bob's position changed from %d to %d", theirs.Position, stored.Position)
	}
}

func TestToggleTaskMovesToFront(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")

	a := newTask(t, svc, user, nil)
	b := newTask(t, svc, user, nil)
	c := newTask(t, svc, user, nil)

	completed, err := svc.ToggleTask(ctx, user, c.ID)
	if err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	if !completed {
		t.Error("Expected task to be completed")
	}

	stored, _ := svc.Store().GetTask(ctx, c.ID)
	if stored.Position != todo.TogglePosition {
		t.Errorf("Expected position %d, got %d", todo.TogglePosition, stored.Position)
	}
	if got := boardIDs(t, svc, user); !reflect.DeepEqual(got, []int64{c.ID, a.ID, b.ID}) {
		t.Errorf("Expected toggled task first, got %v", got)
	}

	// A second toggle at position 0 ties with c; id order decides.
	if _, err := svc.ToggleTask(ctx, user, b.ID); err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	if got := boardIDs(t, svc, user); !reflect.DeepEqual(got, []int64{b.ID, c.ID, a.ID}) {
		t.Errorf("Expected ties broken by id, got %v", got)
	}

	completed, err = svc.ToggleTask(ctx, user, c.ID)
	if err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	if completed {
		t.Error("Expected second toggle to revert completion")
	}
}

func TestDeleteTaskCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")

	task := newTask(t, svc, user, nil)
	st, err := svc.CreateSubtask(ctx, user, task.ID, "step")
	if err != nil {
		t.Fatalf("CreateSubtask failed: %v", err)
	}

	if err := svc.DeleteTask(ctx, user, task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := svc.ListSubtasks(ctx, user, task.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Expected ErrNotFound listing subtasks of deleted task, got %v", err)
	}
	if _, err := svc.Store().GetSubtask(ctx, st.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Expected subtask deleted, got %v", err)
	}
	if err := svc.DeleteTask(ctx, user, task.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteTabMovesTasksToDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")
	other := newTestUser(t, svc, "bob")

	tab, _ := svc.CreateTab(ctx, user, "Work")
	task := newTask(t, svc, user, &tab.ID)

	if err := svc.DeleteTab(ctx, other, tab.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting another user's tab, got %v", err)
	}
	if err := svc.DeleteTab(ctx, user, tab.ID); err != nil {
		t.Fatalf("DeleteTab failed: %v", err)
	}

	board, _ := svc.Board(ctx, user)
	if len(board.Tabs) != 0 {
		t.Errorf("Expected no tabs, got %d", len(board.Tabs))
	}
	loose := board.ForTab(nil)
	if len(loose) != 1 || loose[0].ID != task.ID {
		t.Errorf("Expected task in default bucket, got %+v", loose)
	}

	// The name is free again.
	if _, err := svc.CreateTab(ctx, user, "Work"); err != nil {
		t.Errorf("Expected tab name reusable after delete, got %v", err)
	}
}

func TestSubtaskLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, svc, "alice")
	task := newTask(t, svc, user, nil)

	st, err := svc.CreateSubtask(ctx, user, task.ID, "  <b>x</b> ")
	if err != nil {
		t.Fatalf("CreateSubtask failed: %v", err)
	}
	if st.Name != "&lt;b&gt;x&lt;/b&gt;" {
		t.Errorf("Expected escaped name on create, got %q", st.Name)
	}

	name, err := svc.EditSubtaskName(ctx, user, st.ID, "<b>y</b>")
	if err != nil {
		t.Fatalf("EditSubtaskName failed: %v", err)
	}
	if name != "&lt;b&gt;y&lt;/b&gt;" {
		t.Errorf("Expected escaped name on edit, got %q", name)
	}

	if _, err := svc.EditSubtaskName(ctx, user, st.ID, "  "); !errors.Is(err, todo.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
	if _, err := svc.CreateSubtask(ctx, user, task.ID, ""); !errors.Is(err, todo.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}

	completed, err := svc.ToggleSubtask(ctx, user, st.ID)
	if err != nil || !completed {
		t.Fatalf("ToggleSubtask = %v, %v; want true, nil", completed, err)
	}

	board, _ := svc.Board(ctx, user)
	subs := board.Tasks[0].Subtasks
	if len(subs) != 1 || subs[0].Name != "&lt;b&gt;y&lt;/b&gt;" || !subs[0].Completed {
		t.Errorf("Unexpected subtasks on board: %+v", subs)
	}

	if err := svc.DeleteSubtask(ctx, user, st.ID); err != nil {
		t.Fatalf("DeleteSubtask failed: %v", err)
	}
	if _, err := svc.ToggleSubtask(ctx, user, st.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestOtherUsersDataIsInvisible(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := newTestUser(t, svc, "alice")
	bob := newTestUser(t, svc, "bob")

	task := newTask(t, svc, alice, nil)
	st, _ := svc.CreateSubtask(ctx, alice, task.ID, "mine")

	checks := map[string]error{}
	_, checks["EditTaskText"] = svc.EditTaskText(ctx, bob, task.ID, "hacked")
	_, checks["ToggleTask"] = svc.ToggleTask(ctx, bob, task.ID)
	checks["DeleteTask"] = svc.DeleteTask(ctx, bob, task.ID)
	_, checks["CreateSubtask"] = svc.CreateSubtask(ctx, bob, task.ID, "x")
	_, checks["ListSubtasks"] = svc.ListSubtasks(ctx, bob, task.ID)
	_, checks["EditSubtaskName"] = svc.EditSubtaskName(ctx, bob, st.ID, "hacked")
	_, checks["ToggleSubtask"] = svc.ToggleSubtask(ctx, bob, st.ID)
	checks["DeleteSubtask"] = svc.DeleteSubtask(ctx, bob, st.ID)

	for op, err := range checks {
		if !errors.Is(err, todo.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", op, err)
		}
	}

	board, _ := svc.Board(ctx, bob)
	if len(board.Tasks) != 0 {
		t.Errorf("Bob should see no tasks, got %d", len(board.Tasks))
	}

	stored, _ := svc.Store().GetTask(ctx, task.ID)
	if stored.Text != "" || stored.Completed || stored.Position != task.Position {
		t.Errorf("Alice's task was modified: %+v", stored)
	}
	sub, _ := svc.Store().GetSubtask(ctx, st.ID)
	if sub.Name != "mine" || sub.Completed {
		t.Errorf("Alice's subtask was modified: %+v", sub)
	}
}
