package views

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/tabdo/internal/db"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
)

func createTestService(t *testing.T) (*todo.Service, int64) {
	t.Helper()

	store, err := db.New(filepath.Join(t.TempDir(), "ui.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := todo.NewService(store, nil)
	u, err := svc.EnsureUser(context.Background(), "local")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	return svc, u.ID
}

// settle runs cmd and feeds data messages back into m until nothing is left
func settle(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()

	for cmd != nil {
		switch msg := cmd().(type) {
		case tasksLoadedMsg, tabsLoadedMsg, SelectedScope:
			m, cmd = m.Update(msg)
		case errMsg:
			t.Fatalf("Unexpected error: %v", msg.err)
		default:
			return m
		}
	}
	return m
}

func press(t *testing.T, m tea.Model, k tea.KeyMsg) tea.Model {
	t.Helper()
	m, cmd := m.Update(k)
	return settle(t, m, cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func newTaskView(t *testing.T, svc *todo.Service, userID int64, scope Scope) *TaskListView {
	t.Helper()
	v := NewTaskListView(svc, userID, scope)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	settle(t, v, v.Init())
	return v
}

func taskTexts(v *TaskListView) []string {
	var out []string
	for _, task := range v.tasks {
		out = append(out, task.Text)
	}
	return out
}

func TestNewTaskOpensEditor(t *testing.T) {
	svc, userID := createTestService(t)
	v := newTaskView(t, svc, userID, ScopeAll)

	press(t, v, runes("n"))
	if len(v.tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(v.tasks))
	}
	if v.editing != editTask {
		t.Fatalf("Expected editor open after creating a task")
	}

	press(t, v, runes("milk & eggs"))
	press(t, v, enter)

	if v.editing != editNone {
		t.Errorf("Expected editor closed after save")
	}
	if got := v.tasks[0].Text; got != "milk &amp; eggs" {
		t.Errorf("Expected escaped text stored, got %q", got)
	}
	if !strings.Contains(v.View(), "milk & eggs") {
		t.Errorf("Expected unescaped text in view:\n%s", v.View())
	}
}

func TestToggleAndMove(t *testing.T) {
	svc, userID := createTestService(t)
	ctx := context.Background()
	for _, text := range []string{"a", "b", "c"} {
		task, err := svc.CreateTask(ctx, userID, nil)
		if err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
		if _, err := svc.EditTaskText(ctx, userID, task.ID, text); err != nil {
			t.Fatalf("EditTaskText failed: %v", err)
		}
	}
	v := newTaskView(t, svc, userID, ScopeNone)

	// move "c" to the top
	press(t, v, runes("j"))
	press(t, v, runes("j"))
	press(t, v, runes("K"))
	press(t, v, runes("K"))
	if got := strings.Join(taskTexts(v), ""); got != "cab" {
		t.Fatalf("Expected cab after moving, got %s", got)
	}
	if v.cursor != 0 {
		t.Errorf("Expected cursor to follow the moved task, got %d", v.cursor)
	}

	// toggling "b" sends it to the front
	press(t, v, runes("j"))
	press(t, v, runes("j"))
	press(t, v, space)
	if got := strings.Join(taskTexts(v), ""); got != "bca" {
		t.Fatalf("Expected bca after toggle, got %s", got)
	}
	if !v.tasks[0].Completed {
		t.Errorf("Expected toggled task completed")
	}
}

func TestSubtaskMode(t *testing.T) {
	svc, userID := createTestService(t)
	if _, err := svc.CreateTask(context.Background(), userID, nil); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	v := newTaskView(t, svc, userID, ScopeAll)

	// enter does nothing without subtasks
	press(t, v, enter)
	if v.subMode {
		t.Fatalf("Expected no subtask mode on a task without subtasks")
	}

	press(t, v, runes("s"))
	press(t, v, runes("step one"))
	press(t, v, enter)
	if n := len(v.tasks[0].Subtasks); n != 1 {
		t.Fatalf("Expected 1 subtask, got %d", n)
	}

	press(t, v, enter)
	if !v.subMode {
		t.Fatalf("Expected subtask mode")
	}
	press(t, v, space)
	if !v.tasks[0].Subtasks[0].Completed {
		t.Errorf("Expected subtask completed")
	}

	press(t, v, runes("d"))
	if !v.confirmingDelete || !v.deleteSubtask {
		t.Fatalf("Expected subtask delete confirmation")
	}
	press(t, v, runes("y"))
	if n := len(v.tasks[0].Subtasks); n != 0 {
		t.Errorf("Expected subtask deleted, got %d", n)
	}
	if v.subMode {
		t.Errorf("Expected subtask mode to end once no subtasks remain")
	}
}

func TestScopeFiltersTasks(t *testing.T) {
	svc, userID := createTestService(t)
	ctx := context.Background()
	tab, err := svc.CreateTab(ctx, userID, "Work")
	if err != nil {
		t.Fatalf("CreateTab failed: %v", err)
	}
	if _, err := svc.CreateTask(ctx, userID, &tab.ID); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := svc.CreateTask(ctx, userID, nil); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	tests := []struct {
		scope Scope
		want  int
	}{
		{ScopeAll, 2},
		{ScopeNone, 1},
		{TabScope(*tab), 1},
	}
	for _, tt := range tests {
		v := newTaskView(t, svc, userID, tt.scope)
		if len(v.tasks) != tt.want {
			t.Errorf("%s: expected %d tasks, got %d", tt.scope.Name, tt.want, len(v.tasks))
		}
	}

	// new tasks land in the open tab
	v := newTaskView(t, svc, userID, TabScope(*tab))
	press(t, v, runes("n"))
	if len(v.tasks) != 2 {
		t.Errorf("Expected new task in tab, got %d tasks", len(v.tasks))
	}
}

func TestTabListCreateAndDelete(t *testing.T) {
	svc, userID := createTestService(t)
	v := NewTabListView(svc, userID)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	settle(t, v, v.Init())

	if n := len(v.list.Items()); n != 2 {
		t.Fatalf("Expected All and No tab entries, got %d", n)
	}

	press(t, v, runes("n"))
	press(t, v, runes("Home"))
	_, cmd := v.Update(enter)
	msg := cmd()
	sel, ok := msg.(SelectedScope)
	if !ok {
		t.Fatalf("Expected SelectedScope, got %T", msg)
	}
	if sel.Scope.Name != "Home" || sel.Scope.TabID == nil {
		t.Errorf("Unexpected scope %+v", sel.Scope)
	}

	settle(t, v, v.Init())
	if n := len(v.list.Items()); n != 3 {
		t.Fatalf("Expected 3 entries, got %d", n)
	}

	v.list.Select(2)
	press(t, v, runes("d"))
	if !v.confirmingDelete {
		t.Fatalf("Expected delete confirmation")
	}
	press(t, v, runes("y"))
	if n := len(v.list.Items()); n != 2 {
		t.Errorf("Expected tab removed, got %d entries", n)
	}
}

func TestScopeKey(t *testing.T) {
	id := int64(42)
	tests := []struct {
		scope Scope
		want  string
	}{
		{ScopeAll, "all"},
		{ScopeNone, "none"},
		{Scope{TabID: &id}, "42"},
	}
	for _, tt := range tests {
		if got := tt.scope.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}

	if !ScopeNone.Includes(models.Task{}) || ScopeNone.Includes(models.Task{TabID: &id}) {
		t.Errorf("ScopeNone should only include untabbed tasks")
	}
}
