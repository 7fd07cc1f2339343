package views

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
	"github.com/tgienger/tabdo/internal/ui/keys"
	"github.com/tgienger/tabdo/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// editTarget says what the edit input is bound to
type editTarget int

const (
	editNone editTarget = iota
	editTask
	editSubtask
	editNewSubtask
)

// TaskListView shows the tasks of one scope with their subtasks
type TaskListView struct {
	svc    *todo.Service
	userID int64
	scope  Scope
	tasks  []models.Task
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor    int
	scrollY   int
	subMode   bool
	subCursor int
	status    string

	editing   editTarget
	editID    int64 // task or subtask being edited; parent task for editNewSubtask
	editInput textinput.Model

	confirmingDelete bool
	deleteSubtask    bool
	deleteTargetID   int64
	deleteTargetName string

	showHelpPopup bool
}

// NewTaskListView creates a new task list view
func NewTaskListView(svc *todo.Service, userID int64, scope Scope) *TaskListView {
	input := textinput.New()
	input.CharLimit = 500

	return &TaskListView{
		svc:       svc,
		userID:    userID,
		scope:     scope,
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
		editInput: input,
	}
}

// BackToTabs signals to go back to the tab list
type BackToTabs struct{}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

type tasksLoadedMsg struct {
	tasks   []models.Task
	focusID int64 // task to move the cursor to, if non-zero
	editNew bool  // open the editor on focusID
}

func (v *TaskListView) loadTasks() tea.Msg {
	return v.reload(0, false)
}

func (v *TaskListView) reload(focusID int64, editNew bool) tea.Msg {
	board, err := v.svc.Board(context.Background(), v.userID)
	if err != nil {
		return errMsg{err}
	}
	var tasks []models.Task
	for _, t := range board.Tasks {
		if v.scope.Includes(t) {
			tasks = append(tasks, t)
		}
	}
	return tasksLoadedMsg{tasks: tasks, focusID: focusID, editNew: editNew}
}

// mutate runs op and reloads the list, keeping the cursor on focusID
func (v *TaskListView) mutate(focusID int64, op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := op(context.Background()); err != nil {
			return errMsg{err}
		}
		return v.reload(focusID, false)
	}
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.editInput.Width = clamp(styles.ContentWidth(v.width)-10, 20, 60)
		return v, nil

	case tasksLoadedMsg:
		v.tasks = msg.tasks
		if msg.focusID != 0 {
			for i, t := range v.tasks {
				if t.ID == msg.focusID {
					v.cursor = i
					break
				}
			}
		}
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		if task, ok := v.current(); ok {
			if v.subCursor >= len(task.Subtasks) {
				v.subCursor = max(0, len(task.Subtasks)-1)
			}
			if len(task.Subtasks) == 0 {
				v.subMode = false
			}
			if msg.editNew {
				v.startEdit(editTask, task.ID, "")
				return v, textinput.Blink
			}
		} else {
			v.subMode = false
		}
		v.ensureVisible()
		return v, nil

	case errMsg:
		v.status = msg.err.Error()
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing != editNone {
			return v.updateEditing(msg)
		}
		v.status = ""
		if v.subMode {
			return v.updateSubtasks(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) current() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, ok := v.current()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToTabs{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.MoveUp):
		return v, v.move(-1)

	case key.Matches(msg, v.keys.MoveDown):
		return v, v.move(1)

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.subCursor = 0
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.subCursor = 0
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		tabID := v.scope.TabID
		return v, func() tea.Msg {
			t, err := v.svc.CreateTask(context.Background(), v.userID, tabID)
			if err != nil {
				return errMsg{err}
			}
			return v.reload(t.ID, true)
		}
	}

	if !ok {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Enter):
		if len(task.Subtasks) > 0 {
			v.subMode = true
			v.subCursor = 0
		}

	case key.Matches(msg, v.keys.Edit):
		v.startEdit(editTask, task.ID, task.Text)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Subtask):
		v.startEdit(editNewSubtask, task.ID, "")
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Toggle):
		return v, v.mutate(task.ID, func(ctx context.Context) error {
			_, err := v.svc.ToggleTask(ctx, v.userID, task.ID)
			return err
		})

	case key.Matches(msg, v.keys.Delete):
		v.confirmingDelete = true
		v.deleteSubtask = false
		v.deleteTargetID = task.ID
		v.deleteTargetName = displayText(task.Text)
	}
	return v, nil
}

func (v *TaskListView) updateSubtasks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, ok := v.current()
	if !ok || len(task.Subtasks) == 0 {
		v.subMode = false
		return v, nil
	}
	st := task.Subtasks[v.subCursor]

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		v.subMode = false

	case key.Matches(msg, v.keys.Up):
		if v.subCursor > 0 {
			v.subCursor--
		}

	case key.Matches(msg, v.keys.Down):
		if v.subCursor < len(task.Subtasks)-1 {
			v.subCursor++
		}

	case key.Matches(msg, v.keys.Toggle):
		return v, v.mutate(task.ID, func(ctx context.Context) error {
			_, err := v.svc.ToggleSubtask(ctx, v.userID, st.ID)
			return err
		})

	case key.Matches(msg, v.keys.Edit):
		v.startEdit(editSubtask, st.ID, st.Name)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Subtask):
		v.startEdit(editNewSubtask, task.ID, "")
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		v.confirmingDelete = true
		v.deleteSubtask = true
		v.deleteTargetID = st.ID
		v.deleteTargetName = displayText(st.Name)
	}
	return v, nil
}

// move shifts the selected task by dir within the visible list and persists the new order
func (v *TaskListView) move(dir int) tea.Cmd {
	to := v.cursor + dir
	if to < 0 || to >= len(v.tasks) {
		return nil
	}
	v.tasks[v.cursor], v.tasks[to] = v.tasks[to], v.tasks[v.cursor]
	v.cursor = to
	v.ensureVisible()

	moved := v.tasks[to].ID
	order := make([]int64, len(v.tasks))
	for i, t := range v.tasks {
		order[i] = t.ID
	}
	return v.mutate(moved, func(ctx context.Context) error {
		return v.svc.Reorder(ctx, v.userID, order)
	})
}

func (v *TaskListView) startEdit(target editTarget, id int64, current string) {
	v.editing = target
	v.editID = id
	v.editInput.Reset()
	v.editInput.SetValue(displayText(current))
	v.editInput.CursorEnd()
	switch target {
	case editTask:
		v.editInput.Placeholder = "Task"
	default:
		v.editInput.Placeholder = "Subtask"
	}
	v.editInput.Focus()
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = editNone
		v.editInput.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		return v, v.saveEdit()
	}

	var cmd tea.Cmd
	v.editInput, cmd = v.editInput.Update(msg)
	return v, cmd
}

func (v *TaskListView) saveEdit() tea.Cmd {
	target, id, value := v.editing, v.editID, v.editInput.Value()
	v.editing = editNone
	v.editInput.Blur()

	focus := id
	if task, ok := v.current(); ok {
		focus = task.ID
	}

	switch target {
	case editTask:
		return v.mutate(id, func(ctx context.Context) error {
			_, err := v.svc.EditTaskText(ctx, v.userID, id, value)
			return err
		})
	case editSubtask:
		return v.mutate(focus, func(ctx context.Context) error {
			_, err := v.svc.EditSubtaskName(ctx, v.userID, id, value)
			return err
		})
	case editNewSubtask:
		return v.mutate(id, func(ctx context.Context) error {
			_, err := v.svc.CreateSubtask(ctx, v.userID, id, value)
			return err
		})
	}
	return nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTargetID
		if v.deleteSubtask {
			focus, _ := v.current()
			return v, v.mutate(focus.ID, func(ctx context.Context) error {
				return v.svc.DeleteSubtask(ctx, v.userID, id)
			})
		}
		return v, v.mutate(0, func(ctx context.Context) error {
			return v.svc.DeleteTask(ctx, v.userID, id)
		})
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TaskListView) ensureVisible() {
	visibleItems := max((v.height-10)/2, 1)
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// displayText reverses the escaping applied on save
func displayText(s string) string {
	return html.UnescapeString(s)
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.scope.Name))
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")

	if v.editing != editNone {
		b.WriteString(v.renderEditLine())
		b.WriteString("\n")
	}
	if v.status != "" {
		b.WriteString(v.styles.Error.Render(v.status))
		b.WriteString("\n")
	}
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderTaskList() string {
	if len(v.tasks) == 0 {
		return v.styles.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	visibleItems := max((v.height-10)/2, 1)
	endIdx := min(v.scrollY+visibleItems, len(v.tasks))

	var items []string
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	text := displayText(task.Text)
	if text == "" {
		text = s.TitleMuted.Render("(empty)")
	}
	line := checkbox(task.Completed) + " " + text

	titleStyle := s.ListItem
	if task.Completed {
		titleStyle = s.TaskDone
	}
	if selected && !v.subMode {
		titleStyle = s.ListSelected
	}
	lines := []string{titleStyle.Width(width).Render(line)}

	for i, st := range task.Subtasks {
		subStyle := s.Subtask
		if st.Completed {
			subStyle = s.SubtaskDone
		}
		if selected && v.subMode && i == v.subCursor {
			subStyle = s.ListSelected.PaddingLeft(6)
		}
		lines = append(lines, subStyle.Width(width).Render(checkbox(st.Completed)+" "+displayText(st.Name)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *TaskListView) renderEditLine() string {
	label := "Edit task"
	switch v.editing {
	case editSubtask:
		label = "Edit subtask"
	case editNewSubtask:
		label = "New subtask"
	}
	inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 60)
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.TitleMuted.Render(label+" (enter: save • esc: cancel)"),
		v.styles.InputFocused.Width(inputWidth).Render(v.editInput.View()),
	)
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}

	if v.subMode {
		return s.Help.Render(
			fmt.Sprintf("%s toggle • %s edit • %s new • %s del • %s back",
				s.HelpKey.Render("space"),
				s.HelpKey.Render("e"),
				s.HelpKey.Render("s"),
				s.HelpKey.Render("d"),
				s.HelpKey.Render("esc"),
			),
		)
	}
	return s.Help.Render(
		fmt.Sprintf("%s new • %s edit • %s toggle • %s/%s move • %s subtask • %s subtasks • %s del • %s back • %s quit",
			s.HelpKey.Render("n"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("space"),
			s.HelpKey.Render("K"),
			s.HelpKey.Render("J"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
			s.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit",
		s.HelpKey.Render("space") + "  toggle done",
		s.HelpKey.Render("K/J") + "    move up/down",
		s.HelpKey.Render("s") + "      add subtask",
		s.HelpKey.Render("↵") + "      select subtasks",
		s.HelpKey.Render("d") + "      delete",
		s.HelpKey.Render("esc") + "    back",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	title := "Delete Task?"
	if v.deleteSubtask {
		title = "Delete Subtask?"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Error.Bold(true).Render(title),
		"",
		s.TitleMuted.Render(v.deleteTargetName),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
