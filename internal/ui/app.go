package ui

import (
	"context"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
	"github.com/tgienger/tabdo/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTabs View = iota
	ViewTasks
)

type App struct {
	svc         *todo.Service
	user        models.User
	currentView View
	tabList     *views.TabListView
	taskList    *views.TaskListView
	width       int
	height      int
}

// NewApp creates the terminal client acting as user
func NewApp(svc *todo.Service, user models.User) *App {
	return &App{
		svc:         svc,
		user:        user,
		currentView: ViewTabs,
		tabList:     views.NewTabListView(svc, user.ID),
	}
}

// lastTabKey names the setting holding the user's last opened scope
func (a *App) lastTabKey() string {
	return "last_tab_id:" + a.user.Username
}

func (a *App) Init() tea.Cmd {
	if scope, ok := a.lastScope(); ok {
		return a.openScope(scope)
	}
	return a.tabList.Init()
}

// lastScope restores the scope saved by openScope, if it still exists
func (a *App) lastScope() (views.Scope, bool) {
	ctx := context.Background()
	value, err := a.svc.Store().GetSetting(ctx, a.lastTabKey())
	if err != nil {
		return views.Scope{}, false
	}
	switch value {
	case "":
		return views.Scope{}, false
	case "all":
		return views.ScopeAll, true
	case "none":
		return views.ScopeNone, true
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return views.Scope{}, false
	}
	tab, err := a.svc.Store().GetTab(ctx, id)
	if err != nil || tab.UserID != a.user.ID {
		return views.Scope{}, false
	}
	return views.TabScope(*tab), true
}

func (a *App) openScope(scope views.Scope) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.svc, a.user.ID, scope)

	a.svc.Store().SetSetting(context.Background(), a.lastTabKey(), scope.Key())

	return tea.Batch(
		a.taskList.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// the tab list persists across views
		a.tabList.Update(msg)

	case views.SelectedScope:
		return a, a.openScope(msg.Scope)

	case views.BackToTabs:
		a.currentView = ViewTabs
		a.svc.Store().SetSetting(context.Background(), a.lastTabKey(), "")
		return a, tea.Batch(
			a.tabList.Init(),
			func() tea.Msg {
				return tea.WindowSizeMsg{Width: a.width, Height: a.height}
			},
		)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTabs:
		_, cmd = a.tabList.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	if a.currentView == ViewTasks && a.taskList != nil {
		return a.taskList.View()
	}
	return a.tabList.View()
}
