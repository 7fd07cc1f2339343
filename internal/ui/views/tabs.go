package views

import (
	"context"
	"fmt"
	"html"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tabdo/internal/models"
	"github.com/tgienger/tabdo/internal/todo"
	"github.com/tgienger/tabdo/internal/ui/keys"
	"github.com/tgienger/tabdo/internal/ui/styles"
)

// Scope selects which tasks a TaskListView shows
type Scope struct {
	All   bool
	TabID *int64 // nil with All unset is the default bucket
	Name  string
}

var (
	ScopeAll  = Scope{All: true, Name: "All"}
	ScopeNone = Scope{Name: "No tab"}
)

// Key encodes the scope for the last-tab setting
func (s Scope) Key() string {
	switch {
	case s.All:
		return "all"
	case s.TabID == nil:
		return "none"
	}
	return strconv.FormatInt(*s.TabID, 10)
}

// Includes reports whether t is visible in the scope
func (s Scope) Includes(t models.Task) bool {
	return s.All || t.InTab(s.TabID)
}

// TabScope returns the scope for a single tab
func TabScope(tab models.Tab) Scope {
	id := tab.ID
	return Scope{TabID: &id, Name: html.UnescapeString(tab.Name)}
}

type scopeItem struct {
	scope Scope
	count int
}

func (i scopeItem) Title() string       { return i.scope.Name }
func (i scopeItem) Description() string { return fmt.Sprintf("%d tasks", i.count) }
func (i scopeItem) FilterValue() string { return i.scope.Name }

type tabDelegate struct {
	styles *styles.Styles
	width  int
}

func (d tabDelegate) Height() int                               { return 2 }
func (d tabDelegate) Spacing() int                              { return 1 }
func (d tabDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d tabDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(scopeItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	var titleStyle, descStyle lipgloss.Style
	if index == m.Index() {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(it.Title()), descStyle.Render(it.Description()))
}

// TabListView lists the user's tabs plus the All and No tab scopes
type TabListView struct {
	svc      *todo.Service
	userID   int64
	list     list.Model
	delegate *tabDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	status   string

	creating bool
	newName  textinput.Model

	confirmingDelete bool
	deleteTarget     Scope

	showHelpPopup bool
}

func NewTabListView(svc *todo.Service, userID int64) *TabListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Tab name"
	newName.CharLimit = 100

	delegate := &tabDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Tabs"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &TabListView{
		svc:      svc,
		userID:   userID,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
	}
}

func (v *TabListView) Init() tea.Cmd {
	return v.loadTabs
}

type tabsLoadedMsg struct {
	board *models.Board
}

// SelectedScope asks the app to open a task list
type SelectedScope struct {
	Scope Scope
}

type errMsg struct{ err error }

func (v *TabListView) loadTabs() tea.Msg {
	board, err := v.svc.Board(context.Background(), v.userID)
	if err != nil {
		return errMsg{err}
	}
	return tabsLoadedMsg{board: board}
}

func (v *TabListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case tabsLoadedMsg:
		b := msg.board
		items := []list.Item{
			scopeItem{scope: ScopeAll, count: len(b.Tasks)},
			scopeItem{scope: ScopeNone, count: len(b.ForTab(nil))},
		}
		for _, tab := range b.Tabs {
			items = append(items, scopeItem{scope: TabScope(tab), count: len(b.ForTab(&tab.ID))})
		}
		v.list.SetItems(items)
		v.loaded = true
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
		if v.creating {
			return v.updateCreating(msg)
		}

		v.status = ""
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.newName.Reset()
			v.newName.Focus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(scopeItem); ok {
				return v, func() tea.Msg { return SelectedScope{Scope: item.scope} }
			}
			return v, nil
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(scopeItem); ok && item.scope.TabID != nil {
				v.confirmingDelete = true
				v.deleteTarget = item.scope
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *TabListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := *v.deleteTarget.TabID
		return v, func() tea.Msg {
			if err := v.svc.DeleteTab(context.Background(), v.userID, id); err != nil {
				return errMsg{err}
			}
			return v.loadTabs()
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TabListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		name := v.newName.Value()
		v.creating = false
		return v, func() tea.Msg {
			tab, err := v.svc.CreateTab(context.Background(), v.userID, name)
			if err != nil {
				return errMsg{err}
			}
			return SelectedScope{Scope: TabScope(*tab)}
		}
	}

	var cmd tea.Cmd
	v.newName, cmd = v.newName.Update(msg)
	return v, cmd
}

// View renders the view
func (v *TabListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.creating {
		return v.renderCreateForm()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	content := v.list.View() + "\n"
	if v.status != "" {
		content += v.styles.Error.Render(v.status) + "\n"
	}
	content += v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *TabListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Tab"),
		"",
		"Name:",
		s.InputFocused.Width(inputWidth).Render(v.newName.View()),
		"",
		s.TitleMuted.Render("Enter: create • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TabListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s new • %s del • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TabListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open tab",
		s.HelpKey.Render("n") + "      new tab",
		s.HelpKey.Render("d") + "      delete tab",
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

func (v *TabListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Error.Bold(true).Render("Delete Tab?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q will be removed. Its tasks move to No tab.", v.deleteTarget.Name)),
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
