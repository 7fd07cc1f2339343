package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tgienger/tabdo/internal/models"
)

// PasswordHasher hashes and verifies credentials. The service treats hashes as opaque.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Service mediates every structural change to a user's tabs, tasks and subtasks.
// Each method is scoped to the acting user; entities owned by anyone else are
// reported as ErrNotFound.
type Service struct {
	store  Store
	hasher PasswordHasher
}

// NewService creates a service backed by store. hasher may be nil when
// registration and login are handled elsewhere.
func NewService(store Store, hasher PasswordHasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Store returns the underlying store
func (s *Service) Store() Store {
	return s.store
}

// Register creates a user with a hashed password
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyInput
	}
	if s.hasher == nil {
		return nil, errors.New("register: no password hasher configured")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return s.store.CreateUser(ctx, username, hash)
}

// Authenticate returns the user whose credentials match
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if s.hasher == nil {
		return nil, errors.New("authenticate: no password hasher configured")
	}
	u, err := s.store.GetUserByName(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// EnsureUser returns the named user, creating it without a usable password if missing.
// Used by local clients that act as a single user.
func (s *Service) EnsureUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyInput
	}
	u, err := s.store.GetUserByName(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return s.store.CreateUser(ctx, username, "")
	}
	return u, err
}

// CreateTab creates a named tab for the user
func (s *Service) CreateTab(ctx context.Context, userID int64, name string) (*models.Tab, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	name = Sanitize(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return s.store.CreateTab(ctx, userID, name)
}

// DeleteTab removes a tab; its tasks move to the default bucket
func (s *Service) DeleteTab(ctx context.Context, userID, tabID int64) error {
	if _, err := s.ownedTab(ctx, userID, tabID); err != nil {
		return err
	}
	return s.store.DeleteTab(ctx, tabID)
}

// CreateTask appends an empty task to the end of the user's list.
// tabID may be nil; otherwise it must name one of the user's tabs.
func (s *Service) CreateTask(ctx context.Context, userID int64, tabID *int64) (*models.Task, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	if tabID != nil {
		if _, err := s.ownedTab(ctx, userID, *tabID); err != nil {
			return nil, err
		}
	}
	maxPos, ok, err := s.store.MaxTaskPosition(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.CreateTask(ctx, models.Task{
		UserID:   userID,
		TabID:    tabID,
		Text:     "",
		Position: NextPosition(maxPos, ok),
	})
}

// DeleteTask removes a task and all of its subtasks
func (s *Service) DeleteTask(ctx context.Context, userID, taskID int64) error {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, taskID)
}

// EditTaskText stores new text for a task and returns what was stored
func (s *Service) EditTaskText(ctx context.Context, userID, taskID int64, text string) (string, error) {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return "", err
	}
	text = Sanitize(text)
	if text == "" {
		text = DefaultTaskText
	}
	if err := s.store.UpdateTaskText(ctx, taskID, text); err != nil {
		return "", err
	}
	return text, nil
}

// ToggleTask flips a task's completion and moves it to TogglePosition
func (s *Service) ToggleTask(ctx context.Context, userID, taskID int64) (bool, error) {
	t, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return false, err
	}
	completed := !t.Completed
	if err := s.store.UpdateTaskState(ctx, taskID, completed, TogglePosition); err != nil {
		return false, err
	}
	return completed, nil
}

// Reorder places the given tasks in the requested order and renumbers the user's whole list.
// Ids the user does not own are skipped.
func (s *Service) Reorder(ctx context.Context, userID int64, order []int64) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return err
	}
	SortTasks(tasks)
	placements := MergeOrder(tasks, order)
	if len(placements) == 0 {
		return nil
	}
	return s.store.SetTaskPositions(ctx, userID, placements)
}

// CreateSubtask adds a subtask to one of the user's tasks
func (s *Service) CreateSubtask(ctx context.Context, userID, taskID int64, name string) (*models.Subtask, error) {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	name = Sanitize(name)
	if name == "" {
		return nil, ErrEmptyInput
	}
	return s.store.CreateSubtask(ctx, taskID, name)
}

// ListSubtasks returns the subtasks of one of the user's tasks
func (s *Service) ListSubtasks(ctx context.Context, userID, taskID int64) ([]models.Subtask, error) {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.store.ListSubtasks(ctx, taskID)
}

// EditSubtaskName renames a subtask and returns the stored name
func (s *Service) EditSubtaskName(ctx context.Context, userID, subtaskID int64, name string) (string, error) {
	if _, err := s.ownedSubtask(ctx, userID, subtaskID); err != nil {
		return "", err
	}
	name = Sanitize(name)
	if name == "" {
		return "", ErrEmptyInput
	}
	if err := s.store.UpdateSubtaskName(ctx, subtaskID, name); err != nil {
		return "", err
	}
	return name, nil
}

// ToggleSubtask flips a subtask's completion
func (s *Service) ToggleSubtask(ctx context.Context, userID, subtaskID int64) (bool, error) {
	st, err := s.ownedSubtask(ctx, userID, subtaskID)
	if err != nil {
		return false, err
	}
	completed := !st.Completed
	if err := s.store.SetSubtaskCompleted(ctx, subtaskID, completed); err != nil {
		return false, err
	}
	return completed, nil
}

// DeleteSubtask removes a subtask
func (s *Service) DeleteSubtask(ctx context.Context, userID, subtaskID int64) error {
	if _, err := s.ownedSubtask(ctx, userID, subtaskID); err != nil {
		return err
	}
	return s.store.DeleteSubtask(ctx, subtaskID)
}

// Board returns the user's tabs and board-ordered tasks with their subtasks
func (s *Service) Board(ctx context.Context, userID int64) (*models.Board, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	tabs, err := s.store.ListTabs(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortTasks(tasks)

	for i := range tasks {
		subtasks, err := s.store.ListSubtasks(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
		if subtasks == nil {
			subtasks = []models.Subtask{}
		}
		tasks[i].Subtasks = subtasks
	}

	if tabs == nil {
		tabs = []models.Tab{}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return &models.Board{Tabs: tabs, Tasks: tasks}, nil
}

func (s *Service) ownedTab(ctx context.Context, userID, tabID int64) (*models.Tab, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	tab, err := s.store.GetTab(ctx, tabID)
	if err != nil {
		return nil, err
	}
	if tab.UserID != userID {
		return nil, ErrNotFound
	}
	return tab, nil
}

func (s *Service) ownedTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrNotFound
	}
	return t, nil
}

// ownedSubtask authorizes subtask access through the parent task's owner
func (s *Service) ownedSubtask(ctx context.Context, userID, subtaskID int64) (*models.Subtask, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	st, err := s.store.GetSubtask(ctx, subtaskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedTask(ctx, userID, st.TaskID); err != nil {
		return nil, err
	}
	return st, nil
}
