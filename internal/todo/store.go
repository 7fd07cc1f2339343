package todo

import (
	"context"

	"github.com/tgienger/tabdo/internal/models"
)

// Store persists users, tabs, tasks and subtasks.
//
// Lookups of absent rows return ErrNotFound. CreateUser and CreateTab return
// ErrDuplicateName on a uniqueness violation. SetTaskPositions, DeleteTask and
// DeleteTab must apply all of their row changes atomically.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByName(ctx context.Context, username string) (*models.User, error)

	CreateTab(ctx context.Context, userID int64, name string) (*models.Tab, error)
	GetTab(ctx context.Context, id int64) (*models.Tab, error)
	ListTabs(ctx context.Context, userID int64) ([]models.Tab, error)
	DeleteTab(ctx context.Context, id int64) error

	// CreateTask inserts t and returns the stored copy with its id set
	CreateTask(ctx context.Context, t models.Task) (*models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	// ListTasks returns the user's tasks ordered by position, then id, without subtasks
	ListTasks(ctx context.Context, userID int64) ([]models.Task, error)
	// MaxTaskPosition reports the largest position among the user's tasks; ok is false if there are none
	MaxTaskPosition(ctx context.Context, userID int64) (maxPos int, ok bool, err error)
	UpdateTaskText(ctx context.Context, id int64, text string) error
	UpdateTaskState(ctx context.Context, id int64, completed bool, position int) error
	SetTaskPositions(ctx context.Context, userID int64, placements []models.Placement) error
	DeleteTask(ctx context.Context, id int64) error

	CreateSubtask(ctx context.Context, taskID int64, name string) (*models.Subtask, error)
	GetSubtask(ctx context.Context, id int64) (*models.Subtask, error)
	ListSubtasks(ctx context.Context, taskID int64) ([]models.Subtask, error)
	UpdateSubtaskName(ctx context.Context, id int64, name string) error
	SetSubtaskCompleted(ctx context.Context, id int64, completed bool) error
	DeleteSubtask(ctx context.Context, id int64) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}
