package models

import "time"

// User owns tabs and tasks
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Tab is a named grouping of a user's tasks
type Tab struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

// Subtask is an unordered child of a task
type Subtask struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"-"`
	Name      string    `json:"name"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"-"`
}

// Task represents a single task
type Task struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	TabID     *int64    `json:"tabId"` // nil for the default bucket
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"-"`
	Subtasks  []Subtask `json:"subtasks"` // populated when loading a board
}

// InTab reports whether the task belongs to tabID (nil matches the default bucket)
func (t Task) InTab(tabID *int64) bool {
	if tabID == nil || t.TabID == nil {
		return tabID == nil && t.TabID == nil
	}
	return *t.TabID == *tabID
}

// Placement assigns a position to a task
type Placement struct {
	TaskID   int64
	Position int
}

// Board is the nested view of everything a user owns
type Board struct {
	Tabs  []Tab  `json:"tabs"`
	Tasks []Task `json:"tasks"`
}

// ForTab returns the board's tasks that belong to tabID, keeping their order and positions
func (b Board) ForTab(tabID *int64) []Task {
	tasks := []Task{}
	for _, t := range b.Tasks {
		if t.InTab(tabID) {
			tasks = append(tasks, t)
		}
	}
	return tasks
}
