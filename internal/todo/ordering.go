package todo

import (
	"cmp"
	"slices"

	"github.com/tgienger/tabdo/internal/models"
)

// TogglePosition is where a task moves when its completion flag flips.
// Ties at this position are broken by task id.
const TogglePosition = 0

// NextPosition returns the position for a newly appended task given the current
// maximum among the user's tasks. ok is false when the user has no tasks yet.
func NextPosition(maxPos int, ok bool) int {
	if !ok {
		return 1
	}
	return maxPos + 1
}

// CompareTasks orders tasks by position, then id
func CompareTasks(a, b models.Task) int {
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortTasks sorts tasks in place into board order
func SortTasks(tasks []models.Task) {
	slices.SortStableFunc(tasks, CompareTasks)
}

// MergeOrder plans a reorder of the user's complete task list.
//
// tasks must be every task the user owns, in board order. The ids in requested
// that appear in tasks are placed, in requested order, into the slots those same
// tasks occupy; unknown and repeated ids are ignored. The merged list is then
// renumbered from 0, so positions are unique afterwards. Only placements that
// change a task's stored position are returned.
func MergeOrder(tasks []models.Task, requested []int64) []models.Placement {
	current := make(map[int64]int, len(tasks))
	for _, t := range tasks {
		current[t.ID] = t.Position
	}

	picked := make([]int64, 0, len(requested))
	moved := make(map[int64]bool, len(requested))
	for _, id := range requested {
		if _, ok := current[id]; !ok || moved[id] {
			continue
		}
		moved[id] = true
		picked = append(picked, id)
	}

	var placements []models.Placement
	next := 0
	for i, t := range tasks {
		id := t.ID
		if moved[id] {
			id = picked[next]
			next++
		}
		if current[id] != i {
			placements = append(placements, models.Placement{TaskID: id, Position: i})
		}
	}
	return placements
}
