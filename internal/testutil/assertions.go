package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/taskboard/internal/board"
)

// AssertTasksEqual asserts that two task slices hold the same tasks in the
// same order.
func AssertTasksEqual(t *testing.T, expected, actual []board.Task) {
	t.Helper()

	require.Len(t, actual, len(expected), "task count mismatch")
	for i := range expected {
		assert.Equal(t, expected[i].ID, actual[i].ID, "task[%d].ID mismatch", i)
		assert.Equal(t, expected[i].Text, actual[i].Text, "task[%d].Text mismatch", i)
		assert.Equal(t, expected[i].Status, actual[i].Status, "task[%d].Status mismatch", i)
	}
}

// AssertCounts asserts how many tasks sit in each column.
func AssertCounts(t *testing.T, tasks []board.Task, todo, progress, done int) {
	t.Helper()

	got := map[board.Status]int{}
	for _, task := range tasks {
		got[task.Status]++
	}
	assert.Equal(t, todo, got[board.StatusTodo], "todo count mismatch")
	assert.Equal(t, progress, got[board.StatusProgress], "progress count mismatch")
	assert.Equal(t, done, got[board.StatusDone], "done count mismatch")
}

// AssertColumnOrder asserts the ids of the cards in one column, top to bottom.
func AssertColumnOrder(t *testing.T, tasks []board.Task, status board.Status, ids ...string) {
	t.Helper()

	got := []string{}
	for _, task := range tasks {
		if task.Status == status {
			got = append(got, task.ID)
		}
	}
	if ids == nil {
		ids = []string{}
	}
	assert.Equal(t, ids, got, "%s column order mismatch", status)
}
