package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.Restore(Defaults(), DefaultCounter)
	return s
}

func TestStore_AddAssignsIncreasingIDs(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	before := s.Len()

	task, err := s.Add("  Write tests  ", StatusTodo)
	require.NoError(t, err)

	assert.Equal(t, before+1, s.Len())
	assert.Equal(t, "task-5", task.ID)
	assert.Equal(t, "Write tests", task.Text, "text should be stored trimmed")
	assert.Equal(t, StatusTodo, task.Status)

	next, err := s.Add("Ship it", StatusDone)
	require.NoError(t, err)

	n1, ok := ParseID(task.ID)
	require.True(t, ok)
	n2, ok := ParseID(next.ID)
	require.True(t, ok)
	assert.Greater(t, n2, n1)
	for _, existing := range Defaults() {
		n, _ := ParseID(existing.ID)
		assert.Greater(t, n1, n)
	}
}

func TestStore_AddRejectsEmptyText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tabs and newlines", "\t\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := seededStore(t)
			before := s.Tasks()

			_, err := s.Add(tt.text, StatusTodo)
			require.ErrorIs(t, err, ErrEmptyText)
			assert.True(t, IsValidation(err))
			assert.Equal(t, before, s.Tasks())
			assert.Equal(t, DefaultCounter, s.Counter(), "rejected add must not consume an id")
		})
	}
}

func TestStore_AddRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	s := NewStore()
	_, err := s.Add("text", Status("later"))
	require.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, 0, s.Len())
}

func TestStore_UpdateChangesOnlyText(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	require.NoError(t, s.Update("task-3", " Implement OAuth "))

	got, ok := s.Get("task-3")
	require.True(t, ok)
	assert.Equal(t, Task{ID: "task-3", Text: "Implement OAuth", Status: StatusProgress}, got)
}

func TestStore_UpdateErrors(t *testing.T) {
	t.Parallel()

	s := seededStore(t)

	err := s.Update("task-99", "text")
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	err = s.Update("task-1", "  ")
	require.ErrorIs(t, err, ErrEmptyText)

	got, _ := s.Get("task-1")
	assert.Equal(t, "Design homepage mockup", got.Text)
}

func TestStore_MoveKeepsPosition(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	require.NoError(t, s.Move("task-2", StatusDone))

	tasks := s.Tasks()
	assert.Equal(t, "task-2", tasks[1].ID, "move must not reorder the collection")
	assert.Equal(t, StatusDone, tasks[1].Status)
	assert.Equal(t, 1, s.CountByStatus(StatusTodo))
	assert.Equal(t, 2, s.CountByStatus(StatusDone))
}

func TestStore_MoveUnknownIsNoop(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	before := s.Tasks()

	err := s.Move("task-42", StatusDone)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, before, s.Tasks())
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	require.NoError(t, s.Remove("task-4"))

	_, ok := s.Get("task-4")
	assert.False(t, ok)
	assert.Equal(t, 3, s.Len())

	assert.ErrorIs(t, s.Remove("task-4"), ErrNotFound)
	assert.Equal(t, 3, s.Len())
}

func TestStore_RemoveDoesNotAliasSnapshots(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	snapshot := s.Tasks()
	require.NoError(t, s.Remove("task-1"))

	assert.Equal(t, "task-1", snapshot[0].ID)
	assert.Len(t, snapshot, 4)
}

func TestStore_ClearKeepsCounter(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	s.Clear()
	assert.Equal(t, 0, s.Len())

	task, err := s.Add("after clear", StatusTodo)
	require.NoError(t, err)
	assert.Equal(t, "task-5", task.ID, "ids must never be reused after clear")
}

func TestStore_CountsSumToTotal(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	_, _ = s.Add("a", StatusProgress)
	_, _ = s.Add("b", StatusDone)
	require.NoError(t, s.Move("task-1", StatusDone))
	require.NoError(t, s.Remove("task-3"))

	sum := 0
	for _, st := range Statuses {
		sum += s.CountByStatus(st)
	}
	assert.Equal(t, s.Len(), sum)
}

func TestStore_RestoreRaisesLowCounter(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Restore([]Task{
		{ID: "task-1", Text: "a", Status: StatusTodo},
		{ID: "task-7", Text: "b", Status: StatusDone},
	}, 3)

	assert.Equal(t, 8, s.Counter())

	task, err := s.Add("c", StatusTodo)
	require.NoError(t, err)
	assert.Equal(t, "task-8", task.ID)
}

func TestStore_RestoreKeepsHigherCounter(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Restore([]Task{{ID: "task-1", Text: "a", Status: StatusTodo}}, 12)
	assert.Equal(t, 12, s.Counter())
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.Counter())
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"todo", StatusTodo, false},
		{" Progress ", StatusProgress, false},
		{"DONE", StatusDone, false},
		{"doing", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidStatus, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id     string
		want   int
		wantOK bool
	}{
		{"task-1", 1, true},
		{"task-120", 120, true},
		{"task-0", 0, false},
		{"task-x", 0, false},
		{"card-3", 0, false},
	}

	for _, tt := range tests {
		n, ok := ParseID(tt.id)
		assert.Equal(t, tt.wantOK, ok, tt.id)
		assert.Equal(t, tt.want, n, tt.id)
	}
}

func TestNextCounter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NextCounter(nil))
	assert.Equal(t, DefaultCounter, NextCounter(Defaults()))
	assert.Equal(t, 10, NextCounter([]Task{{ID: "task-9"}, {ID: "custom"}, {ID: "task-2"}}))
}

func TestStatus_TitleAndIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "To Do", StatusTodo.Title())
	assert.Equal(t, "In Progress", StatusProgress.Title())
	assert.Equal(t, "Done", StatusDone.Title())
	assert.Equal(t, 2, StatusDone.Index())
	assert.Equal(t, -1, Status("x").Index())
}
