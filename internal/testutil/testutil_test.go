package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/taskboard/internal/board"
	"github.com/thruflo/taskboard/internal/config"
)

func TestSampleTasks(t *testing.T) {
	t.Parallel()

	tasks := SampleTasks()
	require.Len(t, tasks, 4)
	AssertCounts(t, tasks, 2, 1, 1)
	assert.Equal(t, SampleCounter, board.NextCounter(tasks))

	// Each call returns a new slice.
	tasks[0].Text = "changed"
	assert.Equal(t, "Write release notes", SampleTasks()[0].Text)
}

func TestSetupTestDir(t *testing.T) {
	t.Parallel()

	dir := SetupTestDir(t)
	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, config.ValidateConfig(cfg))
}

func TestNewRedis(t *testing.T) {
	t.Parallel()

	mr, url := NewRedis(t)
	assert.Equal(t, "redis://"+mr.Addr(), url)
	require.NoError(t, mr.Set("k", "v"))
}

func TestFindProjectRoot(t *testing.T) {
	t.Parallel()

	root := FindProjectRoot(t)
	require.NotEmpty(t, root)
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	assert.NoError(t, err)
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	data := MustMarshalJSON(t, SampleTasks())
	var got []board.Task
	MustUnmarshalJSON(t, data, &got)
	AssertTasksEqual(t, SampleTasks(), got)
}

func TestWriteTestFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	WriteTestFile(t, dir, "a/b/c.txt", []byte("hello"))

	data, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestAssertColumnOrder(t *testing.T) {
	t.Parallel()

	tasks := SampleTasks()
	AssertColumnOrder(t, tasks, board.StatusTodo, "task-1", "task-3")
	AssertColumnOrder(t, tasks, board.StatusDone, "task-4")
	AssertColumnOrder(t, nil, board.StatusProgress)
}
