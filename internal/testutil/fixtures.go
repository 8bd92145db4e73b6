package testutil

import "github.com/thruflo/taskboard/internal/board"

// SampleConfigYAML is a config.yaml that keeps the board in memory.
const SampleConfigYAML = `storage:
  driver: memory
server:
  host: 127.0.0.1
  port: 0
  rate_limit: 600
ui:
  delete_delay: 0s
log:
  level: debug
`

// SampleTasks returns a board with cards in every column. Each call returns
// a new slice.
func SampleTasks() []board.Task {
	return []board.Task{
		{ID: "task-1", Text: "Write release notes", Status: board.StatusTodo},
		{ID: "task-2", Text: "Fix flaky drag test", Status: board.StatusProgress},
		{ID: "task-3", Text: "Triage inbox", Status: board.StatusTodo},
		{ID: "task-4", Text: "Ship v1", Status: board.StatusDone},
	}
}

// SampleCounter is the id counter that goes with SampleTasks.
const SampleCounter = 5
