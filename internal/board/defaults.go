package board

// DefaultCounter is the counter value that follows the seeded tasks.
const DefaultCounter = 5

// Defaults returns the tasks a brand new board starts with.
func Defaults() []Task {
	return []Task{
		{ID: "task-1", Text: "Design homepage mockup", Status: StatusTodo},
		{ID: "task-2", Text: "Review pull requests", Status: StatusTodo},
		{ID: "task-3", Text: "Implement user authentication", Status: StatusProgress},
		{ID: "task-4", Text: "Setup project repository", Status: StatusDone},
	}
}
