// Package board holds the task board's domain model: tasks, their status
// columns and the in-memory Store that is the single source of truth for a
// session.
package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the column a task lives in.
type Status string

// Status values, in column order.
const (
	StatusTodo     Status = "todo"
	StatusProgress Status = "progress"
	StatusDone     Status = "done"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusProgress, StatusDone}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Title returns the column heading for the status.
func (s Status) Title() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Index returns the column position of the status, or -1.
func (s Status) Index() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Task is a single card on the board.
type Task struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Status Status `json:"status"`
}

// idPrefix is prepended to the counter value to form task ids.
const idPrefix = "task-"

// FormatID returns the task id for counter value n.
func FormatID(n int) string {
	return idPrefix + strconv.Itoa(n)
}

// ParseID extracts the numeric suffix from a task id.
// ok is false for ids that were not issued by FormatID.
func ParseID(id string) (n int, ok bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(idPrefix):])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// NextCounter returns the smallest counter value that cannot collide with any
// id in tasks.
func NextCounter(tasks []Task) int {
	next := 1
	for _, t := range tasks {
		if n, ok := ParseID(t.ID); ok && n >= next {
			next = n + 1
		}
	}
	return next
}

// normalizeText trims surrounding whitespace and rejects empty text.
func normalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	return trimmed, nil
}
