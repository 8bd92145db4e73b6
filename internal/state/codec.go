package state

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/thruflo/taskboard/internal/board"
)

// wireTask mirrors board.Task with pointer fields so missing keys can be told
// apart from empty values.
type wireTask struct {
	ID     *string `json:"id"`
	Text   *string `json:"text"`
	Status *string `json:"status"`
}

// Encode serializes tasks and counter into backend values.
func Encode(tasks []board.Task, counter int) (map[string]string, error) {
	if tasks == nil {
		tasks = []board.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return map[string]string{
		KeyTasks:   string(data),
		KeyCounter: strconv.Itoa(counter),
	}, nil
}

// DecodeTasks parses the tasks value, checking that it is an array of objects
// with an id, text and known status and that ids are unique.
func DecodeTasks(raw string) ([]board.Task, error) {
	var wire []wireTask
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tasks := make([]board.Task, 0, len(wire))
	seen := make(map[string]bool, len(wire))
	for i, w := range wire {
		if w.ID == nil || w.Text == nil || w.Status == nil {
			return nil, fmt.Errorf("%w: task %d is missing id, text or status", ErrMalformed, i)
		}
		if *w.ID == "" {
			return nil, fmt.Errorf("%w: task %d has an empty id", ErrMalformed, i)
		}
		if seen[*w.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformed, *w.ID)
		}
		if strings.TrimSpace(*w.Text) == "" {
			return nil, fmt.Errorf("%w: task %q has empty text", ErrMalformed, *w.ID)
		}
		status := board.Status(*w.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: task %q has unknown status %q", ErrMalformed, *w.ID, *w.Status)
		}
		seen[*w.ID] = true
		tasks = append(tasks, board.Task{ID: *w.ID, Text: *w.Text, Status: status})
	}
	return tasks, nil
}

// ParseCounter interprets the saved counter.
// Missing, non-numeric or non-positive values fall back to one past the
// highest task id; a counter that would re-issue an existing id is raised.
// valid is false when the saved value could not be used as-is.
func ParseCounter(raw string, present bool, tasks []board.Task) (counter int, valid bool) {
	floor := board.NextCounter(tasks)
	if !present {
		return floor, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return floor, false
	}
	if n < floor {
		return floor, false
	}
	return n, true
}
