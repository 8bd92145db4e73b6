package board

import (
	"fmt"
	"sync"
)

// Store is the in-memory ordered task collection plus the id counter.
// Insertion order is creation order; moving a task changes its status only.
type Store struct {
	mu      sync.RWMutex
	tasks   []Task
	counter int
}

// NewStore creates an empty Store whose first id will be task-1.
func NewStore() *Store {
	return &Store{counter: 1}
}

// Reset empties the store and rewinds the counter. Only used when starting a
// fresh session; Clear keeps the counter.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.counter = 1
}

// Restore replaces the store contents with a loaded snapshot.
// The counter is raised if it would re-issue an existing id.
func (s *Store) Restore(tasks []Task, counter int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append([]Task(nil), tasks...)
	if floor := NextCounter(tasks); counter < floor {
		counter = floor
	}
	s.counter = counter
}

// Add appends a new task and returns it.
func (s *Store) Add(text string, status Status) (Task, error) {
	text, err := normalizeText(text)
	if err != nil {
		return Task{}, err
	}
	if !status.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := Task{ID: FormatID(s.counter), Text: text, Status: status}
	s.counter++
	s.tasks = append(s.tasks, task)
	return task, nil
}

// Update replaces the text of an existing task.
func (s *Store) Update(id, text string) error {
	text, err := normalizeText(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks[i].Text = text
	return nil
}

// Move sets the status of an existing task.
// Callers treat ErrNotFound as a no-op.
func (s *Store) Move(id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks[i].Status = status
	return nil
}

// Remove deletes a task from the collection.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	return nil
}

// Clear removes every task. The counter is kept so ids are never reused.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i], true
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Task(nil), s.tasks...)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Counter returns the value the next id will be issued from.
func (s *Store) Counter() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter
}

// Snapshot returns the tasks and counter read under one lock.
func (s *Store) Snapshot() ([]Task, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Task(nil), s.tasks...), s.counter
}

// CountByStatus returns the number of tasks in the given column.
func (s *Store) CountByStatus(status Status) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
