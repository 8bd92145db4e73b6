// Package state persists the task board between sessions. Storage is the only
// component that touches durable storage; it serializes the whole collection
// plus the id counter under two keys of a pluggable key-value Backend.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/thruflo/taskboard/internal/board"
	"github.com/thruflo/taskboard/internal/logging"
)

// Storage keys.
const (
	KeyTasks   = "tasks"
	KeyCounter = "taskCounter"
)

var (
	// ErrAbsent is returned by Load when no board has been saved yet.
	ErrAbsent = errors.New("no saved board")
	// ErrMalformed is returned by Load when saved data fails shape validation.
	ErrMalformed = errors.New("malformed saved board")
)

// StorageError wraps a backend failure with the operation and key involved.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError checks if an error is a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Snapshot is a persisted board: the tasks in order and the id counter.
type Snapshot struct {
	Tasks   []board.Task
	Counter int
}

// Storage saves and loads board snapshots.
type Storage struct {
	backend Backend
	log     *logging.Logger

	mu       sync.Mutex
	degraded bool
}

// NewStorage creates a Storage over the given backend.
// A nil logger uses the package-level default.
func NewStorage(backend Backend, log *logging.Logger) *Storage {
	if log == nil {
		log = logging.Default()
	}
	return &Storage{
		backend: backend,
		log:     log.With("component", "storage"),
	}
}

// Save writes the full collection and counter.
// A failure is logged and puts the storage into degraded mode; callers keep
// working in memory.
func (s *Storage) Save(ctx context.Context, tasks []board.Task, counter int) error {
	values, err := Encode(tasks, counter)
	if err != nil {
		return s.fail(&StorageError{Op: "encode", Err: err})
	}

	if err := s.backend.Write(ctx, values); err != nil {
		return s.fail(&StorageError{Op: "write", Err: err})
	}

	s.mu.Lock()
	if s.degraded {
		s.log.Info("storage recovered")
	}
	s.degraded = false
	s.mu.Unlock()
	return nil
}

// Load reads the saved board.
// It returns ErrAbsent when nothing has been saved and an error wrapping
// ErrMalformed when the saved tasks fail validation.
func (s *Storage) Load(ctx context.Context) (Snapshot, error) {
	rawTasks, ok, err := s.backend.Read(ctx, KeyTasks)
	if err != nil {
		return Snapshot{}, s.fail(&StorageError{Op: "read", Key: KeyTasks, Err: err})
	}
	if !ok {
		return Snapshot{}, ErrAbsent
	}

	tasks, err := DecodeTasks(rawTasks)
	if err != nil {
		return Snapshot{}, err
	}

	rawCounter, ok, err := s.backend.Read(ctx, KeyCounter)
	if err != nil {
		s.log.Warn("failed to read counter, deriving from tasks", "error", err)
		ok = false
	}

	counter, valid := ParseCounter(rawCounter, ok, tasks)
	if !valid {
		s.log.Warn("saved counter unusable, derived from task ids",
			"raw", rawCounter, "counter", counter)
	}

	return Snapshot{Tasks: tasks, Counter: counter}, nil
}

// Degraded reports whether the last write failed.
func (s *Storage) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Close releases the backend.
func (s *Storage) Close() error {
	return s.backend.Close()
}

func (s *Storage) fail(err *StorageError) error {
	s.mu.Lock()
	s.degraded = true
	s.mu.Unlock()
	s.log.Warn("storage unavailable, continuing in memory", "error", err)
	return err
}
