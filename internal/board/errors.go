package board

import "errors"

var (
	// ErrEmptyText is returned when task text is empty after trimming.
	ErrEmptyText = errors.New("task text is empty")
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidStatus is returned for statuses outside todo/progress/done.
	ErrInvalidStatus = errors.New("invalid status")
)

// IsValidation reports whether err is a user input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyText) || errors.Is(err, ErrInvalidStatus)
}

// IsNotFound reports whether err refers to a missing task.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
