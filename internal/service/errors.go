package service

import (
	"errors"
	"strings"

	"taskapi/internal/model"
)

var (
	// ErrInvalidInput covers malformed ids, missing bodies, unsupported sort fields and inverted date ranges.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means no task has the requested id.
	ErrNotFound = errors.New("task not found")
)

// ValidationError carries every domain rule the candidate task broke.
type ValidationError struct {
	Violations []model.Violation
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Messages()
}

// Messages joins the violation messages with "; ".
func (e *ValidationError) Messages() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}
