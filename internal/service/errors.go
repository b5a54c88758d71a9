package service

import (
	"errors"
	"fmt"
)

// ErrConflict marks an edit that contradicts the stored template. Errors
// wrapping it are returned to callers unchanged and never retried.
var ErrConflict = errors.New("template conflict")

var (
	ErrTemplateExists      = fmt.Errorf("%w: template already exists", ErrConflict)
	ErrQuestionNotFound    = fmt.Errorf("%w: question not in template", ErrConflict)
	ErrDuplicateQuestion   = fmt.Errorf("%w: question listed more than once", ErrConflict)
	ErrDuplicateOption     = fmt.Errorf("%w: option listed more than once", ErrConflict)
	ErrOptionNameExhausted = fmt.Errorf("%w: no free option name", ErrConflict)
)

var ErrInvalidTemplate = errors.New("invalid template")

// OperationError wraps an unclassified failure of a versioning operation with
// the template it was working on.
type OperationError struct {
	Op      string
	Name    string
	Version int
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s@%d: %v", e.Op, e.Name, e.Version, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
